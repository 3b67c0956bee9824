package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/domain"
)

const (
	eventTypeSessionTerminated = "security.session.terminated"
)

// CreateSession registers a new authenticated session: it derives the device
// fingerprint, enforces the policy's concurrent-session cap with FIFO
// eviction, persists the session and runs anomaly detection. Anomaly
// signals never block creation.
//
// The count/evict/create sequence is serialized per user so two concurrent
// logins cannot both pass the cap check.
func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (CreateSessionResult, error) {
	if req.UserID == uuid.Nil {
		return CreateSessionResult{}, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Token) == "" {
		return CreateSessionResult{}, fmt.Errorf("%w: session token is required", domain.ErrInvalidInput)
	}

	now := s.nowFn()
	info := domain.ParseUserAgent(req.UserAgent)
	session := domain.UserSession{
		UserID:            req.UserID,
		Token:             req.Token,
		IPAddress:         req.IPAddress,
		UserAgent:         req.UserAgent,
		DeviceFingerprint: domain.DeviceFingerprint(req.IPAddress, req.UserAgent),
		DeviceType:        info.DeviceType,
		Browser:           info.Browser,
		OS:                info.OS,
		Location:          s.geo.Resolve(ctx, req.IPAddress),
		CreatedAt:         now,
		LastActivityAt:    now,
		ExpiresAt:         now.Add(s.sessionTTL(req.TTL)),
		IsActive:          true,
	}

	lock := s.userLock(req.UserID)
	lock.Lock()
	evictedID, err := s.evictIfAtCap(ctx, req.UserID, now)
	if err != nil {
		lock.Unlock()
		return CreateSessionResult{}, err
	}
	created, err := s.sessions.Create(ctx, session)
	lock.Unlock()
	if err != nil {
		return CreateSessionResult{}, fmt.Errorf("create session: %w", err)
	}

	// Detection runs inline (its findings are part of the result), but any
	// failure is swallowed: a broken detector must not break login.
	signals := s.DetectSessionAnomalies(ctx, created)
	if len(signals) > 0 {
		go s.publishSessionAnomaly(created, signals)
	}

	return CreateSessionResult{
		Session:          CreatedSession{SessionItem: toSessionItem(created), Token: created.Token},
		EvictedSessionID: evictedID,
		Anomalies:        signals,
	}, nil
}

func (s *Service) sessionTTL(override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	return s.cfg.SessionTTL
}

// evictIfAtCap terminates the oldest active session when the resolved policy
// caps concurrent sessions and the user is at or above the cap. Eviction is
// termination, never deletion.
func (s *Service) evictIfAtCap(ctx context.Context, userID uuid.UUID, now time.Time) (*uuid.UUID, error) {
	policy, _, err := s.resolveForUser(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	if policy == nil || policy.MaxConcurrentSessions == nil {
		return nil, nil
	}

	count, err := s.sessions.CountActive(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("count active sessions: %w", err)
	}
	if count < *policy.MaxConcurrentSessions {
		return nil, nil
	}

	oldest, err := s.sessions.OldestActive(ctx, userID, now)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find oldest active session: %w", err)
	}
	if err := s.sessions.Terminate(ctx, oldest.SessionID, now); err != nil {
		return nil, fmt.Errorf("evict session: %w", err)
	}
	s.markTerminated(ctx, oldest.SessionID, oldest.ExpiresAt)

	appLogger().InfoContext(ctx, "session evicted for concurrency cap",
		"operation", "create_session",
		"outcome", "evicted",
		"user_id", userID,
		"evicted_session_id", oldest.SessionID,
		"max_concurrent_sessions", *policy.MaxConcurrentSessions,
	)
	evicted := oldest.SessionID
	return &evicted, nil
}

// ListActiveSessions returns the user's active, unexpired sessions ordered by
// last activity descending.
func (s *Service) ListActiveSessions(ctx context.Context, userID uuid.UUID) ([]SessionItem, error) {
	var sessions []domain.UserSession
	err := s.retryRead(ctx, "sessions_list_active", func() error {
		var fetchErr error
		sessions, fetchErr = s.sessions.ListActive(ctx, userID, s.nowFn())
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	items := make([]SessionItem, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, toSessionItem(session))
	}
	return items, nil
}

// TouchSession refreshes a session's last-activity timestamp.
func (s *Service) TouchSession(ctx context.Context, sessionID uuid.UUID) error {
	return s.sessions.TouchActivity(ctx, sessionID, s.nowFn())
}

// TerminateSession flips one session inactive and records who asked for it.
func (s *Service) TerminateSession(ctx context.Context, sessionID, actingUserID uuid.UUID) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}

	now := s.nowFn()
	if err := s.sessions.Terminate(ctx, sessionID, now); err != nil {
		return err
	}
	s.markTerminated(ctx, sessionID, session.ExpiresAt)
	s.enqueueTerminationAudit(ctx, session, actingUserID, now, false)
	return nil
}

// TerminateAllSessions bulk-terminates a user's active sessions, optionally
// sparing one (the caller's current session).
func (s *Service) TerminateAllSessions(ctx context.Context, userID uuid.UUID, exceptSessionID *uuid.UUID) (int64, error) {
	now := s.nowFn()
	active, err := s.sessions.ListActive(ctx, userID, now)
	if err != nil {
		return 0, err
	}

	terminated, err := s.sessions.TerminateAllByUser(ctx, userID, now, exceptSessionID)
	if err != nil {
		return 0, err
	}

	for _, session := range active {
		if exceptSessionID != nil && session.SessionID == *exceptSessionID {
			continue
		}
		s.markTerminated(ctx, session.SessionID, session.ExpiresAt)
		s.enqueueTerminationAudit(ctx, session, userID, now, true)
	}
	return terminated, nil
}

// SweepExpiredSessions terminates every active session past its expiry. The
// operation is an idempotent bulk conditional update, safe to run repeatedly
// and concurrently with session traffic.
func (s *Service) SweepExpiredSessions(ctx context.Context) (int64, error) {
	swept, err := s.sessions.SweepExpired(ctx, s.nowFn())
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		appLogger().InfoContext(ctx, "expired sessions swept",
			"operation", "sweep_expired_sessions",
			"outcome", "success",
			"swept_count", swept,
		)
	}
	return swept, nil
}

// markTerminated sets the fast-path termination marker. Best-effort: the
// database row is the source of truth.
func (s *Service) markTerminated(ctx context.Context, sessionID uuid.UUID, expiresAt time.Time) {
	if s.terminations == nil {
		return
	}
	if err := s.terminations.MarkTerminated(ctx, sessionID, expiresAt); err != nil {
		appLogger().WarnContext(ctx, "termination marker write failed",
			"operation", "mark_terminated",
			"outcome", "failure",
			"session_id", sessionID,
			"error", err,
		)
	}
}

func (s *Service) enqueueTerminationAudit(ctx context.Context, session domain.UserSession, actingUserID uuid.UUID, at time.Time, bulk bool) {
	payload, _ := json.Marshal(map[string]any{
		"session_id":     session.SessionID,
		"user_id":        session.UserID,
		"acting_user_id": actingUserID,
		"terminated_at":  at,
		"bulk":           bulk,
	})
	if err := s.alertOutbox.Enqueue(ctx, eventTypeSessionTerminated, payload, at); err != nil {
		appLogger().WarnContext(ctx, "termination audit enqueue failed",
			"operation", "terminate_session",
			"outcome", "failure",
			"session_id", session.SessionID,
			"error", err,
		)
	}
}
