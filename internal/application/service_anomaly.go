package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/domain"
)

const (
	eventTypeSessionAnomalyAlert  = "security.alert.session_anomaly"
	eventTypeSessionAnomalyNotify = "security.notify.session_anomaly"
)

// DetectSessionAnomalies compares a newly created session against the user's
// recent session history and returns every signal that fired. The rules are
// independent: more suspicious evidence always yields at least as many
// signals. Detection failures degrade to no signals, never an error.
func (s *Service) DetectSessionAnomalies(ctx context.Context, session domain.UserSession) []domain.AnomalySignal {
	since := session.CreatedAt.Add(-s.cfg.AnomalyHistoryWindow)
	recent, err := s.sessions.ListRecent(ctx, session.UserID, since, session.SessionID, s.cfg.AnomalyHistoryLimit)
	if err != nil {
		appLogger().WarnContext(ctx, "anomaly detection skipped: session history unavailable",
			"operation", "detect_session_anomalies",
			"outcome", "failure",
			"user_id", session.UserID,
			"error", err,
		)
		return nil
	}
	if len(recent) == 0 {
		// First session in the window: nothing to compare against.
		return nil
	}

	var signals []domain.AnomalySignal

	knownFingerprint := false
	knownLocation := false
	for _, prior := range recent {
		if prior.DeviceFingerprint == session.DeviceFingerprint {
			knownFingerprint = true
		}
		if prior.Location != "" && prior.Location == session.Location {
			knownLocation = true
		}
	}
	if !knownFingerprint {
		signals = append(signals, domain.AnomalyNewDevice)
	}
	if session.Location != "" && !knownLocation {
		signals = append(signals, domain.AnomalyNewLocation)
	}

	// recent is newest-first, so index 0 is the most recent prior session.
	latest := recent[0]
	if latest.Location != "" && latest.Location != session.Location &&
		session.CreatedAt.Sub(latest.CreatedAt) < time.Hour {
		signals = append(signals, domain.AnomalyRapidLocationChange)
	}

	if s.countOtherDeviceSessions(ctx, session) >= 2 {
		signals = append(signals, domain.AnomalyMultipleConcurrentSessions)
	}

	return signals
}

func (s *Service) countOtherDeviceSessions(ctx context.Context, session domain.UserSession) int {
	active, err := s.sessions.ListActive(ctx, session.UserID, s.nowFn())
	if err != nil {
		appLogger().WarnContext(ctx, "concurrent-session check skipped",
			"operation", "detect_session_anomalies",
			"outcome", "failure",
			"user_id", session.UserID,
			"error", err,
		)
		return 0
	}
	count := 0
	for _, other := range active {
		if other.SessionID == session.SessionID {
			continue
		}
		if other.DeviceFingerprint != session.DeviceFingerprint {
			count++
		}
	}
	return count
}

// publishSessionAnomaly bundles the fired signals into one MEDIUM alert plus
// one user notification and enqueues both. It runs detached from the login
// flow with its own bounded context: emission failures are logged, never
// propagated.
func (s *Service) publishSessionAnomaly(session domain.UserSession, signals []domain.AnomalySignal) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.AlertEmitTimeout)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			appLogger().ErrorContext(ctx, "panic during anomaly alert emission",
				"operation", "publish_session_anomaly",
				"outcome", "failure",
				"panic", rec,
			)
		}
	}()

	now := s.nowFn()
	alert := domain.SecurityAlert{
		AlertID:     uuid.New(),
		UserID:      session.UserID,
		Type:        domain.AlertTypeSessionAnomaly,
		Severity:    domain.SeverityMedium,
		Description: "unusual session activity detected",
		Details: map[string]any{
			"signals":            signals,
			"session_id":         session.SessionID,
			"ip_address":         session.IPAddress,
			"location":           session.Location,
			"device_fingerprint": session.DeviceFingerprint,
			"created_at":         session.CreatedAt,
		},
		CreatedAt: now,
	}

	alertPayload, _ := json.Marshal(alert)
	if err := s.alertOutbox.Enqueue(ctx, eventTypeSessionAnomalyAlert, alertPayload, now); err != nil {
		appLogger().ErrorContext(ctx, "session anomaly alert enqueue failed",
			"operation", "publish_session_anomaly",
			"outcome", "failure",
			"user_id", session.UserID,
			"error", err,
		)
		return
	}

	notifyPayload, _ := json.Marshal(map[string]any{
		"user_id":    session.UserID,
		"alert_id":   alert.AlertID,
		"signals":    signals,
		"location":   session.Location,
		"created_at": session.CreatedAt,
	})
	if err := s.alertOutbox.Enqueue(ctx, eventTypeSessionAnomalyNotify, notifyPayload, now); err != nil {
		appLogger().ErrorContext(ctx, "session anomaly notification enqueue failed",
			"operation", "publish_session_anomaly",
			"outcome", "failure",
			"user_id", session.UserID,
			"error", err,
		)
	}
}
