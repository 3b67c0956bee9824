package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/domain"
)

// PolicyRepository persists password policies. Deletion is intentionally
// absent: policies are deactivated, never removed, so historical context
// behind lockouts and audits stays resolvable.
type PolicyRepository interface {
	Create(ctx context.Context, policy domain.PasswordPolicy) (domain.PasswordPolicy, error)
	Update(ctx context.Context, policy domain.PasswordPolicy) (domain.PasswordPolicy, error)
	GetByID(ctx context.Context, policyID uuid.UUID) (domain.PasswordPolicy, error)
	FindActiveByRole(ctx context.Context, roleID uuid.UUID) (domain.PasswordPolicy, error)
	FindActiveByOrganization(ctx context.Context, organizationID uuid.UUID) (domain.PasswordPolicy, error)
	FindActiveSystem(ctx context.Context) (domain.PasswordPolicy, error)
}

// PasswordHistoryRepository reads the append-only password hash history.
// Writes happen in the credential-change flow outside this engine.
type PasswordHistoryRepository interface {
	// ListRecent returns up to limit entries, newest first.
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.PasswordHistoryEntry, error)
	// LatestChangedAt returns the newest entry's timestamp, or nil when the
	// user has no recorded history.
	LatestChangedAt(ctx context.Context, userID uuid.UUID) (*time.Time, error)
	// LatestChangedAtByUsers batches LatestChangedAt for compliance reporting.
	LatestChangedAtByUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]time.Time, error)
}

// LockoutRepository owns failed-attempt and lockout rows. No other component
// writes these tables.
type LockoutRepository interface {
	InsertFailedAttempt(ctx context.Context, userID uuid.UUID, attemptedAt time.Time) error
	CountFailedAttemptsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	// ClearFailedAttempts is the full reset on successful login, not a decrement.
	ClearFailedAttempts(ctx context.Context, userID uuid.UUID) error
	CreateLockout(ctx context.Context, lockout domain.AccountLockout) (domain.AccountLockout, error)
	// ActiveLockout returns the lockout with the latest LockedUntil still in
	// the future, or ErrNotFound when the account is not locked.
	ActiveLockout(ctx context.Context, userID uuid.UUID, now time.Time) (domain.AccountLockout, error)
}

// SessionRepository manages persistent session lifecycle. Sessions are never
// physically deleted; terminate and sweep only flip the active flag.
type SessionRepository interface {
	Create(ctx context.Context, session domain.UserSession) (domain.UserSession, error)
	GetByID(ctx context.Context, sessionID uuid.UUID) (domain.UserSession, error)
	// ListActive returns active, unexpired sessions ordered by last activity descending.
	ListActive(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.UserSession, error)
	// ListRecent returns sessions created since the given time, newest first,
	// excluding one session id (the one being evaluated), capped at limit.
	ListRecent(ctx context.Context, userID uuid.UUID, since time.Time, excludeID uuid.UUID, limit int) ([]domain.UserSession, error)
	CountActive(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)
	// OldestActive returns the active, unexpired session with the earliest
	// CreatedAt, for FIFO eviction under a concurrency cap.
	OldestActive(ctx context.Context, userID uuid.UUID, now time.Time) (domain.UserSession, error)
	TouchActivity(ctx context.Context, sessionID uuid.UUID, touchedAt time.Time) error
	Terminate(ctx context.Context, sessionID uuid.UUID, terminatedAt time.Time) error
	// TerminateAllByUser flips every active session except the optional keep
	// id, returning how many rows changed.
	TerminateAllByUser(ctx context.Context, userID uuid.UUID, terminatedAt time.Time, exceptID *uuid.UUID) (int64, error)
	// SweepExpired is an idempotent bulk conditional update: it terminates
	// every active session whose expiry has passed and reports the count.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// BaselineRepository persists behavioral baseline snapshots.
type BaselineRepository interface {
	Save(ctx context.Context, baseline domain.BehavioralBaseline) (domain.BehavioralBaseline, error)
	Latest(ctx context.Context, userID uuid.UUID) (domain.BehavioralBaseline, error)
}

// ActivityLogReader is the read-only view over the application's activity log.
type ActivityLogReader interface {
	// ListRange returns entries with from <= OccurredAt < to, oldest first.
	ListRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.ActivityEntry, error)
}

// UserDirectory exposes the identity attributes this engine needs: role ids in
// attach order and the organization. User lifecycle lives elsewhere.
type UserDirectory interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (domain.SecurityProfile, error)
	ListProfiles(ctx context.Context, limit, offset int) ([]domain.SecurityProfile, error)
	CountProfiles(ctx context.Context) (int64, error)
}

// OutboxAlert is durable alert-delivery state, including retry/error metadata.
type OutboxAlert struct {
	OutboxID       uuid.UUID
	EventType      string
	Payload        []byte
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	PublishedAt    *time.Time
	LastErrorAt    *time.Time
	ClaimToken     *string
	ClaimUntil     *time.Time
	DeadLetteredAt *time.Time
}

// AlertOutboxRepository controls the publish-retry workflow for security
// alerts and user notifications. Writing alerts through an outbox keeps
// emission fire-and-forget for the login path without losing records when the
// process dies before delivery.
type AlertOutboxRepository interface {
	Enqueue(ctx context.Context, eventType string, payload []byte, occurredAt time.Time) error
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxAlert, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
}
