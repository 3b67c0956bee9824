package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/domain"
)

// PolicyCache keeps resolved policies hot for the login path. A nil result
// with nil error is a miss; cache failures must degrade to the store, never
// fail resolution.
type PolicyCache interface {
	Get(ctx context.Context, scopeKey string) (*domain.PasswordPolicy, error)
	Put(ctx context.Context, scopeKey string, policy domain.PasswordPolicy, ttl time.Duration) error
	Invalidate(ctx context.Context, scopeKey string) error
}

// SessionTerminationStore keeps short-TTL markers for terminated sessions so
// collaborating services can reject their tokens without a database round trip.
type SessionTerminationStore interface {
	MarkTerminated(ctx context.Context, sessionID uuid.UUID, expiresAt time.Time) error
	IsTerminated(ctx context.Context, sessionID uuid.UUID) (bool, error)
}
