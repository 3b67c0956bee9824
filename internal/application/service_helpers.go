package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/meridianhealth/account-security-service/internal/domain"
)

const serviceName = "Account-Security-Service"

func appLogger() *slog.Logger {
	return slog.Default().With(
		"service", serviceName,
		"module", "application",
		"layer", "application",
	)
}

// retryRead retries a read-path store call on transient unavailability with
// bounded linear backoff. Terminal outcomes (not-found, validation, lockout)
// and context cancellation are never retried.
func (s *Service) retryRead(ctx context.Context, operation string, fn func() error) error {
	var err error
	for attempt := 0; attempt < s.cfg.StoreRetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * s.cfg.StoreRetryBackoff):
			}
			appLogger().WarnContext(ctx, "retrying store read",
				"operation", operation,
				"outcome", "retry",
				"attempt", attempt+1,
			)
		}
		err = fn()
		if err == nil || !errors.Is(err, domain.ErrStoreUnavailable) {
			return err
		}
	}
	return err
}
