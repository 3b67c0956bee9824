package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/domain"
)

// ValidatePassword scores and validates a candidate against the resolved
// policy, including the historical-reuse check. A failing password is a typed
// result; only infrastructure problems return an error.
func (s *Service) ValidatePassword(ctx context.Context, req PasswordValidationRequest) (PasswordValidation, error) {
	if req.Password == "" {
		return PasswordValidation{IsValid: false, Errors: []string{"password is required"}, Score: 0}, nil
	}

	var policy *domain.PasswordPolicy
	if req.UserID != nil || req.PolicyID != nil {
		userID := uuid.Nil
		if req.UserID != nil {
			userID = *req.UserID
		}
		resolved, _, err := s.resolveForUser(ctx, userID, req.PolicyID)
		if err != nil {
			return PasswordValidation{}, err
		}
		policy = resolved
	}

	if policy == nil {
		check := domain.CheckPasswordFallback(req.Password)
		return PasswordValidation{IsValid: check.IsValid, Errors: checkErrors(check), Score: check.Score}, nil
	}

	reused := false
	if policy.PreventReuse > 0 && req.UserID != nil {
		var err error
		reused, err = s.passwordReused(ctx, *req.UserID, req.Password, policy.PreventReuse)
		if err != nil {
			return PasswordValidation{}, err
		}
	}

	check := domain.CheckPasswordAgainstPolicy(req.Password, *policy, reused)
	return PasswordValidation{IsValid: check.IsValid, Errors: checkErrors(check), Score: check.Score}, nil
}

// passwordReused compares the candidate against the newest preventReuse
// stored hashes. The comparison is delegated to the slow-hash collaborator,
// whose verify is timing-safe; a hash-comparison failure is terminal, never
// retried.
func (s *Service) passwordReused(ctx context.Context, userID uuid.UUID, candidate string, preventReuse int) (bool, error) {
	var entries []domain.PasswordHistoryEntry
	err := s.retryRead(ctx, "password_history_list", func() error {
		var fetchErr error
		entries, fetchErr = s.history.ListRecent(ctx, userID, preventReuse)
		return fetchErr
	})
	if err != nil {
		return false, fmt.Errorf("list password history: %w", err)
	}

	for _, entry := range entries {
		if s.hasher.Compare(entry.PasswordHash, candidate) == nil {
			return true, nil
		}
	}
	return false, nil
}

// IsPasswordExpired reports whether the user's password has outlived the
// resolved policy's max age. Users with no recorded history, or under a
// policy without max age, are never expired.
func (s *Service) IsPasswordExpired(ctx context.Context, userID uuid.UUID) (PasswordExpiry, error) {
	policy, _, err := s.resolveForUser(ctx, userID, nil)
	if err != nil {
		return PasswordExpiry{}, err
	}
	if policy == nil || policy.MaxAgeDays == nil {
		return PasswordExpiry{IsExpired: false}, nil
	}

	var changedAt *time.Time
	err = s.retryRead(ctx, "password_history_latest", func() error {
		var fetchErr error
		changedAt, fetchErr = s.history.LatestChangedAt(ctx, userID)
		return fetchErr
	})
	if err != nil {
		return PasswordExpiry{}, err
	}
	if changedAt == nil {
		return PasswordExpiry{IsExpired: false}, nil
	}

	expiresAt := changedAt.Add(time.Duration(*policy.MaxAgeDays) * 24 * time.Hour)
	return PasswordExpiry{
		IsExpired: s.nowFn().After(expiresAt),
		ChangedAt: changedAt,
		ExpiresAt: &expiresAt,
	}, nil
}

func checkErrors(check domain.PasswordCheck) []string {
	if check.Errors == nil {
		return []string{}
	}
	return check.Errors
}
