package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/domain"
)

// CheckLockout reports the account's lockout state. It never creates a
// lockout; remaining attempts are always evaluated against the currently
// resolved policy's threshold, even when earlier failures were recorded under
// a since-changed policy.
func (s *Service) CheckLockout(ctx context.Context, userID uuid.UUID) (LockoutStatus, error) {
	var lockout domain.AccountLockout
	err := s.retryRead(ctx, "lockout_active", func() error {
		var fetchErr error
		lockout, fetchErr = s.lockouts.ActiveLockout(ctx, userID, s.nowFn())
		return fetchErr
	})
	if err == nil {
		until := lockout.LockedUntil
		return LockoutStatus{IsLocked: true, LockedUntil: &until}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return LockoutStatus{}, err
	}

	policy, _, err := s.resolveForUser(ctx, userID, nil)
	if err != nil {
		return LockoutStatus{}, err
	}
	if policy == nil || policy.LockoutThreshold == nil {
		return LockoutStatus{IsLocked: false}, nil
	}

	var count int
	err = s.retryRead(ctx, "failed_attempts_count", func() error {
		var fetchErr error
		count, fetchErr = s.lockouts.CountFailedAttemptsSince(ctx, userID, s.nowFn().Add(-domain.FailedAttemptWindow))
		return fetchErr
	})
	if err != nil {
		return LockoutStatus{}, err
	}

	remaining := *policy.LockoutThreshold - count
	if remaining < 0 {
		remaining = 0
	}
	return LockoutStatus{IsLocked: false, RemainingAttempts: &remaining}, nil
}

// RecordFailedAttempt appends a failed attempt and, when the rolling-window
// count reaches the policy threshold, creates a lockout. The outcome tells
// the caller whether to clear the account-active flag; the engine never
// mutates user state itself.
//
// The append / count / create sequence is serialized per user so two
// concurrent failures cannot both pass the threshold check.
func (s *Service) RecordFailedAttempt(ctx context.Context, userID uuid.UUID) (FailureOutcome, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	now := s.nowFn()
	if err := s.lockouts.InsertFailedAttempt(ctx, userID, now); err != nil {
		return FailureOutcome{}, fmt.Errorf("insert failed attempt: %w", err)
	}

	policy, _, err := s.resolveForUser(ctx, userID, nil)
	if err != nil {
		return FailureOutcome{}, err
	}
	if policy == nil || policy.LockoutThreshold == nil {
		// No threshold configured: nothing beyond the append.
		return FailureOutcome{}, nil
	}

	count, err := s.lockouts.CountFailedAttemptsSince(ctx, userID, now.Add(-domain.FailedAttemptWindow))
	if err != nil {
		return FailureOutcome{}, fmt.Errorf("count failed attempts: %w", err)
	}
	outcome := FailureOutcome{FailureCount: count}
	if count < *policy.LockoutThreshold {
		return outcome, nil
	}

	duration := s.cfg.DefaultLockoutDuration
	if policy.LockoutDurationMinutes != nil {
		duration = time.Duration(*policy.LockoutDurationMinutes) * time.Minute
	}
	lockedUntil := now.Add(duration)
	created, err := s.lockouts.CreateLockout(ctx, domain.AccountLockout{
		UserID:      userID,
		LockedUntil: lockedUntil,
		Reason:      fmt.Sprintf("account locked after %d failed login attempts", count),
		CreatedAt:   now,
	})
	if err != nil {
		return FailureOutcome{}, fmt.Errorf("create lockout: %w", err)
	}

	appLogger().WarnContext(ctx, "account lockout triggered",
		"operation", "record_failed_attempt",
		"outcome", "locked",
		"user_id", userID,
		"failure_count", count,
		"locked_until", created.LockedUntil,
	)

	outcome.LockoutTriggered = true
	outcome.LockedUntil = &created.LockedUntil
	outcome.DeactivateAccount = true
	return outcome, nil
}

// RecordSuccessfulAttempt clears the user's failed-attempt rows entirely.
// The reset is full, not a decrement.
func (s *Service) RecordSuccessfulAttempt(ctx context.Context, userID uuid.UUID) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.lockouts.ClearFailedAttempts(ctx, userID); err != nil {
		return fmt.Errorf("clear failed attempts: %w", err)
	}
	return nil
}
