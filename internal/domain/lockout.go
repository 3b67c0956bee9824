package domain

import (
	"time"

	"github.com/google/uuid"
)

// FailedAttemptWindow is how far back failed logins count toward lockout.
// It is a rolling window measured from "now" on every check, not a calendar bucket.
const FailedAttemptWindow = 24 * time.Hour

// FailedLoginAttempt is an append-only record of one failed credential check.
type FailedLoginAttempt struct {
	ID          int64
	UserID      uuid.UUID
	AttemptedAt time.Time
}

// AccountLockout records one lockout episode. Users accumulate rows over time;
// the account is locked whenever any row has LockedUntil in the future.
type AccountLockout struct {
	LockoutID   uuid.UUID
	UserID      uuid.UUID
	LockedUntil time.Time
	Reason      string
	CreatedAt   time.Time
}
