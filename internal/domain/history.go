package domain

import (
	"time"

	"github.com/google/uuid"
)

// PasswordHistoryEntry is one prior password hash for a user. Entries are
// immutable and append-only; reuse checks read them newest first.
type PasswordHistoryEntry struct {
	ID           int64
	UserID       uuid.UUID
	PasswordHash string
	CreatedAt    time.Time
}
