package domain

import (
	"time"

	"github.com/google/uuid"
)

// PolicyScope identifies what a password policy is bound to.
type PolicyScope string

const (
	PolicyScopeSystem       PolicyScope = "system"
	PolicyScopeOrganization PolicyScope = "organization"
	PolicyScopeRole         PolicyScope = "role"
)

// PasswordPolicy is the resolved rule set applied to password validation,
// lockout decisions and session caps. At most one active policy exists per
// scope key; the system-scope policy is the fallback for every user.
type PasswordPolicy struct {
	PolicyID            uuid.UUID
	Name                string
	Scope               PolicyScope
	OrganizationID      *uuid.UUID
	RoleID              *uuid.UUID
	MinLength           int
	RequireUppercase    bool
	RequireLowercase    bool
	RequireNumbers      bool
	RequireSpecialChars bool
	// PreventReuse is the number of most recent password hashes a new
	// password may not match. Zero disables the reuse check.
	PreventReuse int
	// MaxAgeDays forces rotation; nil means passwords never expire.
	MaxAgeDays *int
	// LockoutThreshold is the failed-attempt count (rolling 24h) that locks
	// the account; nil disables lockout for users under this policy.
	LockoutThreshold *int
	// LockoutDurationMinutes is how long a triggered lockout holds.
	LockoutDurationMinutes *int
	MaxConcurrentSessions  *int
	IsActive               bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// SecurityProfile is the slice of user identity this engine needs for policy
// resolution: role ids in the order they were attached, plus the organization.
type SecurityProfile struct {
	UserID         uuid.UUID
	OrganizationID *uuid.UUID
	RoleIDs        []uuid.UUID
	IsActive       bool
	CreatedAt      time.Time
}
