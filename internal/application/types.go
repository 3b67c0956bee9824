package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/domain"
)

type Config struct {
	// SessionTTL is the fixed session lifetime. Callers may override it per
	// session via CreateSessionRequest.TTL.
	SessionTTL time.Duration
	// DefaultLockoutDuration applies when a policy sets a threshold but no
	// explicit duration.
	DefaultLockoutDuration time.Duration
	PolicyCacheTTL         time.Duration
	StoreRetryAttempts     int
	StoreRetryBackoff      time.Duration
	// AnomalyHistoryWindow and AnomalyHistoryLimit bound the session history
	// consulted during anomaly detection (last 7 days, newest 10).
	AnomalyHistoryWindow time.Duration
	AnomalyHistoryLimit  int
	AlertEmitTimeout     time.Duration
}

// PolicyInput carries policy create/update fields from the caller.
type PolicyInput struct {
	Name                   string     `json:"name"`
	Scope                  string     `json:"scope"`
	OrganizationID         *uuid.UUID `json:"organization_id,omitempty"`
	RoleID                 *uuid.UUID `json:"role_id,omitempty"`
	MinLength              int        `json:"min_length"`
	RequireUppercase       bool       `json:"require_uppercase"`
	RequireLowercase       bool       `json:"require_lowercase"`
	RequireNumbers         bool       `json:"require_numbers"`
	RequireSpecialChars    bool       `json:"require_special_chars"`
	PreventReuse           int        `json:"prevent_reuse"`
	MaxAgeDays             *int       `json:"max_age_days,omitempty"`
	LockoutThreshold       *int       `json:"lockout_threshold,omitempty"`
	LockoutDurationMinutes *int       `json:"lockout_duration_minutes,omitempty"`
	MaxConcurrentSessions  *int       `json:"max_concurrent_sessions,omitempty"`
	IsActive               bool       `json:"is_active"`
}

// PolicyItem is the outward policy shape.
type PolicyItem struct {
	PolicyID               uuid.UUID  `json:"policy_id"`
	Name                   string     `json:"name"`
	Scope                  string     `json:"scope"`
	OrganizationID         *uuid.UUID `json:"organization_id,omitempty"`
	RoleID                 *uuid.UUID `json:"role_id,omitempty"`
	MinLength              int        `json:"min_length"`
	RequireUppercase       bool       `json:"require_uppercase"`
	RequireLowercase       bool       `json:"require_lowercase"`
	RequireNumbers         bool       `json:"require_numbers"`
	RequireSpecialChars    bool       `json:"require_special_chars"`
	PreventReuse           int        `json:"prevent_reuse"`
	MaxAgeDays             *int       `json:"max_age_days,omitempty"`
	LockoutThreshold       *int       `json:"lockout_threshold,omitempty"`
	LockoutDurationMinutes *int       `json:"lockout_duration_minutes,omitempty"`
	MaxConcurrentSessions  *int       `json:"max_concurrent_sessions,omitempty"`
	IsActive               bool       `json:"is_active"`
}

// ResolvedPolicy wraps the resolution outcome. Policy is nil in the defined
// degraded mode where no policy (not even system scope) is active.
type ResolvedPolicy struct {
	Policy *PolicyItem `json:"policy"`
	Source string      `json:"source"`
}

// Resolution sources, in precedence order.
const (
	PolicySourceExplicit     = "explicit"
	PolicySourceRole         = "role"
	PolicySourceOrganization = "organization"
	PolicySourceSystem       = "system"
	PolicySourceNone         = "none"
)

type PasswordValidationRequest struct {
	Password string     `json:"password"`
	UserID   *uuid.UUID `json:"user_id,omitempty"`
	PolicyID *uuid.UUID `json:"policy_id,omitempty"`
}

// PasswordValidation is a typed result: a failing password is an expected
// outcome, not an error.
type PasswordValidation struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
	Score   int      `json:"score"`
}

type PasswordExpiry struct {
	IsExpired bool       `json:"is_expired"`
	ChangedAt *time.Time `json:"changed_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type LockoutStatus struct {
	IsLocked          bool       `json:"is_locked"`
	LockedUntil       *time.Time `json:"locked_until,omitempty"`
	RemainingAttempts *int       `json:"remaining_attempts,omitempty"`
}

// FailureOutcome reports the effect of recording a failed attempt.
// DeactivateAccount instructs the caller to clear the account-active flag;
// the engine signals that side effect instead of performing it.
type FailureOutcome struct {
	FailureCount      int        `json:"failure_count"`
	LockoutTriggered  bool       `json:"lockout_triggered"`
	LockedUntil       *time.Time `json:"locked_until,omitempty"`
	DeactivateAccount bool       `json:"deactivate_account"`
}

type CreateSessionRequest struct {
	UserID    uuid.UUID `json:"user_id"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	// Token is the opaque session credential minted by the login flow.
	Token string `json:"token"`
	// TTL overrides the configured session lifetime when positive.
	TTL time.Duration `json:"-"`
}

// SessionItem is the outward session shape. The opaque token is deliberately
// absent: it must never leave the engine through listings or logs.
type SessionItem struct {
	SessionID         uuid.UUID  `json:"session_id"`
	UserID            uuid.UUID  `json:"user_id"`
	IPAddress         string     `json:"ip_address"`
	DeviceFingerprint string     `json:"device_fingerprint"`
	DeviceType        string     `json:"device_type"`
	Browser           string     `json:"browser"`
	OS                string     `json:"os"`
	Location          string     `json:"location"`
	CreatedAt         time.Time  `json:"created_at"`
	LastActivityAt    time.Time  `json:"last_activity_at"`
	ExpiresAt         time.Time  `json:"expires_at"`
	IsActive          bool       `json:"is_active"`
	TerminatedAt      *time.Time `json:"terminated_at,omitempty"`
}

type CreateSessionResult struct {
	Session CreatedSession `json:"session"`
	// EvictedSessionID is set when the concurrent-session cap forced the
	// oldest active session out to make room.
	EvictedSessionID *uuid.UUID             `json:"evicted_session_id,omitempty"`
	Anomalies        []domain.AnomalySignal `json:"anomalies,omitempty"`
}

// CreatedSession echoes the opaque token back to the login flow that supplied
// it; this is the one response shape allowed to carry it.
type CreatedSession struct {
	SessionItem
	Token string `json:"token"`
}

// BehaviorReport is the outcome of analyzeUserBehavior. HasEnoughData=false
// is the typed insufficient-data variant, not an error.
type BehaviorReport struct {
	HasEnoughData    bool                     `json:"has_enough_data"`
	WindowDays       int                      `json:"window_days,omitempty"`
	TotalActions     int                      `json:"total_actions,omitempty"`
	HourlyHistogram  []domain.HistogramBucket `json:"hourly_histogram,omitempty"`
	WeekdayHistogram []domain.HistogramBucket `json:"weekday_histogram,omitempty"`
	TopActions       []domain.ActionFrequency `json:"top_actions,omitempty"`
	Anomalies        []domain.BehaviorAnomaly `json:"anomalies,omitempty"`
	RiskScore        int                      `json:"risk_score"`
	Recommendations  []string                 `json:"recommendations,omitempty"`
	GeneratedAt      time.Time                `json:"generated_at"`
}

// BaselineResult is the typed outcome of createBaseline.
type BaselineResult struct {
	Created  bool                       `json:"created"`
	Reason   string                     `json:"reason,omitempty"`
	Baseline *domain.BehavioralBaseline `json:"baseline,omitempty"`
}

type ComplianceReport struct {
	TotalUsers           int64     `json:"total_users"`
	CompliantUsers       int64     `json:"compliant_users"`
	ExpiredPasswords     int64     `json:"expired_passwords"`
	WeakPasswords        int64     `json:"weak_passwords"`
	CompliancePercentage float64   `json:"compliance_percentage"`
	GeneratedAt          time.Time `json:"generated_at"`
}

func toPolicyItem(p domain.PasswordPolicy) PolicyItem {
	return PolicyItem{
		PolicyID:               p.PolicyID,
		Name:                   p.Name,
		Scope:                  string(p.Scope),
		OrganizationID:         p.OrganizationID,
		RoleID:                 p.RoleID,
		MinLength:              p.MinLength,
		RequireUppercase:       p.RequireUppercase,
		RequireLowercase:       p.RequireLowercase,
		RequireNumbers:         p.RequireNumbers,
		RequireSpecialChars:    p.RequireSpecialChars,
		PreventReuse:           p.PreventReuse,
		MaxAgeDays:             p.MaxAgeDays,
		LockoutThreshold:       p.LockoutThreshold,
		LockoutDurationMinutes: p.LockoutDurationMinutes,
		MaxConcurrentSessions:  p.MaxConcurrentSessions,
		IsActive:               p.IsActive,
	}
}

func toSessionItem(s domain.UserSession) SessionItem {
	return SessionItem{
		SessionID:         s.SessionID,
		UserID:            s.UserID,
		IPAddress:         s.IPAddress,
		DeviceFingerprint: s.DeviceFingerprint,
		DeviceType:        s.DeviceType,
		Browser:           s.Browser,
		OS:                s.OS,
		Location:          s.Location,
		CreatedAt:         s.CreatedAt,
		LastActivityAt:    s.LastActivityAt,
		ExpiresAt:         s.ExpiresAt,
		IsActive:          s.IsActive,
		TerminatedAt:      s.TerminatedAt,
	}
}
