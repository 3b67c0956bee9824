package postgres

import (
	"time"

	"github.com/google/uuid"
)

type passwordPolicyModel struct {
	PolicyID               uuid.UUID  `gorm:"column:policy_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                   string     `gorm:"column:name"`
	Scope                  string     `gorm:"column:scope"`
	OrganizationID         *uuid.UUID `gorm:"column:organization_id"`
	RoleID                 *uuid.UUID `gorm:"column:role_id"`
	MinLength              int        `gorm:"column:min_length"`
	RequireUppercase       bool       `gorm:"column:require_uppercase"`
	RequireLowercase       bool       `gorm:"column:require_lowercase"`
	RequireNumbers         bool       `gorm:"column:require_numbers"`
	RequireSpecialChars    bool       `gorm:"column:require_special_chars"`
	PreventReuse           int        `gorm:"column:prevent_reuse"`
	MaxAgeDays             *int       `gorm:"column:max_age_days"`
	LockoutThreshold       *int       `gorm:"column:lockout_threshold"`
	LockoutDurationMinutes *int       `gorm:"column:lockout_duration_minutes"`
	MaxConcurrentSessions  *int       `gorm:"column:max_concurrent_sessions"`
	IsActive               bool       `gorm:"column:is_active"`
	CreatedAt              time.Time  `gorm:"column:created_at"`
	UpdatedAt              time.Time  `gorm:"column:updated_at"`
}

func (passwordPolicyModel) TableName() string { return "password_policies" }

type passwordHistoryModel struct {
	ID           int64     `gorm:"column:id;primaryKey"`
	UserID       uuid.UUID `gorm:"column:user_id"`
	PasswordHash string    `gorm:"column:password_hash"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (passwordHistoryModel) TableName() string { return "password_history" }

type failedLoginAttemptModel struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id"`
	AttemptedAt time.Time `gorm:"column:attempted_at"`
}

func (failedLoginAttemptModel) TableName() string { return "failed_login_attempts" }

type accountLockoutModel struct {
	LockoutID   uuid.UUID `gorm:"column:lockout_id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id"`
	LockedUntil time.Time `gorm:"column:locked_until"`
	Reason      string    `gorm:"column:reason"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (accountLockoutModel) TableName() string { return "account_lockouts" }

type userSessionModel struct {
	SessionID         uuid.UUID  `gorm:"column:session_id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID  `gorm:"column:user_id"`
	Token             string     `gorm:"column:token"`
	IPAddress         *string    `gorm:"column:ip_address"`
	UserAgent         string     `gorm:"column:user_agent"`
	DeviceFingerprint string     `gorm:"column:device_fingerprint"`
	DeviceType        string     `gorm:"column:device_type"`
	Browser           string     `gorm:"column:browser"`
	OS                string     `gorm:"column:os"`
	Location          string     `gorm:"column:location"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	LastActivityAt    time.Time  `gorm:"column:last_activity_at"`
	ExpiresAt         time.Time  `gorm:"column:expires_at"`
	IsActive          bool       `gorm:"column:is_active"`
	TerminatedAt      *time.Time `gorm:"column:terminated_at"`
}

func (userSessionModel) TableName() string { return "user_sessions" }

type behavioralBaselineModel struct {
	BaselineID        uuid.UUID `gorm:"column:baseline_id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID `gorm:"column:user_id"`
	AvgActivityPerDay float64   `gorm:"column:avg_activity_per_day"`
	CommonActions     string    `gorm:"column:common_actions;type:jsonb"`
	TypicalHours      string    `gorm:"column:typical_hours;type:jsonb"`
	DataPoints        int       `gorm:"column:data_points"`
	CreatedAt         time.Time `gorm:"column:created_at"`
}

func (behavioralBaselineModel) TableName() string { return "behavioral_baselines" }

type activityLogModel struct {
	ID         int64     `gorm:"column:id;primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id"`
	Action     string    `gorm:"column:action"`
	OccurredAt time.Time `gorm:"column:occurred_at"`
}

func (activityLogModel) TableName() string { return "activity_log" }

type userModel struct {
	UserID         uuid.UUID  `gorm:"column:user_id;type:uuid;primaryKey"`
	OrganizationID *uuid.UUID `gorm:"column:organization_id"`
	IsActive       bool       `gorm:"column:is_active"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
}

func (userModel) TableName() string { return "users" }

type userRoleModel struct {
	UserID     uuid.UUID `gorm:"column:user_id;primaryKey"`
	RoleID     uuid.UUID `gorm:"column:role_id;primaryKey"`
	AttachedAt time.Time `gorm:"column:attached_at"`
}

func (userRoleModel) TableName() string { return "user_roles" }

type securityAlertOutboxModel struct {
	OutboxID       uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType      string     `gorm:"column:event_type"`
	Payload        string     `gorm:"column:payload;type:jsonb"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	RetryCount     int        `gorm:"column:retry_count"`
	LastError      *string    `gorm:"column:last_error"`
	LastErrorAt    *time.Time `gorm:"column:last_error_at"`
	ClaimToken     *string    `gorm:"column:claim_token"`
	ClaimUntil     *time.Time `gorm:"column:claim_until"`
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at"`
}

func (securityAlertOutboxModel) TableName() string { return "security_alert_outbox" }
