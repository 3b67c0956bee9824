package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/meridianhealth/account-security-service/internal/domain"
	"gorm.io/gorm"
)

// storeErr translates driver errors into the domain taxonomy. Missing rows and
// unique violations keep their sentinel meaning; everything else becomes
// ErrStoreUnavailable so callers can apply their read-retry policy.
func storeErr(operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrConflict
	default:
		return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, operation, err)
	}
}

func toDomainPolicy(row passwordPolicyModel) domain.PasswordPolicy {
	return domain.PasswordPolicy{
		PolicyID:               row.PolicyID,
		Name:                   row.Name,
		Scope:                  domain.PolicyScope(row.Scope),
		OrganizationID:         row.OrganizationID,
		RoleID:                 row.RoleID,
		MinLength:              row.MinLength,
		RequireUppercase:       row.RequireUppercase,
		RequireLowercase:       row.RequireLowercase,
		RequireNumbers:         row.RequireNumbers,
		RequireSpecialChars:    row.RequireSpecialChars,
		PreventReuse:           row.PreventReuse,
		MaxAgeDays:             row.MaxAgeDays,
		LockoutThreshold:       row.LockoutThreshold,
		LockoutDurationMinutes: row.LockoutDurationMinutes,
		MaxConcurrentSessions:  row.MaxConcurrentSessions,
		IsActive:               row.IsActive,
		CreatedAt:              row.CreatedAt,
		UpdatedAt:              row.UpdatedAt,
	}
}

func toPolicyModel(policy domain.PasswordPolicy) passwordPolicyModel {
	return passwordPolicyModel{
		PolicyID:               policy.PolicyID,
		Name:                   policy.Name,
		Scope:                  string(policy.Scope),
		OrganizationID:         policy.OrganizationID,
		RoleID:                 policy.RoleID,
		MinLength:              policy.MinLength,
		RequireUppercase:       policy.RequireUppercase,
		RequireLowercase:       policy.RequireLowercase,
		RequireNumbers:         policy.RequireNumbers,
		RequireSpecialChars:    policy.RequireSpecialChars,
		PreventReuse:           policy.PreventReuse,
		MaxAgeDays:             policy.MaxAgeDays,
		LockoutThreshold:       policy.LockoutThreshold,
		LockoutDurationMinutes: policy.LockoutDurationMinutes,
		MaxConcurrentSessions:  policy.MaxConcurrentSessions,
		IsActive:               policy.IsActive,
		CreatedAt:              policy.CreatedAt,
		UpdatedAt:              policy.UpdatedAt,
	}
}

func toDomainSession(row userSessionModel) domain.UserSession {
	ip := ""
	if row.IPAddress != nil {
		ip = *row.IPAddress
	}
	return domain.UserSession{
		SessionID:         row.SessionID,
		UserID:            row.UserID,
		Token:             row.Token,
		IPAddress:         ip,
		UserAgent:         row.UserAgent,
		DeviceFingerprint: row.DeviceFingerprint,
		DeviceType:        row.DeviceType,
		Browser:           row.Browser,
		OS:                row.OS,
		Location:          row.Location,
		CreatedAt:         row.CreatedAt,
		LastActivityAt:    row.LastActivityAt,
		ExpiresAt:         row.ExpiresAt,
		IsActive:          row.IsActive,
		TerminatedAt:      row.TerminatedAt,
	}
}

func toDomainLockout(row accountLockoutModel) domain.AccountLockout {
	return domain.AccountLockout{
		LockoutID:   row.LockoutID,
		UserID:      row.UserID,
		LockedUntil: row.LockedUntil,
		Reason:      row.Reason,
		CreatedAt:   row.CreatedAt,
	}
}

func toDomainBaseline(row behavioralBaselineModel) (domain.BehavioralBaseline, error) {
	var actions []string
	if row.CommonActions != "" {
		if err := json.Unmarshal([]byte(row.CommonActions), &actions); err != nil {
			return domain.BehavioralBaseline{}, fmt.Errorf("decode common_actions: %w", err)
		}
	}
	var hours []int
	if row.TypicalHours != "" {
		if err := json.Unmarshal([]byte(row.TypicalHours), &hours); err != nil {
			return domain.BehavioralBaseline{}, fmt.Errorf("decode typical_hours: %w", err)
		}
	}
	return domain.BehavioralBaseline{
		BaselineID:        row.BaselineID,
		UserID:            row.UserID,
		AvgActivityPerDay: row.AvgActivityPerDay,
		CommonActions:     actions,
		TypicalHours:      hours,
		DataPoints:        row.DataPoints,
		CreatedAt:         row.CreatedAt,
	}, nil
}

func toBaselineModel(baseline domain.BehavioralBaseline) (behavioralBaselineModel, error) {
	actions, err := json.Marshal(baseline.CommonActions)
	if err != nil {
		return behavioralBaselineModel{}, fmt.Errorf("encode common_actions: %w", err)
	}
	hours, err := json.Marshal(baseline.TypicalHours)
	if err != nil {
		return behavioralBaselineModel{}, fmt.Errorf("encode typical_hours: %w", err)
	}
	return behavioralBaselineModel{
		BaselineID:        baseline.BaselineID,
		UserID:            baseline.UserID,
		AvgActivityPerDay: baseline.AvgActivityPerDay,
		CommonActions:     string(actions),
		TypicalHours:      string(hours),
		DataPoints:        baseline.DataPoints,
		CreatedAt:         baseline.CreatedAt,
	}, nil
}

func nullableString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
