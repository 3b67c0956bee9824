package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/domain"
	"gorm.io/gorm"
)

type policyRepository struct {
	db *gorm.DB
}

func (r *policyRepository) Create(ctx context.Context, policy domain.PasswordPolicy) (domain.PasswordPolicy, error) {
	rec := toPolicyModel(policy)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.PasswordPolicy{}, storeErr("policy_create", err)
	}
	return toDomainPolicy(rec), nil
}

func (r *policyRepository) Update(ctx context.Context, policy domain.PasswordPolicy) (domain.PasswordPolicy, error) {
	rec := toPolicyModel(policy)
	res := r.db.WithContext(ctx).
		Model(&passwordPolicyModel{}).
		Where("policy_id = ?", rec.PolicyID).
		Updates(map[string]any{
			"name":                     rec.Name,
			"scope":                    rec.Scope,
			"organization_id":          rec.OrganizationID,
			"role_id":                  rec.RoleID,
			"min_length":               rec.MinLength,
			"require_uppercase":        rec.RequireUppercase,
			"require_lowercase":        rec.RequireLowercase,
			"require_numbers":          rec.RequireNumbers,
			"require_special_chars":    rec.RequireSpecialChars,
			"prevent_reuse":            rec.PreventReuse,
			"max_age_days":             rec.MaxAgeDays,
			"lockout_threshold":        rec.LockoutThreshold,
			"lockout_duration_minutes": rec.LockoutDurationMinutes,
			"max_concurrent_sessions":  rec.MaxConcurrentSessions,
			"is_active":                rec.IsActive,
			"updated_at":               rec.UpdatedAt,
		})
	if res.Error != nil {
		return domain.PasswordPolicy{}, storeErr("policy_update", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.PasswordPolicy{}, domain.ErrNotFound
	}
	return r.GetByID(ctx, rec.PolicyID)
}

func (r *policyRepository) GetByID(ctx context.Context, policyID uuid.UUID) (domain.PasswordPolicy, error) {
	var rec passwordPolicyModel
	if err := r.db.WithContext(ctx).Where("policy_id = ?", policyID).Take(&rec).Error; err != nil {
		return domain.PasswordPolicy{}, storeErr("policy_get_by_id", err)
	}
	return toDomainPolicy(rec), nil
}

func (r *policyRepository) FindActiveByRole(ctx context.Context, roleID uuid.UUID) (domain.PasswordPolicy, error) {
	return r.findActive(ctx, "policy_find_by_role", func(q *gorm.DB) *gorm.DB {
		return q.Where("scope = ?", string(domain.PolicyScopeRole)).Where("role_id = ?", roleID)
	})
}

func (r *policyRepository) FindActiveByOrganization(ctx context.Context, organizationID uuid.UUID) (domain.PasswordPolicy, error) {
	return r.findActive(ctx, "policy_find_by_organization", func(q *gorm.DB) *gorm.DB {
		return q.Where("scope = ?", string(domain.PolicyScopeOrganization)).Where("organization_id = ?", organizationID)
	})
}

func (r *policyRepository) FindActiveSystem(ctx context.Context) (domain.PasswordPolicy, error) {
	return r.findActive(ctx, "policy_find_system", func(q *gorm.DB) *gorm.DB {
		return q.Where("scope = ?", string(domain.PolicyScopeSystem))
	})
}

// findActive keeps the newest active policy authoritative when the unique
// index has not yet collapsed duplicates created by legacy data.
func (r *policyRepository) findActive(ctx context.Context, operation string, scope func(*gorm.DB) *gorm.DB) (domain.PasswordPolicy, error) {
	var rec passwordPolicyModel
	query := scope(r.db.WithContext(ctx).Where("is_active = TRUE")).Order("updated_at DESC")
	if err := query.Take(&rec).Error; err != nil {
		return domain.PasswordPolicy{}, storeErr(operation, err)
	}
	return toDomainPolicy(rec), nil
}
