package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/domain"
)

// ResolvePolicy returns the single applicable policy for a user, following
// the fixed precedence: explicit id, role (in attach order), organization,
// system. A nil policy with source "none" is the defined degraded mode.
func (s *Service) ResolvePolicy(ctx context.Context, userID uuid.UUID, explicitPolicyID *uuid.UUID) (ResolvedPolicy, error) {
	policy, source, err := s.resolveForUser(ctx, userID, explicitPolicyID)
	if err != nil {
		return ResolvedPolicy{}, err
	}
	if policy == nil {
		return ResolvedPolicy{Policy: nil, Source: PolicySourceNone}, nil
	}
	item := toPolicyItem(*policy)
	return ResolvedPolicy{Policy: &item, Source: source}, nil
}

func (s *Service) resolveForUser(ctx context.Context, userID uuid.UUID, explicitPolicyID *uuid.UUID) (*domain.PasswordPolicy, string, error) {
	if explicitPolicyID != nil {
		var explicit domain.PasswordPolicy
		err := s.retryRead(ctx, "policy_get_by_id", func() error {
			var fetchErr error
			explicit, fetchErr = s.policies.GetByID(ctx, *explicitPolicyID)
			return fetchErr
		})
		switch {
		case err == nil && explicit.IsActive:
			return &explicit, PolicySourceExplicit, nil
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, "", err
		}
		// Inactive or unknown explicit policies fall through to the next step.
	}

	var profile domain.SecurityProfile
	err := s.retryRead(ctx, "user_profile", func() error {
		var fetchErr error
		profile, fetchErr = s.users.GetProfile(ctx, userID)
		return fetchErr
	})
	if err != nil {
		return nil, "", err
	}

	return s.resolveFromProfile(ctx, profile)
}

func (s *Service) resolveFromProfile(ctx context.Context, profile domain.SecurityProfile) (*domain.PasswordPolicy, string, error) {
	for _, roleID := range profile.RoleIDs {
		roleID := roleID
		policy, err := s.cachedPolicy(ctx, "role:"+roleID.String(), func(ctx context.Context) (domain.PasswordPolicy, error) {
			return s.policies.FindActiveByRole(ctx, roleID)
		})
		if err != nil {
			return nil, "", err
		}
		if policy != nil {
			return policy, PolicySourceRole, nil
		}
	}

	if profile.OrganizationID != nil {
		orgID := *profile.OrganizationID
		policy, err := s.cachedPolicy(ctx, "organization:"+orgID.String(), func(ctx context.Context) (domain.PasswordPolicy, error) {
			return s.policies.FindActiveByOrganization(ctx, orgID)
		})
		if err != nil {
			return nil, "", err
		}
		if policy != nil {
			return policy, PolicySourceOrganization, nil
		}
	}

	policy, err := s.cachedPolicy(ctx, "system", func(ctx context.Context) (domain.PasswordPolicy, error) {
		return s.policies.FindActiveSystem(ctx)
	})
	if err != nil {
		return nil, "", err
	}
	if policy != nil {
		return policy, PolicySourceSystem, nil
	}
	return nil, PolicySourceNone, nil
}

// cachedPolicy consults the policy cache before the store. Cache failures are
// logged and ignored; a missing policy returns (nil, nil) so resolution can
// fall through to the next precedence step.
func (s *Service) cachedPolicy(ctx context.Context, scopeKey string, fetch func(context.Context) (domain.PasswordPolicy, error)) (*domain.PasswordPolicy, error) {
	if s.policyCache != nil {
		cached, err := s.policyCache.Get(ctx, scopeKey)
		if err != nil {
			appLogger().DebugContext(ctx, "policy cache read failed",
				"operation", "policy_cache_get",
				"outcome", "failure",
				"scope_key", scopeKey,
				"error", err,
			)
		} else if cached != nil {
			return cached, nil
		}
	}

	var policy domain.PasswordPolicy
	err := s.retryRead(ctx, "policy_find_"+scopeKey, func() error {
		var fetchErr error
		policy, fetchErr = fetch(ctx)
		return fetchErr
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if s.policyCache != nil {
		if cacheErr := s.policyCache.Put(ctx, scopeKey, policy, s.cfg.PolicyCacheTTL); cacheErr != nil {
			appLogger().DebugContext(ctx, "policy cache write failed",
				"operation", "policy_cache_put",
				"outcome", "failure",
				"scope_key", scopeKey,
				"error", cacheErr,
			)
		}
	}
	return &policy, nil
}

// CreatePolicy persists a new policy. Duplicate names surface as ErrConflict;
// the store also holds at most one active policy per scope key.
func (s *Service) CreatePolicy(ctx context.Context, input PolicyInput) (PolicyItem, error) {
	policy, err := policyFromInput(input)
	if err != nil {
		return PolicyItem{}, err
	}

	created, err := s.policies.Create(ctx, policy)
	if err != nil {
		return PolicyItem{}, err
	}
	s.invalidatePolicyScope(ctx, created)
	return toPolicyItem(created), nil
}

// UpdatePolicy applies caller changes to an existing policy.
func (s *Service) UpdatePolicy(ctx context.Context, policyID uuid.UUID, input PolicyInput) (PolicyItem, error) {
	existing, err := s.policies.GetByID(ctx, policyID)
	if err != nil {
		return PolicyItem{}, err
	}

	updated, err := policyFromInput(input)
	if err != nil {
		return PolicyItem{}, err
	}
	updated.PolicyID = existing.PolicyID
	updated.CreatedAt = existing.CreatedAt

	saved, err := s.policies.Update(ctx, updated)
	if err != nil {
		return PolicyItem{}, err
	}
	// Both the old and new scope keys can be stale after an update.
	s.invalidatePolicyScope(ctx, existing)
	s.invalidatePolicyScope(ctx, saved)
	return toPolicyItem(saved), nil
}

func (s *Service) invalidatePolicyScope(ctx context.Context, policy domain.PasswordPolicy) {
	if s.policyCache == nil {
		return
	}
	if err := s.policyCache.Invalidate(ctx, policyScopeKey(policy)); err != nil {
		appLogger().WarnContext(ctx, "policy cache invalidation failed",
			"operation", "policy_cache_invalidate",
			"outcome", "failure",
			"scope_key", policyScopeKey(policy),
			"error", err,
		)
	}
}

func policyScopeKey(policy domain.PasswordPolicy) string {
	switch policy.Scope {
	case domain.PolicyScopeRole:
		if policy.RoleID != nil {
			return "role:" + policy.RoleID.String()
		}
	case domain.PolicyScopeOrganization:
		if policy.OrganizationID != nil {
			return "organization:" + policy.OrganizationID.String()
		}
	}
	return "system"
}

func policyFromInput(input PolicyInput) (domain.PasswordPolicy, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.PasswordPolicy{}, fmt.Errorf("%w: policy name is required", domain.ErrInvalidInput)
	}
	if input.MinLength <= 0 {
		return domain.PasswordPolicy{}, fmt.Errorf("%w: min_length must be positive", domain.ErrInvalidInput)
	}

	scope := domain.PolicyScope(strings.ToLower(strings.TrimSpace(input.Scope)))
	switch scope {
	case domain.PolicyScopeSystem:
		if input.OrganizationID != nil || input.RoleID != nil {
			return domain.PasswordPolicy{}, fmt.Errorf("%w: system policies carry no organization or role binding", domain.ErrInvalidInput)
		}
	case domain.PolicyScopeOrganization:
		if input.OrganizationID == nil {
			return domain.PasswordPolicy{}, fmt.Errorf("%w: organization scope requires organization_id", domain.ErrInvalidInput)
		}
	case domain.PolicyScopeRole:
		if input.RoleID == nil {
			return domain.PasswordPolicy{}, fmt.Errorf("%w: role scope requires role_id", domain.ErrInvalidInput)
		}
	default:
		return domain.PasswordPolicy{}, fmt.Errorf("%w: unknown policy scope %q", domain.ErrInvalidInput, input.Scope)
	}

	return domain.PasswordPolicy{
		Name:                   name,
		Scope:                  scope,
		OrganizationID:         input.OrganizationID,
		RoleID:                 input.RoleID,
		MinLength:              input.MinLength,
		RequireUppercase:       input.RequireUppercase,
		RequireLowercase:       input.RequireLowercase,
		RequireNumbers:         input.RequireNumbers,
		RequireSpecialChars:    input.RequireSpecialChars,
		PreventReuse:           input.PreventReuse,
		MaxAgeDays:             input.MaxAgeDays,
		LockoutThreshold:       input.LockoutThreshold,
		LockoutDurationMinutes: input.LockoutDurationMinutes,
		MaxConcurrentSessions:  input.MaxConcurrentSessions,
		IsActive:               input.IsActive,
	}, nil
}
