package application

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/domain"
)

func TestResolvePolicyPrecedence(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	roleWithoutPolicy := uuid.New()
	roleWithPolicy := uuid.New()
	orgID := uuid.New()

	f.seedPolicy(domain.PasswordPolicy{
		Name: "system-default", Scope: domain.PolicyScopeSystem, MinLength: 8, IsActive: true,
	})
	orgPolicy := f.seedPolicy(domain.PasswordPolicy{
		Name: "org-policy", Scope: domain.PolicyScopeOrganization, OrganizationID: &orgID, MinLength: 10, IsActive: true,
	})
	rolePolicy := f.seedPolicy(domain.PasswordPolicy{
		Name: "role-policy", Scope: domain.PolicyScopeRole, RoleID: &roleWithPolicy, MinLength: 14, IsActive: true,
	})

	roleUser := uuid.New()
	orgUser := uuid.New()
	plainUser := uuid.New()
	f.seedUser(roleUser, &orgID, roleWithoutPolicy, roleWithPolicy)
	f.seedUser(orgUser, &orgID)
	f.seedUser(plainUser, nil)

	resolved, err := f.service.ResolvePolicy(ctx, roleUser, nil)
	if err != nil {
		t.Fatalf("resolve role user: %v", err)
	}
	if resolved.Source != PolicySourceRole || resolved.Policy == nil || resolved.Policy.PolicyID != rolePolicy.PolicyID {
		t.Fatalf("role user resolved %+v, want role policy %s", resolved, rolePolicy.PolicyID)
	}

	resolved, err = f.service.ResolvePolicy(ctx, orgUser, nil)
	if err != nil {
		t.Fatalf("resolve org user: %v", err)
	}
	if resolved.Source != PolicySourceOrganization || resolved.Policy == nil || resolved.Policy.PolicyID != orgPolicy.PolicyID {
		t.Fatalf("org user resolved %+v, want organization policy", resolved)
	}

	resolved, err = f.service.ResolvePolicy(ctx, plainUser, nil)
	if err != nil {
		t.Fatalf("resolve plain user: %v", err)
	}
	if resolved.Source != PolicySourceSystem || resolved.Policy == nil || resolved.Policy.MinLength != 8 {
		t.Fatalf("plain user resolved %+v, want system policy", resolved)
	}

	// An explicit id wins over everything the profile would yield.
	resolved, err = f.service.ResolvePolicy(ctx, roleUser, &orgPolicy.PolicyID)
	if err != nil {
		t.Fatalf("resolve explicit: %v", err)
	}
	if resolved.Source != PolicySourceExplicit || resolved.Policy == nil || resolved.Policy.PolicyID != orgPolicy.PolicyID {
		t.Fatalf("explicit resolution %+v, want explicit org policy", resolved)
	}
}

func TestResolvePolicyNoneWhenNothingActive(t *testing.T) {
	t.Parallel()

	f := newFixture()
	userID := uuid.New()
	f.seedUser(userID, nil)

	resolved, err := f.service.ResolvePolicy(context.Background(), userID, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Source != PolicySourceNone || resolved.Policy != nil {
		t.Fatalf("resolved %+v, want nil policy with source none", resolved)
	}
}

func TestResolvePolicyExplicitInactiveFallsThrough(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	inactive := f.seedPolicy(domain.PasswordPolicy{
		Name: "retired", Scope: domain.PolicyScopeSystem, MinLength: 6, IsActive: false,
	})
	f.seedPolicy(domain.PasswordPolicy{
		Name: "system-default", Scope: domain.PolicyScopeSystem, MinLength: 8, IsActive: true,
	})
	userID := uuid.New()
	f.seedUser(userID, nil)

	resolved, err := f.service.ResolvePolicy(ctx, userID, &inactive.PolicyID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Source != PolicySourceSystem || resolved.Policy == nil || resolved.Policy.MinLength != 8 {
		t.Fatalf("resolved %+v, want fall-through to the system policy", resolved)
	}

	// Same for an id that does not exist at all.
	unknown := uuid.New()
	resolved, err = f.service.ResolvePolicy(ctx, userID, &unknown)
	if err != nil {
		t.Fatalf("resolve unknown explicit: %v", err)
	}
	if resolved.Source != PolicySourceSystem {
		t.Fatalf("resolved source %q, want system", resolved.Source)
	}
}

func TestResolvePolicyUnknownUser(t *testing.T) {
	t.Parallel()

	f := newFixture()
	_, err := f.service.ResolvePolicy(context.Background(), uuid.New(), nil)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestCreatePolicyValidation(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	orgID := uuid.New()

	cases := []struct {
		name  string
		input PolicyInput
	}{
		{name: "missing name", input: PolicyInput{Scope: "system", MinLength: 8}},
		{name: "non positive min length", input: PolicyInput{Name: "p", Scope: "system"}},
		{name: "unknown scope", input: PolicyInput{Name: "p", Scope: "team", MinLength: 8}},
		{name: "organization scope without id", input: PolicyInput{Name: "p", Scope: "organization", MinLength: 8}},
		{name: "role scope without id", input: PolicyInput{Name: "p", Scope: "role", MinLength: 8}},
		{name: "system scope with binding", input: PolicyInput{Name: "p", Scope: "system", MinLength: 8, OrganizationID: &orgID}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := f.service.CreatePolicy(ctx, tc.input)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCreatePolicyDuplicateName(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	input := PolicyInput{Name: "baseline", Scope: "system", MinLength: 8, IsActive: true}

	if _, err := f.service.CreatePolicy(ctx, input); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := f.service.CreatePolicy(ctx, input); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate name, got %v", err)
	}
}

func TestUpdatePolicyInvalidatesCachedScope(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	policy := f.seedPolicy(domain.PasswordPolicy{
		Name: "system-default", Scope: domain.PolicyScopeSystem, MinLength: 8, IsActive: true,
	})
	userID := uuid.New()
	f.seedUser(userID, nil)

	if _, err := f.service.ResolvePolicy(ctx, userID, nil); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	updated, err := f.service.UpdatePolicy(ctx, policy.PolicyID, PolicyInput{
		Name: "system-default", Scope: "system", MinLength: 14, IsActive: true,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.MinLength != 14 {
		t.Fatalf("updated MinLength = %d, want 14", updated.MinLength)
	}

	resolved, err := f.service.ResolvePolicy(ctx, userID, nil)
	if err != nil {
		t.Fatalf("resolve after update: %v", err)
	}
	if resolved.Policy == nil || resolved.Policy.MinLength != 14 {
		t.Fatalf("resolved %+v, want refreshed policy after cache invalidation", resolved)
	}
}

func TestResolvePolicyServedFromCache(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	f.seedPolicy(domain.PasswordPolicy{
		Name: "system-default", Scope: domain.PolicyScopeSystem, MinLength: 8, IsActive: true,
	})
	userID := uuid.New()
	f.seedUser(userID, nil)

	for i := 0; i < 3; i++ {
		if _, err := f.service.ResolvePolicy(ctx, userID, nil); err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
	}

	f.policies.mu.Lock()
	reads := f.policies.systemReads
	f.policies.mu.Unlock()
	if reads != 1 {
		t.Fatalf("store reads = %d, want 1 with warm cache", reads)
	}
}

func TestPolicyReadRetriesTransientUnavailability(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	f.seedPolicy(domain.PasswordPolicy{
		Name: "system-default", Scope: domain.PolicyScopeSystem, MinLength: 8, IsActive: true,
	})
	userID := uuid.New()
	f.seedUser(userID, nil)

	f.policies.mu.Lock()
	f.policies.systemReadsLeftToFail = 2
	f.policies.mu.Unlock()

	resolved, err := f.service.ResolvePolicy(ctx, userID, nil)
	if err != nil {
		t.Fatalf("resolve should recover after retries: %v", err)
	}
	if resolved.Source != PolicySourceSystem {
		t.Fatalf("resolved source %q, want system", resolved.Source)
	}

	f.policies.mu.Lock()
	reads := f.policies.systemReads
	f.policies.mu.Unlock()
	if reads != 3 {
		t.Fatalf("store reads = %d, want 3 (two transient failures plus success)", reads)
	}
}
