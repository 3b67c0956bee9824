package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/domain"
	"github.com/meridianhealth/account-security-service/internal/ports"
)

type fixture struct {
	service      *Service
	policies     *fakePolicies
	history      *fakeHistory
	lockouts     *fakeLockoutStore
	sessions     *fakeSessions
	baselines    *fakeBaselines
	activity     *fakeActivity
	users        *fakeDirectory
	outbox       *fakeOutbox
	cache        *fakeCache
	terminations *fakeTerminations
	geo          *fakeGeo

	mu  sync.Mutex
	now time.Time
}

func defaultTestConfig() Config {
	return Config{
		SessionTTL:             24 * time.Hour,
		DefaultLockoutDuration: 30 * time.Minute,
		PolicyCacheTTL:         5 * time.Minute,
		StoreRetryAttempts:     3,
		StoreRetryBackoff:      time.Millisecond,
		AnomalyHistoryWindow:   7 * 24 * time.Hour,
		AnomalyHistoryLimit:    10,
		AlertEmitTimeout:       time.Second,
	}
}

func newFixture() *fixture {
	return newFixtureWithConfig(defaultTestConfig())
}

func newFixtureWithConfig(cfg Config) *fixture {
	f := &fixture{
		policies:     &fakePolicies{byID: map[uuid.UUID]domain.PasswordPolicy{}},
		history:      &fakeHistory{entries: map[uuid.UUID][]domain.PasswordHistoryEntry{}},
		lockouts:     &fakeLockoutStore{attempts: map[uuid.UUID][]time.Time{}, lockouts: map[uuid.UUID][]domain.AccountLockout{}},
		sessions:     &fakeSessions{byID: map[uuid.UUID]domain.UserSession{}},
		baselines:    &fakeBaselines{byUser: map[uuid.UUID]domain.BehavioralBaseline{}},
		activity:     &fakeActivity{entries: map[uuid.UUID][]domain.ActivityEntry{}},
		users:        &fakeDirectory{profiles: map[uuid.UUID]domain.SecurityProfile{}},
		outbox:       &fakeOutbox{},
		cache:        &fakeCache{items: map[string]domain.PasswordPolicy{}},
		terminations: &fakeTerminations{marked: map[uuid.UUID]bool{}},
		geo:          &fakeGeo{table: map[string]string{}},
		now:          time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	f.service = NewService(Dependencies{
		Config:       cfg,
		Policies:     f.policies,
		History:      f.history,
		Lockouts:     f.lockouts,
		Sessions:     f.sessions,
		Baselines:    f.baselines,
		Activity:     f.activity,
		Users:        f.users,
		AlertOutbox:  f.outbox,
		PolicyCache:  f.cache,
		Terminations: f.terminations,
		Geo:          f.geo,
		Hasher:       &fakeHasher{},
	})
	f.service.nowFn = f.clock
	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// seedPolicy stores a policy directly, bypassing create-path validation.
func (f *fixture) seedPolicy(p domain.PasswordPolicy) domain.PasswordPolicy {
	if p.PolicyID == uuid.Nil {
		p.PolicyID = uuid.New()
	}
	f.policies.mu.Lock()
	f.policies.byID[p.PolicyID] = p
	f.policies.mu.Unlock()
	return p
}

func (f *fixture) seedUser(userID uuid.UUID, orgID *uuid.UUID, roleIDs ...uuid.UUID) {
	f.users.mu.Lock()
	f.users.profiles[userID] = domain.SecurityProfile{
		UserID:         userID,
		OrganizationID: orgID,
		RoleIDs:        roleIDs,
		IsActive:       true,
		CreatedAt:      f.clock(),
	}
	f.users.order = append(f.users.order, userID)
	f.users.mu.Unlock()
}

func (f *fixture) seedSession(s domain.UserSession) domain.UserSession {
	if s.SessionID == uuid.Nil {
		s.SessionID = uuid.New()
	}
	f.sessions.mu.Lock()
	f.sessions.byID[s.SessionID] = s
	f.sessions.mu.Unlock()
	return s
}

func intPtr(v int) *int { return &v }

type fakePolicies struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.PasswordPolicy

	// systemReadsLeftToFail makes FindActiveSystem fail transiently that many
	// times; systemReads counts every call for retry assertions.
	systemReadsLeftToFail int
	systemReads           int
}

func (f *fakePolicies) Create(_ context.Context, policy domain.PasswordPolicy) (domain.PasswordPolicy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Name == policy.Name {
			return domain.PasswordPolicy{}, fmt.Errorf("%w: policy name %q", domain.ErrConflict, policy.Name)
		}
	}
	policy.PolicyID = uuid.New()
	f.byID[policy.PolicyID] = policy
	return policy, nil
}

func (f *fakePolicies) Update(_ context.Context, policy domain.PasswordPolicy) (domain.PasswordPolicy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[policy.PolicyID]; !ok {
		return domain.PasswordPolicy{}, domain.ErrNotFound
	}
	f.byID[policy.PolicyID] = policy
	return policy, nil
}

func (f *fakePolicies) GetByID(_ context.Context, policyID uuid.UUID) (domain.PasswordPolicy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[policyID]
	if !ok {
		return domain.PasswordPolicy{}, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakePolicies) FindActiveByRole(_ context.Context, roleID uuid.UUID) (domain.PasswordPolicy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.Scope == domain.PolicyScopeRole && p.IsActive && p.RoleID != nil && *p.RoleID == roleID {
			return p, nil
		}
	}
	return domain.PasswordPolicy{}, domain.ErrNotFound
}

func (f *fakePolicies) FindActiveByOrganization(_ context.Context, organizationID uuid.UUID) (domain.PasswordPolicy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.Scope == domain.PolicyScopeOrganization && p.IsActive && p.OrganizationID != nil && *p.OrganizationID == organizationID {
			return p, nil
		}
	}
	return domain.PasswordPolicy{}, domain.ErrNotFound
}

func (f *fakePolicies) FindActiveSystem(_ context.Context) (domain.PasswordPolicy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.systemReads++
	if f.systemReadsLeftToFail > 0 {
		f.systemReadsLeftToFail--
		return domain.PasswordPolicy{}, fmt.Errorf("%w: connection reset", domain.ErrStoreUnavailable)
	}
	for _, p := range f.byID {
		if p.Scope == domain.PolicyScopeSystem && p.IsActive {
			return p, nil
		}
	}
	return domain.PasswordPolicy{}, domain.ErrNotFound
}

type fakeHistory struct {
	mu sync.Mutex
	// entries are kept newest first per user.
	entries map[uuid.UUID][]domain.PasswordHistoryEntry
}

func (f *fakeHistory) add(userID uuid.UUID, hash string, at time.Time) {
	f.mu.Lock()
	f.entries[userID] = append([]domain.PasswordHistoryEntry{{
		ID:           int64(len(f.entries[userID]) + 1),
		UserID:       userID,
		PasswordHash: hash,
		CreatedAt:    at,
	}}, f.entries[userID]...)
	f.mu.Unlock()
}

func (f *fakeHistory) ListRecent(_ context.Context, userID uuid.UUID, limit int) ([]domain.PasswordHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := f.entries[userID]
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]domain.PasswordHistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (f *fakeHistory) LatestChangedAt(_ context.Context, userID uuid.UUID) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := f.entries[userID]
	if len(entries) == 0 {
		return nil, nil
	}
	at := entries[0].CreatedAt
	return &at, nil
}

func (f *fakeHistory) LatestChangedAtByUsers(_ context.Context, userIDs []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]time.Time)
	for _, id := range userIDs {
		if entries := f.entries[id]; len(entries) > 0 {
			out[id] = entries[0].CreatedAt
		}
	}
	return out, nil
}

type fakeLockoutStore struct {
	mu       sync.Mutex
	attempts map[uuid.UUID][]time.Time
	lockouts map[uuid.UUID][]domain.AccountLockout
}

func (f *fakeLockoutStore) InsertFailedAttempt(_ context.Context, userID uuid.UUID, attemptedAt time.Time) error {
	f.mu.Lock()
	f.attempts[userID] = append(f.attempts[userID], attemptedAt)
	f.mu.Unlock()
	return nil
}

func (f *fakeLockoutStore) CountFailedAttemptsSince(_ context.Context, userID uuid.UUID, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, at := range f.attempts[userID] {
		if !at.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeLockoutStore) ClearFailedAttempts(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	delete(f.attempts, userID)
	f.mu.Unlock()
	return nil
}

func (f *fakeLockoutStore) CreateLockout(_ context.Context, lockout domain.AccountLockout) (domain.AccountLockout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lockout.LockoutID = uuid.New()
	f.lockouts[lockout.UserID] = append(f.lockouts[lockout.UserID], lockout)
	return lockout, nil
}

func (f *fakeLockoutStore) ActiveLockout(_ context.Context, userID uuid.UUID, now time.Time) (domain.AccountLockout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *domain.AccountLockout
	for i := range f.lockouts[userID] {
		l := f.lockouts[userID][i]
		if !l.LockedUntil.After(now) {
			continue
		}
		if best == nil || l.LockedUntil.After(best.LockedUntil) {
			best = &l
		}
	}
	if best == nil {
		return domain.AccountLockout{}, domain.ErrNotFound
	}
	return *best, nil
}

type fakeSessions struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.UserSession

	// failRecentReads makes ListRecent fail, for degraded-detection tests.
	failRecentReads bool
}

func (f *fakeSessions) Create(_ context.Context, session domain.UserSession) (domain.UserSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session.SessionID = uuid.New()
	f.byID[session.SessionID] = session
	return session, nil
}

func (f *fakeSessions) GetByID(_ context.Context, sessionID uuid.UUID) (domain.UserSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[sessionID]
	if !ok {
		return domain.UserSession{}, domain.ErrNotFound
	}
	return s, nil
}

func (f *fakeSessions) activeLocked(userID uuid.UUID, now time.Time) []domain.UserSession {
	var out []domain.UserSession
	for _, s := range f.byID {
		if s.UserID == userID && s.IsActive && s.ExpiresAt.After(now) {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeSessions) ListActive(_ context.Context, userID uuid.UUID, now time.Time) ([]domain.UserSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.activeLocked(userID, now)
	sort.Slice(out, func(i, j int) bool { return out[i].LastActivityAt.After(out[j].LastActivityAt) })
	return out, nil
}

func (f *fakeSessions) ListRecent(_ context.Context, userID uuid.UUID, since time.Time, excludeID uuid.UUID, limit int) ([]domain.UserSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRecentReads {
		return nil, fmt.Errorf("%w: session history scan failed", domain.ErrStoreUnavailable)
	}
	var out []domain.UserSession
	for _, s := range f.byID {
		if s.UserID != userID || s.SessionID == excludeID || s.CreatedAt.Before(since) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSessions) CountActive(_ context.Context, userID uuid.UUID, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.activeLocked(userID, now)), nil
}

func (f *fakeSessions) OldestActive(_ context.Context, userID uuid.UUID, now time.Time) (domain.UserSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	active := f.activeLocked(userID, now)
	if len(active) == 0 {
		return domain.UserSession{}, domain.ErrNotFound
	}
	sort.Slice(active, func(i, j int) bool { return active[i].CreatedAt.Before(active[j].CreatedAt) })
	return active[0], nil
}

func (f *fakeSessions) TouchActivity(_ context.Context, sessionID uuid.UUID, touchedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	s.LastActivityAt = touchedAt
	f.byID[sessionID] = s
	return nil
}

func (f *fakeSessions) Terminate(_ context.Context, sessionID uuid.UUID, terminatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	s.IsActive = false
	s.TerminatedAt = &terminatedAt
	f.byID[sessionID] = s
	return nil
}

func (f *fakeSessions) TerminateAllByUser(_ context.Context, userID uuid.UUID, terminatedAt time.Time, exceptID *uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.byID {
		if s.UserID != userID || !s.IsActive {
			continue
		}
		if exceptID != nil && id == *exceptID {
			continue
		}
		s.IsActive = false
		s.TerminatedAt = &terminatedAt
		f.byID[id] = s
		n++
	}
	return n, nil
}

func (f *fakeSessions) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.byID {
		if !s.IsActive || s.ExpiresAt.After(now) {
			continue
		}
		s.IsActive = false
		s.TerminatedAt = &now
		f.byID[id] = s
		n++
	}
	return n, nil
}

type fakeBaselines struct {
	mu     sync.Mutex
	byUser map[uuid.UUID]domain.BehavioralBaseline
}

func (f *fakeBaselines) Save(_ context.Context, baseline domain.BehavioralBaseline) (domain.BehavioralBaseline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	baseline.BaselineID = uuid.New()
	f.byUser[baseline.UserID] = baseline
	return baseline, nil
}

func (f *fakeBaselines) Latest(_ context.Context, userID uuid.UUID) (domain.BehavioralBaseline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byUser[userID]
	if !ok {
		return domain.BehavioralBaseline{}, domain.ErrNotFound
	}
	return b, nil
}

type fakeActivity struct {
	mu      sync.Mutex
	entries map[uuid.UUID][]domain.ActivityEntry
}

func (f *fakeActivity) add(userID uuid.UUID, entries ...domain.ActivityEntry) {
	f.mu.Lock()
	f.entries[userID] = append(f.entries[userID], entries...)
	f.mu.Unlock()
}

func (f *fakeActivity) ListRange(_ context.Context, userID uuid.UUID, from, to time.Time) ([]domain.ActivityEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ActivityEntry
	for _, e := range f.entries[userID] {
		if e.OccurredAt.Before(from) || !e.OccurredAt.Before(to) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

type fakeDirectory struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]domain.SecurityProfile
	order    []uuid.UUID
}

func (f *fakeDirectory) GetProfile(_ context.Context, userID uuid.UUID) (domain.SecurityProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return domain.SecurityProfile{}, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakeDirectory) ListProfiles(_ context.Context, limit, offset int) ([]domain.SecurityProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if offset >= len(f.order) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.order) {
		end = len(f.order)
	}
	out := make([]domain.SecurityProfile, 0, end-offset)
	for _, id := range f.order[offset:end] {
		out = append(out, f.profiles[id])
	}
	return out, nil
}

func (f *fakeDirectory) CountProfiles(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.order)), nil
}

type fakeOutbox struct {
	mu      sync.Mutex
	records []ports.OutboxAlert
}

func (f *fakeOutbox) Enqueue(_ context.Context, eventType string, payload []byte, occurredAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	body := make([]byte, len(payload))
	copy(body, payload)
	f.records = append(f.records, ports.OutboxAlert{
		OutboxID:  uuid.New(),
		EventType: eventType,
		Payload:   body,
		CreatedAt: occurredAt,
	})
	return nil
}

func (f *fakeOutbox) ClaimUnpublished(context.Context, int, string, time.Time) ([]ports.OutboxAlert, error) {
	return nil, nil
}

func (f *fakeOutbox) MarkPublished(context.Context, uuid.UUID, string, time.Time) error { return nil }

func (f *fakeOutbox) MarkFailed(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}

func (f *fakeOutbox) MarkDeadLettered(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}

func (f *fakeOutbox) events() []ports.OutboxAlert {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ports.OutboxAlert, len(f.records))
	copy(out, f.records)
	return out
}

type fakeCache struct {
	mu    sync.Mutex
	items map[string]domain.PasswordPolicy
	hits  int
}

func (f *fakeCache) Get(_ context.Context, scopeKey string) (*domain.PasswordPolicy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[scopeKey]
	if !ok {
		return nil, nil
	}
	f.hits++
	return &p, nil
}

func (f *fakeCache) Put(_ context.Context, scopeKey string, policy domain.PasswordPolicy, _ time.Duration) error {
	f.mu.Lock()
	f.items[scopeKey] = policy
	f.mu.Unlock()
	return nil
}

func (f *fakeCache) Invalidate(_ context.Context, scopeKey string) error {
	f.mu.Lock()
	delete(f.items, scopeKey)
	f.mu.Unlock()
	return nil
}

type fakeTerminations struct {
	mu     sync.Mutex
	marked map[uuid.UUID]bool
}

func (f *fakeTerminations) MarkTerminated(_ context.Context, sessionID uuid.UUID, _ time.Time) error {
	f.mu.Lock()
	f.marked[sessionID] = true
	f.mu.Unlock()
	return nil
}

func (f *fakeTerminations) IsTerminated(_ context.Context, sessionID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.marked[sessionID], nil
}

type fakeGeo struct {
	mu    sync.Mutex
	table map[string]string
}

func (f *fakeGeo) set(ip, location string) {
	f.mu.Lock()
	f.table[ip] = location
	f.mu.Unlock()
}

func (f *fakeGeo) Resolve(_ context.Context, ipAddress string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if location, ok := f.table[ipAddress]; ok {
		return location
	}
	return "Unknown"
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (fakeHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("hash mismatch")
	}
	return nil
}
