package application

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/ports"
)

// Service is the account security engine: policy resolution, password
// validation, lockout, session lifecycle, anomaly detection and behavioral
// baselining behind one application boundary.
type Service struct {
	cfg          Config
	policies     ports.PolicyRepository
	history      ports.PasswordHistoryRepository
	lockouts     ports.LockoutRepository
	sessions     ports.SessionRepository
	baselines    ports.BaselineRepository
	activity     ports.ActivityLogReader
	users        ports.UserDirectory
	alertOutbox  ports.AlertOutboxRepository
	policyCache  ports.PolicyCache
	terminations ports.SessionTerminationStore
	geo          ports.GeolocationResolver
	hasher       ports.PasswordHasher
	nowFn        func() time.Time

	// userLocks serializes the check-then-act sequences (lockout creation,
	// session-cap eviction) per user without cross-user contention.
	userLocks sync.Map
}

type Dependencies struct {
	Config       Config
	Policies     ports.PolicyRepository
	History      ports.PasswordHistoryRepository
	Lockouts     ports.LockoutRepository
	Sessions     ports.SessionRepository
	Baselines    ports.BaselineRepository
	Activity     ports.ActivityLogReader
	Users        ports.UserDirectory
	AlertOutbox  ports.AlertOutboxRepository
	PolicyCache  ports.PolicyCache
	Terminations ports.SessionTerminationStore
	Geo          ports.GeolocationResolver
	Hasher       ports.PasswordHasher
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.DefaultLockoutDuration <= 0 {
		cfg.DefaultLockoutDuration = 30 * time.Minute
	}
	if cfg.PolicyCacheTTL <= 0 {
		cfg.PolicyCacheTTL = 5 * time.Minute
	}
	if cfg.StoreRetryAttempts <= 0 {
		cfg.StoreRetryAttempts = 3
	}
	if cfg.StoreRetryBackoff <= 0 {
		cfg.StoreRetryBackoff = 50 * time.Millisecond
	}
	if cfg.AnomalyHistoryWindow <= 0 {
		cfg.AnomalyHistoryWindow = 7 * 24 * time.Hour
	}
	if cfg.AnomalyHistoryLimit <= 0 {
		cfg.AnomalyHistoryLimit = 10
	}
	if cfg.AlertEmitTimeout <= 0 {
		cfg.AlertEmitTimeout = 3 * time.Second
	}
	return &Service{
		cfg:          cfg,
		policies:     deps.Policies,
		history:      deps.History,
		lockouts:     deps.Lockouts,
		sessions:     deps.Sessions,
		baselines:    deps.Baselines,
		activity:     deps.Activity,
		users:        deps.Users,
		alertOutbox:  deps.AlertOutbox,
		policyCache:  deps.PolicyCache,
		terminations: deps.Terminations,
		geo:          deps.Geo,
		hasher:       deps.Hasher,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) userLock(userID uuid.UUID) *sync.Mutex {
	v, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return v.(*sync.Mutex)
}
