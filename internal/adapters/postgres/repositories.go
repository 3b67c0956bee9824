package postgres

import (
	"github.com/meridianhealth/account-security-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Policies    ports.PolicyRepository
	History     ports.PasswordHistoryRepository
	Lockouts    ports.LockoutRepository
	Sessions    ports.SessionRepository
	Baselines   ports.BaselineRepository
	Activity    ports.ActivityLogReader
	Users       ports.UserDirectory
	AlertOutbox ports.AlertOutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Policies:    &policyRepository{db: db},
		History:     &historyRepository{db: db},
		Lockouts:    &lockoutRepository{db: db},
		Sessions:    &sessionRepository{db: db},
		Baselines:   &baselineRepository{db: db},
		Activity:    &activityLogReader{db: db},
		Users:       &userDirectory{db: db},
		AlertOutbox: &alertOutboxRepository{db: db},
	}
}
