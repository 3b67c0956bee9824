package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/domain"
	"gorm.io/gorm"
)

type lockoutRepository struct {
	db *gorm.DB
}

func (r *lockoutRepository) InsertFailedAttempt(ctx context.Context, userID uuid.UUID, attemptedAt time.Time) error {
	rec := failedLoginAttemptModel{
		UserID:      userID,
		AttemptedAt: attemptedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return storeErr("failed_attempt_insert", err)
	}
	return nil
}

func (r *lockoutRepository) CountFailedAttemptsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&failedLoginAttemptModel{}).
		Where("user_id = ?", userID).
		Where("attempted_at >= ?", since).
		Count(&count).Error; err != nil {
		return 0, storeErr("failed_attempt_count", err)
	}
	return int(count), nil
}

func (r *lockoutRepository) ClearFailedAttempts(ctx context.Context, userID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&failedLoginAttemptModel{}).Error; err != nil {
		return storeErr("failed_attempt_clear", err)
	}
	return nil
}

func (r *lockoutRepository) CreateLockout(ctx context.Context, lockout domain.AccountLockout) (domain.AccountLockout, error) {
	rec := accountLockoutModel{
		UserID:      lockout.UserID,
		LockedUntil: lockout.LockedUntil,
		Reason:      lockout.Reason,
		CreatedAt:   lockout.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.AccountLockout{}, storeErr("lockout_create", err)
	}
	return toDomainLockout(rec), nil
}

func (r *lockoutRepository) ActiveLockout(ctx context.Context, userID uuid.UUID, now time.Time) (domain.AccountLockout, error) {
	var rec accountLockoutModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("locked_until > ?", now).
		Order("locked_until DESC").
		Take(&rec).Error; err != nil {
		return domain.AccountLockout{}, storeErr("lockout_active", err)
	}
	return toDomainLockout(rec), nil
}
