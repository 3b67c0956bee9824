package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/domain"
	"gorm.io/gorm"
)

type historyRepository struct {
	db *gorm.DB
}

func (r *historyRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.PasswordHistoryEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	var rows []passwordHistoryModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, storeErr("history_list_recent", err)
	}
	result := make([]domain.PasswordHistoryEntry, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.PasswordHistoryEntry{
			ID:           row.ID,
			UserID:       row.UserID,
			PasswordHash: row.PasswordHash,
			CreatedAt:    row.CreatedAt,
		})
	}
	return result, nil
}

func (r *historyRepository) LatestChangedAt(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	var rec passwordHistoryModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeErr("history_latest_changed_at", err)
	}
	at := rec.CreatedAt
	return &at, nil
}

func (r *historyRepository) LatestChangedAtByUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	if len(userIDs) == 0 {
		return map[uuid.UUID]time.Time{}, nil
	}

	var rows []struct {
		UserID   uuid.UUID `gorm:"column:user_id"`
		LatestAt time.Time `gorm:"column:latest_at"`
	}
	if err := r.db.WithContext(ctx).
		Model(&passwordHistoryModel{}).
		Select("user_id, MAX(created_at) AS latest_at").
		Where("user_id IN ?", userIDs).
		Group("user_id").
		Find(&rows).Error; err != nil {
		return nil, storeErr("history_latest_changed_at_batch", err)
	}

	result := make(map[uuid.UUID]time.Time, len(rows))
	for _, row := range rows {
		result[row.UserID] = row.LatestAt
	}
	return result, nil
}
