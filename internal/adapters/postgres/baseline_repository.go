package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/domain"
	"gorm.io/gorm"
)

type baselineRepository struct {
	db *gorm.DB
}

func (r *baselineRepository) Save(ctx context.Context, baseline domain.BehavioralBaseline) (domain.BehavioralBaseline, error) {
	rec, err := toBaselineModel(baseline)
	if err != nil {
		return domain.BehavioralBaseline{}, err
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.BehavioralBaseline{}, storeErr("baseline_save", err)
	}
	return toDomainBaseline(rec)
}

func (r *baselineRepository) Latest(ctx context.Context, userID uuid.UUID) (domain.BehavioralBaseline, error) {
	var rec behavioralBaselineModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Take(&rec).Error; err != nil {
		return domain.BehavioralBaseline{}, storeErr("baseline_latest", err)
	}
	return toDomainBaseline(rec)
}

type activityLogReader struct {
	db *gorm.DB
}

func (r *activityLogReader) ListRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.ActivityEntry, error) {
	var rows []activityLogModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("occurred_at >= ?", from).
		Where("occurred_at < ?", to).
		Order("occurred_at ASC").
		Find(&rows).Error; err != nil {
		return nil, storeErr("activity_list_range", err)
	}
	result := make([]domain.ActivityEntry, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.ActivityEntry{
			UserID:     row.UserID,
			Action:     row.Action,
			OccurredAt: row.OccurredAt,
		})
	}
	return result, nil
}
