package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/domain"
	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

func (r *sessionRepository) Create(ctx context.Context, session domain.UserSession) (domain.UserSession, error) {
	rec := userSessionModel{
		UserID:            session.UserID,
		Token:             session.Token,
		IPAddress:         nullableString(session.IPAddress),
		UserAgent:         session.UserAgent,
		DeviceFingerprint: session.DeviceFingerprint,
		DeviceType:        session.DeviceType,
		Browser:           session.Browser,
		OS:                session.OS,
		Location:          session.Location,
		CreatedAt:         session.CreatedAt,
		LastActivityAt:    session.LastActivityAt,
		ExpiresAt:         session.ExpiresAt,
		IsActive:          session.IsActive,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.UserSession{}, storeErr("session_create", err)
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) GetByID(ctx context.Context, sessionID uuid.UUID) (domain.UserSession, error) {
	var rec userSessionModel
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Take(&rec).Error; err != nil {
		return domain.UserSession{}, storeErr("session_get_by_id", err)
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) ListActive(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.UserSession, error) {
	var rows []userSessionModel
	if err := r.activeScope(ctx, userID, now).
		Order("last_activity_at DESC").
		Find(&rows).Error; err != nil {
		return nil, storeErr("session_list_active", err)
	}
	return toDomainSessions(rows), nil
}

func (r *sessionRepository) ListRecent(ctx context.Context, userID uuid.UUID, since time.Time, excludeID uuid.UUID, limit int) ([]domain.UserSession, error) {
	if limit <= 0 {
		return nil, nil
	}
	var rows []userSessionModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("created_at >= ?", since).
		Where("session_id <> ?", excludeID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, storeErr("session_list_recent", err)
	}
	return toDomainSessions(rows), nil
}

func (r *sessionRepository) CountActive(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	var count int64
	if err := r.activeScope(ctx, userID, now).Count(&count).Error; err != nil {
		return 0, storeErr("session_count_active", err)
	}
	return int(count), nil
}

func (r *sessionRepository) OldestActive(ctx context.Context, userID uuid.UUID, now time.Time) (domain.UserSession, error) {
	var rec userSessionModel
	if err := r.activeScope(ctx, userID, now).
		Order("created_at ASC").
		Take(&rec).Error; err != nil {
		return domain.UserSession{}, storeErr("session_oldest_active", err)
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) TouchActivity(ctx context.Context, sessionID uuid.UUID, touchedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&userSessionModel{}).
		Where("session_id = ?", sessionID).
		Where("is_active = TRUE").
		Update("last_activity_at", touchedAt)
	if res.Error != nil {
		return storeErr("session_touch", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *sessionRepository) Terminate(ctx context.Context, sessionID uuid.UUID, terminatedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&userSessionModel{}).
		Where("session_id = ?", sessionID).
		Where("is_active = TRUE").
		Updates(map[string]any{
			"is_active":     false,
			"terminated_at": terminatedAt,
		})
	if res.Error != nil {
		return storeErr("session_terminate", res.Error)
	}
	if res.RowsAffected == 0 {
		// Either the session does not exist or it is already terminated.
		var exists int64
		if err := r.db.WithContext(ctx).Model(&userSessionModel{}).Where("session_id = ?", sessionID).Count(&exists).Error; err != nil {
			return storeErr("session_terminate", err)
		}
		if exists == 0 {
			return domain.ErrNotFound
		}
	}
	return nil
}

func (r *sessionRepository) TerminateAllByUser(ctx context.Context, userID uuid.UUID, terminatedAt time.Time, exceptID *uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&userSessionModel{}).
		Where("user_id = ?", userID).
		Where("is_active = TRUE")
	if exceptID != nil {
		query = query.Where("session_id <> ?", *exceptID)
	}
	res := query.Updates(map[string]any{
		"is_active":     false,
		"terminated_at": terminatedAt,
	})
	if res.Error != nil {
		return 0, storeErr("session_terminate_all", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *sessionRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&userSessionModel{}).
		Where("is_active = TRUE").
		Where("expires_at < ?", now).
		Updates(map[string]any{
			"is_active":     false,
			"terminated_at": now,
		})
	if res.Error != nil {
		return 0, storeErr("session_sweep_expired", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *sessionRepository) activeScope(ctx context.Context, userID uuid.UUID, now time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&userSessionModel{}).
		Where("user_id = ?", userID).
		Where("is_active = TRUE").
		Where("expires_at > ?", now)
}

func toDomainSessions(rows []userSessionModel) []domain.UserSession {
	result := make([]domain.UserSession, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainSession(row))
	}
	return result
}
