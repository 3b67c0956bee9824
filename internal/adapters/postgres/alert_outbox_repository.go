package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type alertOutboxRepository struct {
	db *gorm.DB
}

func (r *alertOutboxRepository) Enqueue(ctx context.Context, eventType string, payload []byte, occurredAt time.Time) error {
	if len(payload) == 0 {
		payload = []byte(`{}`)
	}
	rec := securityAlertOutboxModel{
		OutboxID:  uuid.New(),
		EventType: eventType,
		Payload:   string(payload),
		CreatedAt: occurredAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return storeErr("outbox_enqueue", err)
	}
	return nil
}

// ClaimUnpublished atomically stamps up to limit deliverable records with the
// worker's claim token. SKIP LOCKED keeps competing workers from blocking on
// each other's claims.
func (r *alertOutboxRepository) ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]ports.OutboxAlert, error) {
	if limit <= 0 {
		return nil, nil
	}
	if claimToken == "" {
		return nil, fmt.Errorf("claim token is required")
	}

	now := time.Now().UTC()
	var rows []securityAlertOutboxModel
	if err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subquery := tx.Model(&securityAlertOutboxModel{}).
			Select("outbox_id").
			Where("published_at IS NULL").
			Where("dead_lettered_at IS NULL").
			Where("claim_until IS NULL OR claim_until < ?", now).
			Order("created_at ASC").
			Limit(limit).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})

		if err := tx.Model(&securityAlertOutboxModel{}).
			Where("outbox_id IN (?)", subquery).
			Updates(map[string]any{
				"claim_token": claimToken,
				"claim_until": claimUntil,
			}).Error; err != nil {
			return err
		}

		return tx.Where("claim_token = ?", claimToken).
			Where("published_at IS NULL").
			Where("dead_lettered_at IS NULL").
			Order("created_at ASC").
			Find(&rows).Error
	}); err != nil {
		return nil, storeErr("outbox_claim", err)
	}

	result := make([]ports.OutboxAlert, 0, len(rows))
	for _, row := range rows {
		result = append(result, ports.OutboxAlert{
			OutboxID:       row.OutboxID,
			EventType:      row.EventType,
			Payload:        []byte(row.Payload),
			RetryCount:     row.RetryCount,
			LastError:      row.LastError,
			CreatedAt:      row.CreatedAt,
			PublishedAt:    row.PublishedAt,
			LastErrorAt:    row.LastErrorAt,
			ClaimToken:     row.ClaimToken,
			ClaimUntil:     row.ClaimUntil,
			DeadLetteredAt: row.DeadLetteredAt,
		})
	}
	return result, nil
}

func (r *alertOutboxRepository) MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&securityAlertOutboxModel{}).
		Where("outbox_id = ?", outboxID).
		Where("claim_token = ?", claimToken).
		Updates(map[string]any{
			"published_at": at,
			"claim_token":  nil,
			"claim_until":  nil,
		}).Error
	return storeErr("outbox_mark_published", err)
}

func (r *alertOutboxRepository) MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&securityAlertOutboxModel{}).
		Where("outbox_id = ?", outboxID).
		Where("claim_token = ?", claimToken).
		Updates(map[string]any{
			"retry_count":   gorm.Expr("retry_count + 1"),
			"last_error":    errMsg,
			"last_error_at": at,
			"claim_token":   nil,
			"claim_until":   nil,
		}).Error
	return storeErr("outbox_mark_failed", err)
}

func (r *alertOutboxRepository) MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&securityAlertOutboxModel{}).
		Where("outbox_id = ?", outboxID).
		Where("claim_token = ?", claimToken).
		Updates(map[string]any{
			"retry_count":      gorm.Expr("retry_count + 1"),
			"last_error":       errMsg,
			"last_error_at":    at,
			"dead_lettered_at": at,
			"claim_token":      nil,
			"claim_until":      nil,
		}).Error
	return storeErr("outbox_mark_dead_lettered", err)
}
