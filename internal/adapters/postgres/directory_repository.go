package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/domain"
	"gorm.io/gorm"
)

type userDirectory struct {
	db *gorm.DB
}

func (r *userDirectory) GetProfile(ctx context.Context, userID uuid.UUID) (domain.SecurityProfile, error) {
	var rec userModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&rec).Error; err != nil {
		return domain.SecurityProfile{}, storeErr("profile_get", err)
	}

	roles, err := r.rolesByUser(ctx, []uuid.UUID{userID})
	if err != nil {
		return domain.SecurityProfile{}, err
	}
	return toSecurityProfile(rec, roles[userID]), nil
}

func (r *userDirectory) ListProfiles(ctx context.Context, limit, offset int) ([]domain.SecurityProfile, error) {
	var rows []userModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC, user_id ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, storeErr("profile_list", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserID)
	}
	roles, err := r.rolesByUser(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]domain.SecurityProfile, 0, len(rows))
	for _, row := range rows {
		result = append(result, toSecurityProfile(row, roles[row.UserID]))
	}
	return result, nil
}

func (r *userDirectory) CountProfiles(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&userModel{}).Count(&count).Error; err != nil {
		return 0, storeErr("profile_count", err)
	}
	return count, nil
}

// rolesByUser loads role attachments for a batch of users, preserving attach
// order. Attach order drives policy precedence, so it must survive the query.
func (r *userDirectory) rolesByUser(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	var rows []userRoleModel
	if err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("attached_at ASC, role_id ASC").
		Find(&rows).Error; err != nil {
		return nil, storeErr("profile_roles", err)
	}

	result := make(map[uuid.UUID][]uuid.UUID, len(userIDs))
	for _, row := range rows {
		result[row.UserID] = append(result[row.UserID], row.RoleID)
	}
	return result, nil
}

func toSecurityProfile(row userModel, roleIDs []uuid.UUID) domain.SecurityProfile {
	return domain.SecurityProfile{
		UserID:         row.UserID,
		OrganizationID: row.OrganizationID,
		RoleIDs:        roleIDs,
		IsActive:       row.IsActive,
		CreatedAt:      row.CreatedAt,
	}
}
