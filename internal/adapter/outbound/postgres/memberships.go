package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/port/outbound"
	apperrors "github.com/labportal/server/internal/utils/errors"
)

// MembershipAdapter implements MembershipStorePort.
type MembershipAdapter struct {
	db *gorm.DB
}

var _ outbound.MembershipStorePort = (*MembershipAdapter)(nil)

// NewMembershipAdapter creates a new membership adapter.
func NewMembershipAdapter(db *gorm.DB) *MembershipAdapter {
	return &MembershipAdapter{db: db}
}

func (a *MembershipAdapter) ListMemberships(ctx context.Context, filter model.MembershipFilter) ([]*model.Membership, error) {
	q := a.db.WithContext(ctx).Model(&model.Membership{})
	if filter.UserID != uuid.Nil {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.ProjectID != uuid.Nil {
		q = q.Where("project_id = ?", filter.ProjectID)
	}

	var rows []*model.Membership
	if err := q.Order("joined_at ASC, project_id ASC").Find(&rows).Error; err != nil {
		return nil, mapError(err, "membership")
	}
	return rows, nil
}

func (a *MembershipAdapter) CreateMembership(ctx context.Context, m *model.Membership) error {
	return mapError(a.db.WithContext(ctx).Create(m).Error, "membership")
}

func (a *MembershipAdapter) DeleteMembership(ctx context.Context, userID, projectID uuid.UUID) error {
	res := a.db.WithContext(ctx).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Delete(&model.Membership{})
	if res.Error != nil {
		return mapError(res.Error, "membership")
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("membership")
	}
	return nil
}

func (a *MembershipAdapter) UpdateRole(ctx context.Context, userID, projectID uuid.UUID, role model.ProjectRole) error {
	res := a.db.WithContext(ctx).
		Model(&model.Membership{}).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Update("role", role)
	if res.Error != nil {
		return mapError(res.Error, "membership")
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("membership")
	}
	return nil
}
