package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/port/outbound"
)

// InvitationAdapter implements InvitationStorePort.
type InvitationAdapter struct {
	db *gorm.DB
}

var _ outbound.InvitationStorePort = (*InvitationAdapter)(nil)

// NewInvitationAdapter creates a new invitation adapter.
func NewInvitationAdapter(db *gorm.DB) *InvitationAdapter {
	return &InvitationAdapter{db: db}
}

// CreateInvitation inserts a pending invitation. A second pending invitation
// for the same user and project violates uq_invitations_pending and is
// reported as a conflict.
func (a *InvitationAdapter) CreateInvitation(ctx context.Context, inv *model.Invitation) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	return mapError(a.db.WithContext(ctx).Create(inv).Error, "invitation")
}

func (a *InvitationAdapter) GetInvitation(ctx context.Context, id uuid.UUID) (*model.Invitation, error) {
	var inv model.Invitation
	if err := a.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error; err != nil {
		return nil, mapError(err, "invitation")
	}
	return &inv, nil
}

func (a *InvitationAdapter) ListInvitations(ctx context.Context, filter model.InvitationFilter) ([]*model.Invitation, error) {
	q := a.db.WithContext(ctx).Model(&model.Invitation{})
	if filter.ProjectID != uuid.Nil {
		q = q.Where("project_id = ?", filter.ProjectID)
	}
	if filter.InvitedUserID != uuid.Nil {
		q = q.Where("invited_user_id = ?", filter.InvitedUserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var rows []*model.Invitation
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, mapError(err, "invitation")
	}
	return rows, nil
}

// ResolveInvitation updates the row only while it is still pending, so two
// racing resolutions cannot both succeed.
func (a *InvitationAdapter) ResolveInvitation(ctx context.Context, id uuid.UUID, outcome model.InvitationStatus, at time.Time) (bool, error) {
	res := a.db.WithContext(ctx).
		Model(&model.Invitation{}).
		Where("id = ? AND status = ?", id, model.InvitationStatusPending).
		Updates(map[string]any{"status": outcome, "resolved_at": at})
	if res.Error != nil {
		return false, mapError(res.Error, "invitation")
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	// Nothing updated: distinguish a missing row from an already resolved one.
	var count int64
	err := a.db.WithContext(ctx).Model(&model.Invitation{}).Where("id = ?", id).Count(&count).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, mapError(err, "invitation")
	}
	if count == 0 {
		return false, mapError(gorm.ErrRecordNotFound, "invitation")
	}
	return false, nil
}
