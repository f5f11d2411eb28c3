package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/port/outbound"
)

// SubmissionAdapter implements SubmissionStorePort.
type SubmissionAdapter struct {
	db *gorm.DB
}

var _ outbound.SubmissionStorePort = (*SubmissionAdapter)(nil)

// NewSubmissionAdapter creates a new submission adapter.
func NewSubmissionAdapter(db *gorm.DB) *SubmissionAdapter {
	return &SubmissionAdapter{db: db}
}

func (a *SubmissionAdapter) ListSubmissions(ctx context.Context, filter model.SubmissionFilter) ([]*model.Submission, error) {
	q := a.db.WithContext(ctx).Model(&model.Submission{})
	if filter.TaskID != uuid.Nil {
		q = q.Where("task_id = ?", filter.TaskID)
	}
	if filter.UserID != uuid.Nil {
		q = q.Where("user_id = ?", filter.UserID)
	}

	var rows []*model.Submission
	if err := q.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, mapError(err, "submission")
	}
	return rows, nil
}

func (a *SubmissionAdapter) CreateSubmission(ctx context.Context, sub *model.Submission) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	return mapError(a.db.WithContext(ctx).Create(sub).Error, "submission")
}
