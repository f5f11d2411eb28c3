package outbound

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/utils/pagination"
)

// MembershipStorePort defines membership persistence operations.
type MembershipStorePort interface {
	// ListMemberships lists memberships matching filter, oldest first.
	ListMemberships(ctx context.Context, filter model.MembershipFilter) ([]*model.Membership, error)

	// CreateMembership stores a new membership.
	CreateMembership(ctx context.Context, m *model.Membership) error

	// DeleteMembership removes the membership of userID on projectID.
	DeleteMembership(ctx context.Context, userID, projectID uuid.UUID) error

	// UpdateRole changes a member's project role.
	UpdateRole(ctx context.Context, userID, projectID uuid.UUID, role model.ProjectRole) error
}

// InvitationStorePort defines invitation persistence operations.
type InvitationStorePort interface {
	// CreateInvitation stores a new pending invitation.
	CreateInvitation(ctx context.Context, inv *model.Invitation) error

	// GetInvitation retrieves an invitation by ID.
	GetInvitation(ctx context.Context, id uuid.UUID) (*model.Invitation, error)

	// ListInvitations lists invitations matching filter, newest first.
	ListInvitations(ctx context.Context, filter model.InvitationFilter) ([]*model.Invitation, error)

	// ResolveInvitation moves a pending invitation to outcome. It reports false
	// when the invitation was no longer pending.
	ResolveInvitation(ctx context.Context, id uuid.UUID, outcome model.InvitationStatus, at time.Time) (bool, error)
}

// TaskStorePort reads milestones and tasks.
type TaskStorePort interface {
	// GetTask retrieves a task by ID.
	GetTask(ctx context.Context, id uuid.UUID) (*model.Task, error)

	// GetMilestone retrieves a milestone by ID.
	GetMilestone(ctx context.Context, id uuid.UUID) (*model.Milestone, error)

	// ListMilestones lists a project's milestones in schedule order.
	ListMilestones(ctx context.Context, projectID uuid.UUID) ([]*model.Milestone, error)

	// ListTasks lists one page of a milestone's tasks.
	ListTasks(ctx context.Context, milestoneID uuid.UUID, page *pagination.Pagination) ([]*model.Task, error)
}

// SubmissionStorePort defines submission persistence operations.
type SubmissionStorePort interface {
	// ListSubmissions lists submissions matching filter.
	ListSubmissions(ctx context.Context, filter model.SubmissionFilter) ([]*model.Submission, error)

	// CreateSubmission stores a new submission.
	CreateSubmission(ctx context.Context, sub *model.Submission) error
}
