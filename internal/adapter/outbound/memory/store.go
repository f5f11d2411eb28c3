package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/port/outbound"
	apperrors "github.com/labportal/server/internal/utils/errors"
	"github.com/labportal/server/internal/utils/pagination"
)

type membershipKey struct {
	userID    uuid.UUID
	projectID uuid.UUID
}

// MembershipStore keeps memberships in memory.
type MembershipStore struct {
	mu   sync.RWMutex
	rows map[membershipKey]model.Membership
}

var _ outbound.MembershipStorePort = (*MembershipStore)(nil)

// NewMembershipStore creates a store holding memberships.
func NewMembershipStore(memberships ...*model.Membership) *MembershipStore {
	s := &MembershipStore{rows: make(map[membershipKey]model.Membership)}
	for _, m := range memberships {
		s.rows[membershipKey{m.UserID, m.ProjectID}] = *m
	}
	return s
}

// ListMemberships lists memberships matching filter, oldest first.
func (s *MembershipStore) ListMemberships(ctx context.Context, filter model.MembershipFilter) ([]*model.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Membership, 0)
	for _, m := range s.rows {
		if filter.UserID != uuid.Nil && m.UserID != filter.UserID {
			continue
		}
		if filter.ProjectID != uuid.Nil && m.ProjectID != filter.ProjectID {
			continue
		}
		m := m
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

// CreateMembership stores a new membership.
func (s *MembershipStore) CreateMembership(ctx context.Context, m *model.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := membershipKey{m.UserID, m.ProjectID}
	if _, ok := s.rows[key]; ok {
		return apperrors.Conflict("membership already exists")
	}
	s.rows[key] = *m
	return nil
}

// DeleteMembership removes a membership.
func (s *MembershipStore) DeleteMembership(ctx context.Context, userID, projectID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := membershipKey{userID, projectID}
	if _, ok := s.rows[key]; !ok {
		return apperrors.NotFound("membership")
	}
	delete(s.rows, key)
	return nil
}

// UpdateRole changes a member's role.
func (s *MembershipStore) UpdateRole(ctx context.Context, userID, projectID uuid.UUID, role model.ProjectRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := membershipKey{userID, projectID}
	m, ok := s.rows[key]
	if !ok {
		return apperrors.NotFound("membership")
	}
	m.Role = role
	s.rows[key] = m
	return nil
}

// InvitationStore keeps invitations in memory.
type InvitationStore struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]model.Invitation
}

var _ outbound.InvitationStorePort = (*InvitationStore)(nil)

// NewInvitationStore creates an empty invitation store.
func NewInvitationStore() *InvitationStore {
	return &InvitationStore{rows: make(map[uuid.UUID]model.Invitation)}
}

// CreateInvitation stores a new invitation, assigning an ID when missing.
func (s *InvitationStore) CreateInvitation(ctx context.Context, inv *model.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	s.rows[inv.ID] = *inv
	return nil
}

// GetInvitation retrieves an invitation by ID.
func (s *InvitationStore) GetInvitation(ctx context.Context, id uuid.UUID) (*model.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.rows[id]
	if !ok {
		return nil, apperrors.NotFound("invitation")
	}
	return &inv, nil
}

// ListInvitations lists invitations matching filter, newest first.
func (s *InvitationStore) ListInvitations(ctx context.Context, filter model.InvitationFilter) ([]*model.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Invitation, 0)
	for _, inv := range s.rows {
		if filter.ProjectID != uuid.Nil && inv.ProjectID != filter.ProjectID {
			continue
		}
		if filter.InvitedUserID != uuid.Nil && inv.InvitedUserID != filter.InvitedUserID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		inv := inv
		out = append(out, &inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ResolveInvitation moves a pending invitation to outcome.
func (s *InvitationStore) ResolveInvitation(ctx context.Context, id uuid.UUID, outcome model.InvitationStatus, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.rows[id]
	if !ok {
		return false, apperrors.NotFound("invitation")
	}
	if inv.Status != model.InvitationStatusPending {
		return false, nil
	}
	inv.Status = outcome
	inv.ResolvedAt = &at
	s.rows[id] = inv
	return true, nil
}

// TaskStore is a seeded, in-memory milestone and task catalogue.
type TaskStore struct {
	mu         sync.RWMutex
	milestones map[uuid.UUID]model.Milestone
	tasks      map[uuid.UUID]model.Task
}

var _ outbound.TaskStorePort = (*TaskStore)(nil)

// NewTaskStore creates an empty task store.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		milestones: make(map[uuid.UUID]model.Milestone),
		tasks:      make(map[uuid.UUID]model.Task),
	}
}

// PutMilestone inserts or replaces a milestone.
func (s *TaskStore) PutMilestone(m *model.Milestone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.milestones[m.ID] = *m
}

// PutTask inserts or replaces a task.
func (s *TaskStore) PutTask(t *model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = *t
}

// GetTask retrieves a task by ID.
func (s *TaskStore) GetTask(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, apperrors.NotFound("task")
	}
	return &t, nil
}

// GetMilestone retrieves a milestone by ID.
func (s *TaskStore) GetMilestone(ctx context.Context, id uuid.UUID) (*model.Milestone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.milestones[id]
	if !ok {
		return nil, apperrors.NotFound("milestone")
	}
	return &m, nil
}

// ListMilestones lists a project's milestones by due date.
func (s *TaskStore) ListMilestones(ctx context.Context, projectID uuid.UUID) ([]*model.Milestone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Milestone, 0)
	for _, m := range s.milestones {
		if m.ProjectID == projectID {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return dueBefore(out[i].DueAt, out[j].DueAt) })
	return out, nil
}

// ListTasks lists one page of a milestone's tasks by due date.
func (s *TaskStore) ListTasks(ctx context.Context, milestoneID uuid.UUID, page *pagination.Pagination) ([]*model.Task, error) {
	s.mu.RLock()
	all := make([]*model.Task, 0)
	for _, t := range s.tasks {
		if t.MilestoneID == milestoneID {
			t := t
			all = append(all, &t)
		}
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		switch {
		case dueBefore(all[i].DueAt, all[j].DueAt):
			return true
		case dueBefore(all[j].DueAt, all[i].DueAt):
			return false
		default:
			return all[i].ID.String() < all[j].ID.String()
		}
	})
	return pagination.Slice(all, page).Items, nil
}

func dueBefore(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}

// SubmissionStore keeps submissions in memory.
type SubmissionStore struct {
	mu   sync.RWMutex
	rows []model.Submission
}

var _ outbound.SubmissionStorePort = (*SubmissionStore)(nil)

// NewSubmissionStore creates a store holding submissions.
func NewSubmissionStore(subs ...*model.Submission) *SubmissionStore {
	s := &SubmissionStore{}
	for _, sub := range subs {
		s.rows = append(s.rows, *sub)
	}
	return s
}

// ListSubmissions lists submissions matching filter in insertion order.
func (s *SubmissionStore) ListSubmissions(ctx context.Context, filter model.SubmissionFilter) ([]*model.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Submission, 0)
	for _, sub := range s.rows {
		if filter.TaskID != uuid.Nil && sub.TaskID != filter.TaskID {
			continue
		}
		if filter.UserID != uuid.Nil && sub.UserID != filter.UserID {
			continue
		}
		sub := sub
		out = append(out, &sub)
	}
	return out, nil
}

// CreateSubmission stores a new submission, assigning an ID when missing.
func (s *SubmissionStore) CreateSubmission(ctx context.Context, sub *model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	s.rows = append(s.rows, *sub)
	return nil
}
