package remote

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/port/outbound"
	apperrors "github.com/labportal/server/internal/utils/errors"
	"github.com/labportal/server/internal/utils/pagination"
)

// MembershipStore keeps memberships in the upstream API.
type MembershipStore struct {
	client *Client
}

var _ outbound.MembershipStorePort = (*MembershipStore)(nil)

// NewMembershipStore creates a membership store adapter.
func NewMembershipStore(client *Client) *MembershipStore {
	return &MembershipStore{client: client}
}

// ListMemberships lists memberships matching filter, oldest first.
func (s *MembershipStore) ListMemberships(ctx context.Context, filter model.MembershipFilter) ([]*model.Membership, error) {
	q := url.Values{}
	if filter.UserID != uuid.Nil {
		q.Set("userId", filter.UserID.String())
	}
	if filter.ProjectID != uuid.Nil {
		q.Set("projectId", filter.ProjectID.String())
	}

	raw, err := s.client.do(ctx, request{method: http.MethodGet, path: "/memberships", query: q, resource: "membership"})
	if err != nil {
		return nil, err
	}
	res := decodeList[membershipDTO](s.client, raw)

	out := make([]*model.Membership, 0, len(res.Records))
	for _, dto := range res.Records {
		out = append(out, dto.toModel())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

// CreateMembership stores a new membership.
func (s *MembershipStore) CreateMembership(ctx context.Context, m *model.Membership) error {
	_, err := s.client.do(ctx, request{
		method:   http.MethodPost,
		path:     "/memberships",
		body:     membershipFromModel(m),
		resource: "project",
	})
	return err
}

// DeleteMembership removes the membership of userID on projectID.
func (s *MembershipStore) DeleteMembership(ctx context.Context, userID, projectID uuid.UUID) error {
	_, err := s.client.do(ctx, request{
		method:   http.MethodDelete,
		path:     memberPath(projectID, userID),
		resource: "membership",
	})
	return err
}

// UpdateRole changes a member's project role.
func (s *MembershipStore) UpdateRole(ctx context.Context, userID, projectID uuid.UUID, role model.ProjectRole) error {
	body := struct {
		Role string `json:"role"`
	}{Role: string(role)}
	_, err := s.client.do(ctx, request{
		method:   http.MethodPatch,
		path:     memberPath(projectID, userID),
		body:     body,
		resource: "membership",
	})
	return err
}

func memberPath(projectID, userID uuid.UUID) string {
	return "/projects/" + projectID.String() + "/members/" + userID.String()
}

// InvitationStore keeps invitations in the upstream API.
type InvitationStore struct {
	client *Client
}

var _ outbound.InvitationStorePort = (*InvitationStore)(nil)

// NewInvitationStore creates an invitation store adapter.
func NewInvitationStore(client *Client) *InvitationStore {
	return &InvitationStore{client: client}
}

// CreateInvitation stores a new pending invitation. The ID is assigned here so
// the caller knows it even if the response body is unusable.
func (s *InvitationStore) CreateInvitation(ctx context.Context, inv *model.Invitation) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	_, err := s.client.do(ctx, request{
		method:   http.MethodPost,
		path:     "/invitations",
		body:     invitationFromModel(inv),
		resource: "project",
	})
	return err
}

// GetInvitation retrieves an invitation by ID.
func (s *InvitationStore) GetInvitation(ctx context.Context, id uuid.UUID) (*model.Invitation, error) {
	raw, err := s.client.do(ctx, request{method: http.MethodGet, path: "/invitations/" + id.String(), resource: "invitation"})
	if err != nil {
		return nil, err
	}
	dto, ok := decodeOne[invitationDTO](s.client, raw)
	if !ok || dto.ID == uuid.Nil {
		return nil, apperrors.NotFound("invitation")
	}
	return dto.toModel(), nil
}

// ListInvitations lists invitations matching filter, newest first.
func (s *InvitationStore) ListInvitations(ctx context.Context, filter model.InvitationFilter) ([]*model.Invitation, error) {
	q := url.Values{}
	if filter.ProjectID != uuid.Nil {
		q.Set("projectId", filter.ProjectID.String())
	}
	if filter.InvitedUserID != uuid.Nil {
		q.Set("invitedUserId", filter.InvitedUserID.String())
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}

	raw, err := s.client.do(ctx, request{method: http.MethodGet, path: "/invitations", query: q, resource: "invitation"})
	if err != nil {
		return nil, err
	}
	res := decodeList[invitationDTO](s.client, raw)

	out := make([]*model.Invitation, 0, len(res.Records))
	for _, dto := range res.Records {
		inv := dto.toModel()
		// Upstream filtering is advisory.
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		out = append(out, inv)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ResolveInvitation moves a pending invitation to outcome. The upstream answers
// 409 when the invitation was already resolved.
func (s *InvitationStore) ResolveInvitation(ctx context.Context, id uuid.UUID, outcome model.InvitationStatus, at time.Time) (bool, error) {
	body := struct {
		Status     string    `json:"status"`
		ResolvedAt time.Time `json:"resolvedAt"`
	}{Status: string(outcome), ResolvedAt: at}

	_, err := s.client.do(ctx, request{
		method:   http.MethodPost,
		path:     "/invitations/" + id.String() + "/resolve",
		body:     body,
		resource: "invitation",
	})
	if apperrors.IsConflict(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// TaskStore reads milestones and tasks from the upstream API.
type TaskStore struct {
	client *Client
}

var _ outbound.TaskStorePort = (*TaskStore)(nil)

// NewTaskStore creates a task store adapter.
func NewTaskStore(client *Client) *TaskStore {
	return &TaskStore{client: client}
}

// GetTask retrieves a task by ID.
func (s *TaskStore) GetTask(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	raw, err := s.client.do(ctx, request{method: http.MethodGet, path: "/tasks/" + id.String(), resource: "task"})
	if err != nil {
		return nil, err
	}
	dto, ok := decodeOne[taskDTO](s.client, raw)
	if !ok || dto.ID == uuid.Nil {
		return nil, apperrors.NotFound("task")
	}
	return dto.toModel(), nil
}

// GetMilestone retrieves a milestone by ID.
func (s *TaskStore) GetMilestone(ctx context.Context, id uuid.UUID) (*model.Milestone, error) {
	raw, err := s.client.do(ctx, request{method: http.MethodGet, path: "/milestones/" + id.String(), resource: "milestone"})
	if err != nil {
		return nil, err
	}
	dto, ok := decodeOne[milestoneDTO](s.client, raw)
	if !ok || dto.ID == uuid.Nil {
		return nil, apperrors.NotFound("milestone")
	}
	return dto.toModel(), nil
}

// ListMilestones lists a project's milestones in upstream order.
func (s *TaskStore) ListMilestones(ctx context.Context, projectID uuid.UUID) ([]*model.Milestone, error) {
	raw, err := s.client.do(ctx, request{
		method:   http.MethodGet,
		path:     "/projects/" + projectID.String() + "/milestones",
		resource: "project",
	})
	if err != nil {
		return nil, err
	}
	res := decodeList[milestoneDTO](s.client, raw)

	out := make([]*model.Milestone, 0, len(res.Records))
	for _, dto := range res.Records {
		out = append(out, dto.toModel())
	}
	return out, nil
}

// ListTasks lists one page of a milestone's tasks.
func (s *TaskStore) ListTasks(ctx context.Context, milestoneID uuid.UUID, page *pagination.Pagination) ([]*model.Task, error) {
	if page == nil {
		page = pagination.New()
	}
	page.Normalize()
	q := url.Values{}
	q.Set("page", strconv.Itoa(page.Page))
	q.Set("pageSize", strconv.Itoa(page.Limit()))

	raw, err := s.client.do(ctx, request{
		method:   http.MethodGet,
		path:     "/milestones/" + milestoneID.String() + "/tasks",
		query:    q,
		resource: "milestone",
	})
	if err != nil {
		return nil, err
	}
	res := decodeList[taskDTO](s.client, raw)

	out := make([]*model.Task, 0, len(res.Records))
	for _, dto := range res.Records {
		out = append(out, dto.toModel())
	}
	return out, nil
}

// SubmissionStore keeps submissions in the upstream API.
type SubmissionStore struct {
	client *Client
}

var _ outbound.SubmissionStorePort = (*SubmissionStore)(nil)

// NewSubmissionStore creates a submission store adapter.
func NewSubmissionStore(client *Client) *SubmissionStore {
	return &SubmissionStore{client: client}
}

// ListSubmissions lists submissions matching filter.
func (s *SubmissionStore) ListSubmissions(ctx context.Context, filter model.SubmissionFilter) ([]*model.Submission, error) {
	q := url.Values{}
	if filter.TaskID != uuid.Nil {
		q.Set("taskId", filter.TaskID.String())
	}
	if filter.UserID != uuid.Nil {
		q.Set("userId", filter.UserID.String())
	}

	raw, err := s.client.do(ctx, request{method: http.MethodGet, path: "/submissions", query: q, resource: "submission"})
	if err != nil {
		return nil, err
	}
	res := decodeList[submissionDTO](s.client, raw)

	out := make([]*model.Submission, 0, len(res.Records))
	for _, dto := range res.Records {
		out = append(out, dto.toModel())
	}
	return out, nil
}

// CreateSubmission stores a new submission.
func (s *SubmissionStore) CreateSubmission(ctx context.Context, sub *model.Submission) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	_, err := s.client.do(ctx, request{
		method:   http.MethodPost,
		path:     "/submissions",
		body:     submissionFromModel(sub),
		resource: "task",
	})
	return err
}
