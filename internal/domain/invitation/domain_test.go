package invitation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/labportal/server/internal/adapter/outbound/memory"
	"github.com/labportal/server/internal/domain/membership"
	"github.com/labportal/server/internal/model"
	apperrors "github.com/labportal/server/internal/utils/errors"
	"github.com/labportal/server/internal/utils/pagination"
)

const semester = "2026-fall"

type fixture struct {
	projects    *memory.ProjectDirectory
	users       *memory.UserDirectory
	memberships *memory.MembershipStore
	invitations *memory.InvitationStore
	members     *membership.Domain
	domain      *Domain
	clock       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		projects:    memory.NewProjectDirectory(),
		users:       memory.NewUserDirectory(),
		memberships: memory.NewMembershipStore(),
		invitations: memory.NewInvitationStore(),
		clock:       time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
	}
	f.members = membership.NewDomain(f.projects, f.memberships, nil, nil, nil, nil)
	f.domain = NewDomain(f.invitations, f.users, f.members, nil, nil, nil, nil)
	f.domain.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) project(t *testing.T, capacity int) *model.Project {
	t.Helper()
	p := &model.Project{
		ID:         uuid.New(),
		Title:      "Project",
		Status:     model.ProjectStatusOpen,
		Capacity:   capacity,
		SemesterID: semester,
	}
	f.projects.Put(p)
	return p
}

func (f *fixture) student(t *testing.T, name string) model.Caller {
	t.Helper()
	u := &model.User{ID: uuid.New(), DisplayName: name, Role: model.SystemRoleStudent, Active: true}
	f.users.Put(u)
	return model.Caller{UserID: u.ID, Role: model.SystemRoleStudent}
}

func (f *fixture) leader(t *testing.T, p *model.Project) model.Caller {
	t.Helper()
	c := f.student(t, "Leader")
	require.NoError(t, f.memberships.CreateMembership(context.Background(), &model.Membership{
		UserID: c.UserID, ProjectID: p.ID, Role: model.ProjectRoleLeader, SemesterID: p.SemesterID,
	}))
	return c
}

func (f *fixture) isMember(t *testing.T, userID, projectID uuid.UUID) bool {
	t.Helper()
	m, err := f.members.Find(context.Background(), userID, projectID)
	require.NoError(t, err)
	return m != nil
}

var mentor = model.Caller{UserID: uuid.New(), Role: model.SystemRoleMentor}

func TestSend(t *testing.T) {
	ctx := context.Background()

	t.Run("leader invites a free student", func(t *testing.T) {
		f := newFixture(t)
		p := f.project(t, 5)
		lead := f.leader(t, p)
		x := f.student(t, "X")

		inv, err := f.domain.Send(ctx, lead, p.ID, x.UserID, "  join us  ")
		require.NoError(t, err)
		assert.Equal(t, model.InvitationStatusPending, inv.Status)
		assert.Equal(t, lead.UserID, inv.InviterID)
		assert.Equal(t, "join us", inv.Message)
		assert.Equal(t, f.clock.Add(DefaultConfig().TTL), inv.ExpiresAt)
	})

	t.Run("plain member may not invite", func(t *testing.T) {
		f := newFixture(t)
		p := f.project(t, 5)
		member := f.student(t, "M")
		_, err := f.members.Join(ctx, member, member.UserID, p.ID)
		require.NoError(t, err)
		x := f.student(t, "X")

		_, err = f.domain.Send(ctx, member, p.ID, x.UserID, "")
		assert.ErrorIs(t, err, ErrInviteNotPermitted)
	})

	t.Run("duplicate pending invite", func(t *testing.T) {
		f := newFixture(t)
		p := f.project(t, 5)
		x := f.student(t, "X")
		_, err := f.domain.Send(ctx, mentor, p.ID, x.UserID, "")
		require.NoError(t, err)

		_, err = f.domain.Send(ctx, mentor, p.ID, x.UserID, "")
		assert.ErrorIs(t, err, ErrDuplicateInvite)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("expired pending invite does not block a new one", func(t *testing.T) {
		f := newFixture(t)
		p := f.project(t, 5)
		x := f.student(t, "X")
		first, err := f.domain.Send(ctx, mentor, p.ID, x.UserID, "")
		require.NoError(t, err)

		f.clock = f.clock.Add(DefaultConfig().TTL + time.Minute)
		_, err = f.domain.Send(ctx, mentor, p.ID, x.UserID, "")
		require.NoError(t, err)

		stored, err := f.invitations.GetInvitation(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, model.InvitationStatusExpired, stored.Status)
	})

	t.Run("target already on the project", func(t *testing.T) {
		f := newFixture(t)
		p := f.project(t, 5)
		x := f.student(t, "X")
		_, err := f.members.Join(ctx, x, x.UserID, p.ID)
		require.NoError(t, err)

		_, err = f.domain.Send(ctx, mentor, p.ID, x.UserID, "")
		assert.ErrorIs(t, err, membership.ErrAlreadyMember)
	})

	t.Run("target active elsewhere this semester", func(t *testing.T) {
		f := newFixture(t)
		a, b := f.project(t, 5), f.project(t, 5)
		x := f.student(t, "X")
		_, err := f.members.Join(ctx, x, x.UserID, b.ID)
		require.NoError(t, err)

		_, err = f.domain.Send(ctx, mentor, a.ID, x.UserID, "")
		assert.ErrorIs(t, err, ErrTargetIneligible)
	})

	t.Run("target is not a student", func(t *testing.T) {
		f := newFixture(t)
		p := f.project(t, 5)
		other := &model.User{ID: uuid.New(), DisplayName: "Fin", Role: model.SystemRoleFinance, Active: true}
		f.users.Put(other)

		_, err := f.domain.Send(ctx, mentor, p.ID, other.ID, "")
		assert.ErrorIs(t, err, ErrTargetIneligible)
	})

	t.Run("unknown target", func(t *testing.T) {
		f := newFixture(t)
		p := f.project(t, 5)

		_, err := f.domain.Send(ctx, mentor, p.ID, uuid.New(), "")
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("message too long", func(t *testing.T) {
		f := newFixture(t)
		p := f.project(t, 5)
		x := f.student(t, "X")
		long := make([]rune, DefaultConfig().MaxMessageLength+1)
		for i := range long {
			long[i] = 'a'
		}

		_, err := f.domain.Send(ctx, mentor, p.ID, x.UserID, string(long))
		assert.ErrorIs(t, err, ErrMessageTooLong)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("self invite", func(t *testing.T) {
		f := newFixture(t)
		p := f.project(t, 5)

		_, err := f.domain.Send(ctx, mentor, p.ID, mentor.UserID, "")
		assert.ErrorIs(t, err, ErrSelfInvite)
	})
}

func TestAccept(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the membership", func(t *testing.T) {
		f := newFixture(t)
		p := f.project(t, 5)
		x := f.student(t, "X")
		inv, err := f.domain.Send(ctx, mentor, p.ID, x.UserID, "")
		require.NoError(t, err)

		res, err := f.domain.Accept(ctx, x, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, model.InvitationStatusAccepted, res.Invitation.Status)
		require.NotNil(t, res.Membership)
		assert.Equal(t, model.ProjectRoleMember, res.Membership.Role)
		assert.True(t, f.isMember(t, x.UserID, p.ID))
	})

	t.Run("target joined another project first", func(t *testing.T) {
		f := newFixture(t)
		a, b := f.project(t, 5), f.project(t, 5)
		x := f.student(t, "X")
		inv, err := f.domain.Send(ctx, mentor, a.ID, x.UserID, "")
		require.NoError(t, err)

		_, err = f.members.Join(ctx, x, x.UserID, b.ID)
		require.NoError(t, err)

		res, err := f.domain.Accept(ctx, x, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, model.InvitationStatusExpired, res.Invitation.Status)
		assert.Equal(t, membership.ReasonOneProjectPerSemester, res.Reason)
		assert.Nil(t, res.Membership)
		assert.False(t, f.isMember(t, x.UserID, a.ID))

		stored, err := f.invitations.GetInvitation(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, model.InvitationStatusExpired, stored.Status)
	})

	t.Run("project filled up meanwhile", func(t *testing.T) {
		f := newFixture(t)
		p := f.project(t, 1)
		x, y := f.student(t, "X"), f.student(t, "Y")
		inv, err := f.domain.Send(ctx, mentor, p.ID, x.UserID, "")
		require.NoError(t, err)
		_, err = f.members.Join(ctx, y, y.UserID, p.ID)
		require.NoError(t, err)

		res, err := f.domain.Accept(ctx, x, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, model.InvitationStatusExpired, res.Invitation.Status)
		assert.Equal(t, membership.ReasonProjectFull, res.Reason)
	})

	t.Run("ttl elapsed", func(t *testing.T) {
		f := newFixture(t)
		p := f.project(t, 5)
		x := f.student(t, "X")
		inv, err := f.domain.Send(ctx, mentor, p.ID, x.UserID, "")
		require.NoError(t, err)
		f.clock = f.clock.Add(8 * 24 * time.Hour)

		res, err := f.domain.Accept(ctx, x, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, model.InvitationStatusExpired, res.Invitation.Status)
		assert.False(t, f.isMember(t, x.UserID, p.ID))
	})

	t.Run("membership from an interrupted accept is recovered", func(t *testing.T) {
		f := newFixture(t)
		p := f.project(t, 5)
		x := f.student(t, "X")
		inv, err := f.domain.Send(ctx, mentor, p.ID, x.UserID, "")
		require.NoError(t, err)
		_, err = f.members.Join(ctx, x, x.UserID, p.ID)
		require.NoError(t, err)

		res, err := f.domain.Accept(ctx, x, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, model.InvitationStatusAccepted, res.Invitation.Status)
		assert.NotNil(t, res.Membership)
	})

	t.Run("only the invitee may accept", func(t *testing.T) {
		f := newFixture(t)
		p := f.project(t, 5)
		x := f.student(t, "X")
		inv, err := f.domain.Send(ctx, mentor, p.ID, x.UserID, "")
		require.NoError(t, err)

		_, err = f.domain.Accept(ctx, mentor, inv.ID)
		assert.ErrorIs(t, err, ErrNotInvitee)
	})

	t.Run("already resolved", func(t *testing.T) {
		f := newFixture(t)
		p := f.project(t, 5)
		x := f.student(t, "X")
		inv, err := f.domain.Send(ctx, mentor, p.ID, x.UserID, "")
		require.NoError(t, err)
		_, err = f.domain.Reject(ctx, x, inv.ID)
		require.NoError(t, err)

		_, err = f.domain.Accept(ctx, x, inv.ID)
		assert.ErrorIs(t, err, ErrInvitationNotPending)
	})
}

type flakyInvitationStore struct {
	*memory.InvitationStore
	mock.Mock
}

func (s *flakyInvitationStore) ResolveInvitation(ctx context.Context, id uuid.UUID, outcome model.InvitationStatus, at time.Time) (bool, error) {
	args := s.Called(ctx, id, outcome, at)
	return args.Bool(0), args.Error(1)
}

func TestAccept_SecondStepFailureIsReconciledOnRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.project(t, 5)
	x := f.student(t, "X")

	store := &flakyInvitationStore{InvitationStore: f.invitations}
	f.domain.invitations = store
	store.On("ResolveInvitation", mock.Anything, mock.Anything, model.InvitationStatusAccepted, mock.Anything).
		Return(false, apperrors.Transient("", errors.New("connection reset"))).Once()

	inv, err := f.domain.Send(ctx, mentor, p.ID, x.UserID, "")
	require.NoError(t, err)

	res, err := f.domain.Accept(ctx, x, inv.ID)
	require.NoError(t, err)
	assert.NotNil(t, res.Membership)
	assert.Equal(t, model.InvitationStatusPending, res.Invitation.Status)
	assert.True(t, f.isMember(t, x.UserID, p.ID))

	// The next listing finishes the protocol.
	f.domain.invitations = f.invitations
	views, err := f.domain.ListForUser(ctx, x)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, model.InvitationStatusAccepted, views[0].Status)

	stored, err := f.invitations.GetInvitation(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvitationStatusAccepted, stored.Status)
	store.AssertExpectations(t)
}

func TestRejectAndRevoke(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.project(t, 5)
	lead := f.leader(t, p)
	x, y := f.student(t, "X"), f.student(t, "Y")

	toX, err := f.domain.Send(ctx, lead, p.ID, x.UserID, "")
	require.NoError(t, err)
	toY, err := f.domain.Send(ctx, lead, p.ID, y.UserID, "")
	require.NoError(t, err)

	_, err = f.domain.Reject(ctx, y, toX.ID)
	assert.ErrorIs(t, err, ErrNotInvitee)

	rejected, err := f.domain.Reject(ctx, x, toX.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvitationStatusRejected, rejected.Status)
	assert.False(t, f.isMember(t, x.UserID, p.ID))

	_, err = f.domain.Revoke(ctx, y, toY.ID)
	assert.ErrorIs(t, err, ErrInviteNotPermitted)

	revoked, err := f.domain.Revoke(ctx, lead, toY.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvitationStatusExpired, revoked.Status)

	_, err = f.domain.Revoke(ctx, mentor, toY.ID)
	assert.ErrorIs(t, err, ErrInvitationNotPending)
}

func TestRejectAndRevoke_StoreFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.project(t, 5)
	lead := f.leader(t, p)
	x := f.student(t, "X")

	inv, err := f.domain.Send(ctx, lead, p.ID, x.UserID, "")
	require.NoError(t, err)

	store := &flakyInvitationStore{InvitationStore: f.invitations}
	f.domain.invitations = store
	store.On("ResolveInvitation", mock.Anything, inv.ID, mock.Anything, mock.Anything).
		Return(false, apperrors.Transient("", errors.New("connection reset"))).Twice()

	_, err = f.domain.Reject(ctx, x, inv.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err))
	assert.False(t, apperrors.IsConflict(err))
	assert.Equal(t, http.StatusServiceUnavailable, apperrors.GetStatusCode(err))

	_, err = f.domain.Revoke(ctx, lead, inv.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err))
	assert.NotErrorIs(t, err, ErrInvitationNotPending)

	stored, err := f.invitations.GetInvitation(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvitationStatusPending, stored.Status)
	store.AssertExpectations(t)
}

func TestListForUser_Reconciles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b, full := f.project(t, 5), f.project(t, 5), f.project(t, 1)
	x, y := f.student(t, "X"), f.student(t, "Y")

	toA, err := f.domain.Send(ctx, mentor, a.ID, x.UserID, "")
	require.NoError(t, err)
	f.clock = f.clock.Add(time.Second)
	toFull, err := f.domain.Send(ctx, mentor, full.ID, x.UserID, "")
	require.NoError(t, err)

	_, err = f.members.Join(ctx, y, y.UserID, full.ID)
	require.NoError(t, err)

	views, err := f.domain.ListForUser(ctx, x)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, toFull.ID, views[0].ID)
	assert.False(t, views[0].Actionable)
	assert.Equal(t, membership.ReasonProjectFull, views[0].BlockedReason)
	assert.Equal(t, model.InvitationStatusPending, views[0].Status)
	assert.Equal(t, toA.ID, views[1].ID)
	assert.True(t, views[1].Actionable)

	// Joining b supersedes the pending invitation to a.
	_, err = f.members.Join(ctx, x, x.UserID, b.ID)
	require.NoError(t, err)

	views, err = f.domain.ListForUser(ctx, x)
	require.NoError(t, err)
	statuses := map[uuid.UUID]model.InvitationStatus{}
	for _, v := range views {
		statuses[v.ID] = v.Status
	}
	assert.Equal(t, model.InvitationStatusExpired, statuses[toA.ID])
	assert.Equal(t, model.InvitationStatusExpired, statuses[toFull.ID])
}

func TestListForProject_RequiresMembership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.project(t, 5)
	lead := f.leader(t, p)
	x, outsider := f.student(t, "X"), f.student(t, "O")
	_, err := f.domain.Send(ctx, lead, p.ID, x.UserID, "")
	require.NoError(t, err)

	views, err := f.domain.ListForProject(ctx, lead, p.ID)
	require.NoError(t, err)
	assert.Len(t, views, 1)

	_, err = f.domain.ListForProject(ctx, outsider, p.ID)
	assert.ErrorIs(t, err, ErrInviteNotPermitted)
}

func TestListCandidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.project(t, 10)
	lead := f.leader(t, p)

	member := f.student(t, "Member")
	_, err := f.members.Join(ctx, member, member.UserID, p.ID)
	require.NoError(t, err)
	f.users.Put(&model.User{ID: uuid.New(), DisplayName: "Mentor", Role: model.SystemRoleMentor, Active: true})
	f.users.Put(&model.User{ID: uuid.New(), DisplayName: "Inactive", Role: model.SystemRoleStudent})

	for i := 0; i < 5; i++ {
		f.student(t, fmt.Sprintf("Candidate %d", i))
	}

	page, err := f.domain.ListCandidates(ctx, lead, p.ID, "", &pagination.Pagination{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(5), page.Info.Total)
	assert.Equal(t, 3, page.Info.TotalPages)

	last, err := f.domain.ListCandidates(ctx, lead, p.ID, "", &pagination.Pagination{Page: 3, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, last.Items, 1)

	for _, u := range append(page.Items, last.Items...) {
		assert.NotEqual(t, lead.UserID, u.ID)
		assert.NotEqual(t, member.UserID, u.ID)
		assert.True(t, u.IsInvitable())
	}

	_, err = f.domain.ListCandidates(ctx, member, p.ID, "", nil)
	assert.ErrorIs(t, err, ErrInviteNotPermitted)
}

func TestListCandidates_ReadsEveryDirectoryPage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.project(t, 10)
	for i := 0; i < pagination.MaxPageSize+15; i++ {
		f.student(t, fmt.Sprintf("S%03d", i))
	}

	page, err := f.domain.ListCandidates(ctx, mentor, p.ID, "", &pagination.Pagination{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(pagination.MaxPageSize+15), page.Info.Total)
}
