package roster

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labportal/server/internal/adapter/outbound/memory"
	"github.com/labportal/server/internal/domain/membership"
	"github.com/labportal/server/internal/infra/events"
	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/port/outbound"
	apperrors "github.com/labportal/server/internal/utils/errors"
)

type storeLister struct {
	store *memory.MembershipStore
}

func (l storeLister) Members(ctx context.Context, projectID uuid.UUID) ([]*model.Membership, error) {
	return l.store.ListMemberships(ctx, model.MembershipFilter{ProjectID: projectID})
}

func addMember(t *testing.T, store *memory.MembershipStore, projectID, userID uuid.UUID, joined time.Time) {
	t.Helper()
	require.NoError(t, store.CreateMembership(context.Background(), &model.Membership{
		UserID: userID, ProjectID: projectID, Role: model.ProjectRoleMember, JoinedAt: joined,
	}))
}

func TestRosterFor_PlaceholderForMissingUser(t *testing.T) {
	ctx := context.Background()
	projectID, ghost := uuid.New(), uuid.New()
	store := memory.NewMembershipStore()
	addMember(t, store, projectID, ghost, time.Now())

	d := NewDomain(storeLister{store}, memory.NewUserDirectory(), nil, nil, nil, nil)

	rows, err := d.RosterFor(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ghost, rows[0].UserID)
	assert.Equal(t, "User "+ghost.String(), rows[0].DisplayName)
	assert.True(t, rows[0].Placeholder)
}

func TestRosterFor_LeftJoin(t *testing.T) {
	ctx := context.Background()
	projectID := uuid.New()
	known := &model.User{ID: uuid.New(), DisplayName: "Ada", Email: "ada@uni.edu", AvatarURL: "https://cdn/ada.png"}
	ghost := uuid.New()
	now := time.Now()

	store := memory.NewMembershipStore()
	addMember(t, store, projectID, known.ID, now.Add(-time.Hour))
	addMember(t, store, projectID, ghost, now)
	addMember(t, store, projectID, uuid.Nil, now.Add(time.Hour))

	d := NewDomain(storeLister{store}, memory.NewUserDirectory(known), nil, nil, nil, nil)

	rows, err := d.RosterFor(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Ada", rows[0].DisplayName)
	assert.Equal(t, "ada@uni.edu", rows[0].Email)
	assert.False(t, rows[0].Placeholder)
	assert.True(t, rows[1].Placeholder)
	assert.Equal(t, model.PlaceholderUnknown, rows[2].DisplayName)
}

// failingChunkDirectory fails any batch that contains failID.
type failingChunkDirectory struct {
	*memory.UserDirectory
	failID uuid.UUID

	mu    sync.Mutex
	calls int
}

func (d *failingChunkDirectory) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.User, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	for _, id := range ids {
		if id == d.failID {
			return nil, apperrors.Transient("", errors.New("user directory timeout"))
		}
	}
	return d.UserDirectory.GetUsersByIDs(ctx, ids)
}

func TestRosterFor_FailedChunkDoesNotAbortOthers(t *testing.T) {
	ctx := context.Background()
	projectID := uuid.New()
	store := memory.NewMembershipStore()
	users := memory.NewUserDirectory()

	var ids []uuid.UUID
	base := time.Now()
	for i := 0; i < 6; i++ {
		u := &model.User{ID: uuid.New(), DisplayName: "Member"}
		users.Put(u)
		addMember(t, store, projectID, u.ID, base.Add(time.Duration(i)*time.Minute))
		ids = append(ids, u.ID)
	}

	dir := &failingChunkDirectory{UserDirectory: users, failID: ids[0]}
	d := NewDomain(storeLister{store}, dir, nil, &Config{ChunkSize: 2, Concurrency: 2}, nil, nil)

	rows, err := d.RosterFor(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, 3, dir.calls)

	placeholders := 0
	for _, r := range rows {
		if r.Placeholder {
			placeholders++
		}
	}
	assert.Equal(t, 2, placeholders)
}

func TestRoster_ServesCache(t *testing.T) {
	ctx := context.Background()
	projectID := uuid.New()
	store := memory.NewMembershipStore()
	addMember(t, store, projectID, uuid.New(), time.Now())
	cache := memory.NewRosterCache()

	d := NewDomain(storeLister{store}, memory.NewUserDirectory(), cache, nil, nil, nil)

	rows, err := d.Roster(ctx, projectID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	// A change that bypasses the event bus is not seen until the next refresh.
	addMember(t, store, projectID, uuid.New(), time.Now())
	rows, err = d.Roster(ctx, projectID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = d.Refresh(ctx, projectID)
	require.NoError(t, err)
	rows, err = d.Roster(ctx, projectID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

// gatedDirectory blocks its first call until released.
type gatedDirectory struct {
	outbound.UserDirectoryPort
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedDirectory) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.User, error) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return g.UserDirectoryPort.GetUsersByIDs(ctx, ids)
}

func TestRefresh_LastRequestWins(t *testing.T) {
	ctx := context.Background()
	projectID := uuid.New()
	store := memory.NewMembershipStore()
	addMember(t, store, projectID, uuid.New(), time.Now())
	cache := memory.NewRosterCache()
	dir := &gatedDirectory{
		UserDirectoryPort: memory.NewUserDirectory(),
		entered:           make(chan struct{}),
		release:           make(chan struct{}),
	}
	d := NewDomain(storeLister{store}, dir, cache, nil, nil, nil)

	slow := make(chan []*model.TeamMember)
	go func() {
		rows, _ := d.Refresh(ctx, projectID)
		slow <- rows
	}()
	<-dir.entered

	addMember(t, store, projectID, uuid.New(), time.Now())
	fast, err := d.Refresh(ctx, projectID)
	require.NoError(t, err)
	assert.Len(t, fast, 2)

	close(dir.release)
	stale := <-slow
	assert.Len(t, stale, 1)

	cached, err := cache.Get(ctx, projectID)
	require.NoError(t, err)
	assert.Len(t, cached, 2)
}

func TestHandler_RefreshesOnMembershipChange(t *testing.T) {
	ctx := context.Background()
	project := &model.Project{ID: uuid.New(), Status: model.ProjectStatusOpen, SemesterID: "2026-fall"}
	ada := &model.User{ID: uuid.New(), DisplayName: "Ada", Role: model.SystemRoleStudent, Active: true}
	store := memory.NewMembershipStore()
	cache := memory.NewRosterCache()

	bus := events.NewBus(nil)
	members := membership.NewDomain(memory.NewProjectDirectory(project), store, bus, nil, nil, nil)
	d := NewDomain(members, memory.NewUserDirectory(ada), cache, nil, nil, nil)
	bus.Register(d.Handler())

	rows, err := d.Roster(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	caller := model.Caller{UserID: ada.ID, Role: model.SystemRoleStudent}
	_, err = members.Join(ctx, caller, ada.ID, project.ID)
	require.NoError(t, err)

	cached, err := cache.Get(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "Ada", cached[0].DisplayName)

	require.NoError(t, members.Leave(ctx, caller, ada.ID, project.ID))
	cached, err = cache.Get(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, cached)
}

// flakyRosterCache fails every Set once failSet is raised.
type flakyRosterCache struct {
	*memory.RosterCache
	failSet bool
}

func (c *flakyRosterCache) Set(ctx context.Context, projectID uuid.UUID, roster []*model.TeamMember, ttl time.Duration) error {
	if c.failSet {
		return errors.New("redis: connection refused")
	}
	return c.RosterCache.Set(ctx, projectID, roster, ttl)
}

func TestHandler_FailedCacheWriteDropsStaleRoster(t *testing.T) {
	ctx := context.Background()
	project := &model.Project{ID: uuid.New(), Status: model.ProjectStatusOpen, SemesterID: "2026-fall"}
	ada := &model.User{ID: uuid.New(), DisplayName: "Ada", Role: model.SystemRoleStudent, Active: true}
	store := memory.NewMembershipStore()
	cache := &flakyRosterCache{RosterCache: memory.NewRosterCache()}

	bus := events.NewBus(nil)
	members := membership.NewDomain(memory.NewProjectDirectory(project), store, bus, nil, nil, nil)
	d := NewDomain(members, memory.NewUserDirectory(ada), cache, nil, nil, nil)
	bus.Register(d.Handler())

	rows, err := d.Roster(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	cache.failSet = true
	caller := model.Caller{UserID: ada.ID, Role: model.SystemRoleStudent}
	_, err = members.Join(ctx, caller, ada.ID, project.ID)
	require.NoError(t, err)

	_, err = cache.Get(ctx, project.ID)
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)

	rows, err = d.Roster(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ada", rows[0].DisplayName)

	rows, err = d.Refresh(ctx, project.ID)
	require.Error(t, err)
	assert.Len(t, rows, 1)
}
