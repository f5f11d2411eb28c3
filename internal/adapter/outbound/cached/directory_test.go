package cached

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/utils/pagination"
)

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) ListUsers(ctx context.Context, filter model.UserFilter, page *pagination.Pagination) (*model.UserPage, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserPage), args.Error(1)
}

func (m *mockDirectory) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetUsers(ctx context.Context, ids []uuid.UUID) ([]*model.User, []uuid.UUID, error) {
	args := m.Called(ctx, ids)
	var users []*model.User
	if v := args.Get(0); v != nil {
		users = v.([]*model.User)
	}
	var missed []uuid.UUID
	if v := args.Get(1); v != nil {
		missed = v.([]uuid.UUID)
	}
	return users, missed, args.Error(2)
}

func (m *mockCache) SetUsers(ctx context.Context, users []*model.User, ttl time.Duration) error {
	return m.Called(ctx, users, ttl).Error(0)
}

func TestGetUsersByIDs_FetchesOnlyMisses(t *testing.T) {
	ctx := context.Background()
	cachedUser := &model.User{ID: uuid.New(), DisplayName: "Cached"}
	fetchedUser := &model.User{ID: uuid.New(), DisplayName: "Fetched"}
	unknown := uuid.New()
	ids := []uuid.UUID{cachedUser.ID, fetchedUser.ID, unknown}

	cache := new(mockCache)
	next := new(mockDirectory)
	cache.On("GetUsers", ctx, ids).Return([]*model.User{cachedUser}, []uuid.UUID{fetchedUser.ID, unknown}, nil)
	next.On("GetUsersByIDs", ctx, []uuid.UUID{fetchedUser.ID, unknown}).Return([]*model.User{fetchedUser}, nil)
	cache.On("SetUsers", ctx, []*model.User{fetchedUser}, time.Minute).Return(nil)

	d := NewUserDirectory(next, cache, time.Minute, nil)
	users, err := d.GetUsersByIDs(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, []*model.User{cachedUser, fetchedUser}, users)

	cache.AssertExpectations(t)
	next.AssertExpectations(t)
}

func TestGetUsersByIDs_AllCached(t *testing.T) {
	ctx := context.Background()
	u := &model.User{ID: uuid.New()}

	cache := new(mockCache)
	next := new(mockDirectory)
	cache.On("GetUsers", ctx, []uuid.UUID{u.ID}).Return([]*model.User{u}, nil, nil)

	users, err := NewUserDirectory(next, cache, time.Minute, nil).GetUsersByIDs(ctx, []uuid.UUID{u.ID})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	next.AssertNotCalled(t, "GetUsersByIDs", mock.Anything, mock.Anything)
}

func TestGetUsersByIDs_CacheDownFallsThrough(t *testing.T) {
	ctx := context.Background()
	u := &model.User{ID: uuid.New()}
	ids := []uuid.UUID{u.ID}

	cache := new(mockCache)
	next := new(mockDirectory)
	cache.On("GetUsers", ctx, ids).Return(nil, nil, errors.New("connection refused"))
	next.On("GetUsersByIDs", ctx, ids).Return([]*model.User{u}, nil)
	cache.On("SetUsers", ctx, []*model.User{u}, time.Minute).Return(errors.New("connection refused"))

	users, err := NewUserDirectory(next, cache, time.Minute, nil).GetUsersByIDs(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, []*model.User{u}, users)
}

func TestGetUsersByIDs_DirectoryErrorPropagates(t *testing.T) {
	ctx := context.Background()
	ids := []uuid.UUID{uuid.New()}

	cache := new(mockCache)
	next := new(mockDirectory)
	cache.On("GetUsers", ctx, ids).Return(nil, ids, nil)
	next.On("GetUsersByIDs", ctx, ids).Return(nil, errors.New("upstream down"))

	_, err := NewUserDirectory(next, cache, time.Minute, nil).GetUsersByIDs(ctx, ids)
	assert.Error(t, err)
	cache.AssertNotCalled(t, "SetUsers", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetUsersByIDs_DirectoryErrorKeepsCachedUsers(t *testing.T) {
	ctx := context.Background()
	cachedUser := &model.User{ID: uuid.New(), DisplayName: "Ada"}
	missing := uuid.New()
	ids := []uuid.UUID{cachedUser.ID, missing}

	cache := new(mockCache)
	next := new(mockDirectory)
	cache.On("GetUsers", ctx, ids).Return([]*model.User{cachedUser}, []uuid.UUID{missing}, nil)
	next.On("GetUsersByIDs", ctx, []uuid.UUID{missing}).Return(nil, errors.New("upstream down"))

	users, err := NewUserDirectory(next, cache, time.Minute, nil).GetUsersByIDs(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, []*model.User{cachedUser}, users)
	cache.AssertNotCalled(t, "SetUsers", mock.Anything, mock.Anything, mock.Anything)
	next.AssertExpectations(t)
}

func TestListUsers_PassesThrough(t *testing.T) {
	ctx := context.Background()
	page := pagination.New()
	want := &model.UserPage{Total: 1, Users: []model.User{{ID: uuid.New()}}}

	next := new(mockDirectory)
	next.On("ListUsers", ctx, model.UserFilter{}, page).Return(want, nil)

	got, err := NewUserDirectory(next, new(mockCache), time.Minute, nil).ListUsers(ctx, model.UserFilter{}, page)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
