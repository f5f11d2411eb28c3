package membership

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/labportal/server/internal/model"
)

type mockMembershipStore struct {
	mock.Mock
}

func (m *mockMembershipStore) ListMemberships(ctx context.Context, filter model.MembershipFilter) ([]*model.Membership, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Membership), args.Error(1)
}

func (m *mockMembershipStore) CreateMembership(ctx context.Context, membership *model.Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *mockMembershipStore) DeleteMembership(ctx context.Context, userID, projectID uuid.UUID) error {
	args := m.Called(ctx, userID, projectID)
	return args.Error(0)
}

func (m *mockMembershipStore) UpdateRole(ctx context.Context, userID, projectID uuid.UUID, role model.ProjectRole) error {
	args := m.Called(ctx, userID, projectID, role)
	return args.Error(0)
}

type mockProjectDirectory struct {
	mock.Mock
}

func (m *mockProjectDirectory) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}
