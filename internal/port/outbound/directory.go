package outbound

import (
	"context"

	"github.com/google/uuid"

	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/utils/pagination"
)

// ProjectDirectoryPort reads projects from the Project Directory.
type ProjectDirectoryPort interface {
	// GetProject retrieves a project by ID. Missing projects yield a not found error.
	GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error)
}

// UserDirectoryPort reads user profiles from the User Directory.
type UserDirectoryPort interface {
	// ListUsers lists one page of users matching filter.
	ListUsers(ctx context.Context, filter model.UserFilter, page *pagination.Pagination) (*model.UserPage, error)

	// GetUsersByIDs fetches the users that exist among ids. Unknown IDs are
	// simply absent from the result.
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.User, error)
}
