// Package memory provides in-process implementations of the outbound ports. They
// back the "memory" store backend for local runs and serve as fixtures in tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/port/outbound"
	apperrors "github.com/labportal/server/internal/utils/errors"
	"github.com/labportal/server/internal/utils/pagination"
)

// ProjectDirectory is a seeded, in-memory Project Directory.
type ProjectDirectory struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]model.Project
}

var _ outbound.ProjectDirectoryPort = (*ProjectDirectory)(nil)

// NewProjectDirectory creates a directory holding projects.
func NewProjectDirectory(projects ...*model.Project) *ProjectDirectory {
	d := &ProjectDirectory{projects: make(map[uuid.UUID]model.Project)}
	for _, p := range projects {
		d.Put(p)
	}
	return d
}

// Put inserts or replaces a project.
func (d *ProjectDirectory) Put(p *model.Project) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.projects[p.ID] = *p
}

// GetProject retrieves a project by ID.
func (d *ProjectDirectory) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.projects[id]
	if !ok {
		return nil, apperrors.NotFound("project")
	}
	return &p, nil
}

// UserDirectory is a seeded, in-memory User Directory.
type UserDirectory struct {
	mu    sync.RWMutex
	users map[uuid.UUID]model.User
}

var _ outbound.UserDirectoryPort = (*UserDirectory)(nil)

// NewUserDirectory creates a directory holding users.
func NewUserDirectory(users ...*model.User) *UserDirectory {
	d := &UserDirectory{users: make(map[uuid.UUID]model.User)}
	for _, u := range users {
		d.Put(u)
	}
	return d
}

// Put inserts or replaces a user.
func (d *UserDirectory) Put(u *model.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = *u
}

// ListUsers lists one page of users ordered by display name.
func (d *UserDirectory) ListUsers(ctx context.Context, filter model.UserFilter, page *pagination.Pagination) (*model.UserPage, error) {
	d.mu.RLock()
	matched := make([]model.User, 0, len(d.users))
	for _, u := range d.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Active != nil && u.Active != *filter.Active {
			continue
		}
		if filter.Search != "" && !matchesSearch(&u, filter.Search) {
			continue
		}
		matched = append(matched, u)
	}
	d.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].DisplayName != matched[j].DisplayName {
			return matched[i].DisplayName < matched[j].DisplayName
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	p := pagination.Slice(matched, page)
	return &model.UserPage{Users: p.Items, Total: p.Info.Total}, nil
}

// GetUsersByIDs returns the known users among ids, in request order.
func (d *UserDirectory) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			out = append(out, &u)
		}
	}
	return out, nil
}

func matchesSearch(u *model.User, q string) bool {
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(u.DisplayName), q) ||
		strings.Contains(strings.ToLower(u.Email), q)
}
