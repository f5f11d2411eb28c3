package remote

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/port/outbound"
	apperrors "github.com/labportal/server/internal/utils/errors"
	"github.com/labportal/server/internal/utils/pagination"
)

// ProjectDirectory reads projects from the upstream Project Directory.
type ProjectDirectory struct {
	client *Client
}

var _ outbound.ProjectDirectoryPort = (*ProjectDirectory)(nil)

// NewProjectDirectory creates a Project Directory adapter.
func NewProjectDirectory(client *Client) *ProjectDirectory {
	return &ProjectDirectory{client: client}
}

// GetProject retrieves a project by ID.
func (d *ProjectDirectory) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	raw, err := d.client.do(ctx, request{method: http.MethodGet, path: "/projects/" + id.String(), resource: "project"})
	if err != nil {
		return nil, err
	}
	dto, ok := decodeOne[projectDTO](d.client, raw)
	if !ok || dto.ID == uuid.Nil {
		return nil, apperrors.NotFound("project")
	}
	return dto.toModel(), nil
}

// UserDirectory reads profiles from the upstream User Directory.
type UserDirectory struct {
	client *Client
}

var _ outbound.UserDirectoryPort = (*UserDirectory)(nil)

// NewUserDirectory creates a User Directory adapter.
func NewUserDirectory(client *Client) *UserDirectory {
	return &UserDirectory{client: client}
}

// ListUsers lists one page of users matching filter.
func (d *UserDirectory) ListUsers(ctx context.Context, filter model.UserFilter, page *pagination.Pagination) (*model.UserPage, error) {
	if page == nil {
		page = pagination.New()
	}
	page.Normalize()

	q := url.Values{}
	q.Set("page", strconv.Itoa(page.Page))
	q.Set("pageSize", strconv.Itoa(page.Limit()))
	if filter.Role != "" {
		q.Set("role", string(filter.Role))
	}
	if filter.Active != nil {
		q.Set("active", strconv.FormatBool(*filter.Active))
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}

	raw, err := d.client.do(ctx, request{method: http.MethodGet, path: "/users", query: q, resource: "user"})
	if err != nil {
		return nil, err
	}
	res := decodeList[userDTO](d.client, raw)

	out := &model.UserPage{Users: make([]model.User, 0, len(res.Records))}
	for _, dto := range res.Records {
		out.Users = append(out.Users, *dto.toModel())
	}
	if res.Total != nil {
		out.Total = *res.Total
	} else {
		// Without a reported total, assume a short page is the last one.
		out.Total = int64(page.Offset() + len(out.Users))
		if len(out.Users) == page.Limit() {
			out.Total++
		}
	}
	return out, nil
}

// GetUsersByIDs fetches the users that exist among ids.
func (d *UserDirectory) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}

	body := struct {
		IDs []uuid.UUID `json:"ids"`
	}{IDs: ids}
	raw, err := d.client.do(ctx, request{method: http.MethodPost, path: "/users/batch", body: body, resource: "user"})
	if err != nil {
		return nil, err
	}
	res := decodeList[userDTO](d.client, raw)

	out := make([]*model.User, 0, len(res.Records))
	for _, dto := range res.Records {
		out = append(out, dto.toModel())
	}
	return out, nil
}
