package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/labportal/server/internal/model"
)

// ErrCacheMiss is returned when a cache has no entry for a key.
var ErrCacheMiss = errors.New("cache miss")

// UserCachePort caches user profiles in front of the User Directory.
type UserCachePort interface {
	// GetUsers returns the cached users among ids and the IDs that missed.
	GetUsers(ctx context.Context, ids []uuid.UUID) ([]*model.User, []uuid.UUID, error)

	// SetUsers caches users with TTL.
	SetUsers(ctx context.Context, users []*model.User, ttl time.Duration) error
}

// RosterCachePort stores computed roster view models.
type RosterCachePort interface {
	// Get returns the cached roster or ErrCacheMiss.
	Get(ctx context.Context, projectID uuid.UUID) ([]*model.TeamMember, error)

	// Set stores a roster with TTL.
	Set(ctx context.Context, projectID uuid.UUID, roster []*model.TeamMember, ttl time.Duration) error

	// Delete drops a cached roster.
	Delete(ctx context.Context, projectID uuid.UUID) error
}
