// Package cached decorates outbound ports with read-through caches.
package cached

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/port/outbound"
	"github.com/labportal/server/internal/utils/pagination"
)

// UserDirectory serves profile lookups from a cache and only asks the
// directory for the IDs it misses. Cache failures degrade to a direct read.
type UserDirectory struct {
	next   outbound.UserDirectoryPort
	cache  outbound.UserCachePort
	ttl    time.Duration
	logger *zap.Logger
}

var _ outbound.UserDirectoryPort = (*UserDirectory)(nil)

// NewUserDirectory wraps next with cache.
func NewUserDirectory(next outbound.UserDirectoryPort, cache outbound.UserCachePort, ttl time.Duration, logger *zap.Logger) *UserDirectory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserDirectory{next: next, cache: cache, ttl: ttl, logger: logger}
}

// ListUsers is not cached: listings are filtered and paged.
func (d *UserDirectory) ListUsers(ctx context.Context, filter model.UserFilter, page *pagination.Pagination) (*model.UserPage, error) {
	return d.next.ListUsers(ctx, filter, page)
}

// GetUsersByIDs returns cached profiles and fetches the rest. When the fetch
// fails it still returns whatever the cache held.
func (d *UserDirectory) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}

	hits, missed, err := d.cache.GetUsers(ctx, ids)
	if err != nil {
		d.logger.Warn("user cache read failed", zap.Error(err))
		hits, missed = nil, ids
	}
	if len(missed) == 0 {
		return hits, nil
	}

	fetched, err := d.next.GetUsersByIDs(ctx, missed)
	if err != nil {
		if len(hits) == 0 {
			return nil, err
		}
		// Callers treat absent IDs as unresolved, so the hits still stand.
		d.logger.Warn("user directory lookup failed, serving cached users only",
			zap.Int("cached", len(hits)),
			zap.Int("missed", len(missed)),
			zap.Error(err),
		)
		return hits, nil
	}
	if len(fetched) > 0 {
		if err := d.cache.SetUsers(ctx, fetched, d.ttl); err != nil {
			d.logger.Warn("user cache write failed", zap.Error(err))
		}
	}

	out := make([]*model.User, 0, len(hits)+len(fetched))
	out = append(out, hits...)
	return append(out, fetched...), nil
}
