package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/port/outbound"
	"github.com/labportal/server/internal/utils/metrics"
)

const rosterKeyPrefix = "labportal:roster:"

// rosterCacheAdapter implements outbound.RosterCachePort.
type rosterCacheAdapter struct {
	client  redis.UniversalClient
	metrics *metrics.Metrics
}

// NewRosterCacheAdapter creates a new roster cache adapter.
func NewRosterCacheAdapter(client redis.UniversalClient, m *metrics.Metrics) outbound.RosterCachePort {
	return &rosterCacheAdapter{client: client, metrics: m}
}

func (a *rosterCacheAdapter) Get(ctx context.Context, projectID uuid.UUID) ([]*model.TeamMember, error) {
	data, err := a.client.Get(ctx, rosterKeyPrefix+projectID.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		a.metrics.RecordCacheMiss("roster")
		return nil, outbound.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get roster: %w", err)
	}

	var rows []*model.TeamMember
	if err := json.Unmarshal(data, &rows); err != nil {
		// Unreadable entries are treated as absent and overwritten on refresh.
		a.metrics.RecordCacheMiss("roster")
		return nil, outbound.ErrCacheMiss
	}
	a.metrics.RecordCacheHit("roster")
	return rows, nil
}

func (a *rosterCacheAdapter) Set(ctx context.Context, projectID uuid.UUID, roster []*model.TeamMember, ttl time.Duration) error {
	if roster == nil {
		roster = []*model.TeamMember{}
	}
	data, err := json.Marshal(roster)
	if err != nil {
		return fmt.Errorf("marshal roster: %w", err)
	}
	return a.client.Set(ctx, rosterKeyPrefix+projectID.String(), data, ttl).Err()
}

func (a *rosterCacheAdapter) Delete(ctx context.Context, projectID uuid.UUID) error {
	return a.client.Del(ctx, rosterKeyPrefix+projectID.String()).Err()
}

// Compile-time check
var _ outbound.RosterCachePort = (*rosterCacheAdapter)(nil)
