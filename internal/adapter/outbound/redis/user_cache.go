package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/port/outbound"
	"github.com/labportal/server/internal/utils/metrics"
)

const userKeyPrefix = "labportal:user:"

// userCacheAdapter implements outbound.UserCachePort.
type userCacheAdapter struct {
	client  redis.UniversalClient
	metrics *metrics.Metrics
}

// NewUserCacheAdapter creates a new user profile cache adapter.
func NewUserCacheAdapter(client redis.UniversalClient, m *metrics.Metrics) outbound.UserCachePort {
	return &userCacheAdapter{client: client, metrics: m}
}

func (a *userCacheAdapter) GetUsers(ctx context.Context, ids []uuid.UUID) ([]*model.User, []uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userKeyPrefix + id.String()
	}

	vals, err := a.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("mget users: %w", err)
	}

	var (
		users  []*model.User
		missed []uuid.UUID
	)
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			missed = append(missed, ids[i])
			continue
		}
		var u model.User
		if err := json.Unmarshal([]byte(s), &u); err != nil {
			missed = append(missed, ids[i])
			continue
		}
		users = append(users, &u)
	}

	for range users {
		a.metrics.RecordCacheHit("user")
	}
	for range missed {
		a.metrics.RecordCacheMiss("user")
	}
	return users, missed, nil
}

func (a *userCacheAdapter) SetUsers(ctx context.Context, users []*model.User, ttl time.Duration) error {
	if len(users) == 0 {
		return nil
	}
	pipe := a.client.Pipeline()
	for _, u := range users {
		data, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("marshal user: %w", err)
		}
		pipe.Set(ctx, userKeyPrefix+u.ID.String(), data, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set users: %w", err)
	}
	return nil
}

// Compile-time check
var _ outbound.UserCachePort = (*userCacheAdapter)(nil)
