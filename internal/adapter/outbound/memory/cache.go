package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/port/outbound"
)

type rosterEntry struct {
	rows      []*model.TeamMember
	expiresAt time.Time
}

// RosterCache keeps computed rosters in process memory.
type RosterCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]rosterEntry
	now     func() time.Time
}

var _ outbound.RosterCachePort = (*RosterCache)(nil)

// NewRosterCache creates an empty roster cache.
func NewRosterCache() *RosterCache {
	return &RosterCache{entries: make(map[uuid.UUID]rosterEntry), now: time.Now}
}

// Get returns the cached roster or outbound.ErrCacheMiss.
func (c *RosterCache) Get(ctx context.Context, projectID uuid.UUID) ([]*model.TeamMember, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[projectID]
	if !ok || (!e.expiresAt.IsZero() && c.now().After(e.expiresAt)) {
		return nil, outbound.ErrCacheMiss
	}
	return cloneRoster(e.rows), nil
}

// Set stores a roster. A zero TTL never expires.
func (c *RosterCache) Set(ctx context.Context, projectID uuid.UUID, roster []*model.TeamMember, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := rosterEntry{rows: cloneRoster(roster)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.entries[projectID] = e
	return nil
}

// Delete drops a cached roster.
func (c *RosterCache) Delete(ctx context.Context, projectID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, projectID)
	return nil
}

func cloneRoster(rows []*model.TeamMember) []*model.TeamMember {
	out := make([]*model.TeamMember, len(rows))
	for i, r := range rows {
		cp := *r
		out[i] = &cp
	}
	return out
}
