// Package roster builds the team roster view: a project's memberships joined
// with the user profiles behind them.
package roster

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/labportal/server/internal/infra/events"
	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/port/outbound"
	"github.com/labportal/server/internal/utils/latest"
	"github.com/labportal/server/internal/utils/metrics"
)

// MembershipLister lists a project's memberships.
type MembershipLister interface {
	Members(ctx context.Context, projectID uuid.UUID) ([]*model.Membership, error)
}

// Domain aggregates rosters.
type Domain struct {
	members MembershipLister
	users   outbound.UserDirectoryPort
	cache   outbound.RosterCachePort
	tracker *latest.Tracker
	cfg     *Config
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewDomain creates a new roster domain. cache may be nil.
func NewDomain(
	members MembershipLister,
	users outbound.UserDirectoryPort,
	cache outbound.RosterCachePort,
	cfg *Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Domain {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	_ = cfg.Validate()
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Domain{
		members: members,
		users:   users,
		cache:   cache,
		tracker: latest.NewTracker(),
		cfg:     cfg,
		metrics: m,
		logger:  logger,
	}
}

// RosterFor returns one row per membership of projectID, in membership order.
// A membership whose user cannot be resolved keeps its row under a placeholder
// name.
func (d *Domain) RosterFor(ctx context.Context, projectID uuid.UUID) ([]*model.TeamMember, error) {
	memberships, err := d.members.Members(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(memberships))
	seen := make(map[uuid.UUID]struct{}, len(memberships))
	for _, m := range memberships {
		if m.UserID == uuid.Nil {
			continue
		}
		if _, dup := seen[m.UserID]; dup {
			continue
		}
		seen[m.UserID] = struct{}{}
		ids = append(ids, m.UserID)
	}
	users := d.fetchUsers(ctx, ids)

	rows := make([]*model.TeamMember, 0, len(memberships))
	placeholders := 0
	for _, m := range memberships {
		row := &model.TeamMember{
			UserID:    m.UserID,
			ProjectID: m.ProjectID,
			Role:      m.Role,
			JoinedAt:  m.JoinedAt,
		}
		if u, ok := users[m.UserID]; ok {
			row.DisplayName = u.DisplayName
			row.Email = u.Email
			row.AvatarURL = u.AvatarURL
		} else {
			row.DisplayName = model.PlaceholderName(m.UserID)
			row.Placeholder = true
			placeholders++
		}
		rows = append(rows, row)
	}

	if placeholders > 0 {
		d.metrics.RecordRosterPlaceholders(placeholders)
		d.logger.Warn("roster rendered with placeholders",
			zap.String("project_id", projectID.String()),
			zap.Int("placeholders", placeholders),
		)
	}
	return rows, nil
}

// fetchUsers resolves ids in concurrent chunks. A failed chunk is logged and
// left out; the other chunks still count.
func (d *Domain) fetchUsers(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]*model.User {
	var chunks [][]uuid.UUID
	for start := 0; start < len(ids); start += d.cfg.ChunkSize {
		end := min(start+d.cfg.ChunkSize, len(ids))
		chunks = append(chunks, ids[start:end])
	}

	results := make([][]*model.User, len(chunks))
	var g errgroup.Group
	g.SetLimit(d.cfg.Concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			users, err := d.users.GetUsersByIDs(ctx, chunk)
			if err != nil {
				d.logger.Warn("user batch lookup failed",
					zap.Int("batch_size", len(chunk)),
					zap.Error(err),
				)
				return nil
			}
			results[i] = users
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[uuid.UUID]*model.User, len(ids))
	for _, batch := range results {
		for _, u := range batch {
			if u != nil {
				out[u.ID] = u
			}
		}
	}
	return out
}

// Roster serves the cached roster for projectID, computing it on a miss.
func (d *Domain) Roster(ctx context.Context, projectID uuid.UUID) ([]*model.TeamMember, error) {
	if d.cache != nil {
		rows, err := d.cache.Get(ctx, projectID)
		switch {
		case err == nil:
			d.metrics.RecordCacheHit("roster")
			return rows, nil
		case errors.Is(err, outbound.ErrCacheMiss):
			d.metrics.RecordCacheMiss("roster")
		default:
			d.logger.Warn("roster cache read failed", zap.String("project_id", projectID.String()), zap.Error(err))
		}
	}
	rows, err := d.Refresh(ctx, projectID)
	if errors.Is(err, errNotStored) {
		return rows, nil
	}
	return rows, err
}

// errNotStored marks a refresh whose rows were computed but not cached.
var errNotStored = errors.New("roster not stored")

// Refresh recomputes the roster for projectID and stores it. When refreshes for
// the same project overlap, only the most recently started one is stored. If
// the cache write fails the entry is dropped and the computed rows are
// returned alongside the error.
func (d *Domain) Refresh(ctx context.Context, projectID uuid.UUID) ([]*model.TeamMember, error) {
	tk := d.tracker.Begin(projectID.String())
	defer d.tracker.Forget(tk)

	rows, err := d.RosterFor(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if d.cache == nil {
		return rows, nil
	}

	var setErr error
	applied := d.tracker.Apply(tk, func() {
		setErr = d.cache.Set(ctx, projectID, rows, d.cfg.CacheTTL)
	})
	if !applied {
		d.metrics.RecordStaleResult("roster")
		d.logger.Debug("stale roster refresh dropped", zap.String("project_id", projectID.String()))
		return rows, nil
	}
	if setErr != nil {
		d.logger.Warn("roster cache write failed", zap.String("project_id", projectID.String()), zap.Error(setErr))
		if err := d.cache.Delete(context.WithoutCancel(ctx), projectID); err != nil {
			d.logger.Warn("roster cache delete failed", zap.String("project_id", projectID.String()), zap.Error(err))
		}
		return rows, fmt.Errorf("%w: %w", errNotStored, setErr)
	}
	return rows, nil
}

// Invalidate drops the cached roster for projectID.
func (d *Domain) Invalidate(ctx context.Context, projectID uuid.UUID) error {
	if d.cache == nil {
		return nil
	}
	return d.cache.Delete(ctx, projectID)
}

// Handler refreshes the roster whenever a membership changes.
func (d *Domain) Handler() events.Handler {
	return events.On(func(ctx context.Context, e events.Event) error {
		changed, ok := e.(*events.MembershipChanged)
		if !ok {
			return nil
		}
		// The membership write has committed; the caller going away must not
		// leave the old roster cached.
		ctx = context.WithoutCancel(ctx)
		if _, err := d.Refresh(ctx, changed.ProjectID); err != nil {
			// Drop the entry so the next read recomputes.
			_ = d.Invalidate(ctx, changed.ProjectID)
			return fmt.Errorf("refresh roster: %w", err)
		}
		return nil
	}, events.MembershipTypes...)
}
