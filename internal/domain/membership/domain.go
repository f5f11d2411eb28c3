package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/labportal/server/internal/infra/events"
	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/port/outbound"
	apperrors "github.com/labportal/server/internal/utils/errors"
	"github.com/labportal/server/internal/utils/keylock"
	"github.com/labportal/server/internal/utils/metrics"
)

// EventPublisher receives domain events. *events.Bus satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event)
}

// ActiveMembership pairs a membership with the project it belongs to.
type ActiveMembership struct {
	Membership *model.Membership
	Project    *model.Project
}

// Domain enforces the membership rules: one active project per user per
// semester, capacity, and who may change whose membership.
type Domain struct {
	projects    outbound.ProjectDirectoryPort
	memberships outbound.MembershipStorePort
	publisher   EventPublisher
	locks       *keylock.Locker
	cfg         *Config
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewDomain creates a new membership domain.
func NewDomain(
	projects outbound.ProjectDirectoryPort,
	memberships outbound.MembershipStorePort,
	publisher EventPublisher,
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
		projects:    projects,
		memberships: memberships,
		publisher:   publisher,
		locks:       keylock.New(),
		cfg:         cfg,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// ========== Rule Evaluation ==========

// CanJoin reports whether userID may join projectID right now. Rule violations
// are returned as a Decision; only lookup failures are returned as errors.
func (d *Domain) CanJoin(ctx context.Context, userID, projectID uuid.UUID) (Decision, error) {
	project, err := d.projects.GetProject(ctx, projectID)
	if err != nil {
		return Decision{}, fmt.Errorf("get project: %w", err)
	}

	dec, err := d.evaluate(ctx, userID, project)
	if err != nil {
		return Decision{}, err
	}
	d.metrics.RecordMembershipDecision("can_join", dec.Outcome())
	return dec, nil
}

func (d *Domain) evaluate(ctx context.Context, userID uuid.UUID, project *model.Project) (Decision, error) {
	mine, err := d.memberships.ListMemberships(ctx, model.MembershipFilter{UserID: userID})
	if err != nil {
		return Decision{}, fmt.Errorf("list user memberships: %w", err)
	}
	for _, m := range mine {
		if m.ProjectID == project.ID {
			return deny(ReasonAlreadyMember), nil
		}
	}

	conflict, err := d.findSemesterConflict(ctx, mine, project, nil)
	if err != nil {
		return Decision{}, err
	}
	if conflict != nil {
		dec := deny(ReasonOneProjectPerSemester)
		dec.ConflictProjectID = conflict.ProjectID
		return dec, nil
	}

	if !project.AcceptsMembers() {
		return deny(ReasonProjectClosed), nil
	}

	members, err := d.memberships.ListMemberships(ctx, model.MembershipFilter{ProjectID: project.ID})
	if err != nil {
		return Decision{}, fmt.Errorf("list project memberships: %w", err)
	}
	if project.IsFull(len(members)) {
		return deny(ReasonProjectFull), nil
	}

	return allow(), nil
}

// findSemesterConflict returns the oldest membership among mine, other than on
// target, whose project is active in target's semester. keep, when set, further
// restricts which memberships are considered.
func (d *Domain) findSemesterConflict(
	ctx context.Context,
	mine []*model.Membership,
	target *model.Project,
	keep func(*model.Membership) bool,
) (*model.Membership, error) {
	candidates := make([]*model.Membership, 0, len(mine))
	for _, m := range mine {
		if m.ProjectID == target.ID {
			continue
		}
		if keep != nil && !keep(m) {
			continue
		}
		// Skip the lookup when the stored semester already rules the row out.
		if m.SemesterID != "" && target.SemesterID != "" && m.SemesterID != target.SemesterID {
			continue
		}
		candidates = append(candidates, m)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(candidates))
	for i, m := range candidates {
		ids[i] = m.ProjectID
	}
	projects, err := d.lookupProjects(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, m := range candidates {
		p := projects[m.ProjectID]
		if p != nil && p.IsActive() && p.SemesterID == target.SemesterID {
			return m, nil
		}
	}
	return nil, nil
}

// lookupProjects fetches projects concurrently. Projects the directory no longer
// knows are left out of the result.
func (d *Domain) lookupProjects(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Project, error) {
	results := make([]*model.Project, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.ProjectLookupConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			p, err := d.projects.GetProject(gctx, id)
			if err != nil {
				if apperrors.IsNotFound(err) {
					return nil
				}
				return fmt.Errorf("get project %s: %w", id, err)
			}
			results[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]*model.Project, len(ids))
	for _, p := range results {
		if p != nil {
			out[p.ID] = p
		}
	}
	return out, nil
}

// ========== Queries ==========

// Find returns the membership of userID on projectID, or nil.
func (d *Domain) Find(ctx context.Context, userID, projectID uuid.UUID) (*model.Membership, error) {
	rows, err := d.memberships.ListMemberships(ctx, model.MembershipFilter{UserID: userID, ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Members lists the memberships of a project, oldest first.
func (d *Domain) Members(ctx context.Context, projectID uuid.UUID) ([]*model.Membership, error) {
	rows, err := d.memberships.ListMemberships(ctx, model.MembershipFilter{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("list project memberships: %w", err)
	}
	return rows, nil
}

// IsLeader reports whether userID leads projectID.
func (d *Domain) IsLeader(ctx context.Context, userID, projectID uuid.UUID) (bool, error) {
	m, err := d.Find(ctx, userID, projectID)
	if err != nil {
		return false, err
	}
	return m != nil && m.IsLeader(), nil
}

// RequireActiveMember returns the membership of userID on projectID, failing with
// ErrNotAMember when there is none or the project is no longer active.
func (d *Domain) RequireActiveMember(ctx context.Context, userID, projectID uuid.UUID) (*ActiveMembership, error) {
	m, err := d.Find(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotAMember
	}

	project, err := d.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if !project.IsActive() {
		return nil, ErrNotAMember
	}
	return &ActiveMembership{Membership: m, Project: project}, nil
}

// ActiveMemberships lists the user's memberships on active projects, oldest first.
func (d *Domain) ActiveMemberships(ctx context.Context, userID uuid.UUID) ([]ActiveMembership, error) {
	mine, err := d.memberships.ListMemberships(ctx, model.MembershipFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("list user memberships: %w", err)
	}
	if len(mine) == 0 {
		return []ActiveMembership{}, nil
	}

	ids := make([]uuid.UUID, len(mine))
	for i, m := range mine {
		ids[i] = m.ProjectID
	}
	projects, err := d.lookupProjects(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ActiveMembership, 0, len(mine))
	for _, m := range mine {
		if p := projects[m.ProjectID]; p != nil && p.IsActive() {
			out = append(out, ActiveMembership{Membership: m, Project: p})
		}
	}
	return out, nil
}

// ========== Mutations ==========

// Join adds userID to projectID as a Member. The join rules are evaluated
// against fresh reads at call time, never against an earlier CanJoin result.
func (d *Domain) Join(ctx context.Context, caller model.Caller, userID, projectID uuid.UUID) (*model.Membership, error) {
	if !caller.ActsFor(userID) {
		return nil, ErrNotPermitted
	}

	unlock := d.locks.Lock(userID.String())
	defer unlock()

	project, err := d.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	dec, err := d.evaluate(ctx, userID, project)
	if err != nil {
		return nil, err
	}
	d.metrics.RecordMembershipDecision("join", dec.Outcome())
	if !dec.Allowed {
		d.logger.Info("join rejected",
			zap.String("user_id", userID.String()),
			zap.String("project_id", projectID.String()),
			zap.String("reason", string(dec.Reason)),
		)
		return nil, dec.Err()
	}

	m := &model.Membership{
		UserID:     userID,
		ProjectID:  projectID,
		Role:       model.ProjectRoleMember,
		SemesterID: project.SemesterID,
		JoinedAt:   d.now().UTC(),
	}
	if err := d.create(ctx, m, project); err != nil {
		return nil, err
	}

	if d.cfg.VerifyAfterWrite {
		if err := d.verifyJoin(ctx, m, project); err != nil {
			return nil, err
		}
	}

	d.publish(ctx, events.TypeMemberJoined, m, caller.UserID)
	d.logger.Info("member joined",
		zap.String("user_id", userID.String()),
		zap.String("project_id", projectID.String()),
		zap.String("semester_id", project.SemesterID),
	)
	return m, nil
}

// create writes the membership. A transient failure is not taken as proof that
// nothing was written: a follow-up read decides.
func (d *Domain) create(ctx context.Context, m *model.Membership, project *model.Project) error {
	err := d.memberships.CreateMembership(ctx, m)
	if err == nil {
		return nil
	}

	switch {
	case apperrors.IsTransient(err):
		existing, lerr := d.Find(ctx, m.UserID, m.ProjectID)
		if lerr == nil && existing != nil {
			d.logger.Warn("membership write confirmed after transient failure",
				zap.String("user_id", m.UserID.String()),
				zap.String("project_id", m.ProjectID.String()),
				zap.Error(err),
			)
			*m = *existing
			return nil
		}
	case apperrors.IsConflict(err):
		// The store rejected the row; report which rule it tripped.
		dec, derr := d.evaluate(ctx, m.UserID, project)
		if derr == nil && !dec.Allowed {
			return dec.Err()
		}
	}
	return fmt.Errorf("create membership: %w", err)
}

// verifyJoin re-reads the user's memberships after a write. If a competing join
// in the same semester landed first, this one is rolled back.
func (d *Domain) verifyJoin(ctx context.Context, m *model.Membership, project *model.Project) error {
	mine, err := d.memberships.ListMemberships(ctx, model.MembershipFilter{UserID: m.UserID})
	if err != nil {
		d.logger.Warn("post-join verification skipped", zap.Error(err))
		return nil
	}

	conflict, err := d.findSemesterConflict(ctx, mine, project, func(other *model.Membership) bool {
		return joinedFirst(other, m)
	})
	if err != nil {
		d.logger.Warn("post-join verification skipped", zap.Error(err))
		return nil
	}
	if conflict == nil {
		return nil
	}

	if err := d.memberships.DeleteMembership(ctx, m.UserID, m.ProjectID); err != nil {
		d.logger.Error("rollback of competing membership failed",
			zap.String("user_id", m.UserID.String()),
			zap.String("project_id", m.ProjectID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("rollback membership: %w", err)
	}

	d.metrics.RecordMembershipDecision("join", "rolled_back")
	d.logger.Warn("join rolled back, competing membership found",
		zap.String("user_id", m.UserID.String()),
		zap.String("project_id", m.ProjectID.String()),
		zap.String("kept_project_id", conflict.ProjectID.String()),
	)
	return ErrOneProjectPerSemester
}

// joinedFirst orders memberships by join time, breaking ties by project ID so
// exactly one of two racing joins yields.
func joinedFirst(a, b *model.Membership) bool {
	if a.JoinedAt.Equal(b.JoinedAt) {
		return a.ProjectID.String() < b.ProjectID.String()
	}
	return a.JoinedAt.Before(b.JoinedAt)
}

// Leave removes userID from projectID. A leaving Leader is not replaced.
func (d *Domain) Leave(ctx context.Context, caller model.Caller, userID, projectID uuid.UUID) error {
	if !caller.ActsFor(userID) {
		return ErrNotPermitted
	}

	unlock := d.locks.Lock(userID.String())
	defer unlock()

	m, err := d.Find(ctx, userID, projectID)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrNotAMember
	}

	if err := d.memberships.DeleteMembership(ctx, userID, projectID); err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}

	if m.IsLeader() {
		d.logger.Warn("project leader left, no successor assigned",
			zap.String("user_id", userID.String()),
			zap.String("project_id", projectID.String()),
		)
	}

	d.metrics.RecordMembershipDecision("leave", "removed")
	d.publish(ctx, events.TypeMemberLeft, m, caller.UserID)
	d.logger.Info("member left",
		zap.String("user_id", userID.String()),
		zap.String("project_id", projectID.String()),
	)
	return nil
}

// SetRole assigns a project role. Only mentors and admins may do this.
func (d *Domain) SetRole(ctx context.Context, caller model.Caller, userID, projectID uuid.UUID, role model.ProjectRole) (*model.Membership, error) {
	if !caller.IsStaff() {
		return nil, ErrNotPermitted
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	m, err := d.Find(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotAMember
	}
	if m.Role == role {
		return m, nil
	}

	if err := d.memberships.UpdateRole(ctx, userID, projectID, role); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	m.Role = role

	d.publish(ctx, events.TypeMemberRoleChanged, m, caller.UserID)
	d.logger.Info("member role changed",
		zap.String("user_id", userID.String()),
		zap.String("project_id", projectID.String()),
		zap.String("role", string(role)),
	)
	return m, nil
}

func (d *Domain) publish(ctx context.Context, eventType string, m *model.Membership, actorID uuid.UUID) {
	if d.publisher == nil {
		return
	}
	d.publisher.Publish(ctx, events.NewMembershipChanged(eventType, m, actorID))
}
