package invitation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/labportal/server/internal/domain/membership"
	"github.com/labportal/server/internal/infra/events"
	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/port/outbound"
	apperrors "github.com/labportal/server/internal/utils/errors"
	"github.com/labportal/server/internal/utils/metrics"
	"github.com/labportal/server/internal/utils/pagination"
)

// MembershipEngine is the part of the membership domain invitations rely on.
type MembershipEngine interface {
	CanJoin(ctx context.Context, userID, projectID uuid.UUID) (membership.Decision, error)
	Find(ctx context.Context, userID, projectID uuid.UUID) (*model.Membership, error)
	Members(ctx context.Context, projectID uuid.UUID) ([]*model.Membership, error)
	IsLeader(ctx context.Context, userID, projectID uuid.UUID) (bool, error)
	Join(ctx context.Context, caller model.Caller, userID, projectID uuid.UUID) (*model.Membership, error)
}

// EventPublisher receives domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event)
}

// View is an invitation as shown to a user, after reconciliation.
type View struct {
	*model.Invitation

	// Actionable is false when accepting would fail right now.
	Actionable    bool              `json:"actionable"`
	BlockedReason membership.Reason `json:"blocked_reason,omitempty"`
}

// AcceptResult is the outcome of Accept. Membership is nil unless the
// invitation ended accepted.
type AcceptResult struct {
	Invitation *model.Invitation `json:"invitation"`
	Membership *model.Membership `json:"membership,omitempty"`
	Reason     membership.Reason `json:"reason,omitempty"`
}

// Domain manages project invitations.
type Domain struct {
	invitations outbound.InvitationStorePort
	users       outbound.UserDirectoryPort
	members     MembershipEngine
	publisher   EventPublisher
	cfg         *Config
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewDomain creates a new invitation domain.
func NewDomain(
	invitations outbound.InvitationStorePort,
	users outbound.UserDirectoryPort,
	members MembershipEngine,
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
		invitations: invitations,
		users:       users,
		members:     members,
		publisher:   publisher,
		cfg:         cfg,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// ========== Send ==========

// Send invites invitedUserID to projectID. The caller must lead the project or
// be a mentor or admin.
func (d *Domain) Send(ctx context.Context, caller model.Caller, projectID, invitedUserID uuid.UUID, message string) (*model.Invitation, error) {
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) > d.cfg.MaxMessageLength {
		return nil, ErrMessageTooLong.WithDetails(map[string]interface{}{"max_length": d.cfg.MaxMessageLength})
	}
	if invitedUserID == caller.UserID {
		return nil, ErrSelfInvite
	}
	if err := d.requireInviter(ctx, caller, projectID); err != nil {
		return nil, err
	}

	pending, err := d.pendingFor(ctx, projectID, invitedUserID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, ErrDuplicateInvite
	}

	if err := d.checkTarget(ctx, invitedUserID); err != nil {
		return nil, err
	}

	dec, err := d.members.CanJoin(ctx, invitedUserID, projectID)
	if err != nil {
		return nil, err
	}
	if !dec.Allowed {
		if dec.Reason == membership.ReasonOneProjectPerSemester {
			return nil, ErrTargetIneligible
		}
		return nil, dec.Err()
	}

	now := d.now().UTC()
	inv := &model.Invitation{
		ProjectID:     projectID,
		InvitedUserID: invitedUserID,
		InviterID:     caller.UserID,
		Message:       message,
		Status:        model.InvitationStatusPending,
		CreatedAt:     now,
		ExpiresAt:     now.Add(d.cfg.TTL),
	}
	if err := d.invitations.CreateInvitation(ctx, inv); err != nil {
		// A concurrent send won the store's pending-invitation constraint.
		if apperrors.IsConflict(err) {
			return nil, ErrDuplicateInvite
		}
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	d.metrics.RecordInvitationTransition(string(model.InvitationStatusPending))
	d.publish(ctx, events.TypeInvitationSent, inv)
	d.logger.Info("invitation sent",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("project_id", projectID.String()),
		zap.String("invited_user_id", invitedUserID.String()),
	)
	return inv, nil
}

// pendingFor returns the live pending invitation for the pair. Pending rows
// whose TTL elapsed are expired on the way.
func (d *Domain) pendingFor(ctx context.Context, projectID, userID uuid.UUID) (*model.Invitation, error) {
	rows, err := d.invitations.ListInvitations(ctx, model.InvitationFilter{
		ProjectID:     projectID,
		InvitedUserID: userID,
		Status:        model.InvitationStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}

	now := d.now()
	for _, inv := range rows {
		if inv.IsExpiredAt(now) {
			d.resolve(ctx, inv, model.InvitationStatusExpired)
			continue
		}
		return inv, nil
	}
	return nil, nil
}

func (d *Domain) checkTarget(ctx context.Context, userID uuid.UUID) error {
	users, err := d.users.GetUsersByIDs(ctx, []uuid.UUID{userID})
	if err != nil {
		return fmt.Errorf("get invited user: %w", err)
	}
	for _, u := range users {
		if u.ID != userID {
			continue
		}
		if !u.IsInvitable() {
			return ErrTargetIneligible
		}
		return nil
	}
	return apperrors.NotFound("user")
}

func (d *Domain) requireInviter(ctx context.Context, caller model.Caller, projectID uuid.UUID) error {
	if caller.IsStaff() {
		return nil
	}
	leader, err := d.members.IsLeader(ctx, caller.UserID, projectID)
	if err != nil {
		return err
	}
	if !leader {
		return ErrInviteNotPermitted
	}
	return nil
}

// ========== Answer ==========

// Accept answers an invitation on behalf of the invitee. The join rules are
// re-run first; if they now fail the invitation expires and no Membership is
// created.
func (d *Domain) Accept(ctx context.Context, caller model.Caller, invitationID uuid.UUID) (*AcceptResult, error) {
	inv, err := d.answerable(ctx, caller, invitationID)
	if err != nil {
		return nil, err
	}

	if inv.IsExpiredAt(d.now()) {
		d.resolve(ctx, inv, model.InvitationStatusExpired)
		return &AcceptResult{Invitation: inv}, nil
	}

	dec, err := d.members.CanJoin(ctx, inv.InvitedUserID, inv.ProjectID)
	if err != nil {
		return nil, err
	}
	if !dec.Allowed {
		return d.settleBlocked(ctx, inv, dec.Reason)
	}

	// Step 1: the membership.
	m, err := d.members.Join(ctx, caller, inv.InvitedUserID, inv.ProjectID)
	if err != nil {
		if reason, ok := ruleReason(err); ok {
			return d.settleBlocked(ctx, inv, reason)
		}
		return nil, err
	}

	// Step 2: the invitation. A failure here leaves the membership in place and
	// the invitation pending until the next read reconciles it.
	if ok, _ := d.resolve(ctx, inv, model.InvitationStatusAccepted); !ok {
		d.logger.Warn("membership created but invitation not resolved",
			zap.String("invitation_id", inv.ID.String()),
			zap.String("user_id", inv.InvitedUserID.String()),
		)
	}
	return &AcceptResult{Invitation: inv, Membership: m}, nil
}

// settleBlocked resolves an invitation whose join was refused. A user already
// on the project finished an earlier accept; anything else expires it.
func (d *Domain) settleBlocked(ctx context.Context, inv *model.Invitation, reason membership.Reason) (*AcceptResult, error) {
	if reason == membership.ReasonAlreadyMember {
		m, err := d.members.Find(ctx, inv.InvitedUserID, inv.ProjectID)
		if err != nil {
			return nil, err
		}
		d.resolve(ctx, inv, model.InvitationStatusAccepted)
		return &AcceptResult{Invitation: inv, Membership: m}, nil
	}

	d.resolve(ctx, inv, model.InvitationStatusExpired)
	d.logger.Info("invitation expired on accept",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("reason", string(reason)),
	)
	return &AcceptResult{Invitation: inv, Reason: reason}, nil
}

// Reject declines an invitation on behalf of the invitee.
func (d *Domain) Reject(ctx context.Context, caller model.Caller, invitationID uuid.UUID) (*model.Invitation, error) {
	inv, err := d.answerable(ctx, caller, invitationID)
	if err != nil {
		return nil, err
	}
	ok, err := d.resolve(ctx, inv, model.InvitationStatusRejected)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvitationNotPending
	}
	return inv, nil
}

// Revoke withdraws a pending invitation. Only the inviter, a mentor or an admin
// may do this.
func (d *Domain) Revoke(ctx context.Context, caller model.Caller, invitationID uuid.UUID) (*model.Invitation, error) {
	inv, err := d.invitations.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.InviterID != caller.UserID && !caller.IsStaff() {
		return nil, ErrInviteNotPermitted
	}
	if !inv.IsPending() {
		return nil, ErrInvitationNotPending
	}
	ok, err := d.resolve(ctx, inv, model.InvitationStatusExpired)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvitationNotPending
	}
	return inv, nil
}

func (d *Domain) answerable(ctx context.Context, caller model.Caller, invitationID uuid.UUID) (*model.Invitation, error) {
	inv, err := d.invitations.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.InvitedUserID != caller.UserID {
		return nil, ErrNotInvitee
	}
	if !inv.IsPending() {
		return nil, ErrInvitationNotPending
	}
	return inv, nil
}

// resolve moves inv to outcome and updates inv in place. It returns false when
// the store no longer holds it as pending, and the store error when the write
// failed.
func (d *Domain) resolve(ctx context.Context, inv *model.Invitation, outcome model.InvitationStatus) (bool, error) {
	at := d.now().UTC()
	ok, err := d.invitations.ResolveInvitation(ctx, inv.ID, outcome, at)
	if err != nil {
		d.logger.Warn("resolve invitation failed",
			zap.String("invitation_id", inv.ID.String()),
			zap.String("outcome", string(outcome)),
			zap.Error(err),
		)
		return false, err
	}
	if !ok {
		if fresh, gerr := d.invitations.GetInvitation(ctx, inv.ID); gerr == nil {
			*inv = *fresh
		}
		return false, nil
	}

	inv.Status = outcome
	inv.ResolvedAt = &at
	d.metrics.RecordInvitationTransition(string(outcome))
	d.publish(ctx, events.TypeInvitationResolved, inv)
	return true, nil
}

// ruleReason extracts the join rule behind a membership error.
func ruleReason(err error) (membership.Reason, bool) {
	switch {
	case errors.Is(err, membership.ErrAlreadyMember):
		return membership.ReasonAlreadyMember, true
	case errors.Is(err, membership.ErrOneProjectPerSemester):
		return membership.ReasonOneProjectPerSemester, true
	case errors.Is(err, membership.ErrProjectClosed):
		return membership.ReasonProjectClosed, true
	case errors.Is(err, membership.ErrProjectFull):
		return membership.ReasonProjectFull, true
	default:
		return "", false
	}
}

// ========== Listings ==========

// ListForUser lists the caller's invitations, newest first, reconciled.
func (d *Domain) ListForUser(ctx context.Context, caller model.Caller) ([]*View, error) {
	rows, err := d.invitations.ListInvitations(ctx, model.InvitationFilter{InvitedUserID: caller.UserID})
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	return d.reconcileAll(ctx, rows), nil
}

// ListForProject lists a project's invitations, newest first, reconciled. Staff
// and project members may see them.
func (d *Domain) ListForProject(ctx context.Context, caller model.Caller, projectID uuid.UUID) ([]*View, error) {
	if !caller.IsStaff() {
		m, err := d.members.Find(ctx, caller.UserID, projectID)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, ErrInviteNotPermitted
		}
	}

	rows, err := d.invitations.ListInvitations(ctx, model.InvitationFilter{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	return d.reconcileAll(ctx, rows), nil
}

func (d *Domain) reconcileAll(ctx context.Context, rows []*model.Invitation) []*View {
	out := make([]*View, 0, len(rows))
	for _, inv := range rows {
		out = append(out, d.reconcile(ctx, inv))
	}
	return out
}

// reconcile re-checks a pending invitation against current membership state and
// persists any outcome that is already decided.
func (d *Domain) reconcile(ctx context.Context, inv *model.Invitation) *View {
	view := &View{Invitation: inv}
	if !inv.IsPending() {
		return view
	}

	if inv.IsExpiredAt(d.now()) {
		d.resolve(ctx, inv, model.InvitationStatusExpired)
		return view
	}

	dec, err := d.members.CanJoin(ctx, inv.InvitedUserID, inv.ProjectID)
	if err != nil {
		d.logger.Warn("invitation reconciliation skipped",
			zap.String("invitation_id", inv.ID.String()),
			zap.Error(err),
		)
		return view
	}

	switch dec.Reason {
	case "":
		view.Actionable = true
	case membership.ReasonAlreadyMember:
		d.resolve(ctx, inv, model.InvitationStatusAccepted)
	case membership.ReasonOneProjectPerSemester:
		d.resolve(ctx, inv, model.InvitationStatusExpired)
	default:
		view.BlockedReason = dec.Reason
	}
	return view
}

// ListCandidates lists users that could be invited to projectID: active
// students who are neither members nor the caller. The directory is read in
// full and paginated locally over the filtered set.
func (d *Domain) ListCandidates(ctx context.Context, caller model.Caller, projectID uuid.UUID, query string, page *pagination.Pagination) (pagination.Page[model.User], error) {
	if err := d.requireInviter(ctx, caller, projectID); err != nil {
		return pagination.Page[model.User]{}, err
	}

	members, err := d.members.Members(ctx, projectID)
	if err != nil {
		return pagination.Page[model.User]{}, err
	}
	exclude := make(map[uuid.UUID]struct{}, len(members)+1)
	exclude[caller.UserID] = struct{}{}
	for _, m := range members {
		exclude[m.UserID] = struct{}{}
	}

	all, err := d.allStudents(ctx, strings.TrimSpace(query))
	if err != nil {
		return pagination.Page[model.User]{}, err
	}

	candidates := make([]model.User, 0, len(all))
	for i := range all {
		u := all[i]
		if _, skip := exclude[u.ID]; skip {
			continue
		}
		if !u.IsInvitable() {
			continue
		}
		candidates = append(candidates, u)
	}
	return pagination.Slice(candidates, page), nil
}

func (d *Domain) allStudents(ctx context.Context, query string) ([]model.User, error) {
	active := true
	filter := model.UserFilter{Role: model.SystemRoleStudent, Active: &active, Search: query}

	var out []model.User
	for n := 1; n <= d.cfg.MaxCandidatePages; n++ {
		p := &pagination.Pagination{Page: n, PageSize: pagination.MaxPageSize}
		res, err := d.users.ListUsers(ctx, filter, p)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		out = append(out, res.Users...)
		if len(res.Users) == 0 || int64(len(out)) >= res.Total {
			return out, nil
		}
	}

	d.logger.Warn("candidate listing truncated", zap.Int("max_pages", d.cfg.MaxCandidatePages))
	return out, nil
}

func (d *Domain) publish(ctx context.Context, eventType string, inv *model.Invitation) {
	if d.publisher == nil {
		return
	}
	d.publisher.Publish(ctx, events.NewInvitationEvent(eventType, inv))
}
