package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/labportal/server/internal/model"
)

func TestBus_PublishDispatchesByType(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var joined, left int
	bus.Register(On(func(ctx context.Context, e Event) error {
		joined++
		return nil
	}, TypeMemberJoined))
	bus.Register(On(func(ctx context.Context, e Event) error {
		left++
		return nil
	}, TypeMemberLeft))

	m := &model.Membership{UserID: uuid.New(), ProjectID: uuid.New(), Role: model.ProjectRoleMember}
	bus.Publish(context.Background(), NewMembershipChanged(TypeMemberJoined, m, m.UserID))

	assert.Equal(t, 1, joined)
	assert.Equal(t, 0, left)
}

func TestBus_HandlerErrorIsolation(t *testing.T) {
	bus := NewBus(nil)

	var calls []string
	bus.Register(On(func(ctx context.Context, e Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	}, TypeMemberJoined))
	bus.Register(On(func(ctx context.Context, e Event) error {
		calls = append(calls, "second")
		return nil
	}, TypeMemberJoined))

	m := &model.Membership{UserID: uuid.New(), ProjectID: uuid.New()}
	bus.Publish(context.Background(), NewMembershipChanged(TypeMemberJoined, m, m.UserID))

	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestBus_WildcardRunsAfterTyped(t *testing.T) {
	bus := NewBus(nil)

	var calls []string
	bus.Register(On(func(ctx context.Context, e Event) error {
		calls = append(calls, "wildcard:"+e.EventType())
		return nil
	}, AllEvents))
	bus.Register(On(func(ctx context.Context, e Event) error {
		calls = append(calls, "typed")
		return nil
	}, TypeInvitationSent))

	inv := &model.Invitation{ID: uuid.New(), ProjectID: uuid.New(), Status: model.InvitationStatusPending}
	bus.Publish(context.Background(), NewInvitationEvent(TypeInvitationSent, inv))

	assert.Equal(t, []string{"typed", "wildcard:" + TypeInvitationSent}, calls)
}

func TestBus_HandlerOnSeveralTopics(t *testing.T) {
	bus := NewBus(nil)

	var seen []string
	bus.Register(On(func(ctx context.Context, e Event) error {
		seen = append(seen, e.EventType())
		return nil
	}, MembershipTypes...))

	m := &model.Membership{UserID: uuid.New(), ProjectID: uuid.New()}
	for _, typ := range []string{TypeMemberJoined, TypeInvitationSent, TypeMemberLeft} {
		if typ == TypeInvitationSent {
			bus.Publish(context.Background(), NewInvitationEvent(typ, &model.Invitation{ProjectID: m.ProjectID}))
			continue
		}
		bus.Publish(context.Background(), NewMembershipChanged(typ, m, m.UserID))
	}

	assert.Equal(t, []string{TypeMemberJoined, TypeMemberLeft}, seen)
}

func TestNewMembershipChanged(t *testing.T) {
	m := &model.Membership{UserID: uuid.New(), ProjectID: uuid.New(), Role: model.ProjectRoleLeader}
	actor := uuid.New()
	e := NewMembershipChanged(TypeMemberRoleChanged, m, actor)

	meta := e.EventMeta()
	assert.Equal(t, TypeMemberRoleChanged, e.EventType())
	assert.Equal(t, m.ProjectID, meta.ProjectID)
	assert.Equal(t, m.ProjectID, e.ProjectID)
	assert.Equal(t, actor, e.ActorID)
	assert.NotEqual(t, uuid.Nil, meta.ID)
	assert.False(t, meta.OccurredAt.IsZero())
}

func TestNewInvitationEvent_CarriesProject(t *testing.T) {
	inv := &model.Invitation{ID: uuid.New(), ProjectID: uuid.New(), Status: model.InvitationStatusAccepted}
	e := NewInvitationEvent(TypeInvitationResolved, inv)

	assert.Equal(t, inv.ProjectID, e.EventMeta().ProjectID)
	assert.Equal(t, inv.ID, e.InvitationID)
	assert.Equal(t, model.InvitationStatusAccepted, e.Status)
}
