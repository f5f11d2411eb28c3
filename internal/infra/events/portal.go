package events

import (
	"github.com/google/uuid"

	"github.com/labportal/server/internal/model"
)

// Event types emitted by the membership lifecycle.
const (
	TypeMemberJoined       = "membership.joined"
	TypeMemberLeft         = "membership.left"
	TypeMemberRoleChanged  = "membership.role_changed"
	TypeInvitationSent     = "invitation.sent"
	TypeInvitationResolved = "invitation.resolved"
	TypeSubmissionCreated  = "submission.created"
)

// MembershipTypes lists every event that changes a project's roster.
var MembershipTypes = []string{TypeMemberJoined, TypeMemberLeft, TypeMemberRoleChanged}

// MembershipChanged is emitted after a membership is created, removed or re-roled.
type MembershipChanged struct {
	Meta
	UserID  uuid.UUID         `json:"user_id"`
	Role    model.ProjectRole `json:"role,omitempty"`
	ActorID uuid.UUID         `json:"actor_id"`
}

// NewMembershipChanged builds a membership event of the given type.
func NewMembershipChanged(eventType string, m *model.Membership, actorID uuid.UUID) *MembershipChanged {
	return &MembershipChanged{
		Meta:    newMeta(eventType, m.ProjectID),
		UserID:  m.UserID,
		Role:    m.Role,
		ActorID: actorID,
	}
}

// InvitationEvent is emitted when an invitation is created or reaches a terminal state.
type InvitationEvent struct {
	Meta
	InvitationID  uuid.UUID              `json:"invitation_id"`
	InvitedUserID uuid.UUID              `json:"invited_user_id"`
	Status        model.InvitationStatus `json:"status"`
}

// NewInvitationEvent builds an invitation event of the given type.
func NewInvitationEvent(eventType string, inv *model.Invitation) *InvitationEvent {
	return &InvitationEvent{
		Meta:          newMeta(eventType, inv.ProjectID),
		InvitationID:  inv.ID,
		InvitedUserID: inv.InvitedUserID,
		Status:        inv.Status,
	}
}

// SubmissionCreated is emitted after a deliverable is stored.
type SubmissionCreated struct {
	Meta
	SubmissionID uuid.UUID `json:"submission_id"`
	TaskID       uuid.UUID `json:"task_id"`
	UserID       uuid.UUID `json:"user_id"`
	Resubmission bool      `json:"resubmission"`
}

// NewSubmissionCreated builds a submission event for a task of projectID.
func NewSubmissionCreated(projectID uuid.UUID, sub *model.Submission, resubmission bool) *SubmissionCreated {
	return &SubmissionCreated{
		Meta:         newMeta(TypeSubmissionCreated, projectID),
		SubmissionID: sub.ID,
		TaskID:       sub.TaskID,
		UserID:       sub.UserID,
		Resubmission: resubmission,
	}
}
