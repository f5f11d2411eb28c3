package model

import (
	"time"

	"github.com/google/uuid"
)

// InvitationStatus represents the status of an invitation.
type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusRejected InvitationStatus = "rejected"
	InvitationStatusExpired  InvitationStatus = "expired"
)

// IsTerminal reports whether no further transition is possible.
func (s InvitationStatus) IsTerminal() bool {
	return s != InvitationStatusPending
}

// Invitation proposes a membership to a user.
type Invitation struct {
	ID            uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID     uuid.UUID        `json:"project_id" gorm:"type:uuid;not null;index"`
	InvitedUserID uuid.UUID        `json:"invited_user_id" gorm:"type:uuid;not null;index"`
	InviterID     uuid.UUID        `json:"inviter_id" gorm:"type:uuid;not null"`
	Message       string           `json:"message,omitempty"`
	Status        InvitationStatus `json:"status" gorm:"not null;default:pending"`
	ExpiresAt     time.Time        `json:"expires_at"`
	CreatedAt     time.Time        `json:"created_at"`
	ResolvedAt    *time.Time       `json:"resolved_at,omitempty"`
}

// TableName returns the database table name.
func (Invitation) TableName() string {
	return "project_invitations"
}

// IsPending returns true if the invitation awaits a decision.
func (i *Invitation) IsPending() bool {
	return i.Status == InvitationStatusPending
}

// IsExpiredAt reports whether the invitation's TTL elapsed before now.
func (i *Invitation) IsExpiredAt(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// InvitationFilter narrows an invitation listing. Zero values are ignored.
type InvitationFilter struct {
	ProjectID     uuid.UUID
	InvitedUserID uuid.UUID
	Status        InvitationStatus
}
