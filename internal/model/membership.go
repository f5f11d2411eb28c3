package model

import (
	"time"

	"github.com/google/uuid"
)

// ProjectRole is a member's role inside a project.
type ProjectRole string

const (
	ProjectRoleLeader ProjectRole = "leader"
	ProjectRoleMember ProjectRole = "member"
)

// IsValid checks if the role is valid.
func (r ProjectRole) IsValid() bool {
	return r == ProjectRoleLeader || r == ProjectRoleMember
}

// Membership binds a user to a project.
type Membership struct {
	UserID     uuid.UUID   `json:"user_id" gorm:"type:uuid;primaryKey"`
	ProjectID  uuid.UUID   `json:"project_id" gorm:"type:uuid;primaryKey"`
	Role       ProjectRole `json:"role" gorm:"not null;default:member"`
	SemesterID string      `json:"semester_id,omitempty" gorm:"column:semester_id;not null;default:''"`
	JoinedAt   time.Time   `json:"joined_at"`
}

// TableName returns the database table name.
func (Membership) TableName() string {
	return "project_memberships"
}

// IsLeader returns true if the member leads the project.
func (m *Membership) IsLeader() bool {
	return m.Role == ProjectRoleLeader
}

// MembershipFilter narrows a membership listing. Zero values are ignored.
type MembershipFilter struct {
	UserID    uuid.UUID
	ProjectID uuid.UUID
}
