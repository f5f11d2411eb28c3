package model

import (
	"github.com/google/uuid"
)

// SystemRole is the portal-wide role flag carried by a user record.
type SystemRole string

const (
	SystemRoleStudent SystemRole = "student"
	SystemRoleMentor  SystemRole = "mentor"
	SystemRoleAdmin   SystemRole = "admin"
	SystemRoleFinance SystemRole = "finance"
)

// IsValid checks if the role is a known system role.
func (r SystemRole) IsValid() bool {
	switch r {
	case SystemRoleStudent, SystemRoleMentor, SystemRoleAdmin, SystemRoleFinance:
		return true
	default:
		return false
	}
}

// IsStaff reports whether the role may manage projects on behalf of students.
func (r SystemRole) IsStaff() bool {
	return r == SystemRoleMentor || r == SystemRoleAdmin
}

// User is a read-only profile owned by the User Directory.
type User struct {
	ID          uuid.UUID  `json:"id"`
	DisplayName string     `json:"display_name"`
	Email       string     `json:"email"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	Role        SystemRole `json:"role"`
	Active      bool       `json:"active"`
}

// IsInvitable reports whether the user belongs to the role category that can be invited to projects.
func (u *User) IsInvitable() bool {
	return u != nil && u.Active && u.Role == SystemRoleStudent
}

// UserFilter narrows a User Directory listing.
type UserFilter struct {
	Role   SystemRole
	Active *bool
	Search string
}

// UserPage is one page of a User Directory listing.
type UserPage struct {
	Users []User
	Total int64
}
