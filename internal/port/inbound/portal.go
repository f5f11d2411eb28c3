package inbound

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/labportal/server/internal/model"
)

// --- Request Types ---

// JoinInput is the optional body of a join or leave request. Staff set
// UserID to act for a student; everyone else omits it.
type JoinInput struct {
	UserID *uuid.UUID `json:"user_id"`
}

// SetRoleInput assigns a project role.
type SetRoleInput struct {
	Role model.ProjectRole `json:"role" binding:"required,oneof=leader member"`
}

// SendInvitationInput invites a student to a project.
type SendInvitationInput struct {
	UserID  uuid.UUID `json:"user_id" binding:"required"`
	Message string    `json:"message"`
}

// --- HTTP Ports ---

// MembershipHttpPort defines membership HTTP handlers.
type MembershipHttpPort interface {
	// Eligibility reports whether a user could join a project right now.
	Eligibility(c *gin.Context)

	// Join adds the caller (or, for staff, the named user) to a project.
	Join(c *gin.Context)

	// Leave removes the caller (or, for staff, the named user) from a project.
	Leave(c *gin.Context)

	// SetRole changes a member's project role.
	SetRole(c *gin.Context)

	// Roster lists a project's members with their profiles.
	Roster(c *gin.Context)
}

// InvitationHttpPort defines invitation HTTP handlers.
type InvitationHttpPort interface {
	ListCandidates(c *gin.Context)
	SendInvitation(c *gin.Context)
	ListProjectInvitations(c *gin.Context)
	ListMyInvitations(c *gin.Context)
	AcceptInvitation(c *gin.Context)
	RejectInvitation(c *gin.Context)
	RevokeInvitation(c *gin.Context)
}

// SubmissionHttpPort defines task and submission HTTP handlers.
type SubmissionHttpPort interface {
	TaskStatus(c *gin.Context)
	Submit(c *gin.Context)
	Dashboard(c *gin.Context)
}

// PortalHttpPort combines every portal handler.
type PortalHttpPort interface {
	MembershipHttpPort
	InvitationHttpPort
	SubmissionHttpPort

	// RegisterRoutes mounts the handlers under r behind auth.
	RegisterRoutes(r *gin.RouterGroup, auth gin.HandlerFunc)
}
