package portalhttp

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/port/inbound"
	apperrors "github.com/labportal/server/internal/utils/errors"
)

// Eligibility reports whether a user may join a project.
//
//	@Summary	Check join eligibility
//	@Tags		Membership
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id		path		string	true	"Project ID"
//	@Param		user_id	query		string	false	"User to check (staff only)"
//	@Success	200		{object}	membership.Decision
//	@Failure	403		{object}	errors.ErrorResponse
//	@Router		/projects/{id}/eligibility [get]
func (h *Handler) Eligibility(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	userID := caller.UserID
	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(c, badRequest("invalid user_id"))
			return
		}
		if !caller.ActsFor(id) {
			writeError(c, forbidden())
			return
		}
		userID = id
	}

	decision, err := h.members.CanJoin(c.Request.Context(), userID, projectID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}

// Join adds a user to a project.
//
//	@Summary	Join a project
//	@Tags		Membership
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"Project ID"
//	@Param		body	body		inbound.JoinInput	false	"Target user (staff only)"
//	@Success	201		{object}	model.Membership
//	@Failure	409		{object}	errors.ErrorResponse
//	@Router		/projects/{id}/join [post]
func (h *Handler) Join(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	userID, ok := targetUser(c, caller.UserID)
	if !ok {
		return
	}

	m, err := h.members.Join(c.Request.Context(), caller, userID, projectID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, m)
}

// Leave removes a user from a project.
//
//	@Summary	Leave a project
//	@Tags		Membership
//	@Security	BearerAuth
//	@Accept		json
//	@Param		id		path	string				true	"Project ID"
//	@Param		body	body	inbound.JoinInput	false	"Target user (staff only)"
//	@Success	204
//	@Failure	403	{object}	errors.ErrorResponse
//	@Router		/projects/{id}/leave [post]
func (h *Handler) Leave(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	userID, ok := targetUser(c, caller.UserID)
	if !ok {
		return
	}

	if err := h.members.Leave(c.Request.Context(), caller, userID, projectID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SetRole changes a member's project role.
//
//	@Summary	Set a member's role
//	@Tags		Membership
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Project ID"
//	@Param		user_id	path		string					true	"Member user ID"
//	@Param		body	body		inbound.SetRoleInput	true	"New role"
//	@Success	200		{object}	model.Membership
//	@Failure	403		{object}	errors.ErrorResponse
//	@Router		/projects/{id}/members/{user_id}/role [put]
func (h *Handler) SetRole(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "user_id")
	if !ok {
		return
	}

	var input inbound.SetRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, badRequest(err.Error()))
		return
	}

	m, err := h.members.SetRole(c.Request.Context(), caller, userID, projectID, input.Role)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, m)
}

// Roster lists a project's members.
//
//	@Summary	Project roster
//	@Tags		Membership
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Project ID"
//	@Success	200	{array}		model.TeamMember
//	@Failure	503	{object}	errors.ErrorResponse
//	@Router		/projects/{id}/roster [get]
func (h *Handler) Roster(c *gin.Context) {
	if _, ok := h.caller(c); !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	rows, err := h.rosters.Roster(c.Request.Context(), projectID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	if rows == nil {
		rows = []*model.TeamMember{}
	}
	c.JSON(http.StatusOK, rows)
}

// targetUser reads the optional JoinInput body. An empty body targets the
// caller.
func targetUser(c *gin.Context, self uuid.UUID) (uuid.UUID, bool) {
	var input inbound.JoinInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, badRequest(err.Error()))
		return uuid.Nil, false
	}
	if input.UserID == nil || *input.UserID == uuid.Nil {
		return self, true
	}
	return *input.UserID, true
}

func forbidden() *apperrors.AppError {
	return apperrors.Forbidden("caller may not act for this user")
}
