package portalhttp

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/labportal/server/internal/domain/invitation"
	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/port/inbound"
)

// ListCandidates lists students who could be invited to a project.
//
//	@Summary	List invitation candidates
//	@Tags		Invitation
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id			path		string	true	"Project ID"
//	@Param		q			query		string	false	"Name or email filter"
//	@Param		page		query		int		false	"Page"
//	@Param		page_size	query		int		false	"Page size"
//	@Success	200			{object}	pagination.Page[model.User]
//	@Failure	403			{object}	errors.ErrorResponse
//	@Router		/projects/{id}/candidates [get]
func (h *Handler) ListCandidates(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	page, err := h.invitations.ListCandidates(c.Request.Context(), caller, projectID, strings.TrimSpace(c.Query("q")), pageQuery(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// SendInvitation invites a student to a project.
//
//	@Summary	Send an invitation
//	@Tags		Invitation
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string						true	"Project ID"
//	@Param		body	body		inbound.SendInvitationInput	true	"Invitee"
//	@Success	201		{object}	model.Invitation
//	@Failure	409		{object}	errors.ErrorResponse
//	@Router		/projects/{id}/invitations [post]
func (h *Handler) SendInvitation(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var input inbound.SendInvitationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, badRequest(err.Error()))
		return
	}

	inv, err := h.invitations.Send(c.Request.Context(), caller, projectID, input.UserID, input.Message)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, inv)
}

// ListProjectInvitations lists a project's invitations.
//
//	@Summary	List project invitations
//	@Tags		Invitation
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Project ID"
//	@Success	200	{array}		invitation.View
//	@Failure	403	{object}	errors.ErrorResponse
//	@Router		/projects/{id}/invitations [get]
func (h *Handler) ListProjectInvitations(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	views, err := h.invitations.ListForProject(c.Request.Context(), caller, projectID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, nonNil(views))
}

// ListMyInvitations lists the caller's invitations.
//
//	@Summary	List my invitations
//	@Tags		Invitation
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{array}	invitation.View
//	@Router		/invitations [get]
func (h *Handler) ListMyInvitations(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	views, err := h.invitations.ListForUser(c.Request.Context(), caller)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, nonNil(views))
}

// AcceptInvitation accepts an invitation. An invitation that can no longer be
// honoured comes back expired, with the blocking reason, and no membership.
//
//	@Summary	Accept an invitation
//	@Tags		Invitation
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Invitation ID"
//	@Success	200	{object}	invitation.AcceptResult
//	@Failure	409	{object}	errors.ErrorResponse
//	@Router		/invitations/{id}/accept [post]
func (h *Handler) AcceptInvitation(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	invitationID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	result, err := h.invitations.Accept(c.Request.Context(), caller, invitationID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RejectInvitation declines an invitation.
//
//	@Summary	Reject an invitation
//	@Tags		Invitation
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Invitation ID"
//	@Success	200	{object}	model.Invitation
//	@Failure	409	{object}	errors.ErrorResponse
//	@Router		/invitations/{id}/reject [post]
func (h *Handler) RejectInvitation(c *gin.Context) {
	h.resolveInvitation(c, h.invitations.Reject)
}

// RevokeInvitation withdraws a pending invitation.
//
//	@Summary	Revoke an invitation
//	@Tags		Invitation
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Invitation ID"
//	@Success	200	{object}	model.Invitation
//	@Failure	403	{object}	errors.ErrorResponse
//	@Router		/invitations/{id}/revoke [post]
func (h *Handler) RevokeInvitation(c *gin.Context) {
	h.resolveInvitation(c, h.invitations.Revoke)
}

type resolveFunc func(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Invitation, error)

func (h *Handler) resolveInvitation(c *gin.Context, fn resolveFunc) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	invitationID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	inv, err := fn(c.Request.Context(), caller, invitationID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, inv)
}

func nonNil(views []*invitation.View) []*invitation.View {
	if views == nil {
		return []*invitation.View{}
	}
	return views
}
