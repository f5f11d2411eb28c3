// Package portalhttp serves the lab portal API over gin.
package portalhttp

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/labportal/server/internal/domain/invitation"
	"github.com/labportal/server/internal/domain/membership"
	"github.com/labportal/server/internal/domain/roster"
	"github.com/labportal/server/internal/domain/submission"
	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/port/inbound"
	apperrors "github.com/labportal/server/internal/utils/errors"
	"github.com/labportal/server/internal/utils/middleware"
	"github.com/labportal/server/internal/utils/pagination"
)

// Handler handles portal HTTP requests.
type Handler struct {
	members     *membership.Domain
	invitations *invitation.Domain
	rosters     *roster.Domain
	submissions *submission.Domain
	logger      *zap.Logger
}

// NewHandler creates a new portal handler.
func NewHandler(
	members *membership.Domain,
	invitations *invitation.Domain,
	rosters *roster.Domain,
	submissions *submission.Domain,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		members:     members,
		invitations: invitations,
		rosters:     rosters,
		submissions: submissions,
		logger:      logger,
	}
}

// RegisterRoutes registers portal routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	projects := r.Group("/projects")
	projects.Use(authMiddleware)
	{
		projects.GET("/:id/eligibility", h.Eligibility)
		projects.POST("/:id/join", h.Join)
		projects.POST("/:id/leave", h.Leave)
		projects.PUT("/:id/members/:user_id/role", h.SetRole)
		projects.GET("/:id/roster", h.Roster)

		// Invitations
		projects.GET("/:id/candidates", h.ListCandidates)
		projects.POST("/:id/invitations", h.SendInvitation)
		projects.GET("/:id/invitations", h.ListProjectInvitations)
	}

	invitations := r.Group("/invitations")
	invitations.Use(authMiddleware)
	{
		invitations.GET("", h.ListMyInvitations)
		invitations.POST("/:id/accept", h.AcceptInvitation)
		invitations.POST("/:id/reject", h.RejectInvitation)
		invitations.POST("/:id/revoke", h.RevokeInvitation)
	}

	tasks := r.Group("/tasks")
	tasks.Use(authMiddleware)
	{
		tasks.GET("/:id/status", h.TaskStatus)
		tasks.POST("/:id/submissions", h.Submit)
	}

	r.GET("/dashboard", authMiddleware, h.Dashboard)
}

// ========== Helpers ==========

// caller returns the authenticated caller, writing a 401 when there is none.
func (h *Handler) caller(c *gin.Context) (model.Caller, bool) {
	caller, ok := middleware.GetCaller(c)
	if !ok || caller.UserID == uuid.Nil {
		writeError(c, apperrors.Unauthorized("authentication required"))
		return model.Caller{}, false
	}
	return caller, true
}

// uuidParam parses a path parameter, writing a 400 when it is malformed.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		writeError(c, badRequest("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// pageQuery reads page and page_size, falling back to defaults.
func pageQuery(c *gin.Context) *pagination.Pagination {
	p := pagination.New()
	if v, err := strconv.Atoi(c.Query("page")); err == nil {
		p.Page = v
	}
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil {
		p.PageSize = v
	}
	return p.Normalize()
}

func badRequest(message string) *apperrors.AppError {
	return &apperrors.AppError{
		Code:       "INVALID_INPUT",
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        apperrors.ErrValidation,
	}
}

// handleError maps domain errors to HTTP responses. Unexpected errors are
// logged and reported without their internals.
func (h *Handler) handleError(c *gin.Context, err error) {
	status := apperrors.GetStatusCode(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("kind", apperrors.KindLabel(err)),
			zap.Error(err),
		)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || status == http.StatusInternalServerError {
		appErr = apperrors.Internal("internal server error", nil)
	}
	c.AbortWithStatusJSON(status, appErr.ToResponse())
}

func writeError(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(apperrors.GetStatusCode(appErr), appErr.ToResponse())
}

// Compile-time interface check
var _ inbound.PortalHttpPort = (*Handler)(nil)
