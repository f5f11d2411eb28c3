package portalhttp

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/labportal/server/internal/model"
)

// formFileField is the multipart field carrying the deliverable.
const formFileField = "file"

// TaskStatus returns a task with its derived status.
//
//	@Summary	Task status
//	@Tags		Submission
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Task ID"
//	@Success	200	{object}	submission.TaskView
//	@Failure	403	{object}	errors.ErrorResponse
//	@Router		/tasks/{id}/status [get]
func (h *Handler) TaskStatus(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	view, err := h.submissions.TaskStatus(c.Request.Context(), caller, taskID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Submit uploads a deliverable for a task.
//
//	@Summary	Submit a deliverable
//	@Tags		Submission
//	@Security	BearerAuth
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		id		path		string	true	"Task ID"
//	@Param		file	formData	file	true	"Deliverable"
//	@Success	201		{object}	model.Submission
//	@Failure	422		{object}	errors.ErrorResponse
//	@Router		/tasks/{id}/submissions [post]
func (h *Handler) Submit(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile(formFileField)
	if err != nil {
		writeError(c, badRequest("multipart field \""+formFileField+"\" is required"))
		return
	}
	f, err := header.Open()
	if err != nil {
		writeError(c, badRequest("unreadable upload"))
		return
	}
	defer f.Close()

	sub, err := h.submissions.Submit(c.Request.Context(), caller, taskID, model.FileUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sub)
}

// Dashboard returns the caller's tasks grouped by milestone.
//
//	@Summary	Task dashboard
//	@Tags		Submission
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	submission.Dashboard
//	@Router		/dashboard [get]
func (h *Handler) Dashboard(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	dash, err := h.submissions.Dashboard(c.Request.Context(), caller)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dash)
}
