package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("Error returns message", func(t *testing.T) {
		err := Conflict("already there")
		assert.Equal(t, "already there", err.Error())
	})

	t.Run("Error includes wrapped cause", func(t *testing.T) {
		err := Transient("directory down", errors.New("dial tcp: refused"))
		assert.Contains(t, err.Error(), "directory down")
		assert.Contains(t, err.Error(), "dial tcp: refused")
	})

	t.Run("Unwrap returns kind", func(t *testing.T) {
		err := NotFound("project")
		assert.Equal(t, ErrNotFound, err.Unwrap())
	})
}

func TestDefine(t *testing.T) {
	errFull := Define(ErrConflict, "PROJECT_FULL", "project is full")

	assert.Equal(t, "PROJECT_FULL", errFull.Code)
	assert.Equal(t, http.StatusConflict, errFull.StatusCode)
	assert.True(t, errors.Is(errFull, ErrConflict))
	assert.False(t, errors.Is(errFull, ErrNotFound))

	wrapped := fmt.Errorf("join: %w", errFull)
	assert.True(t, errors.Is(wrapped, errFull))
	assert.True(t, IsConflict(wrapped))
	assert.Equal(t, http.StatusConflict, GetStatusCode(wrapped))
}

func TestWithDetails_DoesNotMutateSentinel(t *testing.T) {
	sentinel := Define(ErrConflict, "DUPLICATE_INVITE", "invitation already pending")
	withDetails := sentinel.WithDetails(map[string]any{"user_id": "u1"})

	assert.Nil(t, sentinel.Details)
	assert.Equal(t, "u1", withDetails.Details["user_id"])
	assert.True(t, errors.Is(withDetails, sentinel))
}

func TestTransient(t *testing.T) {
	cause := errors.New("502 bad gateway")
	err := Transient("", cause)

	assert.Equal(t, "service temporarily unavailable", err.Message)
	assert.True(t, IsTransient(err))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, http.StatusServiceUnavailable, GetStatusCode(err))
}

func TestGetStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", ValidationError("bad"), http.StatusUnprocessableEntity},
		{"not found", NotFound("task"), http.StatusNotFound},
		{"forbidden", Forbidden(""), http.StatusForbidden},
		{"unauthorized", Unauthorized(""), http.StatusUnauthorized},
		{"bare kind", fmt.Errorf("lookup: %w", ErrNotFound), http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetStatusCode(tt.err))
		})
	}
}

func TestKindLabel(t *testing.T) {
	assert.Equal(t, "ok", KindLabel(nil))
	assert.Equal(t, "conflict", KindLabel(Conflict("x")))
	assert.Equal(t, "transient", KindLabel(Transient("x", nil)))
	assert.Equal(t, "validation", KindLabel(ValidationError("x")))
	assert.Equal(t, "internal", KindLabel(errors.New("x")))
}

func TestToResponse(t *testing.T) {
	resp := NotFound("invitation").ToResponse()
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "invitation not found", resp.Error.Message)
}
