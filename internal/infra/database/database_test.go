package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	unique := &pq.Error{Code: "23505", Message: "duplicate key value"}
	assert.True(t, IsUniqueViolation(unique))
	assert.True(t, IsUniqueViolation(fmt.Errorf("create: %w", unique)))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("duplicate")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestSchema_DeclaresPendingInvitationIndex(t *testing.T) {
	assert.Contains(t, schema, "uq_invitations_pending")
	assert.Contains(t, schema, "WHERE status = 'pending'")
}
