package model

import "github.com/google/uuid"

// Caller identifies who is performing an operation. It is built once per request
// from the bearer token and passed explicitly into domain operations.
type Caller struct {
	UserID uuid.UUID
	Email  string
	Role   SystemRole
	Token  string
}

// IsZero reports whether the caller is unauthenticated.
func (c Caller) IsZero() bool {
	return c.UserID == uuid.Nil
}

// IsStaff reports whether the caller is a mentor or admin.
func (c Caller) IsStaff() bool {
	return c.Role.IsStaff()
}

// ActsFor reports whether the caller may act on behalf of userID.
func (c Caller) ActsFor(userID uuid.UUID) bool {
	return c.UserID == userID || c.IsStaff()
}
