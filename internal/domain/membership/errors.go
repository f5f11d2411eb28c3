package membership

import (
	apperrors "github.com/labportal/server/internal/utils/errors"
)

// Domain errors for the membership rules.
var (
	// Join rule violations
	ErrAlreadyMember         = apperrors.Define(apperrors.ErrConflict, "ALREADY_MEMBER", "user is already a member of this project")
	ErrOneProjectPerSemester = apperrors.Define(apperrors.ErrConflict, "ONE_PROJECT_PER_SEMESTER", "user already belongs to another active project this semester")
	ErrProjectFull           = apperrors.Define(apperrors.ErrConflict, "PROJECT_FULL", "project has reached its member capacity")
	ErrProjectClosed         = apperrors.Define(apperrors.ErrConflict, "PROJECT_CLOSED", "project is not accepting new members")

	// Membership errors
	ErrNotAMember = apperrors.Define(apperrors.ErrForbidden, "NOT_A_MEMBER", "user is not an active member of this project")

	// Permission errors
	ErrNotPermitted = apperrors.Define(apperrors.ErrForbidden, "NOT_PERMITTED", "caller may not change this membership")
	ErrInvalidRole  = apperrors.Define(apperrors.ErrValidation, "INVALID_ROLE", "invalid project role")
)
