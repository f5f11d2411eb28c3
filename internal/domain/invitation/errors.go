package invitation

import (
	apperrors "github.com/labportal/server/internal/utils/errors"
)

// Domain errors for invitations.
var (
	ErrDuplicateInvite      = apperrors.Define(apperrors.ErrConflict, "DUPLICATE_INVITE", "a pending invitation already exists for this user and project")
	ErrTargetIneligible     = apperrors.Define(apperrors.ErrConflict, "TARGET_INELIGIBLE", "user cannot be invited to this project")
	ErrInvitationNotPending = apperrors.Define(apperrors.ErrConflict, "INVITATION_NOT_PENDING", "invitation has already been resolved")

	ErrNotInvitee         = apperrors.Define(apperrors.ErrForbidden, "NOT_INVITEE", "only the invited user may answer this invitation")
	ErrInviteNotPermitted = apperrors.Define(apperrors.ErrForbidden, "INVITE_NOT_PERMITTED", "caller may not manage invitations for this project")

	ErrMessageTooLong = apperrors.Define(apperrors.ErrValidation, "MESSAGE_TOO_LONG", "invitation message is too long")
	ErrSelfInvite     = apperrors.Define(apperrors.ErrValidation, "SELF_INVITE", "cannot invite yourself")
)
