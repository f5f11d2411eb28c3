package submission

import (
	apperrors "github.com/labportal/server/internal/utils/errors"
)

// Domain errors for submissions.
var (
	ErrMissingFileName = apperrors.Define(apperrors.ErrValidation, "MISSING_FILE_NAME", "file name is required")
	ErrEmptyFile       = apperrors.Define(apperrors.ErrValidation, "EMPTY_FILE", "file is empty")
	ErrFileTooLarge    = apperrors.Define(apperrors.ErrValidation, "FILE_TOO_LARGE", "file exceeds the maximum upload size")
)
