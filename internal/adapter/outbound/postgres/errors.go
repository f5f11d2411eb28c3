package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"gorm.io/gorm"

	"github.com/labportal/server/internal/infra/database"
	apperrors "github.com/labportal/server/internal/utils/errors"
)

// mapError translates driver errors onto the error taxonomy. Unique
// violations become conflicts; lost connections become transient.
func mapError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NotFound(resource)
	case database.IsUniqueViolation(err):
		return apperrors.Conflict(resource + " already exists")
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, context.DeadlineExceeded):
		return apperrors.Transient("database unavailable", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperrors.Transient("database unavailable", err)
	}
	return err
}
