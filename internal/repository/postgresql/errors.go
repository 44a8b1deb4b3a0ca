package postgresql

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/database"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// mapPgError translates PostgreSQL error codes into database errors the
// services understand. Other errors are returned unchanged.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected:
		return fmt.Errorf("%w: %s", database.ErrConflict, pgErr.Message)
	case pgUniqueViolation:
		return fmt.Errorf("%w: %s", database.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
