package postgresql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/database"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapPgError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, database.ErrConflict},
		{"deadlock", fmt.Errorf("update: %w", &pgconn.PgError{Code: "40P01"}), database.ErrConflict},
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "attendances_employee_date_key"}, database.ErrDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapPgError(tt.err), tt.want)
		})
	}
}

func TestMapPgError_PassesThroughOthers(t *testing.T) {
	other := errors.New("connection reset")
	assert.Same(t, other, mapPgError(other))

	fk := &pgconn.PgError{Code: "23503"}
	assert.Equal(t, error(fk), mapPgError(fk))
}
