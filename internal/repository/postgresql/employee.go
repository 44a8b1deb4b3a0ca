package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.AssignmentRepository {
	return &employeeRepositoryImpl{db: db}
}

// GetAssignment implements employee.AssignmentRepository.
func (r *employeeRepositoryImpl) GetAssignment(ctx context.Context, employeeID, companyID string) (employee.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT e.id, e.company_id, COALESCE(e.branch_id::text, ''), e.shift_id,
			   COALESCE(b.timezone, 'UTC')
		FROM employees e
		LEFT JOIN branches b ON b.id = e.branch_id
		WHERE e.id = $1 AND e.company_id = $2 AND e.deleted_at IS NULL
	`

	var a employee.Assignment
	err := q.QueryRow(ctx, query, employeeID, companyID).Scan(
		&a.EmployeeID, &a.CompanyID, &a.BranchID, &a.ShiftID, &a.Timezone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Assignment{}, employee.ErrEmployeeNotFound
		}
		return employee.Assignment{}, fmt.Errorf("failed to get employee assignment: %w", err)
	}

	return a, nil
}
