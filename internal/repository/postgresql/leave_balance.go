package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const leaveBalanceColumns = `
	id, employee_id, year, leave_type,
	total_allowed, used, remaining, carry_forward,
	version, updated_at`

type leaveBalanceRepositoryImpl struct {
	db *database.DB
}

func NewLeaveBalanceRepository(db *database.DB) leave.BalanceRepository {
	return &leaveBalanceRepositoryImpl{db: db}
}

func scanLeaveBalance(row rowScanner) (leave.Balance, error) {
	var b leave.Balance
	err := row.Scan(
		&b.ID, &b.EmployeeID, &b.Year, &b.LeaveType,
		&b.TotalAllowed, &b.Used, &b.Remaining, &b.CarryForward,
		&b.Version, &b.UpdatedAt,
	)
	return b, err
}

func (r *leaveBalanceRepositoryImpl) getOne(ctx context.Context, query string, key leave.BalanceKey) (leave.Balance, error) {
	q := GetQuerier(ctx, r.db)

	b, err := scanLeaveBalance(q.QueryRow(ctx, query, key.EmployeeID, key.Year, key.LeaveType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Balance{}, leave.ErrBalanceNotFound
		}
		return leave.Balance{}, fmt.Errorf("failed to get leave balance: %w", err)
	}
	return b, nil
}

// GetByKey implements leave.BalanceRepository.
func (r *leaveBalanceRepositoryImpl) GetByKey(ctx context.Context, key leave.BalanceKey) (leave.Balance, error) {
	query := `
		SELECT ` + leaveBalanceColumns + `
		FROM leave_balances
		WHERE employee_id = $1 AND year = $2 AND leave_type = $3
	`
	return r.getOne(ctx, query, key)
}

// GetByKeyForUpdate implements leave.BalanceRepository. The row stays locked
// until the surrounding transaction ends.
func (r *leaveBalanceRepositoryImpl) GetByKeyForUpdate(ctx context.Context, key leave.BalanceKey) (leave.Balance, error) {
	query := `
		SELECT ` + leaveBalanceColumns + `
		FROM leave_balances
		WHERE employee_id = $1 AND year = $2 AND leave_type = $3
		FOR UPDATE
	`
	return r.getOne(ctx, query, key)
}

// UpdateUsage implements leave.BalanceRepository. The write only lands when
// the row still carries the version that was read, so a lost update surfaces
// as database.ErrConflict.
func (r *leaveBalanceRepositoryImpl) UpdateUsage(ctx context.Context, b leave.Balance) (leave.Balance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_balances
		SET used = $5, remaining = $6, version = version + 1, updated_at = NOW()
		WHERE employee_id = $1 AND year = $2 AND leave_type = $3 AND version = $4
		RETURNING ` + leaveBalanceColumns

	updated, err := scanLeaveBalance(q.QueryRow(ctx, query, b.EmployeeID, b.Year, b.LeaveType, b.Version, b.Used, b.Remaining))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Balance{}, database.ErrConflict
		}
		return leave.Balance{}, fmt.Errorf("failed to update leave balance: %w", err)
	}
	return updated, nil
}

// ListByEmployeeYear implements leave.BalanceRepository.
func (r *leaveBalanceRepositoryImpl) ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]leave.Balance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + leaveBalanceColumns + `
		FROM leave_balances
		WHERE employee_id = $1 AND year = $2
		ORDER BY leave_type
	`

	rows, err := q.Query(ctx, query, employeeID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave balances: %w", err)
	}
	defer rows.Close()

	balances := make([]leave.Balance, 0)
	for rows.Next() {
		b, err := scanLeaveBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave balance: %w", err)
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}
