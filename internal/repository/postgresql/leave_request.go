package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const leaveRequestColumns = `
	id, company_id, employee_id, leave_type, start_date, end_date,
	is_half_day, half_day_period, total_days, reason, attachment_url, status,
	applied_at, reviewed_by, reviewed_at, reviewer_comments,
	cancelled_by, cancelled_at, created_at, updated_at`

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

func scanLeaveRequest(row rowScanner) (leave.Leave, error) {
	var l leave.Leave
	err := row.Scan(
		&l.ID, &l.CompanyID, &l.EmployeeID, &l.LeaveType, &l.StartDate, &l.EndDate,
		&l.IsHalfDay, &l.HalfDayPeriod, &l.TotalDays, &l.Reason, &l.AttachmentURL, &l.Status,
		&l.AppliedAt, &l.ReviewedBy, &l.ReviewedAt, &l.ReviewerComments,
		&l.CancelledBy, &l.CancelledAt, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

// Create implements leave.LeaveRepository.
func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, l leave.Leave) (leave.Leave, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_requests (` + leaveRequestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
				$11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	_, err := q.Exec(ctx, query,
		l.ID, l.CompanyID, l.EmployeeID, l.LeaveType, l.StartDate, l.EndDate,
		l.IsHalfDay, l.HalfDayPeriod, l.TotalDays, l.Reason, l.AttachmentURL, l.Status,
		l.AppliedAt, l.ReviewedBy, l.ReviewedAt, l.ReviewerComments,
		l.CancelledBy, l.CancelledAt, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return leave.Leave{}, fmt.Errorf("failed to insert leave request: %w", err)
	}
	return l, nil
}

func (r *leaveRequestRepositoryImpl) getOne(ctx context.Context, query string, args ...any) (leave.Leave, error) {
	q := GetQuerier(ctx, r.db)

	l, err := scanLeaveRequest(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Leave{}, leave.ErrLeaveNotFound
		}
		return leave.Leave{}, fmt.Errorf("failed to get leave request: %w", err)
	}
	return l, nil
}

// GetByID implements leave.LeaveRepository.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id, companyID string) (leave.Leave, error) {
	return r.getOne(ctx, `SELECT `+leaveRequestColumns+` FROM leave_requests WHERE id = $1 AND company_id = $2`, id, companyID)
}

// GetByIDForUpdate implements leave.LeaveRepository.
func (r *leaveRequestRepositoryImpl) GetByIDForUpdate(ctx context.Context, id, companyID string) (leave.Leave, error) {
	return r.getOne(ctx, `SELECT `+leaveRequestColumns+` FROM leave_requests WHERE id = $1 AND company_id = $2 FOR UPDATE`, id, companyID)
}

// Update implements leave.LeaveRepository.
func (r *leaveRequestRepositoryImpl) Update(ctx context.Context, l leave.Leave) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_requests SET
			status = $3,
			reviewed_by = $4, reviewed_at = $5, reviewer_comments = $6,
			cancelled_by = $7, cancelled_at = $8,
			updated_at = $9
		WHERE id = $1 AND company_id = $2
	`
	tag, err := q.Exec(ctx, query,
		l.ID, l.CompanyID, l.Status,
		l.ReviewedBy, l.ReviewedAt, l.ReviewerComments,
		l.CancelledBy, l.CancelledAt,
		l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update leave request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveNotFound
	}
	return nil
}

// Delete implements leave.LeaveRepository.
func (r *leaveRequestRepositoryImpl) Delete(ctx context.Context, id, companyID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM leave_requests WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete leave request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveNotFound
	}
	return nil
}

// ListByEmployee implements leave.LeaveRepository.
func (r *leaveRequestRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, filter leave.MyLeaveFilter) ([]leave.Leave, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "employee_id = $1"
	args := []interface{}{employeeID}
	argIdx := 2

	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.Year != nil {
		baseWhere += fmt.Sprintf(" AND EXTRACT(YEAR FROM start_date) = $%d", argIdx)
		args = append(args, *filter.Year)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM leave_requests WHERE "+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leave requests: %w", err)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := filter.Page
	if page == 0 {
		page = 1
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM leave_requests
		WHERE %s
		ORDER BY applied_at DESC
		LIMIT $%d OFFSET $%d
	`, leaveRequestColumns, baseWhere, argIdx, argIdx+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query leave requests: %w", err)
	}
	defer rows.Close()

	requests := make([]leave.Leave, 0)
	for rows.Next() {
		l, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate leave requests: %w", err)
	}

	return requests, total, nil
}

// LockEmployeeRequests implements leave.LeaveRepository. The row update
// blocks a second writer, which then fails with a serialization error once
// this transaction commits.
func (r *leaveRequestRepositoryImpl) LockEmployeeRequests(ctx context.Context, employeeID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE employees SET leave_version = leave_version + 1 WHERE id = $1`, employeeID)
	if err != nil {
		return fmt.Errorf("failed to lock employee leave requests: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// HasOverlap implements leave.LeaveRepository.
func (r *leaveRequestRepositoryImpl) HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM leave_requests
			WHERE employee_id = $1
			  AND status IN ('pending', 'approved')
			  AND start_date <= $3
			  AND end_date >= $2
		)
	`
	var overlap bool
	if err := q.QueryRow(ctx, query, employeeID, start, end).Scan(&overlap); err != nil {
		return false, fmt.Errorf("failed to check overlapping leave: %w", err)
	}
	return overlap, nil
}
