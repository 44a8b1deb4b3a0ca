package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/regularization"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const regularizationColumns = `
	id, company_id, employee_id, attendance_id,
	requested_clock_in, requested_clock_out, reason, status,
	reviewed_by, reviewed_at, reviewer_notes, created_at, updated_at`

type regularizationRepository struct {
	db *database.DB
}

func NewRegularizationRepository(db *database.DB) regularization.RegularizationRepository {
	return &regularizationRepository{db: db}
}

func scanRegularization(row rowScanner) (regularization.Regularization, error) {
	var r regularization.Regularization
	err := row.Scan(
		&r.ID, &r.CompanyID, &r.EmployeeID, &r.AttendanceID,
		&r.RequestedClockIn, &r.RequestedClockOut, &r.Reason, &r.Status,
		&r.ReviewedBy, &r.ReviewedAt, &r.ReviewerNotes, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

// Create implements regularization.RegularizationRepository.
func (r *regularizationRepository) Create(ctx context.Context, reg regularization.Regularization) (regularization.Regularization, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_regularizations (` + regularizationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := q.Exec(ctx, query,
		reg.ID, reg.CompanyID, reg.EmployeeID, reg.AttendanceID,
		reg.RequestedClockIn, reg.RequestedClockOut, reg.Reason, reg.Status,
		reg.ReviewedBy, reg.ReviewedAt, reg.ReviewerNotes, reg.CreatedAt, reg.UpdatedAt,
	)
	if err != nil {
		// A partial unique index allows one pending request per attendance.
		if errors.Is(mapPgError(err), database.ErrDuplicate) {
			return regularization.Regularization{}, regularization.ErrAlreadyPending
		}
		return regularization.Regularization{}, fmt.Errorf("failed to insert regularization: %w", err)
	}
	return reg, nil
}

func (r *regularizationRepository) getOne(ctx context.Context, query string, args ...any) (regularization.Regularization, error) {
	q := GetQuerier(ctx, r.db)

	reg, err := scanRegularization(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return regularization.Regularization{}, regularization.ErrRegularizationNotFound
		}
		return regularization.Regularization{}, fmt.Errorf("failed to get regularization: %w", err)
	}
	return reg, nil
}

// GetByID implements regularization.RegularizationRepository.
func (r *regularizationRepository) GetByID(ctx context.Context, id, companyID string) (regularization.Regularization, error) {
	return r.getOne(ctx, `SELECT `+regularizationColumns+` FROM attendance_regularizations WHERE id = $1 AND company_id = $2`, id, companyID)
}

// GetByIDForUpdate implements regularization.RegularizationRepository.
func (r *regularizationRepository) GetByIDForUpdate(ctx context.Context, id, companyID string) (regularization.Regularization, error) {
	return r.getOne(ctx, `SELECT `+regularizationColumns+` FROM attendance_regularizations WHERE id = $1 AND company_id = $2 FOR UPDATE`, id, companyID)
}

// Update implements regularization.RegularizationRepository.
func (r *regularizationRepository) Update(ctx context.Context, reg regularization.Regularization) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_regularizations
		SET status = $3, reviewed_by = $4, reviewed_at = $5, reviewer_notes = $6, updated_at = $7
		WHERE id = $1 AND company_id = $2
	`
	tag, err := q.Exec(ctx, query, reg.ID, reg.CompanyID, reg.Status, reg.ReviewedBy, reg.ReviewedAt, reg.ReviewerNotes, reg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update regularization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return regularization.ErrRegularizationNotFound
	}
	return nil
}

// HasPending implements regularization.RegularizationRepository.
func (r *regularizationRepository) HasPending(ctx context.Context, attendanceID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM attendance_regularizations
			WHERE attendance_id = $1 AND status = 'pending'
		)
	`
	var exists bool
	if err := q.QueryRow(ctx, query, attendanceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pending regularization: %w", err)
	}
	return exists, nil
}

// ListByEmployee implements regularization.RegularizationRepository.
func (r *regularizationRepository) ListByEmployee(ctx context.Context, employeeID, companyID string) ([]regularization.Regularization, error) {
	return r.list(ctx, `
		SELECT `+regularizationColumns+`
		FROM attendance_regularizations
		WHERE employee_id = $1 AND company_id = $2
		ORDER BY created_at DESC
	`, employeeID, companyID)
}

// ListPending implements regularization.RegularizationRepository.
func (r *regularizationRepository) ListPending(ctx context.Context, companyID string) ([]regularization.Regularization, error) {
	return r.list(ctx, `
		SELECT `+regularizationColumns+`
		FROM attendance_regularizations
		WHERE company_id = $1 AND status = 'pending'
		ORDER BY created_at
	`, companyID)
}

func (r *regularizationRepository) list(ctx context.Context, query string, args ...any) ([]regularization.Regularization, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query regularizations: %w", err)
	}
	defer rows.Close()

	regs := make([]regularization.Regularization, 0)
	for rows.Next() {
		reg, err := scanRegularization(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan regularization: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}
