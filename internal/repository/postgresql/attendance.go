package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const attendanceColumns = `
	id, company_id, employee_id, date, shift_id,
	clock_in, clock_out,
	clock_in_latitude, clock_in_longitude, clock_out_latitude, clock_out_longitude,
	is_in_geofence, geofence_distance_meters,
	total_hours, break_hours, worked_hours, overtime_hours,
	status, is_late, late_minutes, is_early_departure, early_departure_minutes,
	note, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func scanAttendance(row rowScanner) (attendance.Attendance, error) {
	var att attendance.Attendance
	err := row.Scan(
		&att.ID, &att.CompanyID, &att.EmployeeID, &att.Date, &att.ShiftID,
		&att.ClockIn, &att.ClockOut,
		&att.ClockInLatitude, &att.ClockInLongitude, &att.ClockOutLatitude, &att.ClockOutLongitude,
		&att.IsInGeofence, &att.GeofenceDistanceMeters,
		&att.TotalHours, &att.BreakHours, &att.WorkedHours, &att.OvertimeHours,
		&att.Status, &att.IsLate, &att.LateMinutes, &att.IsEarlyDeparture, &att.EarlyDepartureMinutes,
		&att.Note, &att.CreatedAt, &att.UpdatedAt,
	)
	return att, err
}

func (a *attendanceRepository) getOne(ctx context.Context, query string, args ...any) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	att, err := scanAttendance(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	return att, nil
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (` + attendanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
				$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	`

	_, err := q.Exec(ctx, query,
		att.ID, att.CompanyID, att.EmployeeID, att.Date, att.ShiftID,
		att.ClockIn, att.ClockOut,
		att.ClockInLatitude, att.ClockInLongitude, att.ClockOutLatitude, att.ClockOutLongitude,
		att.IsInGeofence, att.GeofenceDistanceMeters,
		att.TotalHours, att.BreakHours, att.WorkedHours, att.OvertimeHours,
		att.Status, att.IsLate, att.LateMinutes, att.IsEarlyDeparture, att.EarlyDepartureMinutes,
		att.Note, att.CreatedAt, att.UpdatedAt,
	)
	if err != nil {
		// The (employee_id, date) unique index backs the duplicate check.
		if errors.Is(mapPgError(err), database.ErrDuplicate) {
			return attendance.Attendance{}, attendance.ErrDuplicateClockIn
		}
		return attendance.Attendance{}, fmt.Errorf("failed to insert attendance: %w", err)
	}

	return att, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string, companyID string) (attendance.Attendance, error) {
	return a.getOne(ctx, `SELECT `+attendanceColumns+` FROM attendances WHERE id = $1 AND company_id = $2`, id, companyID)
}

// GetByIDForUpdate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByIDForUpdate(ctx context.Context, id string, companyID string) (attendance.Attendance, error) {
	return a.getOne(ctx, `SELECT `+attendanceColumns+` FROM attendances WHERE id = $1 AND company_id = $2 FOR UPDATE`, id, companyID)
}

// GetOpenSessionForUpdate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetOpenSessionForUpdate(ctx context.Context, employeeID string) (attendance.Attendance, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE employee_id = $1
		  AND clock_in IS NOT NULL
		  AND clock_out IS NULL
		ORDER BY clock_in DESC
		LIMIT 1
		FOR UPDATE
	`
	return a.getOne(ctx, query, employeeID)
}

// ExistsForDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) ExistsForDate(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM attendances
			WHERE employee_id = $1
			  AND date = $2
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, employeeID, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check attendance for date: %w", err)
	}
	return exists, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, att attendance.Attendance) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances SET
			date = $3, shift_id = $4,
			clock_in = $5, clock_out = $6,
			clock_in_latitude = $7, clock_in_longitude = $8,
			clock_out_latitude = $9, clock_out_longitude = $10,
			is_in_geofence = $11, geofence_distance_meters = $12,
			total_hours = $13, break_hours = $14, worked_hours = $15, overtime_hours = $16,
			status = $17, is_late = $18, late_minutes = $19,
			is_early_departure = $20, early_departure_minutes = $21,
			note = $22, updated_at = $23
		WHERE id = $1 AND company_id = $2
	`

	tag, err := q.Exec(ctx, query,
		att.ID, att.CompanyID, att.Date, att.ShiftID,
		att.ClockIn, att.ClockOut,
		att.ClockInLatitude, att.ClockInLongitude,
		att.ClockOutLatitude, att.ClockOutLongitude,
		att.IsInGeofence, att.GeofenceDistanceMeters,
		att.TotalHours, att.BreakHours, att.WorkedHours, att.OvertimeHours,
		att.Status, att.IsLate, att.LateMinutes,
		att.IsEarlyDeparture, att.EarlyDepartureMinutes,
		att.Note, att.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

// GetMyAttendance implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetMyAttendance(ctx context.Context, employeeID string, filter attendance.MyAttendanceFilter, companyID string) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	baseWhere := "employee_id = $1 AND company_id = $2"
	args := []interface{}{employeeID, companyID}
	argIdx := 3

	// Date range filters
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	// Status filter
	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	// Count total
	countQuery := "SELECT COUNT(*) FROM attendances WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM attendances
		WHERE %s
		ORDER BY date DESC
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, baseWhere, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := filter.Page
	if page == 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query attendances: %w", err)
	}
	defer rows.Close()

	attendances := make([]attendance.Attendance, 0)
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance: %w", err)
		}
		attendances = append(attendances, att)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate attendances: %w", err)
	}

	return attendances, total, nil
}

// GetStaleOpenSessions implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetStaleOpenSessions(ctx context.Context, clockedInBefore time.Time) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE clock_in IS NOT NULL
		  AND clock_out IS NULL
		  AND clock_in < $1
		ORDER BY clock_in
	`

	rows, err := q.Query(ctx, query, clockedInBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale attendances: %w", err)
	}
	defer rows.Close()

	stale := make([]attendance.Attendance, 0)
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		stale = append(stale, att)
	}
	return stale, rows.Err()
}
