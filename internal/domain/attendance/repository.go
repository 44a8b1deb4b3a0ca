package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
// Lookups by ID take companyID to prevent cross-company access.
type AttendanceRepository interface {
	// Create returns ErrDuplicateClockIn when the employee already has a
	// record for the same date.
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	GetByID(ctx context.Context, id string, companyID string) (Attendance, error)

	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string, companyID string) (Attendance, error)

	// GetOpenSessionForUpdate locks and returns the employee's record that has
	// a clock-in but no clock-out, whatever its date.
	GetOpenSessionForUpdate(ctx context.Context, employeeID string) (Attendance, error)

	ExistsForDate(ctx context.Context, employeeID string, date time.Time) (bool, error)

	Update(ctx context.Context, attendance Attendance) error

	GetMyAttendance(ctx context.Context, employeeID string, filter MyAttendanceFilter, companyID string) ([]Attendance, int64, error)

	// GetStaleOpenSessions returns open records clocked in before the cutoff.
	GetStaleOpenSessions(ctx context.Context, clockedInBefore time.Time) ([]Attendance, error)
}
