package attendance

import (
	"context"
	"time"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// ClockIn records the start of a work session for the authenticated employee
	ClockIn(ctx context.Context, req ClockInRequest) (AttendanceResponse, error)

	// ClockOut closes the open session and derives the hour metrics
	ClockOut(ctx context.Context, req ClockOutRequest) (AttendanceResponse, error)

	GetMyAttendance(ctx context.Context, filter MyAttendanceFilter) (ListAttendanceResponse, error)

	GetAttendance(ctx context.Context, id string) (AttendanceResponse, error)
}

// Regularizer rewrites a record's clock times and re-derives its metrics.
// The record must already be locked by the caller's transaction. The new
// clock-in must fall on the record's own date in the branch timezone.
type Regularizer interface {
	CheckRegularization(ctx context.Context, record Attendance, clockIn, clockOut time.Time) error
	ApplyRegularization(ctx context.Context, record Attendance, clockIn, clockOut time.Time) (Attendance, error)
}
