package attendance

import "errors"

// Attendance domain errors
var (
	ErrDuplicateClockIn = errors.New("you have already clocked in for this date")
	ErrNoOpenClockIn    = errors.New("you have not clocked in yet")
	ErrInvalidTimeOrder = errors.New("clock-out time must not be before clock-in time")
	ErrOutsideGeofence  = errors.New("you are outside the allowed radius")

	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrUnauthorized       = errors.New("unauthorized to access this attendance record")
)
