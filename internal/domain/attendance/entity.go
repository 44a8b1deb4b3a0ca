package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPresent     Status = "present"
	StatusLate        Status = "late"
	StatusRegularized Status = "regularized"
)

type Attendance struct {
	ID                     string
	CompanyID              string
	EmployeeID             string
	Date                   time.Time // local calendar date in the branch timezone
	ShiftID                *string
	ClockIn                *time.Time
	ClockOut               *time.Time
	ClockInLatitude        *float64
	ClockInLongitude       *float64
	ClockOutLatitude       *float64
	ClockOutLongitude      *float64
	IsInGeofence           bool
	GeofenceDistanceMeters *float64
	TotalHours             decimal.Decimal
	BreakHours             decimal.Decimal
	WorkedHours            decimal.Decimal
	OvertimeHours          decimal.Decimal
	Status                 Status
	IsLate                 bool
	LateMinutes            int
	IsEarlyDeparture       bool
	EarlyDepartureMinutes  int
	Note                   *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// IsOpen reports whether the record has a clock-in without a clock-out.
func (a Attendance) IsOpen() bool {
	return a.ClockIn != nil && a.ClockOut == nil
}
