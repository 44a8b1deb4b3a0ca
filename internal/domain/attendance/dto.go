package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type ClockInRequest struct {
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Latitude  *float64   `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64   `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

func (r *ClockInRequest) Validate() error {
	return validateClockEvent(r, r.Latitude, r.Longitude)
}

type ClockOutRequest struct {
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Latitude  *float64   `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64   `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

func (r *ClockOutRequest) Validate() error {
	return validateClockEvent(r, r.Latitude, r.Longitude)
}

func validateClockEvent(req interface{}, lat, lon *float64) error {
	if err := validator.ValidateStruct(req); err != nil {
		return err
	}

	var errs validator.ValidationErrors
	if (lat == nil) != (lon == nil) {
		errs.Add("latitude", "latitude and longitude must be provided together")
	}
	return errs.Err()
}

type AttendanceResponse struct {
	ID                     string          `json:"id"`
	EmployeeID             string          `json:"employee_id"`
	Date                   string          `json:"date"`
	ShiftID                *string         `json:"shift_id,omitempty"`
	ClockInTime            *string         `json:"clock_in_time,omitempty"`
	ClockOutTime           *string         `json:"clock_out_time,omitempty"`
	ClockInLatitude        *float64        `json:"clock_in_latitude,omitempty"`
	ClockInLongitude       *float64        `json:"clock_in_longitude,omitempty"`
	ClockOutLatitude       *float64        `json:"clock_out_latitude,omitempty"`
	ClockOutLongitude      *float64        `json:"clock_out_longitude,omitempty"`
	IsInGeofence           bool            `json:"is_in_geofence"`
	GeofenceDistanceMeters *float64        `json:"geofence_distance_meters,omitempty"`
	TotalHours             decimal.Decimal `json:"total_hours"`
	BreakHours             decimal.Decimal `json:"break_hours"`
	WorkedHours            decimal.Decimal `json:"worked_hours"`
	OvertimeHours          decimal.Decimal `json:"overtime_hours"`
	Status                 string          `json:"status"`
	IsLate                 bool            `json:"is_late"`
	LateMinutes            int             `json:"late_minutes"`
	IsEarlyDeparture       bool            `json:"is_early_departure"`
	EarlyDepartureMinutes  int             `json:"early_departure_minutes"`
	Note                   *string         `json:"note,omitempty"`
	CreatedAt              string          `json:"created_at"`
	UpdatedAt              string          `json:"updated_at"`
}

type MyAttendanceFilter struct {
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status    *string `json:"status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *MyAttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs.Add("page", "page must be a positive number")
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 {
		errs.Add("limit", "limit must be a positive number")
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs.Add("limit", "limit must not exceed 100")
	}

	var start, end time.Time
	var hasStart, hasEnd bool
	if f.StartDate != nil && *f.StartDate != "" {
		if start, hasStart = validator.IsValidDate(*f.StartDate); !hasStart {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		}
	}
	if f.EndDate != nil && *f.EndDate != "" {
		if end, hasEnd = validator.IsValidDate(*f.EndDate); !hasEnd {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		}
	}
	if hasStart && hasEnd && end.Before(start) {
		errs.Add("end_date", "end_date must not be before start_date")
	}

	if f.Status != nil && *f.Status != "" {
		statuses := []string{string(StatusPresent), string(StatusLate), string(StatusRegularized)}
		if !validator.IsInSlice(*f.Status, statuses) {
			errs.Add("status", "status must be one of: present, late, regularized")
		}
	}

	return errs.Err()
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Attendances []AttendanceResponse `json:"attendances"`
}
