package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type SubmitLeaveRequest struct {
	LeaveType     string  `json:"leave_type" validate:"required"`
	StartDate     string  `json:"start_date" validate:"required"`
	EndDate       string  `json:"end_date" validate:"required"`
	IsHalfDay     bool    `json:"is_half_day"`
	HalfDayPeriod *string `json:"half_day_period,omitempty"`
	Reason        string  `json:"reason" validate:"required,max=1000"`
	AttachmentURL *string `json:"attachment_url,omitempty" validate:"omitempty,url"`
}

// Validate checks the request shape and returns the parsed dates.
func (r *SubmitLeaveRequest) Validate() (start, end time.Time, err error) {
	var errs validator.ValidationErrors
	if err := validator.ValidateStruct(r); err != nil {
		structErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return start, end, err
		}
		errs = append(errs, structErrs...)
	}

	if r.LeaveType != "" && !validator.IsInSlice(r.LeaveType, LeaveTypeValues) {
		errs.Add("leave_type", "leave_type is not a recognized leave type")
	}

	var startOK, endOK bool
	if r.StartDate != "" {
		if start, startOK = validator.IsValidDate(r.StartDate); !startOK {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		}
	}
	if r.EndDate != "" {
		if end, endOK = validator.IsValidDate(r.EndDate); !endOK {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		}
	}
	if startOK && endOK {
		if end.Before(start) {
			errs.Add("end_date", "end_date must not be before start_date")
		} else if end.Year() != start.Year() {
			errs.Add("end_date", "leave must start and end in the same calendar year")
		}
		if r.IsHalfDay && !end.Equal(start) {
			errs.Add("end_date", "half-day leave must start and end on the same date")
		}
	}

	if r.IsHalfDay {
		if r.HalfDayPeriod == nil || !validator.IsInSlice(*r.HalfDayPeriod, []string{string(HalfDayMorning), string(HalfDayAfternoon)}) {
			errs.Add("half_day_period", "half_day_period must be one of: morning, afternoon")
		}
	} else if r.HalfDayPeriod != nil && *r.HalfDayPeriod != "" {
		errs.Add("half_day_period", "half_day_period is only allowed for half-day leave")
	}

	if r.Reason != "" && validator.IsEmpty(r.Reason) {
		errs.Add("reason", "reason is required")
	}

	return start, end, errs.Err()
}

type ReviewLeaveRequest struct {
	ID       string  `json:"-"`
	Status   Status  `json:"status" validate:"required,oneof=approved rejected"`
	Comments *string `json:"comments,omitempty" validate:"omitempty,max=1000"`
}

func (r *ReviewLeaveRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	}
	if err := validator.ValidateStruct(r); err != nil {
		structErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		errs = append(errs, structErrs...)
	}
	return errs.Err()
}

type MyLeaveFilter struct {
	Status *string `json:"status,omitempty"`
	Year   *int    `json:"year,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *MyLeaveFilter) Validate() error {
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

	if f.Status != nil && *f.Status != "" {
		statuses := []string{string(StatusPending), string(StatusApproved), string(StatusRejected), string(StatusCancelled)}
		if !validator.IsInSlice(*f.Status, statuses) {
			errs.Add("status", "status must be one of: pending, approved, rejected, cancelled")
		}
	}
	if f.Year != nil && *f.Year <= 0 {
		errs.Add("year", "year must be a positive integer")
	}

	return errs.Err()
}

type LeaveResponse struct {
	ID               string          `json:"id"`
	EmployeeID       string          `json:"employee_id"`
	LeaveType        string          `json:"leave_type"`
	StartDate        string          `json:"start_date"`
	EndDate          string          `json:"end_date"`
	IsHalfDay        bool            `json:"is_half_day"`
	HalfDayPeriod    *string         `json:"half_day_period,omitempty"`
	TotalDays        decimal.Decimal `json:"total_days"`
	Reason           string          `json:"reason"`
	AttachmentURL    *string         `json:"attachment_url,omitempty"`
	Status           string          `json:"status"`
	AppliedAt        string          `json:"applied_at"`
	ReviewedBy       *string         `json:"reviewed_by,omitempty"`
	ReviewedAt       *string         `json:"reviewed_at,omitempty"`
	ReviewerComments *string         `json:"reviewer_comments,omitempty"`
	CancelledAt      *string         `json:"cancelled_at,omitempty"`
}

type ListLeaveResponse struct {
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
	Leaves     []LeaveResponse `json:"leaves"`
}

type BalanceResponse struct {
	LeaveType    string          `json:"leave_type"`
	Year         int             `json:"year"`
	TotalAllowed decimal.Decimal `json:"total_allowed"`
	CarryForward decimal.Decimal `json:"carry_forward"`
	Used         decimal.Decimal `json:"used"`
	Remaining    decimal.Decimal `json:"remaining"`
}
