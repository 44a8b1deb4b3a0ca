package regularization

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/validator"
)

type SubmitRegularizationRequest struct {
	AttendanceID      string    `json:"attendance_id" validate:"required"`
	RequestedClockIn  time.Time `json:"requested_clock_in_time" validate:"required"`
	RequestedClockOut time.Time `json:"requested_clock_out_time" validate:"required"`
	Reason            string    `json:"reason" validate:"required,max=1000"`
}

func (r *SubmitRegularizationRequest) Validate() error {
	if err := validator.ValidateStruct(r); err != nil {
		return err
	}
	if validator.IsEmpty(r.Reason) {
		return validator.ValidationErrors{{Field: "reason", Message: "reason is required"}}
	}
	return nil
}

type ReviewRegularizationRequest struct {
	ID     string  `json:"-"`
	Status Status  `json:"status" validate:"required,oneof=approved rejected"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

func (r *ReviewRegularizationRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	}
	if err := validator.ValidateStruct(r); err != nil {
		if structErrs, ok := err.(validator.ValidationErrors); ok {
			errs = append(errs, structErrs...)
		} else {
			return err
		}
	}
	return errs.Err()
}

type RegularizationResponse struct {
	ID                string  `json:"id"`
	EmployeeID        string  `json:"employee_id"`
	AttendanceID      string  `json:"attendance_id"`
	RequestedClockIn  string  `json:"requested_clock_in_time"`
	RequestedClockOut string  `json:"requested_clock_out_time"`
	Reason            string  `json:"reason"`
	Status            string  `json:"status"`
	ReviewedBy        *string `json:"reviewed_by,omitempty"`
	ReviewedAt        *string `json:"reviewed_at,omitempty"`
	ReviewerNotes     *string `json:"reviewer_notes,omitempty"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}
