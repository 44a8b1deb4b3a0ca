package regularization

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Regularization is an employee's request to correct the clock times of one
// attendance record.
type Regularization struct {
	ID                string
	CompanyID         string
	EmployeeID        string
	AttendanceID      string
	RequestedClockIn  time.Time
	RequestedClockOut time.Time
	Reason            string
	Status            Status
	ReviewedBy        *string
	ReviewedAt        *time.Time
	ReviewerNotes     *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (r Regularization) IsPending() bool {
	return r.Status == StatusPending
}
