package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

type LeaveType string

const (
	LeaveTypeAnnual    LeaveType = "annual"
	LeaveTypeSick      LeaveType = "sick"
	LeaveTypePersonal  LeaveType = "personal"
	LeaveTypeMaternity LeaveType = "maternity"
	LeaveTypePaternity LeaveType = "paternity"
	LeaveTypeEmergency LeaveType = "emergency"
	LeaveTypeUnpaid    LeaveType = "unpaid"
)

var LeaveTypeValues = []string{
	string(LeaveTypeAnnual),
	string(LeaveTypeSick),
	string(LeaveTypePersonal),
	string(LeaveTypeMaternity),
	string(LeaveTypePaternity),
	string(LeaveTypeEmergency),
	string(LeaveTypeUnpaid),
}

// IsMetered reports whether requests of this type draw on a balance.
func (t LeaveType) IsMetered() bool {
	return t != LeaveTypeUnpaid
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

type HalfDayPeriod string

const (
	HalfDayMorning   HalfDayPeriod = "morning"
	HalfDayAfternoon HalfDayPeriod = "afternoon"
)

type Leave struct {
	ID               string
	CompanyID        string
	EmployeeID       string
	LeaveType        LeaveType
	StartDate        time.Time
	EndDate          time.Time
	IsHalfDay        bool
	HalfDayPeriod    *HalfDayPeriod
	TotalDays        decimal.Decimal
	Reason           string
	AttachmentURL    *string
	Status           Status
	AppliedAt        time.Time
	ReviewedBy       *string
	ReviewedAt       *time.Time
	ReviewerComments *string
	CancelledBy      *string
	CancelledAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusCancelled},
}

// CanTransitionTo reports whether the state machine allows moving to next.
func (l Leave) CanTransitionTo(next Status) bool {
	for _, s := range transitions[l.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// IsDeletable reports whether the request can be removed by its owner.
func (l Leave) IsDeletable() bool {
	return l.Status == StatusPending || l.Status == StatusCancelled
}

// HoldsBalance reports whether the request currently has days reserved on
// the ledger.
func (l Leave) HoldsBalance() bool {
	return l.LeaveType.IsMetered() && (l.Status == StatusPending || l.Status == StatusApproved)
}

func (l Leave) BalanceKey() BalanceKey {
	return BalanceKey{EmployeeID: l.EmployeeID, Year: l.StartDate.Year(), LeaveType: l.LeaveType}
}

// BalanceKey identifies one ledger row.
type BalanceKey struct {
	EmployeeID string
	Year       int
	LeaveType  LeaveType
}

// Balance is the per-employee, per-year, per-type leave ledger row.
// Remaining always equals TotalAllowed + CarryForward - Used.
type Balance struct {
	ID           string
	EmployeeID   string
	Year         int
	LeaveType    LeaveType
	TotalAllowed decimal.Decimal
	Used         decimal.Decimal
	Remaining    decimal.Decimal
	CarryForward decimal.Decimal
	Version      int64
	UpdatedAt    time.Time
}

func (b Balance) Key() BalanceKey {
	return BalanceKey{EmployeeID: b.EmployeeID, Year: b.Year, LeaveType: b.LeaveType}
}

// Consistent checks the ledger identity.
func (b Balance) Consistent() bool {
	return b.Remaining.Equal(b.TotalAllowed.Add(b.CarryForward).Sub(b.Used)) && !b.Used.IsNegative()
}
