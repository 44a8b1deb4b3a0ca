package leave

import (
	"context"
	"time"
)

// LeaveRepository - interface for leave_requests table
type LeaveRepository interface {
	Create(ctx context.Context, l Leave) (Leave, error)
	GetByID(ctx context.Context, id, companyID string) (Leave, error)
	GetByIDForUpdate(ctx context.Context, id, companyID string) (Leave, error)
	Update(ctx context.Context, l Leave) error
	Delete(ctx context.Context, id, companyID string) error
	ListByEmployee(ctx context.Context, employeeID string, filter MyLeaveFilter) ([]Leave, int64, error)
	// HasOverlap reports whether the employee has a pending or approved
	// request intersecting [start, end].
	HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error)
	// LockEmployeeRequests serializes request writes for one employee until
	// the surrounding transaction ends. A concurrent writer for the same
	// employee fails with database.ErrConflict and is retried.
	LockEmployeeRequests(ctx context.Context, employeeID string) error
}

// BalanceRepository - interface for leave_balances table
type BalanceRepository interface {
	GetByKey(ctx context.Context, key BalanceKey) (Balance, error)
	// GetByKeyForUpdate locks the row until the surrounding transaction ends.
	GetByKeyForUpdate(ctx context.Context, key BalanceKey) (Balance, error)
	// UpdateUsage persists Used and Remaining when the stored version still
	// equals b.Version, returning the row with its new version. A stale
	// version yields database.ErrConflict.
	UpdateUsage(ctx context.Context, b Balance) (Balance, error)
	ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]Balance, error)
}
