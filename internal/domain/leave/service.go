package leave

import (
	"context"

	"github.com/shopspring/decimal"
)

// BalanceLedger guards the leave balance identity. Reserve and Release must
// run inside the caller's transaction.
type BalanceLedger interface {
	CheckAvailable(ctx context.Context, key BalanceKey, days decimal.Decimal) (bool, error)
	Reserve(ctx context.Context, key BalanceKey, days decimal.Decimal) (Balance, error)
	Release(ctx context.Context, key BalanceKey, days decimal.Decimal) (Balance, error)
	ListBalances(ctx context.Context, employeeID string, year int) ([]Balance, error)
}

type LeaveService interface {
	Submit(ctx context.Context, req SubmitLeaveRequest) (LeaveResponse, error)
	Review(ctx context.Context, req ReviewLeaveRequest) (LeaveResponse, error)
	Approve(ctx context.Context, id string, comments *string) (LeaveResponse, error)
	Reject(ctx context.Context, id string, comments *string) (LeaveResponse, error)
	Withdraw(ctx context.Context, id string) (LeaveResponse, error)
	Delete(ctx context.Context, id string) error
	GetLeave(ctx context.Context, id string) (LeaveResponse, error)
	ListMyRequests(ctx context.Context, filter MyLeaveFilter) (ListLeaveResponse, error)
	GetMyBalance(ctx context.Context, year int) ([]BalanceResponse, error)
}
