package leave

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// Ledger is the only writer of leave balance usage.
type Ledger struct {
	balanceRepo leave.BalanceRepository
}

func NewLedger(balanceRepo leave.BalanceRepository) *Ledger {
	return &Ledger{balanceRepo: balanceRepo}
}

// CheckAvailable reports whether days can be reserved right now without
// changing anything.
func (l *Ledger) CheckAvailable(ctx context.Context, key leave.BalanceKey, days decimal.Decimal) (bool, error) {
	if err := validateDays(days); err != nil {
		return false, err
	}

	balance, err := l.balanceRepo.GetByKey(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to get leave balance: %w", err)
	}

	return balance.Remaining.GreaterThanOrEqual(days), nil
}

// Reserve moves days from remaining to used.
func (l *Ledger) Reserve(ctx context.Context, key leave.BalanceKey, days decimal.Decimal) (leave.Balance, error) {
	if err := validateDays(days); err != nil {
		return leave.Balance{}, err
	}

	balance, err := l.balanceRepo.GetByKeyForUpdate(ctx, key)
	if err != nil {
		return leave.Balance{}, fmt.Errorf("failed to lock leave balance: %w", err)
	}

	if balance.Remaining.LessThan(days) {
		return leave.Balance{}, leave.ErrInsufficientBalance
	}

	balance.Used = balance.Used.Add(days)
	return l.save(ctx, balance)
}

// Release returns previously reserved days.
func (l *Ledger) Release(ctx context.Context, key leave.BalanceKey, days decimal.Decimal) (leave.Balance, error) {
	if err := validateDays(days); err != nil {
		return leave.Balance{}, err
	}

	balance, err := l.balanceRepo.GetByKeyForUpdate(ctx, key)
	if err != nil {
		return leave.Balance{}, fmt.Errorf("failed to lock leave balance: %w", err)
	}

	if days.GreaterThan(balance.Used) {
		return leave.Balance{}, leave.ErrOverRelease
	}

	balance.Used = balance.Used.Sub(days)
	return l.save(ctx, balance)
}

func (l *Ledger) ListBalances(ctx context.Context, employeeID string, year int) ([]leave.Balance, error) {
	balances, err := l.balanceRepo.ListByEmployeeYear(ctx, employeeID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave balances: %w", err)
	}
	return balances, nil
}

func (l *Ledger) save(ctx context.Context, balance leave.Balance) (leave.Balance, error) {
	balance.Remaining = balance.TotalAllowed.Add(balance.CarryForward).Sub(balance.Used)

	updated, err := l.balanceRepo.UpdateUsage(ctx, balance)
	if err != nil {
		return leave.Balance{}, fmt.Errorf("failed to update leave balance: %w", err)
	}
	return updated, nil
}

// validateDays accepts positive whole or half days.
func validateDays(days decimal.Decimal) error {
	if !days.IsPositive() || !days.Mul(two).IsInteger() {
		return validator.ValidationErrors{{Field: "days", Message: "days must be a positive multiple of 0.5"}}
	}
	return nil
}
