package leave

import (
	"context"
	"errors"
	"testing"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/validator"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/testutil/memstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var annualKey = leave.BalanceKey{EmployeeID: "emp-1", Year: 2025, LeaveType: leave.LeaveTypeAnnual}

func newLedgerStore(t *testing.T, total string) (*memstore.Store, *Ledger) {
	t.Helper()
	store := memstore.New()
	store.PutBalance(leave.Balance{
		EmployeeID:   annualKey.EmployeeID,
		Year:         annualKey.Year,
		LeaveType:    annualKey.LeaveType,
		TotalAllowed: decimal.RequireFromString(total),
	})
	return store, NewLedger(store.Balances())
}

func days(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLedger_ReserveRelease(t *testing.T) {
	store, ledger := newLedgerStore(t, "12")
	ctx := context.Background()

	b, err := ledger.Reserve(ctx, annualKey, days("3"))
	require.NoError(t, err)
	assert.Equal(t, "3", b.Used.String())
	assert.Equal(t, "9", b.Remaining.String())
	assert.True(t, b.Consistent())

	b, err = ledger.Release(ctx, annualKey, days("3"))
	require.NoError(t, err)
	assert.Equal(t, "0", b.Used.String())
	assert.Equal(t, "12", b.Remaining.String())

	stored, ok := store.Balance(annualKey)
	require.True(t, ok)
	assert.True(t, stored.Consistent())
	assert.Equal(t, int64(2), stored.Version)
}

func TestLedger_HalfDays(t *testing.T) {
	_, ledger := newLedgerStore(t, "1")
	ctx := context.Background()

	_, err := ledger.Reserve(ctx, annualKey, days("0.5"))
	require.NoError(t, err)
	b, err := ledger.Reserve(ctx, annualKey, days("0.5"))
	require.NoError(t, err)
	assert.True(t, b.Remaining.IsZero())

	_, err = ledger.Reserve(ctx, annualKey, days("0.5"))
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
}

func TestLedger_CarryForwardCountsTowardsRemaining(t *testing.T) {
	store := memstore.New()
	store.PutBalance(leave.Balance{
		EmployeeID:   annualKey.EmployeeID,
		Year:         annualKey.Year,
		LeaveType:    annualKey.LeaveType,
		TotalAllowed: days("2"),
		CarryForward: days("1.5"),
	})
	ledger := NewLedger(store.Balances())

	ok, err := ledger.CheckAvailable(context.Background(), annualKey, days("3.5"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.CheckAvailable(context.Background(), annualKey, days("4"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLedger_InsufficientLeavesBalanceUntouched(t *testing.T) {
	store, ledger := newLedgerStore(t, "2")

	_, err := ledger.Reserve(context.Background(), annualKey, days("3"))
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)

	b, _ := store.Balance(annualKey)
	assert.True(t, b.Used.IsZero())
	assert.Equal(t, int64(0), b.Version)
}

func TestLedger_OverRelease(t *testing.T) {
	_, ledger := newLedgerStore(t, "12")
	ctx := context.Background()

	_, err := ledger.Reserve(ctx, annualKey, days("1"))
	require.NoError(t, err)

	_, err = ledger.Release(ctx, annualKey, days("1.5"))
	assert.ErrorIs(t, err, leave.ErrOverRelease)
}

func TestLedger_RejectsInvalidDays(t *testing.T) {
	_, ledger := newLedgerStore(t, "12")
	ctx := context.Background()

	for _, d := range []string{"0", "-1", "0.25", "1.3"} {
		t.Run(d, func(t *testing.T) {
			_, err := ledger.Reserve(ctx, annualKey, days(d))
			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, "days", verrs[0].Field)

			_, err = ledger.Release(ctx, annualKey, days(d))
			assert.True(t, errors.As(err, &verrs))

			_, err = ledger.CheckAvailable(ctx, annualKey, days(d))
			assert.True(t, errors.As(err, &verrs))
		})
	}
}

func TestLedger_MissingBalance(t *testing.T) {
	_, ledger := newLedgerStore(t, "12")
	missing := leave.BalanceKey{EmployeeID: "emp-1", Year: 2025, LeaveType: leave.LeaveTypeSick}

	_, err := ledger.Reserve(context.Background(), missing, days("1"))
	assert.ErrorIs(t, err, leave.ErrBalanceNotFound)
}

func TestLedger_ListBalances(t *testing.T) {
	store, ledger := newLedgerStore(t, "12")
	store.PutBalance(leave.Balance{EmployeeID: "emp-1", Year: 2025, LeaveType: leave.LeaveTypeSick, TotalAllowed: days("6")})
	store.PutBalance(leave.Balance{EmployeeID: "emp-1", Year: 2024, LeaveType: leave.LeaveTypeSick, TotalAllowed: days("6")})

	balances, err := ledger.ListBalances(context.Background(), "emp-1", 2025)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, leave.LeaveTypeAnnual, balances[0].LeaveType)
	assert.Equal(t, leave.LeaveTypeSick, balances[1].LeaveType)
}
