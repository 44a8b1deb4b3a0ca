package leave

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/audit"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/validator"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/testutil/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var (
	employeeActor = user.Actor{UserID: "user-1", EmployeeID: "emp-1", CompanyID: "company-1", Role: user.RoleEmployee}
	managerActor  = user.Actor{UserID: "user-2", EmployeeID: "emp-2", CompanyID: "company-1", Role: user.RoleManager}
)

type fixture struct {
	store   *memstore.Store
	audit   *memstore.AuditRecorder
	service *LeaveServiceImpl
}

func newFixture(t *testing.T, annualDays string) fixture {
	t.Helper()
	store := memstore.New()
	store.PutBalance(leave.Balance{
		EmployeeID:   "emp-1",
		Year:         2025,
		LeaveType:    leave.LeaveTypeAnnual,
		TotalAllowed: days(annualDays),
	})

	recorder := &memstore.AuditRecorder{}
	svc := NewLeaveService(store, store.Leaves(), NewLedger(store.Balances()), calendar.New(nil), recorder)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC) }

	return fixture{store: store, audit: recorder, service: svc}
}

func asEmployee() context.Context {
	return jwt.NewContextWithActor(context.Background(), employeeActor)
}

func asManager() context.Context {
	return jwt.NewContextWithActor(context.Background(), managerActor)
}

func annualRequest(start, end string) leave.SubmitLeaveRequest {
	return leave.SubmitLeaveRequest{
		LeaveType: string(leave.LeaveTypeAnnual),
		StartDate: start,
		EndDate:   end,
		Reason:    "family trip",
	}
}

func (f fixture) balance(t *testing.T) leave.Balance {
	t.Helper()
	b, ok := f.store.Balance(annualKey)
	require.True(t, ok)
	require.True(t, b.Consistent(), "ledger identity broken: %+v", b)
	return b
}

func TestSubmit_ReservesAndRejectReleases(t *testing.T) {
	f := newFixture(t, "12")

	// Monday to Wednesday.
	created, err := f.service.Submit(asEmployee(), annualRequest("2025-03-10", "2025-03-12"))
	require.NoError(t, err)
	assert.Equal(t, string(leave.StatusPending), created.Status)
	assert.Equal(t, "3", created.TotalDays.String())

	b := f.balance(t)
	assert.Equal(t, "3", b.Used.String())
	assert.Equal(t, "9", b.Remaining.String())

	rejected, err := f.service.Review(asManager(), leave.ReviewLeaveRequest{ID: created.ID, Status: leave.StatusRejected})
	require.NoError(t, err)
	assert.Equal(t, string(leave.StatusRejected), rejected.Status)
	require.NotNil(t, rejected.ReviewedBy)
	assert.Equal(t, managerActor.UserID, *rejected.ReviewedBy)

	b = f.balance(t)
	assert.Equal(t, "0", b.Used.String())
	assert.Equal(t, "12", b.Remaining.String())
}

func TestApprove_KeepsReservation(t *testing.T) {
	f := newFixture(t, "12")

	created, err := f.service.Submit(asEmployee(), annualRequest("2025-03-10", "2025-03-11"))
	require.NoError(t, err)

	comments := "enjoy"
	approved, err := f.service.Approve(asManager(), created.ID, &comments)
	require.NoError(t, err)
	assert.Equal(t, string(leave.StatusApproved), approved.Status)
	assert.Equal(t, &comments, approved.ReviewerComments)

	b := f.balance(t)
	assert.Equal(t, "2", b.Used.String())
	assert.Equal(t, "10", b.Remaining.String())

	_, err = f.service.Reject(asManager(), created.ID, nil)
	assert.ErrorIs(t, err, leave.ErrInvalidState)
}

func TestSubmit_InsufficientBalance(t *testing.T) {
	f := newFixture(t, "2")

	_, err := f.service.Submit(asEmployee(), annualRequest("2025-03-10", "2025-03-12"))
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)

	b := f.balance(t)
	assert.True(t, b.Used.IsZero())
	assert.Equal(t, 0, f.store.Commits())
	assert.Empty(t, f.audit.Entries())
}

func TestSubmit_ConcurrentRequestsCannotOverdraw(t *testing.T) {
	f := newFixture(t, "4")

	requests := []leave.SubmitLeaveRequest{
		annualRequest("2025-03-10", "2025-03-12"),
		annualRequest("2025-03-17", "2025-03-19"),
	}

	results := make([]error, len(requests))
	var g errgroup.Group
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			_, results[i] = f.service.Submit(asEmployee(), req)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var succeeded, insufficient int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, leave.ErrInsufficientBalance):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, insufficient)

	b := f.balance(t)
	assert.Equal(t, "3", b.Used.String())
	assert.Equal(t, "1", b.Remaining.String())
}

func TestSubmit_RollsBackReservationWhenCreateFails(t *testing.T) {
	f := newFixture(t, "12")
	boom := errors.New("insert failed")
	f.store.FailOn("leave.create", boom)

	_, err := f.service.Submit(asEmployee(), annualRequest("2025-03-10", "2025-03-12"))
	assert.ErrorIs(t, err, boom)

	b := f.balance(t)
	assert.True(t, b.Used.IsZero())
	assert.Equal(t, "12", b.Remaining.String())
}

func TestSubmit_Overlap(t *testing.T) {
	f := newFixture(t, "12")

	_, err := f.service.Submit(asEmployee(), annualRequest("2025-03-10", "2025-03-12"))
	require.NoError(t, err)

	_, err = f.service.Submit(asEmployee(), annualRequest("2025-03-12", "2025-03-13"))
	assert.ErrorIs(t, err, leave.ErrOverlappingLeave)
	assert.Equal(t, "3", f.balance(t).Used.String())
}

func TestSubmit_HalfDay(t *testing.T) {
	f := newFixture(t, "12")
	period := string(leave.HalfDayAfternoon)
	req := annualRequest("2025-03-10", "2025-03-10")
	req.IsHalfDay = true
	req.HalfDayPeriod = &period

	created, err := f.service.Submit(asEmployee(), req)
	require.NoError(t, err)
	assert.Equal(t, "0.5", created.TotalDays.String())
	require.NotNil(t, created.HalfDayPeriod)
	assert.Equal(t, period, *created.HalfDayPeriod)
	assert.Equal(t, "11.5", f.balance(t).Remaining.String())
}

func TestSubmit_UnpaidIsNotMetered(t *testing.T) {
	f := newFixture(t, "0")
	req := annualRequest("2025-03-10", "2025-03-14")
	req.LeaveType = string(leave.LeaveTypeUnpaid)

	created, err := f.service.Submit(asEmployee(), req)
	require.NoError(t, err)
	assert.Equal(t, "5", created.TotalDays.String())

	_, err = f.service.Withdraw(asEmployee(), created.ID)
	require.NoError(t, err)
	assert.True(t, f.balance(t).Used.IsZero())
}

func TestSubmit_UnpaidOverlapIsRejected(t *testing.T) {
	f := newFixture(t, "0")
	req := annualRequest("2025-03-10", "2025-03-12")
	req.LeaveType = string(leave.LeaveTypeUnpaid)

	_, err := f.service.Submit(asEmployee(), req)
	require.NoError(t, err)

	req.StartDate, req.EndDate = "2025-03-12", "2025-03-14"
	_, err = f.service.Submit(asEmployee(), req)
	assert.ErrorIs(t, err, leave.ErrOverlappingLeave)
}

func TestSubmit_LocksEmployeeRequests(t *testing.T) {
	f := newFixture(t, "0")
	f.store.FailOn("leave.lock", database.ErrConflict)

	req := annualRequest("2025-03-10", "2025-03-12")
	req.LeaveType = string(leave.LeaveTypeUnpaid)
	_, err := f.service.Submit(asEmployee(), req)
	assert.ErrorIs(t, err, database.ErrConflict)

	mine, err := f.service.ListMyRequests(asEmployee(), leave.MyLeaveFilter{})
	require.NoError(t, err)
	assert.Zero(t, mine.TotalCount)

	f.store.FailOn("leave.lock", nil)
	_, err = f.service.Submit(asEmployee(), req)
	assert.NoError(t, err)
}

func TestSubmit_WeekendOnly(t *testing.T) {
	f := newFixture(t, "12")

	_, err := f.service.Submit(asEmployee(), annualRequest("2025-03-15", "2025-03-16"))
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "start_date", verrs[0].Field)
}

func TestSubmit_RequiresEmployee(t *testing.T) {
	f := newFixture(t, "12")
	ctx := jwt.NewContextWithActor(context.Background(), user.Actor{UserID: "owner-1", CompanyID: "company-1", Role: user.RoleOwner})

	_, err := f.service.Submit(ctx, annualRequest("2025-03-10", "2025-03-12"))
	assert.ErrorIs(t, err, user.ErrEmployeeRequired)

	_, err = f.service.Submit(context.Background(), annualRequest("2025-03-10", "2025-03-12"))
	assert.ErrorIs(t, err, jwt.ErrMissingClaims)
}

func TestReview_Permissions(t *testing.T) {
	f := newFixture(t, "12")

	created, err := f.service.Submit(asEmployee(), annualRequest("2025-03-10", "2025-03-12"))
	require.NoError(t, err)

	_, err = f.service.Approve(asEmployee(), created.ID, nil)
	assert.ErrorIs(t, err, user.ErrManagerAccessRequired)

	self := jwt.NewContextWithActor(context.Background(), user.Actor{UserID: "user-1", EmployeeID: "emp-1", CompanyID: "company-1", Role: user.RoleManager})
	_, err = f.service.Approve(self, created.ID, nil)
	assert.ErrorIs(t, err, leave.ErrSelfReview)

	otherCompany := jwt.NewContextWithActor(context.Background(), user.Actor{UserID: "user-9", EmployeeID: "emp-9", CompanyID: "company-2", Role: user.RoleManager})
	_, err = f.service.Approve(otherCompany, created.ID, nil)
	assert.ErrorIs(t, err, leave.ErrLeaveNotFound)
}

func TestReview_InvalidStatus(t *testing.T) {
	f := newFixture(t, "12")

	_, err := f.service.Review(asManager(), leave.ReviewLeaveRequest{ID: "x", Status: leave.StatusCancelled})
	var verrs validator.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}

func TestWithdraw(t *testing.T) {
	t.Run("pending releases", func(t *testing.T) {
		f := newFixture(t, "12")
		created, err := f.service.Submit(asEmployee(), annualRequest("2025-03-10", "2025-03-12"))
		require.NoError(t, err)

		cancelled, err := f.service.Withdraw(asEmployee(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, string(leave.StatusCancelled), cancelled.Status)
		assert.NotNil(t, cancelled.CancelledAt)
		assert.True(t, f.balance(t).Used.IsZero())
	})

	t.Run("approved releases", func(t *testing.T) {
		f := newFixture(t, "12")
		created, err := f.service.Submit(asEmployee(), annualRequest("2025-03-10", "2025-03-12"))
		require.NoError(t, err)
		_, err = f.service.Approve(asManager(), created.ID, nil)
		require.NoError(t, err)

		_, err = f.service.Withdraw(asEmployee(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, "12", f.balance(t).Remaining.String())
	})

	t.Run("rejected cannot be withdrawn", func(t *testing.T) {
		f := newFixture(t, "12")
		created, err := f.service.Submit(asEmployee(), annualRequest("2025-03-10", "2025-03-12"))
		require.NoError(t, err)
		_, err = f.service.Reject(asManager(), created.ID, nil)
		require.NoError(t, err)

		_, err = f.service.Withdraw(asEmployee(), created.ID)
		assert.ErrorIs(t, err, leave.ErrInvalidState)
		assert.True(t, f.balance(t).Used.IsZero())
	})

	t.Run("only the owner", func(t *testing.T) {
		f := newFixture(t, "12")
		created, err := f.service.Submit(asEmployee(), annualRequest("2025-03-10", "2025-03-12"))
		require.NoError(t, err)

		_, err = f.service.Withdraw(asManager(), created.ID)
		assert.ErrorIs(t, err, leave.ErrNotOwner)
	})
}

func TestDelete(t *testing.T) {
	t.Run("approved cannot be deleted", func(t *testing.T) {
		f := newFixture(t, "12")
		created, err := f.service.Submit(asEmployee(), annualRequest("2025-03-10", "2025-03-12"))
		require.NoError(t, err)
		_, err = f.service.Approve(asManager(), created.ID, nil)
		require.NoError(t, err)

		err = f.service.Delete(asEmployee(), created.ID)
		assert.ErrorIs(t, err, leave.ErrInvalidState)

		_, ok := f.store.Leave(created.ID)
		assert.True(t, ok)
		assert.Equal(t, "3", f.balance(t).Used.String())
	})

	t.Run("withdrawn can be deleted without double release", func(t *testing.T) {
		f := newFixture(t, "12")
		created, err := f.service.Submit(asEmployee(), annualRequest("2025-03-10", "2025-03-12"))
		require.NoError(t, err)
		_, err = f.service.Withdraw(asEmployee(), created.ID)
		require.NoError(t, err)

		require.NoError(t, f.service.Delete(asEmployee(), created.ID))

		_, ok := f.store.Leave(created.ID)
		assert.False(t, ok)
		assert.Equal(t, "12", f.balance(t).Remaining.String())
	})

	t.Run("pending releases its hold", func(t *testing.T) {
		f := newFixture(t, "12")
		created, err := f.service.Submit(asEmployee(), annualRequest("2025-03-10", "2025-03-12"))
		require.NoError(t, err)

		require.NoError(t, f.service.Delete(asEmployee(), created.ID))
		assert.True(t, f.balance(t).Used.IsZero())
	})
}

func TestGetLeave_Visibility(t *testing.T) {
	f := newFixture(t, "12")
	created, err := f.service.Submit(asEmployee(), annualRequest("2025-03-10", "2025-03-12"))
	require.NoError(t, err)

	got, err := f.service.GetLeave(asEmployee(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = f.service.GetLeave(asManager(), created.ID)
	assert.NoError(t, err)

	peer := jwt.NewContextWithActor(context.Background(), user.Actor{UserID: "user-3", EmployeeID: "emp-3", CompanyID: "company-1", Role: user.RoleEmployee})
	_, err = f.service.GetLeave(peer, created.ID)
	assert.ErrorIs(t, err, leave.ErrNotOwner)
}

func TestListMyRequestsAndBalance(t *testing.T) {
	f := newFixture(t, "12")
	_, err := f.service.Submit(asEmployee(), annualRequest("2025-03-10", "2025-03-12"))
	require.NoError(t, err)
	_, err = f.service.Submit(asEmployee(), annualRequest("2025-04-07", "2025-04-07"))
	require.NoError(t, err)

	list, err := f.service.ListMyRequests(asEmployee(), leave.MyLeaveFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.TotalCount)
	assert.Equal(t, 2, list.TotalPages)
	assert.Len(t, list.Leaves, 1)

	balances, err := f.service.GetMyBalance(asEmployee(), 0)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "4", balances[0].Used.String())
	assert.Equal(t, "8", balances[0].Remaining.String())
}

func TestAuditTrail(t *testing.T) {
	f := newFixture(t, "12")
	created, err := f.service.Submit(asEmployee(), annualRequest("2025-03-10", "2025-03-12"))
	require.NoError(t, err)
	_, err = f.service.Approve(asManager(), created.ID, nil)
	require.NoError(t, err)
	_, err = f.service.Withdraw(asEmployee(), created.ID)
	require.NoError(t, err)
	require.NoError(t, f.service.Delete(asEmployee(), created.ID))

	entries := f.audit.Entries()
	require.Len(t, entries, 4)

	actions := make([]audit.Action, 0, len(entries))
	for _, e := range entries {
		assert.Equal(t, "leave_requests", e.TableName)
		assert.Equal(t, created.ID, e.RecordID)
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []audit.Action{audit.ActionCreate, audit.ActionApprove, audit.ActionCancel, audit.ActionDelete}, actions)
	assert.Equal(t, managerActor.UserID, entries[1].ActorID)
	assert.Nil(t, entries[0].OldValues)
	assert.Nil(t, entries[3].NewValues)
}
