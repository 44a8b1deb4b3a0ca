package leave

import (
	"testing"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func TestSubmitLeaveRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       SubmitLeaveRequest
		wantField string
	}{
		{"valid full day", SubmitLeaveRequest{LeaveType: "annual", StartDate: "2025-03-10", EndDate: "2025-03-12", Reason: "trip"}, ""},
		{"valid half day", SubmitLeaveRequest{LeaveType: "sick", StartDate: "2025-03-10", EndDate: "2025-03-10", IsHalfDay: true, HalfDayPeriod: str("morning"), Reason: "doctor"}, ""},
		{"unknown type", SubmitLeaveRequest{LeaveType: "sabbatical", StartDate: "2025-03-10", EndDate: "2025-03-10", Reason: "x"}, "leave_type"},
		{"end before start", SubmitLeaveRequest{LeaveType: "annual", StartDate: "2025-03-12", EndDate: "2025-03-10", Reason: "x"}, "end_date"},
		{"cross year", SubmitLeaveRequest{LeaveType: "annual", StartDate: "2025-12-30", EndDate: "2026-01-02", Reason: "x"}, "end_date"},
		{"half day spans dates", SubmitLeaveRequest{LeaveType: "annual", StartDate: "2025-03-10", EndDate: "2025-03-11", IsHalfDay: true, HalfDayPeriod: str("morning"), Reason: "x"}, "end_date"},
		{"half day without period", SubmitLeaveRequest{LeaveType: "annual", StartDate: "2025-03-10", EndDate: "2025-03-10", IsHalfDay: true, Reason: "x"}, "half_day_period"},
		{"period without half day", SubmitLeaveRequest{LeaveType: "annual", StartDate: "2025-03-10", EndDate: "2025-03-10", HalfDayPeriod: str("morning"), Reason: "x"}, "half_day_period"},
		{"bad date", SubmitLeaveRequest{LeaveType: "annual", StartDate: "10-03-2025", EndDate: "2025-03-10", Reason: "x"}, "start_date"},
		{"missing reason", SubmitLeaveRequest{LeaveType: "annual", StartDate: "2025-03-10", EndDate: "2025-03-10"}, "reason"},
		{"bad attachment", SubmitLeaveRequest{LeaveType: "annual", StartDate: "2025-03-10", EndDate: "2025-03-10", Reason: "x", AttachmentURL: str("not a url")}, "attachment_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.req.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var errs validator.ValidationErrors
			require.ErrorAs(t, err, &errs)
			assert.Contains(t, errs.ToMap(), tt.wantField)
		})
	}
}

func TestSubmitLeaveRequest_ValidateReturnsDates(t *testing.T) {
	req := SubmitLeaveRequest{LeaveType: "annual", StartDate: "2025-03-10", EndDate: "2025-03-12", Reason: "trip"}
	start, end, err := req.Validate()
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", start.Format("2006-01-02"))
	assert.Equal(t, "2025-03-12", end.Format("2006-01-02"))
}

func TestLeave_CanTransitionTo(t *testing.T) {
	pending := Leave{Status: StatusPending}
	assert.True(t, pending.CanTransitionTo(StatusApproved))
	assert.True(t, pending.CanTransitionTo(StatusRejected))
	assert.True(t, pending.CanTransitionTo(StatusCancelled))

	approved := Leave{Status: StatusApproved}
	assert.True(t, approved.CanTransitionTo(StatusCancelled))
	assert.False(t, approved.CanTransitionTo(StatusRejected))

	for _, terminal := range []Status{StatusRejected, StatusCancelled} {
		l := Leave{Status: terminal}
		for _, next := range []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled} {
			assert.False(t, l.CanTransitionTo(next), "%s -> %s", terminal, next)
		}
	}
}

func TestLeave_HoldsBalance(t *testing.T) {
	assert.True(t, Leave{LeaveType: LeaveTypeAnnual, Status: StatusPending}.HoldsBalance())
	assert.True(t, Leave{LeaveType: LeaveTypeAnnual, Status: StatusApproved}.HoldsBalance())
	assert.False(t, Leave{LeaveType: LeaveTypeAnnual, Status: StatusRejected}.HoldsBalance())
	assert.False(t, Leave{LeaveType: LeaveTypeUnpaid, Status: StatusPending}.HoldsBalance())
}
