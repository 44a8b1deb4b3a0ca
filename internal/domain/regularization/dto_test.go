package regularization

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRegularizationRequest_Validate(t *testing.T) {
	in := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)
	ok := SubmitRegularizationRequest{AttendanceID: "a1", RequestedClockIn: in, RequestedClockOut: in.Add(9 * time.Hour), Reason: "forgot to clock out"}
	assert.NoError(t, ok.Validate())

	var errs validator.ValidationErrors
	missing := SubmitRegularizationRequest{Reason: "   "}
	require.ErrorAs(t, missing.Validate(), &errs)
	assert.Contains(t, errs.ToMap(), "attendance_id")
	assert.Contains(t, errs.ToMap(), "requested_clock_in_time")

	blank := ok
	blank.Reason = "   "
	require.ErrorAs(t, blank.Validate(), &errs)
	assert.Contains(t, errs.ToMap(), "reason")
}

func TestReviewRegularizationRequest_Validate(t *testing.T) {
	ok := ReviewRegularizationRequest{ID: "r1", Status: StatusApproved}
	assert.NoError(t, ok.Validate())

	var errs validator.ValidationErrors
	bad := ReviewRegularizationRequest{Status: StatusPending}
	require.ErrorAs(t, bad.Validate(), &errs)
	assert.Contains(t, errs.ToMap(), "id")
	assert.Contains(t, errs.ToMap(), "status")
}
