package attendance

import (
	"testing"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }
func str(v string) *string   { return &v }

func TestClockInRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     ClockInRequest
		wantErr string
	}{
		{"no coordinates", ClockInRequest{}, ""},
		{"valid coordinates", ClockInRequest{Latitude: f64(-6.2), Longitude: f64(106.8)}, ""},
		{"latitude out of range", ClockInRequest{Latitude: f64(95), Longitude: f64(106.8)}, "latitude"},
		{"longitude out of range", ClockInRequest{Latitude: f64(-6.2), Longitude: f64(190)}, "longitude"},
		{"latitude only", ClockInRequest{Latitude: f64(-6.2)}, "latitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var errs validator.ValidationErrors
			require.ErrorAs(t, err, &errs)
			assert.Contains(t, errs.ToMap(), tt.wantErr)
		})
	}
}

func TestMyAttendanceFilter_Validate(t *testing.T) {
	f := MyAttendanceFilter{}
	require.NoError(t, f.Validate())
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 20, f.Limit)

	f = MyAttendanceFilter{StartDate: str("2025-03-10"), EndDate: str("2025-03-01")}
	var errs validator.ValidationErrors
	require.ErrorAs(t, f.Validate(), &errs)
	assert.Contains(t, errs.ToMap(), "end_date")

	f = MyAttendanceFilter{Status: str("absent"), Limit: 500}
	require.ErrorAs(t, f.Validate(), &errs)
	assert.Contains(t, errs.ToMap(), "status")
	assert.Contains(t, errs.ToMap(), "limit")
}
