package schedule

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func clock(s string) time.Time {
	t, err := time.Parse("15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(t time.Time) *time.Time { return &t }

func TestShift_DayShift(t *testing.T) {
	s := Shift{
		ClockInTime:    clock("09:00"),
		ClockOutTime:   clock("18:00"),
		BreakStartTime: ptr(clock("12:00")),
		BreakEndTime:   ptr(clock("13:00")),
	}
	loc := time.FixedZone("WIB", 7*3600)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 3, 10, 9, 0, 0, 0, loc), s.ScheduledStart(date, loc))
	assert.Equal(t, time.Date(2025, 3, 10, 18, 0, 0, 0, loc), s.ScheduledEnd(date, loc))

	br, ok := s.BreakHours()
	assert.True(t, ok)
	assert.True(t, decimal.NewFromInt(1).Equal(br))
	assert.True(t, decimal.NewFromInt(8).Equal(s.StandardHours(br)))
}

func TestShift_NightShift(t *testing.T) {
	s := Shift{ClockInTime: clock("22:00"), ClockOutTime: clock("06:00"), IsNextDayCheckout: true}
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 3, 11, 6, 0, 0, 0, time.UTC), s.ScheduledEnd(date, time.UTC))

	_, ok := s.BreakHours()
	assert.False(t, ok)
	assert.True(t, decimal.NewFromInt(7).Equal(s.StandardHours(decimal.NewFromInt(1))))
}
