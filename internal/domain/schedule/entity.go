package schedule

import (
	"time"

	"github.com/shopspring/decimal"
)

// Shift is a daily work window. Clock and break times carry only the
// time-of-day part.
type Shift struct {
	ID                 string
	CompanyID          string
	Name               string
	ClockInTime        time.Time
	ClockOutTime       time.Time
	BreakStartTime     *time.Time
	BreakEndTime       *time.Time
	IsNextDayCheckout  bool // Indicates if checkout is on the next day
	GracePeriodMinutes int
}

// ScheduledStart returns the shift start on the given local date.
func (s Shift) ScheduledStart(date time.Time, loc *time.Location) time.Time {
	return onDate(date, s.ClockInTime, loc)
}

// ScheduledEnd returns the shift end for a shift starting on date.
func (s Shift) ScheduledEnd(date time.Time, loc *time.Location) time.Time {
	end := onDate(date, s.ClockOutTime, loc)
	if s.IsNextDayCheckout || !end.After(s.ScheduledStart(date, loc)) {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

// BreakHours returns the scheduled break length, or false when the shift
// does not define one.
func (s Shift) BreakHours() (decimal.Decimal, bool) {
	if s.BreakStartTime == nil || s.BreakEndTime == nil {
		return decimal.Zero, false
	}
	d := clockOf(*s.BreakEndTime) - clockOf(*s.BreakStartTime)
	if d < 0 {
		d += 24 * time.Hour
	}
	return hours(d), true
}

// StandardHours is the scheduled span minus the break.
func (s Shift) StandardHours(breakHours decimal.Decimal) decimal.Decimal {
	ref := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	span := s.ScheduledEnd(ref, time.UTC).Sub(s.ScheduledStart(ref, time.UTC))
	std := hours(span).Sub(breakHours)
	if std.IsNegative() {
		return decimal.Zero
	}
	return std
}

func onDate(date, clock time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), clock.Second(), 0, loc)
}

func clockOf(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second
}

func hours(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d / time.Second)).Div(decimal.NewFromInt(3600))
}
