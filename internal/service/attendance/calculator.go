package attendance

import (
	"math"
	"time"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/schedule"
	"github.com/shopspring/decimal"
)

const hourPrecision = 2

var secondsPerHour = decimal.NewFromInt(3600)

// WorkContext is what the calculator needs to know about the employee's day.
// Shift is nil for employees without a scheduled shift.
type WorkContext struct {
	Shift    *schedule.Shift
	Location *time.Location
}

func (wc WorkContext) location() *time.Location {
	if wc.Location == nil {
		return time.UTC
	}
	return wc.Location
}

// Calculator derives the hour and lateness metrics of an attendance record
// from its clock times.
type Calculator struct {
	DefaultBreakHours    decimal.Decimal
	DefaultStandardHours decimal.Decimal
}

// LocalDate returns the calendar date of t in loc, stored as UTC midnight.
func LocalDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Derive fills Date, lateness, and (once clocked out) the hour fields of a.
// It fails with ErrInvalidTimeOrder without touching a when the clock-out
// precedes the clock-in.
func (c Calculator) Derive(a *attendance.Attendance, wc WorkContext) error {
	if a.ClockIn == nil {
		return attendance.ErrNoOpenClockIn
	}
	if a.ClockOut != nil && a.ClockOut.Before(*a.ClockIn) {
		return attendance.ErrInvalidTimeOrder
	}

	loc := wc.location()
	a.Date = LocalDate(*a.ClockIn, loc)

	a.IsLate, a.LateMinutes = false, 0
	if wc.Shift != nil {
		start := wc.Shift.ScheduledStart(a.Date, loc)
		late := floorMinutes(a.ClockIn.Sub(start))
		if late > wc.Shift.GracePeriodMinutes {
			a.IsLate, a.LateMinutes = true, late
		}
	}

	if a.Status != attendance.StatusRegularized {
		a.Status = attendance.StatusPresent
		if a.IsLate {
			a.Status = attendance.StatusLate
		}
	}

	a.IsEarlyDeparture, a.EarlyDepartureMinutes = false, 0
	if a.ClockOut == nil {
		a.TotalHours = decimal.Zero
		a.BreakHours = decimal.Zero
		a.WorkedHours = decimal.Zero
		a.OvertimeHours = decimal.Zero
		return nil
	}

	total := hoursBetween(*a.ClockIn, *a.ClockOut)
	breakHours := c.breakHours(wc.Shift)
	worked := total.Sub(breakHours)
	if worked.IsNegative() {
		worked = decimal.Zero
	}
	overtime := worked.Sub(c.standardHours(wc.Shift, breakHours))
	if overtime.IsNegative() {
		overtime = decimal.Zero
	}

	a.TotalHours = total.Round(hourPrecision)
	a.BreakHours = breakHours.Round(hourPrecision)
	a.WorkedHours = worked.Round(hourPrecision)
	a.OvertimeHours = overtime.Round(hourPrecision)

	if wc.Shift != nil {
		end := wc.Shift.ScheduledEnd(a.Date, loc)
		if a.ClockOut.Before(end) {
			a.IsEarlyDeparture = true
			a.EarlyDepartureMinutes = floorMinutes(end.Sub(*a.ClockOut))
		}
	}

	return nil
}

// ScheduledClockOut is where an unattended session is closed: the shift end
// when there is one, otherwise clock-in plus a standard day and its break.
func (c Calculator) ScheduledClockOut(a attendance.Attendance, wc WorkContext) time.Time {
	if wc.Shift != nil {
		return wc.Shift.ScheduledEnd(a.Date, wc.location())
	}
	breakHours := c.breakHours(nil)
	span := c.standardHours(nil, breakHours).Add(breakHours).Mul(secondsPerHour)
	return a.ClockIn.Add(time.Duration(span.IntPart()) * time.Second)
}

func (c Calculator) breakHours(shift *schedule.Shift) decimal.Decimal {
	if shift != nil {
		if h, ok := shift.BreakHours(); ok {
			return h
		}
	}
	return c.DefaultBreakHours
}

func (c Calculator) standardHours(shift *schedule.Shift, breakHours decimal.Decimal) decimal.Decimal {
	if shift != nil {
		return shift.StandardHours(breakHours)
	}
	return c.DefaultStandardHours
}

func hoursBetween(from, to time.Time) decimal.Decimal {
	return decimal.NewFromInt(int64(to.Sub(from) / time.Second)).Div(secondsPerHour)
}

func floorMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Floor(d.Minutes()))
}
