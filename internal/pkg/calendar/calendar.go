// Package calendar counts chargeable leave days for a company.
package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

var half = decimal.RequireFromString("0.5")

// HolidayRepository lists company public holidays in [start, end].
type HolidayRepository interface {
	GetByDateRange(ctx context.Context, companyID string, start, end time.Time) ([]time.Time, error)
}

type Calendar struct {
	holidayRepo HolidayRepository
}

// New returns a calendar that skips weekends and, when holidayRepo is not
// nil, company public holidays.
func New(holidayRepo HolidayRepository) *Calendar {
	return &Calendar{holidayRepo: holidayRepo}
}

// CountLeaveDays counts working days in the inclusive range [start, end].
// A half day counts 0.5 when the date is a working day and 0 otherwise.
func (c *Calendar) CountLeaveDays(ctx context.Context, companyID string, start, end time.Time, isHalfDay bool) (decimal.Decimal, error) {
	start = truncateDay(start)
	end = truncateDay(end)
	if end.Before(start) {
		return decimal.Zero, nil
	}

	holidays := make(map[string]bool)
	if c.holidayRepo != nil {
		dates, err := c.holidayRepo.GetByDateRange(ctx, companyID, start, end)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to get holidays: %w", err)
		}
		for _, d := range dates {
			holidays[d.Format(dateLayout)] = true
		}
	}

	var workingDays int64
	for current := start; !current.After(end); current = current.AddDate(0, 0, 1) {
		if isWeekend(current) || holidays[current.Format(dateLayout)] {
			continue
		}
		workingDays++
	}

	if isHalfDay {
		if workingDays == 0 {
			return decimal.Zero, nil
		}
		return half, nil
	}

	return decimal.NewFromInt(workingDays), nil
}

func isWeekend(d time.Time) bool {
	return d.Weekday() == time.Saturday || d.Weekday() == time.Sunday
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
