package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type shiftRepositoryImpl struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) schedule.ShiftRepository {
	return &shiftRepositoryImpl{db: db}
}

// GetByID implements schedule.ShiftRepository.
func (r *shiftRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (schedule.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, name, clock_in_time, clock_out_time,
			   break_start_time, break_end_time, is_next_day_checkout, grace_period_minutes
		FROM shifts
		WHERE id = $1 AND company_id = $2
	`

	var (
		s                    schedule.Shift
		clockIn, clockOut    pgtype.Time
		breakStart, breakEnd pgtype.Time
	)
	err := q.QueryRow(ctx, query, id, companyID).Scan(
		&s.ID, &s.CompanyID, &s.Name, &clockIn, &clockOut,
		&breakStart, &breakEnd, &s.IsNextDayCheckout, &s.GracePeriodMinutes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Shift{}, schedule.ErrShiftNotFound
		}
		return schedule.Shift{}, fmt.Errorf("failed to get shift: %w", err)
	}

	s.ClockInTime = timeOfDay(clockIn)
	s.ClockOutTime = timeOfDay(clockOut)
	if breakStart.Valid && breakEnd.Valid {
		start, end := timeOfDay(breakStart), timeOfDay(breakEnd)
		s.BreakStartTime = &start
		s.BreakEndTime = &end
	}

	return s, nil
}

// timeOfDay converts a TIME column to a time.Time on the zero date.
func timeOfDay(t pgtype.Time) time.Time {
	return time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(t.Microseconds) * time.Microsecond)
}
