package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/attendance"
	"golang.org/x/sync/errgroup"
)

// StaleSessionCloser finds open sessions and closes them at their scheduled
// end. The attendance service implements it.
type StaleSessionCloser interface {
	GetStaleOpenSessions(ctx context.Context, clockedInBefore time.Time) ([]attendance.Attendance, error)
	CloseStaleSession(ctx context.Context, stale attendance.Attendance) (bool, error)
}

const sweepConcurrency = 8

type AttendanceJobs struct {
	closer     StaleSessionCloser
	staleAfter time.Duration
	now        func() time.Time
}

func NewAttendanceJobs(closer StaleSessionCloser, staleAfter time.Duration) *AttendanceJobs {
	return &AttendanceJobs{
		closer:     closer,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("auto_close_stale_attendances", interval, j.AutoCloseStaleAttendances)
}

// AutoCloseStaleAttendances closes sessions nobody clocked out of. A failure
// on one session is logged and does not stop the others.
func (j *AttendanceJobs) AutoCloseStaleAttendances(ctx context.Context) error {
	slog.Info("Cron: Starting auto-close stale attendances job")

	staleSessions, err := j.closer.GetStaleOpenSessions(ctx, j.now().UTC().Add(-j.staleAfter))
	if err != nil {
		return fmt.Errorf("failed to get stale sessions: %w", err)
	}

	if len(staleSessions) == 0 {
		slog.Info("Cron: No stale attendances found")
		return nil
	}

	var closedCount, failedCount atomic.Int32
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)

	for _, session := range staleSessions {
		session := session
		g.Go(func() error {
			closed, err := j.closer.CloseStaleSession(gCtx, session)
			if err != nil {
				failedCount.Add(1)
				slog.Error("Cron: Failed to auto-close attendance",
					"attendance_id", session.ID,
					"employee_id", session.EmployeeID,
					"error", err)
				return nil
			}
			if closed {
				closedCount.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("Cron: Auto-close stale attendances completed",
		"candidates", len(staleSessions),
		"closed", closedCount.Load(),
		"failed", failedCount.Load())

	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}
