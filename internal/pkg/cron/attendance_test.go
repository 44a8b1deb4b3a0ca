package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCloser struct {
	mu       sync.Mutex
	sessions []attendance.Attendance
	cutoff   time.Time
	failIDs  map[string]bool
	closed   []string
}

func (f *fakeCloser) GetStaleOpenSessions(_ context.Context, clockedInBefore time.Time) ([]attendance.Attendance, error) {
	f.cutoff = clockedInBefore
	return f.sessions, nil
}

func (f *fakeCloser) CloseStaleSession(_ context.Context, stale attendance.Attendance) (bool, error) {
	if f.failIDs[stale.ID] {
		return false, errors.New("db down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, stale.ID)
	return true, nil
}

func TestAutoCloseStaleAttendances(t *testing.T) {
	closer := &fakeCloser{
		sessions: []attendance.Attendance{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		failIDs:  map[string]bool{"b": true},
	}
	jobs := NewAttendanceJobs(closer, 2*time.Hour)
	jobs.now = func() time.Time { return time.Date(2025, 3, 11, 0, 30, 0, 0, time.UTC) }

	require.NoError(t, jobs.AutoCloseStaleAttendances(context.Background()))

	assert.Equal(t, time.Date(2025, 3, 10, 22, 30, 0, 0, time.UTC), closer.cutoff)
	assert.ElementsMatch(t, []string{"a", "c"}, closer.closed)
}

func TestAutoCloseStaleAttendances_NothingToDo(t *testing.T) {
	closer := &fakeCloser{}
	jobs := NewAttendanceJobs(closer, time.Hour)

	require.NoError(t, jobs.AutoCloseStaleAttendances(context.Background()))
	assert.Empty(t, closer.closed)
}

func TestScheduler_RunOnce(t *testing.T) {
	s := NewScheduler()
	var calls int
	s.AddJob("count", time.Hour, func(ctx context.Context) error {
		calls++
		return nil
	})
	s.AddJob("fail", time.Hour, func(ctx context.Context) error {
		return errors.New("boom")
	})

	s.RunOnce(context.Background())
	assert.Equal(t, 1, calls)
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler()
	ran := make(chan struct{}, 1)
	s.AddJob("tick", time.Hour, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	s.Start()
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run on start")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
