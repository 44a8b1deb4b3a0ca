// Package audit persists audit entries off the request path.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/audit"
	"github.com/google/uuid"
)

const insertTimeout = 5 * time.Second

// AsyncSink queues entries on a buffered channel and writes them from a
// single worker. When the buffer is full the entry is written inline so
// nothing is dropped.
type AsyncSink struct {
	repo    audit.LogRepository
	entries chan audit.Log
	wg      sync.WaitGroup
	once    sync.Once
	closed  chan struct{}
	mu      sync.RWMutex
	now     func() time.Time
}

func NewAsyncSink(repo audit.LogRepository, bufferSize int) *AsyncSink {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	s := &AsyncSink{
		repo:    repo,
		entries: make(chan audit.Log, bufferSize),
		closed:  make(chan struct{}),
		now:     time.Now,
	}

	s.wg.Add(1)
	go s.run()

	return s
}

// Record implements audit.Sink.
func (s *AsyncSink) Record(ctx context.Context, e audit.Entry) {
	log, err := s.encode(e)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode audit entry", "table", e.TableName, "record_id", e.RecordID, "error", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	select {
	case <-s.closed:
		s.insert(log)
		return
	default:
	}

	select {
	case s.entries <- log:
	default:
		slog.WarnContext(ctx, "Audit buffer full, writing inline", "table", e.TableName)
		s.insert(log)
	}
}

// Close stops accepting queued entries and waits until the buffer is drained.
func (s *AsyncSink) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		close(s.closed)
		close(s.entries)
		s.mu.Unlock()
	})
	s.wg.Wait()
}

func (s *AsyncSink) run() {
	defer s.wg.Done()
	for log := range s.entries {
		s.insert(log)
	}
}

func (s *AsyncSink) insert(log audit.Log) {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	if err := s.repo.Insert(ctx, log); err != nil {
		slog.Error("Failed to write audit log",
			"table", log.TableName,
			"record_id", log.RecordID,
			"action", log.Action,
			"error", err,
		)
	}
}

func (s *AsyncSink) encode(e audit.Entry) (audit.Log, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return audit.Log{}, fmt.Errorf("failed to generate audit id: %w", err)
	}

	oldValues, err := marshalValues(e.OldValues)
	if err != nil {
		return audit.Log{}, fmt.Errorf("failed to encode old values: %w", err)
	}
	newValues, err := marshalValues(e.NewValues)
	if err != nil {
		return audit.Log{}, fmt.Errorf("failed to encode new values: %w", err)
	}

	return audit.Log{
		ID:        id.String(),
		TableName: e.TableName,
		RecordID:  e.RecordID,
		Action:    e.Action,
		OldValues: oldValues,
		NewValues: newValues,
		ActorID:   e.ActorID,
		CreatedAt: s.now().UTC(),
	}, nil
}

func marshalValues(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

var _ audit.Sink = (*AsyncSink)(nil)
