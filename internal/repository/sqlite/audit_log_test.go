package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *AuditLogStore {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAuditLogStore_InsertAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, s.Insert(ctx, audit.Log{
		ID: "a2", TableName: "leave_requests", RecordID: "lr-1", Action: audit.ActionApprove,
		OldValues: []byte(`{"status":"pending"}`), NewValues: []byte(`{"status":"approved"}`),
		ActorID: "mgr-1", CreatedAt: base.Add(time.Minute),
	}))
	require.NoError(t, s.Insert(ctx, audit.Log{
		ID: "a1", TableName: "leave_requests", RecordID: "lr-1", Action: audit.ActionCreate,
		NewValues: []byte(`{"status":"pending"}`), ActorID: "emp-1", CreatedAt: base,
	}))
	require.NoError(t, s.Insert(ctx, audit.Log{
		ID: "a3", TableName: "attendances", RecordID: "att-1", Action: audit.ActionUpdate, CreatedAt: base,
	}))

	logs, err := s.ListByRecord(ctx, "leave_requests", "lr-1")
	require.NoError(t, err)
	require.Len(t, logs, 2)

	assert.Equal(t, audit.ActionCreate, logs[0].Action)
	assert.Nil(t, logs[0].OldValues)
	assert.JSONEq(t, `{"status":"pending"}`, string(logs[0].NewValues))
	assert.Equal(t, "emp-1", logs[0].ActorID)
	assert.True(t, base.Equal(logs[0].CreatedAt))

	assert.Equal(t, audit.ActionApprove, logs[1].Action)
	assert.JSONEq(t, `{"status":"pending"}`, string(logs[1].OldValues))

	system, err := s.ListByRecord(ctx, "attendances", "att-1")
	require.NoError(t, err)
	require.Len(t, system, 1)
	assert.Empty(t, system[0].ActorID)
}

func TestAuditLogStore_DuplicateID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	l := audit.Log{ID: "dup", TableName: "attendances", RecordID: "x", Action: audit.ActionCreate, CreatedAt: time.Now()}

	require.NoError(t, s.Insert(ctx, l))
	assert.Error(t, s.Insert(ctx, l))
}
