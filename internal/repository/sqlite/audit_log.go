// Package sqlite holds a file-backed audit log for deployments that keep the
// trail on local disk instead of in Postgres.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/audit"
	_ "github.com/mattn/go-sqlite3"
)

type AuditLogStore struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the database at path and migrates it. Use
// ":memory:" in tests.
func Open(path string) (*AuditLogStore, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a :memory: database lives as long as its single connection
	db.SetMaxOpenConns(1)

	s := &AuditLogStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *AuditLogStore) Close() error {
	return s.db.Close()
}

func (s *AuditLogStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_logs (
		id TEXT PRIMARY KEY,
		table_name TEXT NOT NULL,
		record_id TEXT NOT NULL,
		action TEXT NOT NULL,
		old_values TEXT,
		new_values TEXT,
		actor_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_logs_record
		ON audit_logs(table_name, record_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Insert implements audit.LogRepository.
func (s *AuditLogStore) Insert(ctx context.Context, l audit.Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, table_name, record_id, action, old_values, new_values, actor_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		l.ID, l.TableName, l.RecordID, string(l.Action),
		nullString(l.OldValues), nullString(l.NewValues), nullString([]byte(l.ActorID)),
		l.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

// ListByRecord returns the trail of one record, oldest first.
func (s *AuditLogStore) ListByRecord(ctx context.Context, tableName, recordID string) ([]audit.Log, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, table_name, record_id, action, old_values, new_values, actor_id, created_at
		FROM audit_logs
		WHERE table_name = ? AND record_id = ?
		ORDER BY created_at, id
	`, tableName, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var logs []audit.Log
	for rows.Next() {
		var (
			l                 audit.Log
			action, createdAt string
			oldV, newV, actor sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.TableName, &l.RecordID, &action, &oldV, &newV, &actor, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		l.Action = audit.Action(action)
		if oldV.Valid {
			l.OldValues = []byte(oldV.String)
		}
		if newV.Valid {
			l.NewValues = []byte(newV.String)
		}
		l.ActorID = actor.String
		l.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func nullString(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

var _ audit.LogRepository = (*AuditLogStore)(nil)
