package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/audit"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/database"
)

type auditLogRepositoryImpl struct {
	db *database.DB
}

func NewAuditLogRepository(db *database.DB) audit.LogRepository {
	return &auditLogRepositoryImpl{db: db}
}

// Insert implements audit.LogRepository.
func (r *auditLogRepositoryImpl) Insert(ctx context.Context, l audit.Log) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO audit_logs (id, table_name, record_id, action, old_values, new_values, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid, $8)
	`

	if _, err := q.Exec(ctx, query,
		l.ID, l.TableName, l.RecordID, string(l.Action),
		nullableJSON(l.OldValues), nullableJSON(l.NewValues),
		l.ActorID, l.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

// nullableJSON keeps an absent value as SQL NULL rather than the JSON null
// literal.
func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
