package postgres

import (
	"context"
	"fmt"

	"github.com/solstice-app/wallet-server/internal/model"
)

var _ model.AuditStore = (*AuditRepository)(nil)

// AuditRepository appends audit entries. The table is append-only.
type AuditRepository struct {
	db *Connection
}

func NewAuditRepository(db *Connection) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry model.AuditEntry) error {
	query := `
		INSERT INTO audit_log (id, user_id, signature, purpose, status, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Signature,
		entry.Purpose,
		entry.Status,
		entry.Metadata,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}
