package postgres

import (
	"context"
	"fmt"

	"github.com/solstice-app/wallet-server/internal/model"
)

var _ model.SponsorTxStore = (*SponsorTxRepository)(nil)

// SponsorTxRepository persists sponsor transaction records. Rows are written
// once per sponsored operation and never updated.
type SponsorTxRepository struct {
	db *Connection
}

func NewSponsorTxRepository(db *Connection) *SponsorTxRepository {
	return &SponsorTxRepository{db: db}
}

func (r *SponsorTxRepository) Create(ctx context.Context, record model.SponsorTransactionRecord) error {
	query := `
		INSERT INTO sponsor_transactions
			(id, signature, fee_paid, priority_fee_paid, sponsor_public_key, user_public_key, operation, outcome, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		record.ID,
		record.Signature,
		record.FeePaid,
		record.PriorityFeePaid,
		record.SponsorPublicKey,
		record.UserPublicKey,
		record.Operation,
		record.Outcome,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create sponsor transaction record: %w", err)
	}

	return nil
}
