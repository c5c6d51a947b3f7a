package postgres

import (
	"context"
	"fmt"

	"github.com/solstice-app/wallet-server/internal/model"
)

var _ model.NFTStore = (*NFTRepository)(nil)

// NFTRepository persists NFT ownership rows.
type NFTRepository struct {
	db *Connection
}

func NewNFTRepository(db *Connection) *NFTRepository {
	return &NFTRepository{db: db}
}

func (r *NFTRepository) Create(ctx context.Context, ownership model.NFTOwnership) (model.NFTOwnership, error) {
	query := `
		INSERT INTO nft_ownership (id, user_id, mint, signature, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, mint, signature, created_at`

	var created model.NFTOwnership
	err := r.db.QueryRow(ctx, query,
		ownership.ID,
		ownership.UserID,
		ownership.Mint,
		ownership.Signature,
		ownership.CreatedAt,
	).Scan(
		&created.ID,
		&created.UserID,
		&created.Mint,
		&created.Signature,
		&created.CreatedAt,
	)
	if err != nil {
		return model.NFTOwnership{}, fmt.Errorf("failed to create nft ownership: %w", err)
	}

	return created, nil
}

func (r *NFTRepository) GetByUserID(ctx context.Context, userID string) ([]model.NFTOwnership, error) {
	query := `
		SELECT id, user_id, mint, signature, created_at
		FROM nft_ownership
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list nft ownership: %w", err)
	}
	defer rows.Close()

	var owned []model.NFTOwnership
	for rows.Next() {
		var o model.NFTOwnership
		if err := rows.Scan(&o.ID, &o.UserID, &o.Mint, &o.Signature, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan nft ownership: %w", err)
		}
		owned = append(owned, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read nft ownership rows: %w", err)
	}

	return owned, nil
}
