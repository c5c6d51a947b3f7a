package postgres

import (
	"context"
	"fmt"

	"github.com/solstice-app/wallet-server/internal/model"
)

var _ model.StakingStore = (*StakingRepository)(nil)

// StakingRepository persists staking positions.
type StakingRepository struct {
	db *Connection
}

func NewStakingRepository(db *Connection) *StakingRepository {
	return &StakingRepository{db: db}
}

func (r *StakingRepository) Create(ctx context.Context, position model.StakingPosition) (model.StakingPosition, error) {
	query := `
		INSERT INTO staking_positions (id, user_id, pool, amount, signature, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, pool, amount, signature, created_at`

	var created model.StakingPosition
	err := r.db.QueryRow(ctx, query,
		position.ID,
		position.UserID,
		position.Pool,
		position.Amount,
		position.Signature,
		position.CreatedAt,
	).Scan(
		&created.ID,
		&created.UserID,
		&created.Pool,
		&created.Amount,
		&created.Signature,
		&created.CreatedAt,
	)
	if err != nil {
		return model.StakingPosition{}, fmt.Errorf("failed to create staking position: %w", err)
	}

	return created, nil
}

func (r *StakingRepository) GetByUserID(ctx context.Context, userID string) ([]model.StakingPosition, error) {
	query := `
		SELECT id, user_id, pool, amount, signature, created_at
		FROM staking_positions
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list staking positions: %w", err)
	}
	defer rows.Close()

	var positions []model.StakingPosition
	for rows.Next() {
		var p model.StakingPosition
		if err := rows.Scan(&p.ID, &p.UserID, &p.Pool, &p.Amount, &p.Signature, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan staking position: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read staking position rows: %w", err)
	}

	return positions, nil
}
