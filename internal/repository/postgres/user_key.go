package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/solstice-app/wallet-server/internal/model"
)

var _ model.UserKeyStore = (*UserKeyRepository)(nil)

// UserKeyRepository persists user wallet records.
type UserKeyRepository struct {
	db *Connection
}

func NewUserKeyRepository(db *Connection) *UserKeyRepository {
	return &UserKeyRepository{db: db}
}

const userKeyColumns = `user_id, COALESCE(wallet_address, ''), COALESCE(sealed_key, ''::bytea), status, created_at, updated_at, last_used_at`

func scanUserKey(row pgx.Row) (model.UserKeyRecord, error) {
	var record model.UserKeyRecord
	err := row.Scan(
		&record.UserID,
		&record.WalletAddress,
		&record.SealedKey,
		&record.Status,
		&record.CreatedAt,
		&record.UpdatedAt,
		&record.LastUsedAt,
	)
	return record, err
}

func (r *UserKeyRepository) GetByUserID(ctx context.Context, userID string) (model.UserKeyRecord, error) {
	query := `SELECT ` + userKeyColumns + ` FROM user_wallets WHERE user_id = $1`

	record, err := scanUserKey(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.UserKeyRecord{}, model.ErrNotFound
		}
		return model.UserKeyRecord{}, fmt.Errorf("failed to get wallet record: %w", err)
	}

	return record, nil
}

func (r *UserKeyRepository) GetByWalletAddress(ctx context.Context, address string) (model.UserKeyRecord, error) {
	query := `SELECT ` + userKeyColumns + ` FROM user_wallets WHERE wallet_address = $1`

	record, err := scanUserKey(r.db.QueryRow(ctx, query, address))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.UserKeyRecord{}, model.ErrNotFound
		}
		return model.UserKeyRecord{}, fmt.Errorf("failed to get wallet record by address: %w", err)
	}

	return record, nil
}

// SetWalletKey binds an address and sealed key to the user's row. The update
// is guarded on wallet_address IS NULL so a concurrent writer can win at most
// once; the loser observes zero affected rows and gets ErrWalletAlreadyExists.
func (r *UserKeyRepository) SetWalletKey(ctx context.Context, userID, walletAddress string, sealedKey []byte) (model.UserKeyRecord, error) {
	insert := `INSERT INTO user_wallets (user_id, status) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`

	if _, err := r.db.Exec(ctx, insert, userID, model.WalletStatusActive); err != nil {
		return model.UserKeyRecord{}, fmt.Errorf("failed to insert wallet record: %w", err)
	}

	update := `
		UPDATE user_wallets
		SET wallet_address = $2, sealed_key = $3, status = $4, updated_at = now()
		WHERE user_id = $1 AND wallet_address IS NULL
		RETURNING ` + userKeyColumns

	record, err := scanUserKey(r.db.QueryRow(ctx, update, userID, walletAddress, sealedKey, model.WalletStatusActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.UserKeyRecord{}, model.ErrWalletAlreadyExists
		}
		return model.UserKeyRecord{}, fmt.Errorf("failed to bind wallet key: %w", err)
	}

	return record, nil
}

func (r *UserKeyRepository) SetSealedKey(ctx context.Context, userID string, sealedKey []byte) error {
	query := `
		UPDATE user_wallets
		SET sealed_key = $2, status = $3, updated_at = now()
		WHERE user_id = $1 AND wallet_address IS NOT NULL`

	tag, err := r.db.Exec(ctx, query, userID, sealedKey, model.WalletStatusActive)
	if err != nil {
		return fmt.Errorf("failed to set sealed key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *UserKeyRepository) Deactivate(ctx context.Context, userID string) error {
	query := `UPDATE user_wallets SET status = $2, updated_at = now() WHERE user_id = $1`

	tag, err := r.db.Exec(ctx, query, userID, model.WalletStatusInactive)
	if err != nil {
		return fmt.Errorf("failed to deactivate wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *UserKeyRepository) TouchLastUsed(ctx context.Context, userID string) error {
	query := `UPDATE user_wallets SET last_used_at = now() WHERE user_id = $1`

	tag, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to update last used time: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}
