package model

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// NFTOwnership is a domain record written after an NFT mint or transfer has
// been confirmed on chain. The chain is the source of truth; this row is a
// read model for the application.
type NFTOwnership struct {
	ID        uuid.UUID
	UserID    string
	Mint      string
	Signature string
	CreatedAt time.Time
}

// NFTStore persists NFT ownership rows.
type NFTStore interface {
	Create(ctx context.Context, ownership NFTOwnership) (NFTOwnership, error)
	GetByUserID(ctx context.Context, userID string) ([]NFTOwnership, error)
}

// StakingPosition is a domain record for a confirmed stake deposit.
type StakingPosition struct {
	ID        uuid.UUID
	UserID    string
	Pool      string
	Amount    uint64
	Signature string
	CreatedAt time.Time
}

// StakingStore persists staking positions.
type StakingStore interface {
	Create(ctx context.Context, position StakingPosition) (StakingPosition, error)
	GetByUserID(ctx context.Context, userID string) ([]StakingPosition, error)
}

// BackupStorage stores sealed wallet snapshots in object storage. Snapshots
// contain only ciphertext; losing the storage never exposes key material.
type BackupStorage interface {
	Upload(ctx context.Context, key string, reader io.Reader) error
	Exists(ctx context.Context, key string) (bool, error)
}
