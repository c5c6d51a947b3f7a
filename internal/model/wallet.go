package model

import (
	"context"
	"time"
)

// WalletStatus enumerates lifecycle states of a custodial wallet record.
type WalletStatus string

const (
	// WalletStatusActive is a usable wallet with sealed key material.
	WalletStatusActive WalletStatus = "active"
	// WalletStatusNeedsMigration is a legacy record with a public key but no
	// sealed private key. Unusable for signing until migrated.
	WalletStatusNeedsMigration WalletStatus = "needs_migration"
	// WalletStatusInactive is an explicitly deactivated wallet. Key material
	// is preserved for audit; no signing is permitted.
	WalletStatusInactive WalletStatus = "inactive"
)

// UserKeyRecord is the persisted wallet row for one user. The wallet address,
// once set, is immutable and 1:1 with the sealed private key.
type UserKeyRecord struct {
	UserID        string
	WalletAddress string
	SealedKey     []byte
	Status        WalletStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastUsedAt    *time.Time
}

// HasWallet reports whether a public key has been bound to the record.
func (r UserKeyRecord) HasWallet() bool {
	return r.WalletAddress != ""
}

// NeedsMigration reports whether the record is a legacy wallet: public key
// present, sealed private key absent.
func (r UserKeyRecord) NeedsMigration() bool {
	return r.WalletAddress != "" && len(r.SealedKey) == 0
}

// CustodialWallet is the caller-facing view of a user's wallet.
type CustodialWallet struct {
	UserID         string
	PublicKey      string
	Status         WalletStatus
	NeedsMigration bool
	CreatedAt      time.Time
}

// UserKeyStore defines persistence operations for user wallet records.
type UserKeyStore interface {
	GetByUserID(ctx context.Context, userID string) (UserKeyRecord, error)
	GetByWalletAddress(ctx context.Context, address string) (UserKeyRecord, error)
	// SetWalletKey binds a wallet address and sealed key to a user in a single
	// statement, guarded so the address is set at most once per user. Returns
	// ErrWalletAlreadyExists when the record already carries an address.
	SetWalletKey(ctx context.Context, userID, walletAddress string, sealedKey []byte) (UserKeyRecord, error)
	// SetSealedKey attaches sealed key material to an existing record. Used by
	// the external migration tool for legacy wallets.
	SetSealedKey(ctx context.Context, userID string, sealedKey []byte) error
	Deactivate(ctx context.Context, userID string) error
	TouchLastUsed(ctx context.Context, userID string) error
}
