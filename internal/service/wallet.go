package service

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/solstice-app/wallet-server/internal/keycrypt"
	"github.com/solstice-app/wallet-server/internal/logger"
	"github.com/solstice-app/wallet-server/internal/model"
)

// Wallet generates and resolves custodial wallets: it orchestrates key
// generation, envelope encryption and the compare-and-set persistence that
// guarantees one wallet per user.
type Wallet struct {
	users            model.UserKeyStore
	keystore         model.Keystore
	crypt            *keycrypt.Service
	backups          model.BackupStorage
	logger           *logger.Logger
	derivationPrefix string
}

// NewWallet creates the wallet service. backups may be nil to disable sealed
// snapshot uploads. derivationPrefix enables deterministic key derivation;
// leave empty when the keystore has no master seed.
func NewWallet(
	users model.UserKeyStore,
	keystore model.Keystore,
	crypt *keycrypt.Service,
	backups model.BackupStorage,
	logger *logger.Logger,
	derivationPrefix string,
) *Wallet {
	return &Wallet{
		users:            users,
		keystore:         keystore,
		crypt:            crypt,
		backups:          backups,
		logger:           logger,
		derivationPrefix: derivationPrefix,
	}
}

// GetOrCreateWallet returns the user's wallet, creating it on first request.
// Idempotent: an existing wallet is returned unchanged, including one flagged
// for migration. Two concurrent calls for a fresh user resolve to a single
// persisted wallet through the store's compare-and-set guard.
func (s *Wallet) GetOrCreateWallet(ctx context.Context, userID string) (model.CustodialWallet, error) {
	if userID == "" {
		return model.CustodialWallet{}, model.ErrValidation.Wrap(fmt.Errorf("user id is empty"))
	}

	rec, err := s.users.GetByUserID(ctx, userID)
	if err == nil && rec.HasWallet() {
		return walletView(rec), nil
	}
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.CustodialWallet{}, fmt.Errorf("failed to get user record: %w", err)
	}

	params := model.GenerateKeyParams{UserID: userID}
	if s.derivationPrefix != "" {
		params.DerivationPath = s.derivationPrefix + "/" + userID
	}
	generated, err := s.keystore.GenerateKey(ctx, params)
	if err != nil {
		return model.CustodialWallet{}, fmt.Errorf("failed to generate key: %w", err)
	}

	sealed, err := s.crypt.Seal(generated.PrivateKey, userID)
	zeroBytes(generated.PrivateKey)
	if err != nil {
		return model.CustodialWallet{}, err
	}
	sealedData, err := sealed.Encode()
	if err != nil {
		return model.CustodialWallet{}, err
	}

	rec, err = s.users.SetWalletKey(ctx, userID, generated.Ref.PublicKey, sealedData)
	if errors.Is(err, model.ErrWalletAlreadyExists) {
		// Lost the race: another request created the wallet first.
		existing, getErr := s.users.GetByUserID(ctx, userID)
		if getErr != nil {
			return model.CustodialWallet{}, fmt.Errorf("failed to get wallet after creation race: %w", getErr)
		}
		return walletView(existing), nil
	}
	if err != nil {
		return model.CustodialWallet{}, fmt.Errorf("failed to persist wallet: %w", err)
	}

	s.uploadBackup(ctx, rec)

	return walletView(rec), nil
}

// KeypairForSigning unseals the user's key and returns a signing handle. The
// reconstructed public key is verified against the stored wallet address; a
// mismatch is a fatal integrity error, never silently trusted. The caller
// must Zero the handle when done.
func (s *Wallet) KeypairForSigning(ctx context.Context, userID string) (*model.SigningHandle, error) {
	if userID == "" {
		return nil, model.ErrValidation.Wrap(fmt.Errorf("user id is empty"))
	}

	rec, err := s.users.GetByUserID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user record: %w", err)
	}
	if !rec.HasWallet() {
		return nil, model.ErrNotFound
	}
	if rec.Status == model.WalletStatusInactive {
		return nil, model.ErrWalletInactive.WithDetail("user_id", userID)
	}
	if rec.NeedsMigration() {
		return nil, model.ErrMigrationRequired.WithDetail("user_id", userID)
	}

	sealed, err := keycrypt.DecodeSealedKey(rec.SealedKey)
	if err != nil {
		return nil, err
	}
	plaintext, err := s.crypt.Unseal(sealed, userID)
	if err != nil {
		return nil, err
	}
	if len(plaintext) != ed25519.PrivateKeySize {
		zeroBytes(plaintext)
		return nil, model.ErrKeyIntegrityMismatch.WithDetail("user_id", userID)
	}

	priv := solana.PrivateKey(plaintext)
	if priv.PublicKey().String() != rec.WalletAddress {
		zeroBytes(plaintext)
		return nil, model.ErrKeyIntegrityMismatch.WithDetail("user_id", userID)
	}

	if err := s.users.TouchLastUsed(ctx, userID); err != nil {
		s.logger.Warn("failed to update last-used timestamp", "user_id", userID, "error", err)
	}

	return model.NewSigningHandle(priv), nil
}

// Deactivate marks the wallet inactive. Key material is preserved for audit;
// there is no re-activation path.
func (s *Wallet) Deactivate(ctx context.Context, userID string) error {
	if userID == "" {
		return model.ErrValidation.Wrap(fmt.Errorf("user id is empty"))
	}
	if err := s.users.Deactivate(ctx, userID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to deactivate wallet: %w", err)
	}
	return nil
}

// walletSnapshot is the backup object format. It carries only ciphertext.
type walletSnapshot struct {
	UserID    string          `json:"user_id"`
	PublicKey string          `json:"public_key"`
	SealedKey json.RawMessage `json:"sealed_key"`
	CreatedAt time.Time       `json:"created_at"`
}

// uploadBackup writes a sealed snapshot to object storage. Best-effort: a
// failure is logged and never blocks wallet creation.
func (s *Wallet) uploadBackup(ctx context.Context, rec model.UserKeyRecord) {
	if s.backups == nil {
		return
	}
	snapshot := walletSnapshot{
		UserID:    rec.UserID,
		PublicKey: rec.WalletAddress,
		SealedKey: rec.SealedKey,
		CreatedAt: rec.CreatedAt,
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.Error("failed to marshal wallet snapshot", "user_id", rec.UserID, "error", err)
		return
	}
	key := "wallets/" + rec.UserID + ".json"
	if err := s.backups.Upload(ctx, key, bytes.NewReader(data)); err != nil {
		s.logger.Error("failed to upload wallet snapshot", "user_id", rec.UserID, "error", err)
	}
}

func walletView(rec model.UserKeyRecord) model.CustodialWallet {
	status := rec.Status
	needsMigration := false
	if status != model.WalletStatusInactive && rec.NeedsMigration() {
		status = model.WalletStatusNeedsMigration
		needsMigration = true
	}
	return model.CustodialWallet{
		UserID:         rec.UserID,
		PublicKey:      rec.WalletAddress,
		Status:         status,
		NeedsMigration: needsMigration,
		CreatedAt:      rec.CreatedAt,
	}
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
