package keystore

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/solstice-app/wallet-server/internal/keycrypt"
	"github.com/solstice-app/wallet-server/internal/model"
)

var _ model.Keystore = (*Record)(nil)

// Record is the production keystore. There is no separate key database: "the
// key" is the sealed envelope on the user's wallet record, unsealed per
// operation and discarded immediately. Key identifiers are base58 wallet
// addresses.
type Record struct {
	users      model.UserKeyStore
	crypt      *keycrypt.Service
	masterSeed []byte
}

// NewRecord constructs the record-backed keystore. masterSeed is optional and
// only consulted for deterministic generation requests.
func NewRecord(users model.UserKeyStore, crypt *keycrypt.Service, masterSeed []byte) *Record {
	return &Record{
		users:      users,
		crypt:      crypt,
		masterSeed: masterSeed,
	}
}

func (s *Record) GenerateKey(ctx context.Context, params model.GenerateKeyParams) (model.GeneratedKey, error) {
	if params.UserID == "" {
		return model.GeneratedKey{}, model.ErrValidation.Wrap(fmt.Errorf("user id is required for record-backed key generation"))
	}

	var priv solana.PrivateKey
	if params.DerivationPath != "" {
		derived, err := deriveKeypair(s.masterSeed, params.DerivationPath)
		if err != nil {
			return model.GeneratedKey{}, model.ErrValidation.Wrap(err)
		}
		priv = solana.PrivateKey(derived)
	} else {
		priv = solana.NewWallet().PrivateKey
	}

	ref := model.KeyReference{
		ID:        priv.PublicKey().String(),
		PublicKey: priv.PublicKey().String(),
		Algorithm: model.KeyAlgorithmEd25519,
		Usages:    []model.KeyUsage{model.KeyUsageSign, model.KeyUsageVerify},
		Metadata: model.KeyMetadata{
			UserID:         params.UserID,
			DerivationPath: params.DerivationPath,
			Label:          params.Label,
		},
	}
	return model.GeneratedKey{Ref: ref, PrivateKey: priv}, nil
}

func (s *Record) Sign(ctx context.Context, keyID string, message []byte) ([]byte, error) {
	priv, rec, err := s.unsealKey(ctx, keyID)
	if err != nil {
		return nil, err
	}
	defer zero(priv)

	sig := ed25519.Sign(ed25519.PrivateKey(priv), message)

	if err := s.users.TouchLastUsed(ctx, rec.UserID); err != nil {
		// Bookkeeping only; the signature is already produced.
		return sig, nil
	}
	return sig, nil
}

func (s *Record) GetKey(ctx context.Context, keyID string) (model.KeyReference, error) {
	rec, err := s.lookup(ctx, keyID)
	if err != nil {
		return model.KeyReference{}, err
	}
	return model.KeyReference{
		ID:        rec.WalletAddress,
		PublicKey: rec.WalletAddress,
		Algorithm: model.KeyAlgorithmEd25519,
		Usages:    []model.KeyUsage{model.KeyUsageSign, model.KeyUsageVerify},
		Metadata:  model.KeyMetadata{UserID: rec.UserID},
	}, nil
}

func (s *Record) Exists(ctx context.Context, keyID string) (bool, error) {
	_, err := s.users.GetByWalletAddress(ctx, keyID)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up key: %w", err)
	}
	return true, nil
}

// List is never available on the production keystore.
func (s *Record) List(ctx context.Context) ([]model.KeyReference, error) {
	return nil, model.ErrAccessDenied.WithDetail("operation", "list")
}

// Delete is never available on the production keystore.
func (s *Record) Delete(ctx context.Context, keyID string) error {
	return model.ErrAccessDenied.WithDetail("operation", "delete")
}

func (s *Record) lookup(ctx context.Context, keyID string) (model.UserKeyRecord, error) {
	rec, err := s.users.GetByWalletAddress(ctx, keyID)
	if errors.Is(err, model.ErrNotFound) {
		return model.UserKeyRecord{}, model.ErrKeyNotFound.WithDetail("key_id", keyID)
	}
	if err != nil {
		return model.UserKeyRecord{}, fmt.Errorf("failed to look up key: %w", err)
	}
	return rec, nil
}

// unsealKey resolves, unseals and integrity-checks a user key. The returned
// plaintext must be zeroed by the caller.
func (s *Record) unsealKey(ctx context.Context, keyID string) ([]byte, model.UserKeyRecord, error) {
	rec, err := s.lookup(ctx, keyID)
	if err != nil {
		return nil, model.UserKeyRecord{}, err
	}
	if rec.NeedsMigration() {
		return nil, model.UserKeyRecord{}, model.ErrMigrationRequired.WithDetail("user_id", rec.UserID)
	}

	sealed, err := keycrypt.DecodeSealedKey(rec.SealedKey)
	if err != nil {
		return nil, model.UserKeyRecord{}, err
	}
	plaintext, err := s.crypt.Unseal(sealed, rec.UserID)
	if err != nil {
		return nil, model.UserKeyRecord{}, err
	}
	if len(plaintext) != ed25519.PrivateKeySize {
		zero(plaintext)
		return nil, model.UserKeyRecord{}, model.ErrKeyIntegrityMismatch.WithDetail("user_id", rec.UserID)
	}

	priv := solana.PrivateKey(plaintext)
	if priv.PublicKey().String() != rec.WalletAddress {
		zero(plaintext)
		return nil, model.UserKeyRecord{}, model.ErrKeyIntegrityMismatch.WithDetail("user_id", rec.UserID)
	}
	return plaintext, rec, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
