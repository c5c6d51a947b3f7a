package keystore

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/solstice-app/wallet-server/internal/model"
)

var _ model.Keystore = (*Local)(nil)

// Local is the development keystore: raw key bytes held in memory, persisted
// to a local JSON file on every mutation so state survives restarts. It is
// single-process only. List and Delete are disabled when production is set.
type Local struct {
	mu         sync.RWMutex
	keys       map[string]localKey
	path       string
	masterSeed []byte
	production bool
}

type localKey struct {
	Priv solana.PrivateKey
	Ref  model.KeyReference
}

// localKeyFile is the on-disk representation of one key.
type localKeyFile struct {
	ID             string            `json:"id"`
	PrivateKey     string            `json:"private_key"`
	UserID         string            `json:"user_id,omitempty"`
	DerivationPath string            `json:"derivation_path,omitempty"`
	Label          string            `json:"label,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// NewLocal loads any previously persisted keys from path. masterSeed enables
// deterministic derivation; it may be nil when only random generation is
// needed.
func NewLocal(path string, masterSeed []byte, production bool) (*Local, error) {
	if path == "" {
		return nil, fmt.Errorf("keystore file path is empty")
	}
	s := &Local{
		keys:       make(map[string]localKey),
		path:       path,
		masterSeed: masterSeed,
		production: production,
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("failed to load keystore file: %w", err)
	}
	return s, nil
}

func (s *Local) GenerateKey(ctx context.Context, params model.GenerateKeyParams) (model.GeneratedKey, error) {
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

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[ref.ID]; ok && params.DerivationPath == "" {
		return model.GeneratedKey{}, fmt.Errorf("key %s already exists", ref.ID)
	}
	s.keys[ref.ID] = localKey{Priv: priv, Ref: ref}
	if err := s.persistLocked(); err != nil {
		delete(s.keys, ref.ID)
		return model.GeneratedKey{}, err
	}

	// The caller seals this copy immediately; the keystore retains its own.
	privCopy := make([]byte, len(priv))
	copy(privCopy, priv)
	return model.GeneratedKey{Ref: ref, PrivateKey: privCopy}, nil
}

func (s *Local) Sign(ctx context.Context, keyID string, message []byte) ([]byte, error) {
	s.mu.RLock()
	key, ok := s.keys[keyID]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrKeyNotFound.WithDetail("key_id", keyID)
	}
	return ed25519.Sign(ed25519.PrivateKey(key.Priv), message), nil
}

func (s *Local) GetKey(ctx context.Context, keyID string) (model.KeyReference, error) {
	s.mu.RLock()
	key, ok := s.keys[keyID]
	s.mu.RUnlock()
	if !ok {
		return model.KeyReference{}, model.ErrKeyNotFound.WithDetail("key_id", keyID)
	}
	return key.Ref, nil
}

func (s *Local) Exists(ctx context.Context, keyID string) (bool, error) {
	s.mu.RLock()
	_, ok := s.keys[keyID]
	s.mu.RUnlock()
	return ok, nil
}

func (s *Local) List(ctx context.Context) ([]model.KeyReference, error) {
	if s.production {
		return nil, model.ErrAccessDenied.WithDetail("operation", "list")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	refs := make([]model.KeyReference, 0, len(s.keys))
	for _, key := range s.keys {
		refs = append(refs, key.Ref)
	}
	return refs, nil
}

func (s *Local) Delete(ctx context.Context, keyID string) error {
	if s.production {
		return model.ErrAccessDenied.WithDetail("operation", "delete")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.keys[keyID]
	if !ok {
		return model.ErrKeyNotFound.WithDetail("key_id", keyID)
	}
	delete(s.keys, keyID)
	if err := s.persistLocked(); err != nil {
		s.keys[keyID] = key
		return err
	}
	return nil
}

func (s *Local) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var entries []localKeyFile
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse keystore file: %w", err)
	}

	for _, entry := range entries {
		priv, err := solana.PrivateKeyFromBase58(entry.PrivateKey)
		if err != nil {
			return fmt.Errorf("invalid private key for %s: %w", entry.ID, err)
		}
		s.keys[entry.ID] = localKey{
			Priv: priv,
			Ref: model.KeyReference{
				ID:        entry.ID,
				PublicKey: priv.PublicKey().String(),
				Algorithm: model.KeyAlgorithmEd25519,
				Usages:    []model.KeyUsage{model.KeyUsageSign, model.KeyUsageVerify},
				Metadata: model.KeyMetadata{
					UserID:         entry.UserID,
					DerivationPath: entry.DerivationPath,
					Label:          entry.Label,
					Extra:          entry.Extra,
				},
			},
		}
	}
	return nil
}

func (s *Local) persistLocked() error {
	entries := make([]localKeyFile, 0, len(s.keys))
	for _, key := range s.keys {
		entries = append(entries, localKeyFile{
			ID:             key.Ref.ID,
			PrivateKey:     key.Priv.String(),
			UserID:         key.Ref.Metadata.UserID,
			DerivationPath: key.Ref.Metadata.DerivationPath,
			Label:          key.Ref.Metadata.Label,
			Extra:          key.Ref.Metadata.Extra,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal keystore: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create keystore directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write keystore file: %w", err)
	}
	return nil
}
