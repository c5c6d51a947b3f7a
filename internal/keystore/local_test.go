package keystore

import (
	"context"
	"crypto/ed25519"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solstice-app/wallet-server/internal/model"
)

func newTestLocal(t *testing.T, production bool) (*Local, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keystore.json")
	s, err := NewLocal(path, []byte("test-master-seed"), production)
	require.NoError(t, err)
	return s, path
}

func TestLocal_GenerateKey_Random(t *testing.T) {
	s, _ := newTestLocal(t, false)
	ctx := context.Background()

	generated, err := s.GenerateKey(ctx, model.GenerateKeyParams{UserID: "u1"})
	require.NoError(t, err)

	assert.NotEmpty(t, generated.Ref.ID)
	assert.Equal(t, generated.Ref.ID, generated.Ref.PublicKey)
	assert.Equal(t, model.KeyAlgorithmEd25519, generated.Ref.Algorithm)
	assert.Equal(t, "u1", generated.Ref.Metadata.UserID)
	assert.Len(t, generated.PrivateKey, ed25519.PrivateKeySize)

	exists, err := s.Exists(ctx, generated.Ref.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocal_GenerateKey_Deterministic(t *testing.T) {
	s, _ := newTestLocal(t, false)
	ctx := context.Background()

	first, err := s.GenerateKey(ctx, model.GenerateKeyParams{UserID: "u1", DerivationPath: "wallets/u1"})
	require.NoError(t, err)
	second, err := s.GenerateKey(ctx, model.GenerateKeyParams{UserID: "u1", DerivationPath: "wallets/u1"})
	require.NoError(t, err)
	other, err := s.GenerateKey(ctx, model.GenerateKeyParams{UserID: "u2", DerivationPath: "wallets/u2"})
	require.NoError(t, err)

	assert.Equal(t, first.Ref.PublicKey, second.Ref.PublicKey)
	assert.NotEqual(t, first.Ref.PublicKey, other.Ref.PublicKey)
	assert.Equal(t, "wallets/u1", first.Ref.Metadata.DerivationPath)
}

func TestLocal_Sign(t *testing.T) {
	s, _ := newTestLocal(t, false)
	ctx := context.Background()

	generated, err := s.GenerateKey(ctx, model.GenerateKeyParams{})
	require.NoError(t, err)

	message := []byte("message to sign")
	sig, err := s.Sign(ctx, generated.Ref.ID, message)
	require.NoError(t, err)

	pub := ed25519.PrivateKey(generated.PrivateKey).Public().(ed25519.PublicKey)
	assert.True(t, ed25519.Verify(pub, message, sig))

	again, err := s.Sign(ctx, generated.Ref.ID, message)
	require.NoError(t, err)
	assert.Equal(t, sig, again, "ed25519 signatures are deterministic")
}

func TestLocal_Sign_KeyNotFound(t *testing.T) {
	s, _ := newTestLocal(t, false)

	_, err := s.Sign(context.Background(), "unknown-key", []byte("msg"))
	assert.ErrorIs(t, err, model.ErrKeyNotFound)
}

func TestLocal_GetKey_KeyNotFound(t *testing.T) {
	s, _ := newTestLocal(t, false)

	_, err := s.GetKey(context.Background(), "unknown-key")
	assert.ErrorIs(t, err, model.ErrKeyNotFound)
}

func TestLocal_PersistenceAcrossRestart(t *testing.T) {
	s, path := newTestLocal(t, false)
	ctx := context.Background()

	generated, err := s.GenerateKey(ctx, model.GenerateKeyParams{UserID: "u1", Label: "dev wallet"})
	require.NoError(t, err)

	reloaded, err := NewLocal(path, nil, false)
	require.NoError(t, err)

	ref, err := reloaded.GetKey(ctx, generated.Ref.ID)
	require.NoError(t, err)
	assert.Equal(t, generated.Ref.PublicKey, ref.PublicKey)
	assert.Equal(t, "u1", ref.Metadata.UserID)
	assert.Equal(t, "dev wallet", ref.Metadata.Label)

	message := []byte("post-restart signing")
	sig, err := reloaded.Sign(ctx, generated.Ref.ID, message)
	require.NoError(t, err)
	pub := ed25519.PrivateKey(generated.PrivateKey).Public().(ed25519.PublicKey)
	assert.True(t, ed25519.Verify(pub, message, sig))
}

func TestLocal_ListDelete_Development(t *testing.T) {
	s, _ := newTestLocal(t, false)
	ctx := context.Background()

	generated, err := s.GenerateKey(ctx, model.GenerateKeyParams{})
	require.NoError(t, err)

	refs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, refs, 1)

	require.NoError(t, s.Delete(ctx, generated.Ref.ID))

	exists, err := s.Exists(ctx, generated.Ref.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	err = s.Delete(ctx, generated.Ref.ID)
	assert.ErrorIs(t, err, model.ErrKeyNotFound)
}

func TestLocal_ListDelete_ProductionDenied(t *testing.T) {
	s, _ := newTestLocal(t, true)
	ctx := context.Background()

	generated, err := s.GenerateKey(ctx, model.GenerateKeyParams{})
	require.NoError(t, err)

	_, err = s.List(ctx)
	assert.ErrorIs(t, err, model.ErrAccessDenied)

	err = s.Delete(ctx, generated.Ref.ID)
	assert.ErrorIs(t, err, model.ErrAccessDenied)

	// The key itself is still usable.
	exists, err := s.Exists(ctx, generated.Ref.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDeriveKeypair(t *testing.T) {
	seed := []byte("master seed")

	first, err := deriveKeypair(seed, "wallets/u1")
	require.NoError(t, err)
	second, err := deriveKeypair(seed, "wallets/u1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := deriveKeypair(seed, "wallets/u2")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	otherSeed, err := deriveKeypair([]byte("other seed"), "wallets/u1")
	require.NoError(t, err)
	assert.NotEqual(t, first, otherSeed)

	_, err = deriveKeypair(seed, "")
	assert.Error(t, err)

	_, err = deriveKeypair(seed, "wallets//u1")
	assert.Error(t, err)

	_, err = deriveKeypair(nil, "wallets/u1")
	assert.Error(t, err)
}
