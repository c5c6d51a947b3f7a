package model

import (
	"context"
)

// KeyUsage enumerates what a key reference may be used for.
type KeyUsage string

const (
	KeyUsageSign   KeyUsage = "sign"
	KeyUsageVerify KeyUsage = "verify"
)

// KeyAlgorithmEd25519 is the signing algorithm used for all custodial keys.
const KeyAlgorithmEd25519 = "ed25519"

// KeyMetadata carries optional, explicitly enumerated attributes of a key
// reference plus an opaque extension map. DerivationPath is set if and only
// if the key was derived deterministically.
type KeyMetadata struct {
	UserID         string
	DerivationPath string
	Label          string
	Extra          map[string]string
}

// KeyReference is an opaque handle to a keypair. It never carries private
// key bytes; every reference resolves back to exactly one underlying keypair.
type KeyReference struct {
	ID        string
	PublicKey string
	Algorithm string
	Usages    []KeyUsage
	Metadata  KeyMetadata
}

// GenerateKeyParams controls key generation.
type GenerateKeyParams struct {
	// UserID binds the generated key to a user. Recorded in metadata.
	UserID string
	// DerivationPath, when non-empty, requests deterministic derivation from
	// the keystore's master seed instead of a random source.
	DerivationPath string
	Label          string
}

// GeneratedKey is the result of key generation. PrivateKey is transient: the
// caller must seal or discard it immediately and zero the slice. It is only
// exposed here because the wallet generator is the custodian that performs
// envelope encryption before persistence.
type GeneratedKey struct {
	Ref        KeyReference
	PrivateKey []byte
}

// Keystore is the key-management capability shared by the development and
// production implementations. Key identifiers are opaque; Sign never exposes
// private key bytes to the caller.
type Keystore interface {
	GenerateKey(ctx context.Context, params GenerateKeyParams) (GeneratedKey, error)
	// Sign produces a deterministic Ed25519 signature over message. Fails with
	// ErrKeyNotFound when keyID is unknown.
	Sign(ctx context.Context, keyID string, message []byte) ([]byte, error)
	GetKey(ctx context.Context, keyID string) (KeyReference, error)
	Exists(ctx context.Context, keyID string) (bool, error)
	// List and Delete fail with ErrAccessDenied in production configurations.
	List(ctx context.Context) ([]KeyReference, error)
	Delete(ctx context.Context, keyID string) error
}
