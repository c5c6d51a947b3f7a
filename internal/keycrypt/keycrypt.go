package keycrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/solstice-app/wallet-server/internal/model"
)

const (
	// Algorithm tags the envelope format.
	Algorithm = "aes-256-gcm"

	keySize    = 32
	ivSize     = 16
	tagSize    = 16
	iterations = 100_000

	// saltDomain binds the per-user salt derivation to this subsystem so the
	// same master secret used elsewhere cannot produce colliding keys.
	saltDomain = "solstice-wallet-key:v1|"
)

// Service performs envelope encryption of private key material with a
// per-user key derived from a single master secret. Compromising one user's
// ciphertext and the master secret is insufficient without the user id bound
// into the derivation.
type Service struct {
	masterSecret []byte
}

// New validates the master secret and constructs the service. The secret must
// be a 64-character hex string; absence or malformation is fatal here rather
// than surfacing per call.
func New(masterSecretHex string) (*Service, error) {
	if masterSecretHex == "" {
		return nil, model.ErrEncryptionFailed.Wrap(fmt.Errorf("master secret is empty"))
	}
	secret, err := hex.DecodeString(masterSecretHex)
	if err != nil {
		return nil, model.ErrEncryptionFailed.Wrap(fmt.Errorf("master secret is not valid hex: %w", err))
	}
	if len(secret) != keySize {
		return nil, model.ErrEncryptionFailed.Wrap(fmt.Errorf("master secret must be %d bytes, got %d", keySize, len(secret)))
	}
	return &Service{masterSecret: secret}, nil
}

// Seal encrypts plaintext key bytes for a user. Every call draws a fresh
// random IV; the IV is never reused.
func (s *Service) Seal(plaintext []byte, userID string) (SealedKey, error) {
	if len(plaintext) == 0 {
		return SealedKey{}, model.ErrValidation.Wrap(fmt.Errorf("plaintext is empty"))
	}
	if userID == "" {
		return SealedKey{}, model.ErrValidation.Wrap(fmt.Errorf("user id is empty"))
	}

	gcm, err := s.cipherForUser(userID)
	if err != nil {
		return SealedKey{}, err
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return SealedKey{}, model.ErrEncryptionFailed.Wrap(fmt.Errorf("failed to generate iv: %w", err))
	}

	sealed := gcm.Seal(nil, iv, plaintext, nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	return newSealedKey(ciphertext, iv, tag), nil
}

// Unseal re-derives the user's key and decrypts the envelope. A failed tag
// check fails closed with ErrDecryptionFailed; no partial plaintext is ever
// returned.
func (s *Service) Unseal(sealed SealedKey, userID string) ([]byte, error) {
	if userID == "" {
		return nil, model.ErrValidation.Wrap(fmt.Errorf("user id is empty"))
	}
	ciphertext, iv, tag, err := sealed.decode()
	if err != nil {
		return nil, err
	}
	if sealed.Algorithm != Algorithm {
		return nil, model.ErrDecryptionFailed.Wrap(fmt.Errorf("unsupported algorithm %q", sealed.Algorithm))
	}

	gcm, err := s.cipherForUser(userID)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return nil, model.ErrDecryptionFailed.Wrap(fmt.Errorf("authentication tag verification failed"))
	}
	return plaintext, nil
}

func (s *Service) cipherForUser(userID string) (cipher.AEAD, error) {
	key := s.deriveUserKey(userID)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, model.ErrEncryptionFailed.Wrap(fmt.Errorf("failed to create cipher: %w", err))
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, model.ErrEncryptionFailed.Wrap(fmt.Errorf("failed to create gcm: %w", err))
	}
	return gcm, nil
}

// deriveUserKey derives the per-user 256-bit encryption key. The salt is
// deterministic per user so the same key is recovered for decryption.
func (s *Service) deriveUserKey(userID string) []byte {
	salt := sha256.Sum256([]byte(saltDomain + userID))
	return pbkdf2.Key(s.masterSecret, salt[:], iterations, keySize, sha256.New)
}
