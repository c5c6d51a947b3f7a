package keycrypt

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/solstice-app/wallet-server/internal/model"
)

// SealedKey is the textual envelope stored alongside the user record:
// base64 ciphertext, IV and authentication tag plus the algorithm name.
type SealedKey struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
	Tag        string `json:"tag"`
	Algorithm  string `json:"algorithm"`
}

func newSealedKey(ciphertext, iv, tag []byte) SealedKey {
	return SealedKey{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		IV:         base64.StdEncoding.EncodeToString(iv),
		Tag:        base64.StdEncoding.EncodeToString(tag),
		Algorithm:  Algorithm,
	}
}

// Encode serializes the envelope for storage.
func (k SealedKey) Encode() ([]byte, error) {
	data, err := json.Marshal(k)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sealed key: %w", err)
	}
	return data, nil
}

// DecodeSealedKey parses a stored envelope, validating that all four fields
// are present before returning.
func DecodeSealedKey(data []byte) (SealedKey, error) {
	var k SealedKey
	if err := json.Unmarshal(data, &k); err != nil {
		return SealedKey{}, model.ErrMalformedSealedKey.Wrap(err)
	}
	if k.Ciphertext == "" || k.IV == "" || k.Tag == "" || k.Algorithm == "" {
		return SealedKey{}, model.ErrMalformedSealedKey.Wrap(fmt.Errorf("envelope is missing required fields"))
	}
	return k, nil
}

// decode returns the raw envelope components, validating lengths.
func (k SealedKey) decode() (ciphertext, iv, tag []byte, err error) {
	if k.Ciphertext == "" || k.IV == "" || k.Tag == "" || k.Algorithm == "" {
		return nil, nil, nil, model.ErrMalformedSealedKey.Wrap(fmt.Errorf("envelope is missing required fields"))
	}
	ciphertext, err = base64.StdEncoding.DecodeString(k.Ciphertext)
	if err != nil {
		return nil, nil, nil, model.ErrMalformedSealedKey.Wrap(fmt.Errorf("invalid ciphertext encoding: %w", err))
	}
	iv, err = base64.StdEncoding.DecodeString(k.IV)
	if err != nil {
		return nil, nil, nil, model.ErrMalformedSealedKey.Wrap(fmt.Errorf("invalid iv encoding: %w", err))
	}
	tag, err = base64.StdEncoding.DecodeString(k.Tag)
	if err != nil {
		return nil, nil, nil, model.ErrMalformedSealedKey.Wrap(fmt.Errorf("invalid tag encoding: %w", err))
	}
	if len(iv) != ivSize {
		return nil, nil, nil, model.ErrMalformedSealedKey.Wrap(fmt.Errorf("iv must be %d bytes, got %d", ivSize, len(iv)))
	}
	if len(tag) != tagSize {
		return nil, nil, nil, model.ErrMalformedSealedKey.Wrap(fmt.Errorf("tag must be %d bytes, got %d", tagSize, len(tag)))
	}
	return ciphertext, iv, tag, nil
}
