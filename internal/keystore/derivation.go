package keystore

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"fmt"
	"strings"
)

// deriveKeypair derives an Ed25519 keypair deterministically from a master
// seed and a derivation path. Each path segment feeds one HMAC-SHA512 round,
// so "wallets/u1" and "wallets/u2" land on unrelated keys.
func deriveKeypair(masterSeed []byte, path string) (ed25519.PrivateKey, error) {
	if len(masterSeed) == 0 {
		return nil, fmt.Errorf("master seed is empty")
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, fmt.Errorf("derivation path is empty")
	}

	key := masterSeed
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			return nil, fmt.Errorf("derivation path %q has an empty segment", path)
		}
		mac := hmac.New(sha512.New, key)
		mac.Write([]byte(segment))
		key = mac.Sum(nil)
	}

	return ed25519.NewKeyFromSeed(key[:ed25519.SeedSize]), nil
}
