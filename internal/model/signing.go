package model

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// TxSigner signs transaction messages for one public key. Implemented by
// SigningHandle (user keys) and by the sponsor's fee-payer key.
type TxSigner interface {
	PublicKey() solana.PublicKey
	SignMessage(message []byte) (solana.Signature, error)
}

// SigningHandle wraps an unsealed user signing key. Callers use it to co-sign
// transactions without receiving the raw key bytes. Handles are short-lived:
// obtain one per operation and Zero it when done.
type SigningHandle struct {
	priv solana.PrivateKey
}

// NewSigningHandle wraps an Ed25519 private key.
func NewSigningHandle(priv solana.PrivateKey) *SigningHandle {
	return &SigningHandle{priv: priv}
}

// PublicKey returns the public half of the wrapped key.
func (h *SigningHandle) PublicKey() solana.PublicKey {
	return h.priv.PublicKey()
}

// SignMessage signs a serialized transaction message.
func (h *SigningHandle) SignMessage(message []byte) (solana.Signature, error) {
	if len(h.priv) == 0 {
		return solana.Signature{}, fmt.Errorf("signing handle is zeroed")
	}
	sig, err := h.priv.Sign(message)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign message: %w", err)
	}
	return sig, nil
}

// Zero overwrites the wrapped key bytes. The handle is unusable afterwards.
func (h *SigningHandle) Zero() {
	for i := range h.priv {
		h.priv[i] = 0
	}
	h.priv = nil
}
