package chain

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/solstice-app/wallet-server/internal/model"
)

// LoadFeePayer reads the sponsor's funding keypair from a Solana keygen file.
// The file is loaded once at process start; absence is a fatal startup error.
func LoadFeePayer(path string) (*model.SigningHandle, error) {
	if path == "" {
		return nil, fmt.Errorf("sponsor key file path is empty")
	}
	priv, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load sponsor key from %s: %w", path, err)
	}
	return model.NewSigningHandle(priv), nil
}
