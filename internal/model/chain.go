package model

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Blockhash is a recent blockhash plus the block height horizon within which
// a transaction built on it remains valid.
type Blockhash struct {
	Hash                 solana.Hash
	LastValidBlockHeight uint64
}

// ChainClient is the boundary to the blockchain RPC service. Treated as a
// possibly-slow, possibly-failing remote collaborator; every call takes a
// context and may block.
type ChainClient interface {
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (Blockhash, error)
	GetFeeForMessage(ctx context.Context, msg *solana.Message) (uint64, error)
	GetTokenAccountBalance(ctx context.Context, tokenAccount solana.PublicKey) (uint64, error)
	AccountExists(ctx context.Context, account solana.PublicKey) (bool, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	// ConfirmTransaction blocks until the signature is confirmed, the block
	// height passes lastValidBlockHeight (ErrConfirmationTimeout), the chain
	// rejects the transaction (ErrTransactionFailed), or ctx is done.
	ConfirmTransaction(ctx context.Context, sig solana.Signature, lastValidBlockHeight uint64) error
}
