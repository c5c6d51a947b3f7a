package chain

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/solstice-app/wallet-server/internal/model"
)

var _ model.ChainClient = (*Client)(nil)

const defaultPollInterval = 500 * time.Millisecond

// Client adapts the Solana JSON-RPC client to the model.ChainClient boundary.
type Client struct {
	rpc          *rpc.Client
	commitment   rpc.CommitmentType
	pollInterval time.Duration
}

// NewClient connects to the given RPC endpoint. commitment controls the
// consistency level of reads and confirmations ("confirmed" or "finalized").
func NewClient(endpoint string, commitment string) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("rpc endpoint is empty")
	}
	c := rpc.CommitmentType(commitment)
	switch c {
	case rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	case "":
		c = rpc.CommitmentConfirmed
	default:
		return nil, fmt.Errorf("unsupported commitment %q", commitment)
	}
	return &Client{
		rpc:          rpc.New(endpoint),
		commitment:   c,
		pollInterval: defaultPollInterval,
	}, nil
}

func (c *Client) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	out, err := c.rpc.GetBalance(ctx, account, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return out.Value, nil
}

func (c *Client) GetLatestBlockhash(ctx context.Context) (model.Blockhash, error) {
	out, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return model.Blockhash{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}
	return model.Blockhash{
		Hash:                 out.Value.Blockhash,
		LastValidBlockHeight: out.Value.LastValidBlockHeight,
	}, nil
}

func (c *Client) GetFeeForMessage(ctx context.Context, msg *solana.Message) (uint64, error) {
	data, err := msg.MarshalBinary()
	if err != nil {
		return 0, fmt.Errorf("failed to serialize message: %w", err)
	}
	out, err := c.rpc.GetFeeForMessage(ctx, base64.StdEncoding.EncodeToString(data), c.commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get fee for message: %w", err)
	}
	if out.Value == nil {
		return 0, model.ErrBlockhashExpired.Wrap(fmt.Errorf("fee unavailable for message blockhash"))
	}
	return *out.Value, nil
}

func (c *Client) GetTokenAccountBalance(ctx context.Context, tokenAccount solana.PublicKey) (uint64, error) {
	out, err := c.rpc.GetTokenAccountBalance(ctx, tokenAccount, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get token account balance: %w", err)
	}
	if out.Value == nil {
		return 0, fmt.Errorf("token account balance unavailable")
	}
	amount, err := strconv.ParseUint(out.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token amount %q: %w", out.Value.Amount, err)
	}
	return amount, nil
}

func (c *Client) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	_, err := c.rpc.GetAccountInfo(ctx, account)
	if errors.Is(err, rpc.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get account info: %w", err)
	}
	return true, nil
}

func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, model.ErrTransactionFailed.Wrap(err)
	}
	return sig, nil
}

// ConfirmTransaction polls signature status until the transaction reaches the
// configured commitment, definitively fails, or the chain's block height
// passes lastValidBlockHeight. The timeout outcome means "unknown", not
// "failed": the transaction can no longer land, but its absence is what
// expired, not its execution.
func (c *Client) ConfirmTransaction(ctx context.Context, sig solana.Signature, lastValidBlockHeight uint64) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		out, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			return fmt.Errorf("failed to get signature status: %w", err)
		}
		if len(out.Value) > 0 && out.Value[0] != nil {
			status := out.Value[0]
			if status.Err != nil {
				return model.ErrTransactionFailed.WithDetail("signature", sig.String())
			}
			if c.reached(status.ConfirmationStatus) {
				return nil
			}
		}

		height, err := c.rpc.GetBlockHeight(ctx, c.commitment)
		if err != nil {
			return fmt.Errorf("failed to get block height: %w", err)
		}
		if height > lastValidBlockHeight {
			return model.ErrConfirmationTimeout.WithDetail("signature", sig.String())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) reached(status rpc.ConfirmationStatusType) bool {
	if c.commitment == rpc.CommitmentFinalized {
		return status == rpc.ConfirmationStatusFinalized
	}
	return status == rpc.ConfirmationStatusConfirmed || status == rpc.ConfirmationStatusFinalized
}
