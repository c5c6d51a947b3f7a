package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/solstice-app/wallet-server/internal/logger"
	"github.com/solstice-app/wallet-server/internal/model"
)

// NFT orchestrates sponsored NFT operations. Minted supply is held by the
// sponsor's treasury; a mint delivers one unit to the user's wallet. The
// ownership row is written only after on-chain confirmation.
type NFT struct {
	wallets *Wallet
	sponsor *Sponsor
	nfts    model.NFTStore
	audit   model.AuditStore
	logger  *logger.Logger
}

func NewNFT(wallets *Wallet, sponsor *Sponsor, nfts model.NFTStore, audit model.AuditStore, logger *logger.Logger) *NFT {
	return &NFT{
		wallets: wallets,
		sponsor: sponsor,
		nfts:    nfts,
		audit:   audit,
		logger:  logger,
	}
}

// Mint delivers one unit of mint to the user's wallet, creating the wallet
// and its token account as needed, all fees paid by the sponsor.
func (s *NFT) Mint(ctx context.Context, userID, mint string, priority model.Priority) (*model.NFTOwnership, error) {
	wallet, err := s.wallets.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet.NeedsMigration {
		return nil, model.ErrMigrationRequired.WithDetail("user_id", userID)
	}

	record, err := s.sponsor.SponsorGrant(ctx, model.OperationNFTMint, wallet.PublicKey, mint, 1, 0, priority)
	if err != nil {
		return nil, err
	}

	ownership, err := s.nfts.Create(ctx, model.NFTOwnership{
		ID:        uuid.New(),
		UserID:    userID,
		Mint:      mint,
		Signature: record.Signature,
		CreatedAt: record.CreatedAt,
	})
	if err != nil {
		// The token already moved on chain; surface the persistence failure
		// instead of pretending the mint did not happen.
		return nil, fmt.Errorf("nft minted on chain (%s) but ownership record failed: %w", record.Signature, err)
	}

	s.appendAudit(ctx, userID, record.Signature, "nft_mint", string(record.Outcome))
	return &ownership, nil
}

// Transfer sends one unit of mint from the user's wallet to an external
// address, fee-sponsored.
func (s *NFT) Transfer(ctx context.Context, userID, destination, mint string, priority model.Priority) (*model.SponsorTransactionRecord, error) {
	handle, err := s.wallets.KeypairForSigning(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer handle.Zero()

	record, err := s.sponsor.SponsorTokenTransfer(ctx, model.OperationNFTTransfer, handle, destination, mint, 1, 0, priority, "")
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, userID, record.Signature, "nft_transfer", string(record.Outcome))
	return record, nil
}

// Owned lists the user's recorded NFT ownership rows.
func (s *NFT) Owned(ctx context.Context, userID string) ([]model.NFTOwnership, error) {
	ownerships, err := s.nfts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get nft ownerships: %w", err)
	}
	return ownerships, nil
}

func (s *NFT) appendAudit(ctx context.Context, userID, signature, purpose, status string) {
	entry := model.AuditEntry{
		ID:        uuid.New(),
		UserID:    userID,
		Signature: signature,
		Purpose:   purpose,
		Status:    status,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append audit entry", "user_id", userID, "signature", signature, "error", err)
	}
}
