package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/solstice-app/wallet-server/internal/logger"
	"github.com/solstice-app/wallet-server/internal/model"
)

// Staking orchestrates sponsored stake deposits into a pool. The position
// row is written only after on-chain confirmation.
type Staking struct {
	wallets   *Wallet
	sponsor   *Sponsor
	positions model.StakingStore
	audit     model.AuditStore
	logger    *logger.Logger
}

func NewStaking(wallets *Wallet, sponsor *Sponsor, positions model.StakingStore, audit model.AuditStore, logger *logger.Logger) *Staking {
	return &Staking{
		wallets:   wallets,
		sponsor:   sponsor,
		positions: positions,
		audit:     audit,
		logger:    logger,
	}
}

// Stake sponsors a deposit of amount lamports into the pool's deposit
// address and records the resulting position.
func (s *Staking) Stake(ctx context.Context, userID, pool string, amount uint64, priority model.Priority) (*model.StakingPosition, error) {
	handle, err := s.wallets.KeypairForSigning(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer handle.Zero()

	record, err := s.sponsor.SponsorTransfer(ctx, model.OperationStake, handle, pool, amount, priority, "stake deposit")
	if err != nil {
		return nil, err
	}

	position, err := s.positions.Create(ctx, model.StakingPosition{
		ID:        uuid.New(),
		UserID:    userID,
		Pool:      pool,
		Amount:    amount,
		Signature: record.Signature,
		CreatedAt: record.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("stake confirmed on chain (%s) but position record failed: %w", record.Signature, err)
	}

	s.appendAudit(ctx, userID, record, amount)
	return &position, nil
}

// Positions lists the user's recorded staking positions.
func (s *Staking) Positions(ctx context.Context, userID string) ([]model.StakingPosition, error) {
	positions, err := s.positions.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get staking positions: %w", err)
	}
	return positions, nil
}

func (s *Staking) appendAudit(ctx context.Context, userID string, record *model.SponsorTransactionRecord, amount uint64) {
	entry := model.AuditEntry{
		ID:        uuid.New(),
		UserID:    userID,
		Signature: record.Signature,
		Purpose:   "stake",
		Status:    string(record.Outcome),
		Metadata:  map[string]string{"amount": fmt.Sprintf("%d", amount)},
		CreatedAt: record.CreatedAt,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append audit entry", "user_id", userID, "signature", record.Signature, "error", err)
	}
}
