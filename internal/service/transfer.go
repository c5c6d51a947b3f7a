package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/solstice-app/wallet-server/internal/logger"
	"github.com/solstice-app/wallet-server/internal/model"
)

// Transfer orchestrates sponsored asset transfers for a user: it resolves the
// signing handle, delegates the fee-bearing submission to the sponsor and
// writes a best-effort audit entry.
type Transfer struct {
	wallets *Wallet
	sponsor *Sponsor
	audit   model.AuditStore
	logger  *logger.Logger
}

func NewTransfer(wallets *Wallet, sponsor *Sponsor, audit model.AuditStore, logger *logger.Logger) *Transfer {
	return &Transfer{
		wallets: wallets,
		sponsor: sponsor,
		audit:   audit,
		logger:  logger,
	}
}

// Send sponsors a native transfer of amount lamports to destination.
func (s *Transfer) Send(ctx context.Context, userID, destination string, amount uint64, priority model.Priority, memo string) (*model.SponsorTransactionRecord, error) {
	handle, err := s.wallets.KeypairForSigning(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer handle.Zero()

	record, err := s.sponsor.SponsorTransfer(ctx, model.OperationTransfer, handle, destination, amount, priority, memo)
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, userID, record, "transfer")
	return record, nil
}

// SendToken sponsors an SPL token transfer to destination, creating the
// destination's associated token account when missing.
func (s *Transfer) SendToken(ctx context.Context, userID, destination, mint string, amount uint64, decimals uint8, priority model.Priority) (*model.SponsorTransactionRecord, error) {
	handle, err := s.wallets.KeypairForSigning(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer handle.Zero()

	record, err := s.sponsor.SponsorTokenTransfer(ctx, model.OperationTokenTransfer, handle, destination, mint, amount, decimals, priority, "")
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, userID, record, "token_transfer")
	return record, nil
}

func (s *Transfer) appendAudit(ctx context.Context, userID string, record *model.SponsorTransactionRecord, purpose string) {
	entry := model.AuditEntry{
		ID:        uuid.New(),
		UserID:    userID,
		Signature: record.Signature,
		Purpose:   purpose,
		Status:    string(record.Outcome),
		Metadata:  map[string]string{"fee_paid": fmt.Sprintf("%d", record.FeePaid)},
		CreatedAt: record.CreatedAt,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		// The chain is the source of truth; bookkeeping failures never roll
		// back a confirmed transfer.
		s.logger.Error("failed to append audit entry", "user_id", userID, "signature", record.Signature, "error", err)
	}
}
