package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/mr-tron/base58"

	"github.com/solstice-app/wallet-server/internal/chain"
	"github.com/solstice-app/wallet-server/internal/logger"
	"github.com/solstice-app/wallet-server/internal/model"
)

const (
	dailyWindow = 24 * time.Hour

	// defaultComputeUnits is the unit budget assumed when converting a
	// compute-unit price into a lamport amount for accounting.
	defaultComputeUnits = 200_000

	microLamportsPerLamport = 1_000_000
)

// SponsorLimits configures the budget and rate-limit policy.
type SponsorLimits struct {
	DailyBudget  uint64
	TotalBudget  uint64
	MaxUserDaily uint32
	MinBalance   uint64

	EnabledOperations []model.OperationKind

	BaseFeeMicroLamports uint64
	PriorityMultipliers  map[model.Priority]uint64
}

// Sponsor decides whether an operation may be fee-sponsored, then constructs,
// co-signs, submits and confirms it, paying the fee from the dedicated
// funding key. Budget counters track intended spend; the funding key itself
// is only ever debited by the network.
type Sponsor struct {
	chain    model.ChainClient
	feePayer *model.SigningHandle
	txStore  model.SponsorTxStore
	audit    model.AuditStore
	logger   *logger.Logger
	clock    clock.Clock
	limits   SponsorLimits
	enabled  map[model.OperationKind]bool

	// mu guards all budget state. Check-then-increment and check-then-reset
	// are single critical sections; no spend is ever recorded against a stale
	// daily window.
	mu     sync.Mutex
	budget budgetState
}

type budgetState struct {
	totalSpent uint64
	dailySpent uint64
	totalCount uint64
	dailyCount uint64
	userDaily  map[string]uint32
	lastReset  time.Time
}

// NewSponsor creates the sponsor service.
func NewSponsor(
	chainClient model.ChainClient,
	feePayer *model.SigningHandle,
	txStore model.SponsorTxStore,
	audit model.AuditStore,
	logger *logger.Logger,
	clk clock.Clock,
	limits SponsorLimits,
) *Sponsor {
	enabled := make(map[model.OperationKind]bool, len(limits.EnabledOperations))
	for _, op := range limits.EnabledOperations {
		enabled[op] = true
	}
	if limits.PriorityMultipliers == nil {
		limits.PriorityMultipliers = map[model.Priority]uint64{
			model.PriorityLow:    1,
			model.PriorityMedium: 5,
			model.PriorityHigh:   10,
		}
	}
	return &Sponsor{
		chain:    chainClient,
		feePayer: feePayer,
		txStore:  txStore,
		audit:    audit,
		logger:   logger,
		clock:    clk,
		limits:   limits,
		enabled:  enabled,
		budget: budgetState{
			userDaily: make(map[string]uint32),
			lastReset: clk.Now(),
		},
	}
}

// CanSponsor evaluates the sponsorship policy for a user and operation kind
// without mutating any state: operation allow-list, daily ceiling, total
// ceiling, per-user daily cap, then the live funding balance floor. The first
// failing check short-circuits.
func (s *Sponsor) CanSponsor(ctx context.Context, userPublicKey string, op model.OperationKind) (bool, error) {
	s.mu.Lock()
	s.maybeResetLocked()
	err := s.checkLocked(userPublicKey, op, 0)
	s.mu.Unlock()
	if err != nil {
		return false, err
	}

	balance, err := s.chain.GetBalance(ctx, s.feePayer.PublicKey())
	if err != nil {
		return false, fmt.Errorf("failed to check sponsor balance: %w", err)
	}
	if balance < s.limits.MinBalance {
		return false, model.ErrSponsorBalanceLow
	}
	return true, nil
}

// Usage returns a snapshot of the budget state.
func (s *Sponsor) Usage() model.BudgetUsage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maybeResetLocked()
	return model.BudgetUsage{
		TotalSpent:  s.budget.totalSpent,
		DailySpent:  s.budget.dailySpent,
		TotalCount:  s.budget.totalCount,
		DailyCount:  s.budget.dailyCount,
		LastReset:   s.budget.lastReset,
		ActiveUsers: len(s.budget.userDaily),
	}
}

// SponsorTransfer pays the fee for a native transfer of amount lamports from
// the user's address to destination. op must be a native-transfer kind
// (transfer or stake). Blocks until network confirmation.
func (s *Sponsor) SponsorTransfer(
	ctx context.Context,
	op model.OperationKind,
	handle *model.SigningHandle,
	destination string,
	amount uint64,
	priority model.Priority,
	memo string,
) (*model.SponsorTransactionRecord, error) {
	if op != model.OperationTransfer && op != model.OperationStake {
		return nil, model.ErrValidation.WithDetail("operation", string(op))
	}
	if handle == nil {
		return nil, model.ErrValidation.Wrap(fmt.Errorf("signing handle is nil"))
	}
	destPub, err := parseAddress(destination)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, model.ErrValidation.Wrap(fmt.Errorf("amount must be positive"))
	}

	instructions := []solana.Instruction{
		chain.TransferInstruction(handle.PublicKey(), destPub, amount),
	}
	if memo != "" {
		instructions = append(instructions, chain.MemoInstruction(memo, handle.PublicKey()))
	}

	return s.submit(ctx, op, handle.PublicKey().String(), priority, instructions, handle)
}

// SponsorTokenTransfer pays the fee for an SPL token transfer. The
// destination's associated token account is created by the sponsor when
// missing, and the source balance is verified before anything is submitted.
func (s *Sponsor) SponsorTokenTransfer(
	ctx context.Context,
	op model.OperationKind,
	handle *model.SigningHandle,
	destination string,
	mint string,
	amount uint64,
	decimals uint8,
	priority model.Priority,
	memo string,
) (*model.SponsorTransactionRecord, error) {
	if op != model.OperationTokenTransfer && op != model.OperationNFTTransfer {
		return nil, model.ErrValidation.WithDetail("operation", string(op))
	}
	if handle == nil {
		return nil, model.ErrValidation.Wrap(fmt.Errorf("signing handle is nil"))
	}
	return s.tokenTransfer(ctx, op, handle.PublicKey().String(), handle, destination, mint, amount, decimals, priority, memo)
}

// SponsorGrant transfers amount units of mint from the sponsor's own treasury
// token account to a user's wallet, with the recipient charged against the
// budget. Used for NFT mints where the service holds the minted supply.
func (s *Sponsor) SponsorGrant(
	ctx context.Context,
	op model.OperationKind,
	recipientPublicKey string,
	mint string,
	amount uint64,
	decimals uint8,
	priority model.Priority,
) (*model.SponsorTransactionRecord, error) {
	if op != model.OperationNFTMint {
		return nil, model.ErrValidation.WithDetail("operation", string(op))
	}
	if _, err := parseAddress(recipientPublicKey); err != nil {
		return nil, err
	}
	return s.tokenTransfer(ctx, op, recipientPublicKey, s.feePayer, recipientPublicKey, mint, amount, decimals, priority, "")
}

func (s *Sponsor) tokenTransfer(
	ctx context.Context,
	op model.OperationKind,
	budgetUser string,
	owner *model.SigningHandle,
	destination string,
	mint string,
	amount uint64,
	decimals uint8,
	priority model.Priority,
	memo string,
) (*model.SponsorTransactionRecord, error) {
	destPub, err := parseAddress(destination)
	if err != nil {
		return nil, err
	}
	mintPub, err := parseAddress(mint)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, model.ErrValidation.Wrap(fmt.Errorf("amount must be positive"))
	}

	sourceAccount, err := chain.FindTokenAccount(owner.PublicKey(), mintPub)
	if err != nil {
		return nil, err
	}
	destAccount, err := chain.FindTokenAccount(destPub, mintPub)
	if err != nil {
		return nil, err
	}

	// Fail fast on a doomed transfer before anything reaches the network.
	balance, err := s.chain.GetTokenAccountBalance(ctx, sourceAccount)
	if err != nil {
		return nil, fmt.Errorf("failed to check source token balance: %w", err)
	}
	if balance < amount {
		return nil, model.ErrInsufficientTokenBalance.
			WithDetail("available", fmt.Sprintf("%d", balance)).
			WithDetail("requested", fmt.Sprintf("%d", amount))
	}

	var instructions []solana.Instruction
	exists, err := s.chain.AccountExists(ctx, destAccount)
	if err != nil {
		return nil, fmt.Errorf("failed to check destination token account: %w", err)
	}
	if !exists {
		// The sponsor funds the account creation, not the user.
		instructions = append(instructions, chain.CreateTokenAccountInstruction(s.feePayer.PublicKey(), destPub, mintPub))
	}
	instructions = append(instructions, chain.TokenTransferInstruction(sourceAccount, mintPub, destAccount, owner.PublicKey(), amount, decimals))
	if memo != "" {
		instructions = append(instructions, chain.MemoInstruction(memo, owner.PublicKey()))
	}

	return s.submit(ctx, op, budgetUser, priority, instructions, owner)
}

// submit runs the shared sponsorship pipeline: price the transaction,
// atomically reserve budget, co-sign, send and confirm, then record the
// outcome. Each step's failure short-circuits the remainder.
func (s *Sponsor) submit(
	ctx context.Context,
	op model.OperationKind,
	budgetUser string,
	priority model.Priority,
	instructions []solana.Instruction,
	userSigner model.TxSigner,
) (*model.SponsorTransactionRecord, error) {
	unitPrice, err := s.priorityPrice(priority)
	if err != nil {
		return nil, err
	}
	instructions = append([]solana.Instruction{chain.PriorityFeeInstruction(unitPrice)}, instructions...)

	blockhash, err := s.chain.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get blockhash: %w", err)
	}

	tx, err := chain.BuildTransaction(instructions, blockhash, s.feePayer.PublicKey())
	if err != nil {
		return nil, err
	}

	baseFee, err := s.chain.GetFeeForMessage(ctx, &tx.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate fee: %w", err)
	}
	priorityFee := unitPrice * defaultComputeUnits / microLamportsPerLamport
	totalFee := baseFee + priorityFee

	// Live balance floor: counters track intended spend, the chain debits the
	// real balance, so reconcile against it before committing more.
	balance, err := s.chain.GetBalance(ctx, s.feePayer.PublicKey())
	if err != nil {
		return nil, fmt.Errorf("failed to check sponsor balance: %w", err)
	}
	if balance < s.limits.MinBalance || balance-s.limits.MinBalance < totalFee {
		return nil, model.ErrSponsorBalanceLow
	}

	if err := s.reserve(budgetUser, op, totalFee); err != nil {
		return nil, err
	}

	if err := chain.SignTransaction(tx, s.feePayer, userSigner); err != nil {
		s.release(budgetUser, totalFee)
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := s.chain.SendTransaction(ctx, tx)
	if err != nil {
		s.release(budgetUser, totalFee)
		return nil, err
	}

	record := model.SponsorTransactionRecord{
		ID:               uuid.New(),
		Signature:        sig.String(),
		FeePaid:          totalFee,
		PriorityFeePaid:  priorityFee,
		SponsorPublicKey: s.feePayer.PublicKey().String(),
		UserPublicKey:    budgetUser,
		Operation:        op,
		CreatedAt:        s.clock.Now(),
	}

	if err := s.chain.ConfirmTransaction(ctx, sig, blockhash.LastValidBlockHeight); err != nil {
		if errors.Is(err, model.ErrTransactionFailed) {
			// Definitely rejected: the fee was not paid.
			s.release(budgetUser, totalFee)
			return nil, err
		}
		// Unknown outcome: keep the reservation so the budget stays
		// conservative, and record what we know.
		record.Outcome = model.TxOutcomeUnknown
		s.persistRecord(ctx, record)
		return nil, err
	}

	record.Outcome = model.TxOutcomeConfirmed
	s.persistRecord(ctx, record)
	return &record, nil
}

func (s *Sponsor) persistRecord(ctx context.Context, record model.SponsorTransactionRecord) {
	if err := s.txStore.Create(ctx, record); err != nil {
		s.logger.Error("failed to persist sponsor transaction record",
			"signature", record.Signature, "error", err)
	}
	if s.audit == nil {
		return
	}
	entry := model.AuditEntry{
		ID:        uuid.New(),
		UserID:    record.UserPublicKey,
		Signature: record.Signature,
		Purpose:   string(record.Operation),
		Status:    string(record.Outcome),
		Metadata: map[string]string{
			"fee_paid":     fmt.Sprintf("%d", record.FeePaid),
			"priority_fee": fmt.Sprintf("%d", record.PriorityFeePaid),
		},
		CreatedAt: record.CreatedAt,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append audit entry", "signature", record.Signature, "error", err)
	}
}

func (s *Sponsor) priorityPrice(priority model.Priority) (uint64, error) {
	if priority == "" {
		priority = model.PriorityMedium
	}
	mult, ok := s.limits.PriorityMultipliers[priority]
	if !ok {
		return 0, model.ErrValidation.WithDetail("priority", string(priority))
	}
	return s.limits.BaseFeeMicroLamports * mult, nil
}

// checkLocked evaluates the policy checks in order. fee is the amount about to
// be reserved; zero means "is there any headroom at all".
func (s *Sponsor) checkLocked(userKey string, op model.OperationKind, fee uint64) error {
	if !s.enabled[op] {
		return model.ErrOperationDisabled.WithDetail("operation", string(op))
	}
	if s.budget.dailySpent >= s.limits.DailyBudget || s.limits.DailyBudget-s.budget.dailySpent < fee {
		return model.ErrDailyBudgetExceeded
	}
	if s.budget.totalSpent >= s.limits.TotalBudget || s.limits.TotalBudget-s.budget.totalSpent < fee {
		return model.ErrTotalBudgetExceeded
	}
	if s.budget.userDaily[userKey] >= s.limits.MaxUserDaily {
		return model.ErrUserLimitExceeded
	}
	return nil
}

// reserve atomically re-checks the policy and commits the spend. Nothing is
// mutated when any check fails.
func (s *Sponsor) reserve(userKey string, op model.OperationKind, fee uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maybeResetLocked()
	if err := s.checkLocked(userKey, op, fee); err != nil {
		return err
	}
	s.budget.dailySpent += fee
	s.budget.totalSpent += fee
	s.budget.dailyCount++
	s.budget.totalCount++
	s.budget.userDaily[userKey]++
	return nil
}

// release undoes a reservation after a definite failure. Counters floor at
// zero: a daily reset may have zeroed them in between.
func (s *Sponsor) release(userKey string, fee uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.budget.dailySpent >= fee {
		s.budget.dailySpent -= fee
	} else {
		s.budget.dailySpent = 0
	}
	if s.budget.totalSpent >= fee {
		s.budget.totalSpent -= fee
	} else {
		s.budget.totalSpent = 0
	}
	if s.budget.dailyCount > 0 {
		s.budget.dailyCount--
	}
	if s.budget.totalCount > 0 {
		s.budget.totalCount--
	}
	if s.budget.userDaily[userKey] > 0 {
		s.budget.userDaily[userKey]--
	}
}

// maybeResetLocked starts a new daily window once 24 hours have elapsed.
// Caller holds mu, so the reset is atomic with any concurrent spend.
func (s *Sponsor) maybeResetLocked() {
	now := s.clock.Now()
	if now.Sub(s.budget.lastReset) < dailyWindow {
		return
	}
	s.budget.dailySpent = 0
	s.budget.dailyCount = 0
	s.budget.userDaily = make(map[string]uint32)
	s.budget.lastReset = now
}

// parseAddress validates a base58 address and decodes it to a public key.
func parseAddress(address string) (solana.PublicKey, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return solana.PublicKey{}, model.ErrValidation.Wrap(fmt.Errorf("invalid base58 address: %w", err))
	}
	if len(raw) != solana.PublicKeyLength {
		return solana.PublicKey{}, model.ErrValidation.Wrap(fmt.Errorf("address must decode to %d bytes, got %d", solana.PublicKeyLength, len(raw)))
	}
	return solana.PublicKeyFromBytes(raw), nil
}
