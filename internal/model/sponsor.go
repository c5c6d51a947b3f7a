package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OperationKind enumerates sponsorable operation types. The sponsor service
// only underwrites kinds present in the configured allow-list.
type OperationKind string

const (
	OperationTransfer      OperationKind = "transfer"
	OperationTokenTransfer OperationKind = "token_transfer"
	OperationNFTMint       OperationKind = "nft_mint"
	OperationNFTTransfer   OperationKind = "nft_transfer"
	OperationStake         OperationKind = "stake"
)

// Priority selects the priority-fee tier attached to a sponsored transaction.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// TxOutcome records how a sponsored transaction ended.
type TxOutcome string

const (
	TxOutcomeConfirmed TxOutcome = "confirmed"
	// TxOutcomeUnknown means the confirmation horizon elapsed: the transaction
	// may still land. Distinct from a definite on-chain rejection.
	TxOutcomeUnknown TxOutcome = "unknown"
)

// SponsorTransactionRecord is the immutable fact produced per sponsored
// operation. Created once on submission, never mutated.
type SponsorTransactionRecord struct {
	ID               uuid.UUID
	Signature        string
	FeePaid          uint64
	PriorityFeePaid  uint64
	SponsorPublicKey string
	UserPublicKey    string
	Operation        OperationKind
	Outcome          TxOutcome
	CreatedAt        time.Time
}

// SponsorTxStore persists sponsor transaction records.
type SponsorTxStore interface {
	Create(ctx context.Context, record SponsorTransactionRecord) error
}

// BudgetUsage is a point-in-time snapshot of the sponsor budget state.
type BudgetUsage struct {
	TotalSpent  uint64
	DailySpent  uint64
	TotalCount  uint64
	DailyCount  uint64
	LastReset   time.Time
	ActiveUsers int
}

// AuditEntry is an append-only bookkeeping row written per sponsored or
// domain operation. Best-effort: a failed write never rolls back a confirmed
// on-chain effect.
type AuditEntry struct {
	ID        uuid.UUID
	UserID    string
	Signature string
	Purpose   string
	Status    string
	Metadata  map[string]string
	CreatedAt time.Time
}

// AuditStore appends audit entries. Read access is not part of the core.
type AuditStore interface {
	Append(ctx context.Context, entry AuditEntry) error
}
