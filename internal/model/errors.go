package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrorCode identifies a failure class that crosses component boundaries.
type ErrorCode string

const (
	CodeValidation               ErrorCode = "validation"
	CodeEncryptionFailed         ErrorCode = "encryption_failed"
	CodeDecryptionFailed         ErrorCode = "decryption_failed"
	CodeMalformedSealedKey       ErrorCode = "malformed_sealed_key"
	CodeKeyIntegrityMismatch     ErrorCode = "key_integrity_mismatch"
	CodeKeyNotFound              ErrorCode = "key_not_found"
	CodeAccessDenied             ErrorCode = "access_denied"
	CodeWalletAlreadyExists      ErrorCode = "wallet_already_exists"
	CodeWalletInactive           ErrorCode = "wallet_inactive"
	CodeMigrationRequired        ErrorCode = "migration_required"
	CodeOperationDisabled        ErrorCode = "operation_disabled"
	CodeDailyBudgetExceeded      ErrorCode = "daily_budget_exceeded"
	CodeTotalBudgetExceeded      ErrorCode = "total_budget_exceeded"
	CodeUserLimitExceeded        ErrorCode = "user_limit_exceeded"
	CodeSponsorBalanceLow        ErrorCode = "sponsor_balance_low"
	CodeInsufficientTokenBalance ErrorCode = "insufficient_token_balance"
	CodeConfirmationTimeout      ErrorCode = "confirmation_timeout"
	CodeTransactionFailed        ErrorCode = "transaction_failed"
	CodeBlockhashExpired         ErrorCode = "blockhash_expired"
)

// Error is the structured error carried across component boundaries.
// Details never contain key material or the master secret.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.err }

// Is matches errors by code so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithDetail returns a copy of the error carrying an extra context pair.
func (e *Error) WithDetail(key, value string) *Error {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{Code: e.Code, Message: e.Message, Details: details, err: e.err}
}

// Wrap returns a copy of the error wrapping a lower-level cause.
func (e *Error) Wrap(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, err: err}
}

// NewError creates a structured error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Sentinel errors for errors.Is checks. Call sites attach context via
// WithDetail and Wrap rather than mutating these.
var (
	ErrValidation               = NewError(CodeValidation, "invalid input")
	ErrEncryptionFailed         = NewError(CodeEncryptionFailed, "encryption failed")
	ErrDecryptionFailed         = NewError(CodeDecryptionFailed, "decryption failed")
	ErrMalformedSealedKey       = NewError(CodeMalformedSealedKey, "malformed sealed key envelope")
	ErrKeyIntegrityMismatch     = NewError(CodeKeyIntegrityMismatch, "reconstructed public key does not match stored public key")
	ErrKeyNotFound              = NewError(CodeKeyNotFound, "key not found")
	ErrAccessDenied             = NewError(CodeAccessDenied, "operation not permitted in this configuration")
	ErrWalletAlreadyExists      = NewError(CodeWalletAlreadyExists, "wallet already exists for user")
	ErrWalletInactive           = NewError(CodeWalletInactive, "wallet is deactivated")
	ErrMigrationRequired        = NewError(CodeMigrationRequired, "wallet requires key migration before signing")
	ErrOperationDisabled        = NewError(CodeOperationDisabled, "operation kind is not enabled for sponsorship")
	ErrDailyBudgetExceeded      = NewError(CodeDailyBudgetExceeded, "daily sponsorship budget exhausted")
	ErrTotalBudgetExceeded      = NewError(CodeTotalBudgetExceeded, "total sponsorship budget exhausted")
	ErrUserLimitExceeded        = NewError(CodeUserLimitExceeded, "user daily sponsorship limit reached")
	ErrSponsorBalanceLow        = NewError(CodeSponsorBalanceLow, "sponsor balance below safety floor")
	ErrInsufficientTokenBalance = NewError(CodeInsufficientTokenBalance, "source token account balance too low")
	ErrConfirmationTimeout      = NewError(CodeConfirmationTimeout, "transaction not confirmed within block height horizon")
	ErrTransactionFailed        = NewError(CodeTransactionFailed, "transaction rejected by the network")
	ErrBlockhashExpired         = NewError(CodeBlockhashExpired, "transaction blockhash expired")
)
