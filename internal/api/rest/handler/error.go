package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/solstice-app/wallet-server/internal/model"
)

type errorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// statusForCode maps structured error codes to HTTP statuses. Unknown codes
// and unstructured errors are internal.
func statusForCode(code model.ErrorCode) int {
	switch code {
	case model.CodeValidation, model.CodeInsufficientTokenBalance:
		return http.StatusBadRequest
	case model.CodeAccessDenied, model.CodeOperationDisabled:
		return http.StatusForbidden
	case model.CodeKeyNotFound:
		return http.StatusNotFound
	case model.CodeWalletAlreadyExists, model.CodeWalletInactive, model.CodeMigrationRequired:
		return http.StatusConflict
	case model.CodeDailyBudgetExceeded, model.CodeTotalBudgetExceeded, model.CodeUserLimitExceeded:
		return http.StatusTooManyRequests
	case model.CodeSponsorBalanceLow:
		return http.StatusServiceUnavailable
	case model.CodeTransactionFailed:
		return http.StatusBadGateway
	case model.CodeConfirmationTimeout, model.CodeBlockhashExpired:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	var domainErr *model.Error
	if errors.As(err, &domainErr) {
		writeJSON(w, statusForCode(domainErr.Code), errorResponse{
			Error:   domainErr.Message,
			Code:    string(domainErr.Code),
			Details: domainErr.Details,
		})
		return
	}

	if errors.Is(err, model.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "record not found"})
		return
	}

	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.ErrValidation.Wrap(err)
	}
	return nil
}
