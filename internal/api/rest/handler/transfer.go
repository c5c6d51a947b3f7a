package handler

import (
	"net/http"
	"time"

	"github.com/solstice-app/wallet-server/internal/api/rest/middleware"
	"github.com/solstice-app/wallet-server/internal/logger"
	"github.com/solstice-app/wallet-server/internal/model"
	"github.com/solstice-app/wallet-server/internal/service"
)

// Transfer handles sponsored transfer endpoints.
type Transfer struct {
	transfers *service.Transfer
	logger    *logger.Logger
}

// NewTransfer creates the transfer handler.
func NewTransfer(transfers *service.Transfer, logger *logger.Logger) *Transfer {
	return &Transfer{transfers: transfers, logger: logger}
}

type sendRequest struct {
	Destination string `json:"destination"`
	Amount      uint64 `json:"amount"`
	Priority    string `json:"priority"`
	Memo        string `json:"memo"`
}

type sendTokenRequest struct {
	Destination string `json:"destination"`
	Mint        string `json:"mint"`
	Amount      uint64 `json:"amount"`
	Decimals    uint8  `json:"decimals"`
	Priority    string `json:"priority"`
}

type transactionResponse struct {
	Signature       string    `json:"signature"`
	FeePaid         uint64    `json:"fee_paid"`
	PriorityFeePaid uint64    `json:"priority_fee_paid"`
	Operation       string    `json:"operation"`
	Outcome         string    `json:"outcome"`
	CreatedAt       time.Time `json:"created_at"`
}

func toTransactionResponse(r *model.SponsorTransactionRecord) transactionResponse {
	return transactionResponse{
		Signature:       r.Signature,
		FeePaid:         r.FeePaid,
		PriorityFeePaid: r.PriorityFeePaid,
		Operation:       string(r.Operation),
		Outcome:         string(r.Outcome),
		CreatedAt:       r.CreatedAt,
	}
}

// Send sponsors a native transfer from the caller's wallet.
func (h *Transfer) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrValidation.WithDetail("reason", "missing user identity"))
		return
	}

	var req sendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	record, err := h.transfers.Send(r.Context(), userID, req.Destination, req.Amount, model.Priority(req.Priority), req.Memo)
	if err != nil {
		h.logger.Error("sponsored transfer failed", "user_id", userID, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(record))
}

// SendToken sponsors a token transfer from the caller's wallet.
func (h *Transfer) SendToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrValidation.WithDetail("reason", "missing user identity"))
		return
	}

	var req sendTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	record, err := h.transfers.SendToken(r.Context(), userID, req.Destination, req.Mint, req.Amount, req.Decimals, model.Priority(req.Priority))
	if err != nil {
		h.logger.Error("sponsored token transfer failed", "user_id", userID, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(record))
}
