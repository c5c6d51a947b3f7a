package handler

import (
	"net/http"
	"time"

	"github.com/solstice-app/wallet-server/internal/api/rest/middleware"
	"github.com/solstice-app/wallet-server/internal/logger"
	"github.com/solstice-app/wallet-server/internal/model"
	"github.com/solstice-app/wallet-server/internal/service"
)

// Wallet handles custodial wallet endpoints.
type Wallet struct {
	wallets *service.Wallet
	logger  *logger.Logger
}

// NewWallet creates the wallet handler.
func NewWallet(wallets *service.Wallet, logger *logger.Logger) *Wallet {
	return &Wallet{wallets: wallets, logger: logger}
}

type walletResponse struct {
	UserID         string    `json:"user_id"`
	PublicKey      string    `json:"public_key"`
	Status         string    `json:"status"`
	NeedsMigration bool      `json:"needs_migration"`
	CreatedAt      time.Time `json:"created_at"`
}

func toWalletResponse(w model.CustodialWallet) walletResponse {
	return walletResponse{
		UserID:         w.UserID,
		PublicKey:      w.PublicKey,
		Status:         string(w.Status),
		NeedsMigration: w.NeedsMigration,
		CreatedAt:      w.CreatedAt,
	}
}

// Create returns the caller's wallet, creating it on first request.
func (h *Wallet) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrValidation.WithDetail("reason", "missing user identity"))
		return
	}

	wallet, err := h.wallets.GetOrCreateWallet(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get or create wallet", "user_id", userID, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toWalletResponse(wallet))
}

// Deactivate marks the caller's wallet inactive.
func (h *Wallet) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrValidation.WithDetail("reason", "missing user identity"))
		return
	}

	if err := h.wallets.Deactivate(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
