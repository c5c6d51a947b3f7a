package handler

import (
	"net/http"
	"time"

	"github.com/solstice-app/wallet-server/internal/api/rest/middleware"
	"github.com/solstice-app/wallet-server/internal/logger"
	"github.com/solstice-app/wallet-server/internal/model"
	"github.com/solstice-app/wallet-server/internal/service"
)

// Staking handles sponsored staking endpoints.
type Staking struct {
	staking *service.Staking
	logger  *logger.Logger
}

// NewStaking creates the staking handler.
func NewStaking(staking *service.Staking, logger *logger.Logger) *Staking {
	return &Staking{staking: staking, logger: logger}
}

type stakeRequest struct {
	Pool     string `json:"pool"`
	Amount   uint64 `json:"amount"`
	Priority string `json:"priority"`
}

type positionResponse struct {
	Pool      string    `json:"pool"`
	Amount    uint64    `json:"amount"`
	Signature string    `json:"signature"`
	CreatedAt time.Time `json:"created_at"`
}

// Stake sponsors a deposit into a staking pool.
func (h *Staking) Stake(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrValidation.WithDetail("reason", "missing user identity"))
		return
	}

	var req stakeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	position, err := h.staking.Stake(r.Context(), userID, req.Pool, req.Amount, model.Priority(req.Priority))
	if err != nil {
		h.logger.Error("sponsored stake failed", "user_id", userID, "pool", req.Pool, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, positionResponse{
		Pool:      position.Pool,
		Amount:    position.Amount,
		Signature: position.Signature,
		CreatedAt: position.CreatedAt,
	})
}

// Positions lists the caller's recorded staking positions.
func (h *Staking) Positions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrValidation.WithDetail("reason", "missing user identity"))
		return
	}

	positions, err := h.staking.Positions(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]positionResponse, 0, len(positions))
	for _, p := range positions {
		resp = append(resp, positionResponse{Pool: p.Pool, Amount: p.Amount, Signature: p.Signature, CreatedAt: p.CreatedAt})
	}
	writeJSON(w, http.StatusOK, resp)
}
