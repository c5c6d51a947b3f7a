package handler

import (
	"net/http"
	"time"

	"github.com/solstice-app/wallet-server/internal/api/rest/middleware"
	"github.com/solstice-app/wallet-server/internal/logger"
	"github.com/solstice-app/wallet-server/internal/model"
	"github.com/solstice-app/wallet-server/internal/service"
)

// NFT handles sponsored NFT endpoints.
type NFT struct {
	nfts   *service.NFT
	logger *logger.Logger
}

// NewNFT creates the NFT handler.
func NewNFT(nfts *service.NFT, logger *logger.Logger) *NFT {
	return &NFT{nfts: nfts, logger: logger}
}

type mintRequest struct {
	Mint     string `json:"mint"`
	Priority string `json:"priority"`
}

type nftTransferRequest struct {
	Destination string `json:"destination"`
	Mint        string `json:"mint"`
	Priority    string `json:"priority"`
}

type ownershipResponse struct {
	Mint      string    `json:"mint"`
	Signature string    `json:"signature"`
	CreatedAt time.Time `json:"created_at"`
}

// Mint delivers one unit of the given mint to the caller's wallet.
func (h *NFT) Mint(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrValidation.WithDetail("reason", "missing user identity"))
		return
	}

	var req mintRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ownership, err := h.nfts.Mint(r.Context(), userID, req.Mint, model.Priority(req.Priority))
	if err != nil {
		h.logger.Error("sponsored mint failed", "user_id", userID, "mint", req.Mint, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ownershipResponse{
		Mint:      ownership.Mint,
		Signature: ownership.Signature,
		CreatedAt: ownership.CreatedAt,
	})
}

// Transfer sends one unit of the given mint to an external address.
func (h *NFT) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrValidation.WithDetail("reason", "missing user identity"))
		return
	}

	var req nftTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	record, err := h.nfts.Transfer(r.Context(), userID, req.Destination, req.Mint, model.Priority(req.Priority))
	if err != nil {
		h.logger.Error("sponsored nft transfer failed", "user_id", userID, "mint", req.Mint, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(record))
}

// Owned lists the caller's recorded NFTs.
func (h *NFT) Owned(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrValidation.WithDetail("reason", "missing user identity"))
		return
	}

	ownerships, err := h.nfts.Owned(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]ownershipResponse, 0, len(ownerships))
	for _, o := range ownerships {
		resp = append(resp, ownershipResponse{Mint: o.Mint, Signature: o.Signature, CreatedAt: o.CreatedAt})
	}
	writeJSON(w, http.StatusOK, resp)
}
