package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/solstice-app/wallet-server/internal/api/rest/middleware"
	"github.com/solstice-app/wallet-server/internal/logger"
	"github.com/solstice-app/wallet-server/internal/model"
	"github.com/solstice-app/wallet-server/internal/service"
)

// Sponsor exposes read-only sponsorship state.
type Sponsor struct {
	sponsor *service.Sponsor
	wallets *service.Wallet
	logger  *logger.Logger
}

// NewSponsor creates the sponsor handler.
func NewSponsor(sponsor *service.Sponsor, wallets *service.Wallet, logger *logger.Logger) *Sponsor {
	return &Sponsor{sponsor: sponsor, wallets: wallets, logger: logger}
}

type usageResponse struct {
	TotalSpent  uint64    `json:"total_spent"`
	DailySpent  uint64    `json:"daily_spent"`
	TotalCount  uint64    `json:"total_count"`
	DailyCount  uint64    `json:"daily_count"`
	LastReset   time.Time `json:"last_reset"`
	ActiveUsers int       `json:"active_users"`
}

type eligibilityResponse struct {
	Eligible  bool   `json:"eligible"`
	Operation string `json:"operation"`
	Reason    string `json:"reason,omitempty"`
}

// Usage returns a snapshot of the budget counters.
func (h *Sponsor) Usage(w http.ResponseWriter, r *http.Request) {
	usage := h.sponsor.Usage()
	writeJSON(w, http.StatusOK, usageResponse{
		TotalSpent:  usage.TotalSpent,
		DailySpent:  usage.DailySpent,
		TotalCount:  usage.TotalCount,
		DailyCount:  usage.DailyCount,
		LastReset:   usage.LastReset,
		ActiveUsers: usage.ActiveUsers,
	})
}

// Eligibility reports whether the caller's next operation of the given kind
// would be sponsored. A negative answer is a valid response, not an error.
func (h *Sponsor) Eligibility(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrValidation.WithDetail("reason", "missing user identity"))
		return
	}

	op := model.OperationKind(r.URL.Query().Get("operation"))
	if op == "" {
		writeError(w, model.ErrValidation.WithDetail("operation", "missing"))
		return
	}

	wallet, err := h.wallets.GetOrCreateWallet(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	eligible, err := h.sponsor.CanSponsor(r.Context(), wallet.PublicKey, op)
	if err != nil {
		var domainErr *model.Error
		if errors.As(err, &domainErr) {
			writeJSON(w, http.StatusOK, eligibilityResponse{
				Eligible:  false,
				Operation: string(op),
				Reason:    string(domainErr.Code),
			})
			return
		}
		h.logger.Error("eligibility check failed", "user_id", userID, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, eligibilityResponse{Eligible: eligible, Operation: string(op)})
}
