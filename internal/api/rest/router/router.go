package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/solstice-app/wallet-server/internal/api/rest/handler"
	"github.com/solstice-app/wallet-server/internal/api/rest/middleware"
	"github.com/solstice-app/wallet-server/internal/logger"
	"github.com/solstice-app/wallet-server/internal/model"
	"github.com/solstice-app/wallet-server/internal/service"
)

// Router wires handlers and middleware into an HTTP handler.
type Router struct {
	wallets   *service.Wallet
	transfers *service.Transfer
	nfts      *service.NFT
	staking   *service.Staking
	sponsor   *service.Sponsor
	tokens    model.TokenManager
	logger    *logger.Logger
}

// New creates a Router over the given services.
func New(
	wallets *service.Wallet,
	transfers *service.Transfer,
	nfts *service.NFT,
	staking *service.Staking,
	sponsor *service.Sponsor,
	tokens model.TokenManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		wallets:   wallets,
		transfers: transfers,
		nfts:      nfts,
		staking:   staking,
		sponsor:   sponsor,
		tokens:    tokens,
		logger:    logger,
	}
}

// Register builds the HTTP handler: all routes under /v1 require a bearer
// token; the health probe does not.
func (r *Router) Register() http.Handler {
	walletHandler := handler.NewWallet(r.wallets, r.logger)
	transferHandler := handler.NewTransfer(r.transfers, r.logger)
	nftHandler := handler.NewNFT(r.nfts, r.logger)
	stakingHandler := handler.NewStaking(r.staking, r.logger)
	sponsorHandler := handler.NewSponsor(r.sponsor, r.wallets, r.logger)

	authenticate := middleware.NewAuthenticate(r.tokens, r.logger)
	logging := middleware.NewLogging(r.logger)

	root := mux.NewRouter()
	root.Use(logging.Handle)
	root.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	api := root.PathPrefix("/v1").Subrouter()
	api.Use(authenticate.Handle)

	api.HandleFunc("/wallet", walletHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/wallet/deactivate", walletHandler.Deactivate).Methods(http.MethodPost)
	api.HandleFunc("/transfers", transferHandler.Send).Methods(http.MethodPost)
	api.HandleFunc("/transfers/token", transferHandler.SendToken).Methods(http.MethodPost)
	api.HandleFunc("/nfts/mint", nftHandler.Mint).Methods(http.MethodPost)
	api.HandleFunc("/nfts/transfer", nftHandler.Transfer).Methods(http.MethodPost)
	api.HandleFunc("/nfts", nftHandler.Owned).Methods(http.MethodGet)
	api.HandleFunc("/staking", stakingHandler.Stake).Methods(http.MethodPost)
	api.HandleFunc("/staking", stakingHandler.Positions).Methods(http.MethodGet)
	api.HandleFunc("/sponsor/usage", sponsorHandler.Usage).Methods(http.MethodGet)
	api.HandleFunc("/sponsor/eligibility", sponsorHandler.Eligibility).Methods(http.MethodGet)

	return root
}
