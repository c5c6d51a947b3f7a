package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/solstice-app/wallet-server/internal/api/rest/router"
	restServer "github.com/solstice-app/wallet-server/internal/api/rest/server"
	"github.com/solstice-app/wallet-server/internal/chain"
	"github.com/solstice-app/wallet-server/internal/config"
	"github.com/solstice-app/wallet-server/internal/keycrypt"
	"github.com/solstice-app/wallet-server/internal/keystore"
	"github.com/solstice-app/wallet-server/internal/logger"
	"github.com/solstice-app/wallet-server/internal/model"
	"github.com/solstice-app/wallet-server/internal/repository/postgres"
	"github.com/solstice-app/wallet-server/internal/server"
	"github.com/solstice-app/wallet-server/internal/service"
	storage "github.com/solstice-app/wallet-server/internal/storage/minio"
	"github.com/solstice-app/wallet-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	crypt, err := keycrypt.New(cfg.Encryption.MasterSecret)
	if err != nil {
		logger.Fatal("failed to initialize envelope encryption", "error", err)
	}

	userKeyRepo := postgres.NewUserKeyRepository(db)
	sponsorTxRepo := postgres.NewSponsorTxRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	nftRepo := postgres.NewNFTRepository(db)
	stakingRepo := postgres.NewStakingRepository(db)

	keys, derivationPrefix, err := buildKeystore(cfg.Keystore, userKeyRepo, crypt)
	if err != nil {
		logger.Fatal("failed to initialize keystore", "error", err)
	}

	chainClient, err := chain.NewClient(cfg.Chain.RPCEndpoint, cfg.Chain.Commitment)
	if err != nil {
		logger.Fatal("failed to initialize chain client", "error", err)
	}

	feePayer, err := chain.LoadFeePayer(cfg.Sponsor.KeyFile)
	if err != nil {
		logger.Fatal("failed to load sponsor key", "error", err, "path", cfg.Sponsor.KeyFile)
	}

	var backups model.BackupStorage
	if cfg.Backup.Enabled {
		minioClient, err := minio.New(cfg.Backup.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.Backup.AccessKey, cfg.Backup.SecretKey, ""),
			Secure: cfg.Backup.UseSSL,
		})
		if err != nil {
			logger.Fatal("failed to create minio client", "error", err)
		}
		backups, err = storage.NewBackupStore(ctx, minioClient, cfg.Backup.Bucket)
		if err != nil {
			logger.Fatal("failed to initialize backup storage", "error", err)
		}
	}

	walletService := service.NewWallet(userKeyRepo, keys, crypt, backups, logger, derivationPrefix)
	sponsorService := service.NewSponsor(chainClient, feePayer, sponsorTxRepo, auditRepo, logger, clock.NewDefaultClock(), sponsorLimits(cfg.Sponsor))
	transferService := service.NewTransfer(walletService, sponsorService, auditRepo, logger)
	nftService := service.NewNFT(walletService, sponsorService, nftRepo, auditRepo, logger)
	stakingService := service.NewStaking(walletService, sponsorService, stakingRepo, auditRepo, logger)

	tokenManager := token.NewJWT(cfg.Server.JWTSecret)
	apiLogger := logger.With("component", "api")
	r := router.New(walletService, transferService, nftService, stakingService, sponsorService, tokenManager, apiLogger)
	httpServer := restServer.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.Server.Port))

	var sl model.SecurityLayer
	if cfg.Server.EnableHTTPS {
		sl = server.NewTLSListener(cfg.Server.CertFileName, cfg.Server.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("starting server",
			"address", s.Address(),
			"keystore_mode", cfg.Keystore.Mode,
			"sponsor", feePayer.PublicKey().String(),
			"rpc", cfg.Chain.RPCEndpoint)
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(httpServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

// buildKeystore selects the keystore implementation. The record store keeps
// sealed keys on user records; the local store is a file-backed development
// store and refuses to run in production mode.
func buildKeystore(cfg config.Keystore, users model.UserKeyStore, crypt *keycrypt.Service) (model.Keystore, string, error) {
	var masterSeed []byte
	if cfg.MasterSeed != "" {
		masterSeed = []byte(cfg.MasterSeed)
	}

	derivationPrefix := cfg.DerivationPrefix
	if masterSeed == nil {
		// Without a master seed every key is random; a derivation path would
		// be recorded but meaningless.
		derivationPrefix = ""
	}

	switch cfg.Mode {
	case "record":
		return keystore.NewRecord(users, crypt, masterSeed), derivationPrefix, nil
	case "local":
		if cfg.Production {
			return nil, "", fmt.Errorf("local keystore is not allowed in production mode")
		}
		ks, err := keystore.NewLocal(cfg.FilePath, masterSeed, false)
		if err != nil {
			return nil, "", err
		}
		return ks, derivationPrefix, nil
	default:
		return nil, "", fmt.Errorf("unknown keystore mode: %q", cfg.Mode)
	}
}

func sponsorLimits(cfg config.Sponsor) service.SponsorLimits {
	ops := make([]model.OperationKind, 0, len(cfg.EnabledOperations))
	for _, op := range cfg.EnabledOperations {
		ops = append(ops, model.OperationKind(op))
	}
	return service.SponsorLimits{
		DailyBudget:          cfg.DailyBudget,
		TotalBudget:          cfg.TotalBudget,
		MaxUserDaily:         cfg.MaxUserDaily,
		MinBalance:           cfg.MinBalance,
		EnabledOperations:    ops,
		BaseFeeMicroLamports: cfg.BaseFeeMicroLamports,
		PriorityMultipliers: map[model.Priority]uint64{
			model.PriorityLow:    cfg.PriorityLowMult,
			model.PriorityMedium: cfg.PriorityMediumMult,
			model.PriorityHigh:   cfg.PriorityHighMult,
		},
	}
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
