//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/solstice-app/wallet-server/internal/model"
	repo "github.com/solstice-app/wallet-server/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "wallet_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/wallet_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestRepositories_CRUD(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	t.Run("user_key_repository", func(t *testing.T) {
		ur := repo.NewUserKeyRepository(conn)

		_, err := ur.GetByUserID(ctx, "user-1")
		require.ErrorIs(t, err, model.ErrNotFound)

		sealed := []byte(`{"ciphertext":"YQ==","iv":"YQ==","tag":"YQ==","algorithm":"aes-256-gcm"}`)
		created, err := ur.SetWalletKey(ctx, "user-1", "7Np41oeYqPefeNQEHSv1UDhYrehxin3NStELsSKCT4K2", sealed)
		require.NoError(t, err)
		require.Equal(t, "user-1", created.UserID)
		require.Equal(t, model.WalletStatusActive, created.Status)
		require.Equal(t, sealed, created.SealedKey)

		_, err = ur.SetWalletKey(ctx, "user-1", "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin", sealed)
		require.ErrorIs(t, err, model.ErrWalletAlreadyExists)

		got, err := ur.GetByUserID(ctx, "user-1")
		require.NoError(t, err)
		require.Equal(t, "7Np41oeYqPefeNQEHSv1UDhYrehxin3NStELsSKCT4K2", got.WalletAddress)

		byAddr, err := ur.GetByWalletAddress(ctx, got.WalletAddress)
		require.NoError(t, err)
		require.Equal(t, "user-1", byAddr.UserID)

		require.NoError(t, ur.TouchLastUsed(ctx, "user-1"))
		got, err = ur.GetByUserID(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, got.LastUsedAt)

		resealed := []byte(`{"ciphertext":"Yg==","iv":"Yg==","tag":"Yg==","algorithm":"aes-256-gcm"}`)
		require.NoError(t, ur.SetSealedKey(ctx, "user-1", resealed))
		got, err = ur.GetByUserID(ctx, "user-1")
		require.NoError(t, err)
		require.Equal(t, resealed, got.SealedKey)

		require.NoError(t, ur.Deactivate(ctx, "user-1"))
		got, err = ur.GetByUserID(ctx, "user-1")
		require.NoError(t, err)
		require.Equal(t, model.WalletStatusInactive, got.Status)
		require.NotEmpty(t, got.WalletAddress)

		require.ErrorIs(t, ur.Deactivate(ctx, "missing"), model.ErrNotFound)
		require.ErrorIs(t, ur.TouchLastUsed(ctx, "missing"), model.ErrNotFound)
		require.ErrorIs(t, ur.SetSealedKey(ctx, "missing", sealed), model.ErrNotFound)
	})

	t.Run("sponsor_tx_repository", func(t *testing.T) {
		sr := repo.NewSponsorTxRepository(conn)
		record := model.SponsorTransactionRecord{
			ID:               uuid.New(),
			Signature:        "sig-1",
			FeePaid:          5000,
			PriorityFeePaid:  1000,
			SponsorPublicKey: "sponsor-pub",
			UserPublicKey:    "user-pub",
			Operation:        model.OperationTransfer,
			Outcome:          model.TxOutcomeConfirmed,
			CreatedAt:        time.Now(),
		}
		require.NoError(t, sr.Create(ctx, record))
	})

	t.Run("audit_repository", func(t *testing.T) {
		ar := repo.NewAuditRepository(conn)
		entry := model.AuditEntry{
			ID:        uuid.New(),
			UserID:    "user-1",
			Signature: "sig-1",
			Purpose:   "transfer",
			Status:    "confirmed",
			Metadata:  map[string]string{"amount": "100"},
			CreatedAt: time.Now(),
		}
		require.NoError(t, ar.Append(ctx, entry))
	})

	t.Run("nft_repository", func(t *testing.T) {
		nr := repo.NewNFTRepository(conn)
		owned, err := nr.GetByUserID(ctx, "user-2")
		require.NoError(t, err)
		require.Empty(t, owned)

		created, err := nr.Create(ctx, model.NFTOwnership{
			ID:        uuid.New(),
			UserID:    "user-2",
			Mint:      "mint-1",
			Signature: "sig-2",
			CreatedAt: time.Now(),
		})
		require.NoError(t, err)
		require.Equal(t, "mint-1", created.Mint)

		owned, err = nr.GetByUserID(ctx, "user-2")
		require.NoError(t, err)
		require.Len(t, owned, 1)
	})

	t.Run("staking_repository", func(t *testing.T) {
		sr := repo.NewStakingRepository(conn)
		created, err := sr.Create(ctx, model.StakingPosition{
			ID:        uuid.New(),
			UserID:    "user-3",
			Pool:      "pool-1",
			Amount:    1_000_000,
			Signature: "sig-3",
			CreatedAt: time.Now(),
		})
		require.NoError(t, err)
		require.Equal(t, uint64(1_000_000), created.Amount)

		positions, err := sr.GetByUserID(ctx, "user-3")
		require.NoError(t, err)
		require.Len(t, positions, 1)
	})
}
