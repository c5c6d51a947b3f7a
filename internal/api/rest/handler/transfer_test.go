package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/solstice-app/wallet-server/internal/keycrypt"
	"github.com/solstice-app/wallet-server/internal/model"
	"github.com/solstice-app/wallet-server/internal/service"
	"github.com/solstice-app/wallet-server/internal/testutil"
)

type MockSponsorTxStore struct {
	mock.Mock
}

func (m *MockSponsorTxStore) Create(ctx context.Context, record model.SponsorTransactionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

type MockAuditStore struct {
	mock.Mock
}

func (m *MockAuditStore) Append(ctx context.Context, entry model.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func transferHandlerFixture(t *testing.T) (*Transfer, *MockChainClient) {
	t.Helper()

	crypt, err := keycrypt.New(testMasterSecret)
	require.NoError(t, err)

	userWallet := solana.NewWallet()
	sealed, err := crypt.Seal([]byte(userWallet.PrivateKey), "user-1")
	require.NoError(t, err)
	sealedData, err := sealed.Encode()
	require.NoError(t, err)

	users := &MockUserKeyStore{}
	users.On("GetByUserID", mock.Anything, "user-1").Return(model.UserKeyRecord{
		UserID:        "user-1",
		WalletAddress: userWallet.PublicKey().String(),
		SealedKey:     sealedData,
		Status:        model.WalletStatusActive,
	}, nil)
	users.On("TouchLastUsed", mock.Anything, "user-1").Return(nil)

	walletService := service.NewWallet(users, &MockKeystore{}, crypt, nil, testutil.MakeNoopLogger(), "")

	chainClient := &MockChainClient{}
	txStore := &MockSponsorTxStore{}
	txStore.On("Create", mock.Anything, mock.Anything).Return(nil)
	audit := &MockAuditStore{}
	audit.On("Append", mock.Anything, mock.Anything).Return(nil)

	feePayer := model.NewSigningHandle(solana.NewWallet().PrivateKey)
	sponsorService := service.NewSponsor(
		chainClient, feePayer, txStore, audit,
		testutil.MakeNoopLogger(), clock.NewDefaultClock(),
		service.SponsorLimits{
			DailyBudget:          1_000_000,
			TotalBudget:          10_000_000,
			MaxUserDaily:         100,
			MinBalance:           1_000_000,
			EnabledOperations:    []model.OperationKind{model.OperationTransfer, model.OperationTokenTransfer},
			BaseFeeMicroLamports: 1000,
		},
	)

	transferService := service.NewTransfer(walletService, sponsorService, audit, testutil.MakeNoopLogger())
	return NewTransfer(transferService, testutil.MakeNoopLogger()), chainClient
}

func TestTransfer_Send(t *testing.T) {
	h, chainClient := transferHandlerFixture(t)

	chainClient.On("GetLatestBlockhash", mock.Anything).Return(model.Blockhash{
		Hash:                 solana.HashFromBytes(make([]byte, 32)),
		LastValidBlockHeight: 150,
	}, nil)
	chainClient.On("GetFeeForMessage", mock.Anything, mock.Anything).Return(uint64(5000), nil)
	chainClient.On("GetBalance", mock.Anything, mock.Anything).Return(uint64(100_000_000), nil)
	chainClient.On("SendTransaction", mock.Anything, mock.Anything).Return(solana.Signature{1}, nil)
	chainClient.On("ConfirmTransaction", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	body := strings.NewReader(`{
		"destination": "` + solana.NewWallet().PublicKey().String() + `",
		"amount": 1000000,
		"priority": "medium",
		"memo": "coffee"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/transfers", body)
	req = req.WithContext(authedRequest(http.MethodPost, "/v1/transfers").Context())

	rec := httptest.NewRecorder()
	h.Send(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp transactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Signature)
	assert.Equal(t, "transfer", resp.Operation)
	assert.Equal(t, "confirmed", resp.Outcome)
	assert.Equal(t, uint64(6000), resp.FeePaid)
}

func TestTransfer_Send_MalformedBody(t *testing.T) {
	h, _ := transferHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/transfers", strings.NewReader("{not json"))
	req = req.WithContext(authedRequest(http.MethodPost, "/v1/transfers").Context())

	rec := httptest.NewRecorder()
	h.Send(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransfer_Send_MissingIdentity(t *testing.T) {
	h, _ := transferHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/transfers", strings.NewReader(`{"amount": 1}`))
	rec := httptest.NewRecorder()
	h.Send(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransfer_Send_BudgetExhausted(t *testing.T) {
	h, chainClient := transferHandlerFixture(t)

	chainClient.On("GetLatestBlockhash", mock.Anything).Return(model.Blockhash{
		Hash:                 solana.HashFromBytes(make([]byte, 32)),
		LastValidBlockHeight: 150,
	}, nil)
	// Quoted fee exceeds the daily budget outright.
	chainClient.On("GetFeeForMessage", mock.Anything, mock.Anything).Return(uint64(2_000_000), nil)
	chainClient.On("GetBalance", mock.Anything, mock.Anything).Return(uint64(100_000_000), nil)

	body := strings.NewReader(`{
		"destination": "` + solana.NewWallet().PublicKey().String() + `",
		"amount": 1000000,
		"priority": "medium"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/transfers", body)
	req = req.WithContext(authedRequest(http.MethodPost, "/v1/transfers").Context())

	rec := httptest.NewRecorder()
	h.Send(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
