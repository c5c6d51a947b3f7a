package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/solstice-app/wallet-server/internal/model"
	"github.com/solstice-app/wallet-server/internal/service"
	"github.com/solstice-app/wallet-server/internal/testutil"
)

type MockNFTStore struct {
	mock.Mock
}

func (m *MockNFTStore) Create(ctx context.Context, ownership model.NFTOwnership) (model.NFTOwnership, error) {
	args := m.Called(ctx, ownership)
	return args.Get(0).(model.NFTOwnership), args.Error(1)
}

func (m *MockNFTStore) GetByUserID(ctx context.Context, userID string) ([]model.NFTOwnership, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.NFTOwnership), args.Error(1)
}

func nftHandlerFixture(nfts model.NFTStore) *NFT {
	nftService := service.NewNFT(nil, nil, nfts, nil, testutil.MakeNoopLogger())
	return NewNFT(nftService, testutil.MakeNoopLogger())
}

func TestNFT_Owned(t *testing.T) {
	nfts := &MockNFTStore{}
	nfts.On("GetByUserID", mock.Anything, "user-1").Return([]model.NFTOwnership{
		{UserID: "user-1", Mint: solana.NewWallet().PublicKey().String(), Signature: "sig-1", CreatedAt: time.Now()},
		{UserID: "user-1", Mint: solana.NewWallet().PublicKey().String(), Signature: "sig-2", CreatedAt: time.Now()},
	}, nil)

	h := nftHandlerFixture(nfts)
	rec := httptest.NewRecorder()
	h.Owned(rec, authedRequest(http.MethodGet, "/v1/nfts"))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []ownershipResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "sig-1", resp[0].Signature)
}

func TestNFT_Owned_Empty(t *testing.T) {
	nfts := &MockNFTStore{}
	nfts.On("GetByUserID", mock.Anything, "user-1").Return([]model.NFTOwnership{}, nil)

	h := nftHandlerFixture(nfts)
	rec := httptest.NewRecorder()
	h.Owned(rec, authedRequest(http.MethodGet, "/v1/nfts"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestNFT_Mint_MalformedBody(t *testing.T) {
	h := nftHandlerFixture(&MockNFTStore{})

	req := httptest.NewRequest(http.MethodPost, "/v1/nfts/mint", strings.NewReader("{"))
	req = req.WithContext(authedRequest(http.MethodPost, "/v1/nfts/mint").Context())

	rec := httptest.NewRecorder()
	h.Mint(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNFT_Transfer_MissingIdentity(t *testing.T) {
	h := nftHandlerFixture(&MockNFTStore{})

	req := httptest.NewRequest(http.MethodPost, "/v1/nfts/transfer", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Transfer(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
