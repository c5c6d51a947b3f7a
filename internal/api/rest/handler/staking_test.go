package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/solstice-app/wallet-server/internal/model"
	"github.com/solstice-app/wallet-server/internal/service"
	"github.com/solstice-app/wallet-server/internal/testutil"
)

type MockStakingStore struct {
	mock.Mock
}

func (m *MockStakingStore) Create(ctx context.Context, position model.StakingPosition) (model.StakingPosition, error) {
	args := m.Called(ctx, position)
	return args.Get(0).(model.StakingPosition), args.Error(1)
}

func (m *MockStakingStore) GetByUserID(ctx context.Context, userID string) ([]model.StakingPosition, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StakingPosition), args.Error(1)
}

func stakingHandlerFixture(positions model.StakingStore) *Staking {
	stakingService := service.NewStaking(nil, nil, positions, nil, testutil.MakeNoopLogger())
	return NewStaking(stakingService, testutil.MakeNoopLogger())
}

func TestStaking_Positions(t *testing.T) {
	positions := &MockStakingStore{}
	positions.On("GetByUserID", mock.Anything, "user-1").Return([]model.StakingPosition{
		{UserID: "user-1", Pool: "pool-1", Amount: 500_000, Signature: "sig-1", CreatedAt: time.Now()},
	}, nil)

	h := stakingHandlerFixture(positions)
	rec := httptest.NewRecorder()
	h.Positions(rec, authedRequest(http.MethodGet, "/v1/staking"))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []positionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "pool-1", resp[0].Pool)
	assert.Equal(t, uint64(500_000), resp[0].Amount)
}

func TestStaking_Stake_MalformedBody(t *testing.T) {
	h := stakingHandlerFixture(&MockStakingStore{})

	req := httptest.NewRequest(http.MethodPost, "/v1/staking", strings.NewReader("not json"))
	req = req.WithContext(authedRequest(http.MethodPost, "/v1/staking").Context())

	rec := httptest.NewRecorder()
	h.Stake(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaking_Positions_StoreError(t *testing.T) {
	positions := &MockStakingStore{}
	positions.On("GetByUserID", mock.Anything, "user-1").Return(nil, assert.AnError)

	h := stakingHandlerFixture(positions)
	rec := httptest.NewRecorder()
	h.Positions(rec, authedRequest(http.MethodGet, "/v1/staking"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
