package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solstice-app/wallet-server/internal/model"
	"github.com/solstice-app/wallet-server/internal/service"
	"github.com/solstice-app/wallet-server/internal/testutil"
	"github.com/solstice-app/wallet-server/internal/token"
)

func newTestRouter(t *testing.T) (http.Handler, model.TokenManager) {
	t.Helper()

	feePayer := model.NewSigningHandle(solana.NewWallet().PrivateKey)
	sponsorService := service.NewSponsor(
		nil, feePayer, nil, nil,
		testutil.MakeNoopLogger(), clock.NewDefaultClock(),
		service.SponsorLimits{DailyBudget: 1_000_000, TotalBudget: 10_000_000},
	)

	tokens := token.NewJWT("test-secret")
	r := New(nil, nil, nil, nil, sponsorService, tokens, testutil.MakeNoopLogger())
	return r.Register(), tokens
}

func TestRouter_HealthUnauthenticated(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_APIRequiresToken(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sponsor/usage", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_APIDispatchesWithToken(t *testing.T) {
	h, tokens := newTestRouter(t)

	accessToken, err := tokens.GenerateAccessToken("user-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/sponsor/usage", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "daily_spent")
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	h, tokens := newTestRouter(t)

	accessToken, err := tokens.GenerateAccessToken("user-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/v1/sponsor/usage", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
