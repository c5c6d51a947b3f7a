package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/solstice-app/wallet-server/internal/testutil"
)

type MockTokenManager struct {
	mock.Mock
}

func (m *MockTokenManager) GenerateAccessToken(userID string) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *MockTokenManager) ParseAccessToken(tokenString string) (string, error) {
	args := m.Called(tokenString)
	return args.String(0), args.Error(1)
}

func TestAuthenticate_Handle(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		parsedUser string
		parseErr   error
		wantStatus int
		wantUser   string
	}{
		{
			name:       "valid token",
			header:     "Bearer good-token",
			parsedUser: "user-1",
			wantStatus: http.StatusOK,
			wantUser:   "user-1",
		},
		{
			name:       "missing header",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "header without bearer prefix",
			header:     "good-token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			header:     "Bearer bad-token",
			parseErr:   errors.New("signature mismatch"),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := &MockTokenManager{}
			tokens.On("ParseAccessToken", mock.Anything).Return(tt.parsedUser, tt.parseErr)

			var gotUser string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = UserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			m := NewAuthenticate(tokens, testutil.MakeNoopLogger())
			req := httptest.NewRequest(http.MethodGet, "/v1/wallet", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			m.Handle(next).ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUser, gotUser)
		})
	}
}

func TestUserIDFromContext_Empty(t *testing.T) {
	_, ok := UserIDFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
