package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/solstice-app/wallet-server/internal/logger"
	"github.com/solstice-app/wallet-server/internal/model"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserIDFromContext returns the authenticated user's identifier set by the
// Authenticate middleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

// ContextWithUserID injects a user ID for handlers under test.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Authenticate validates bearer tokens and injects the user ID into the
// request context.
type Authenticate struct {
	tokens model.TokenManager
	logger *logger.Logger
}

// NewAuthenticate creates the Authenticate middleware.
func NewAuthenticate(tokens model.TokenManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokens: tokens, logger: logger}
}

// Handle rejects requests without a valid bearer token.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if header == "" || tokenString == header {
			http.Error(w, "missing authorization token", http.StatusUnauthorized)
			return
		}

		userID, err := m.tokens.ParseAccessToken(tokenString)
		if err != nil {
			m.logger.Debug("rejected access token", "error", err)
			http.Error(w, "invalid authorization token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
	})
}
