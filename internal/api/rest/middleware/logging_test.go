package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/solstice-app/wallet-server/internal/testutil"
)

func TestLogging_Handle(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	m := NewLogging(testutil.MakeNoopLogger())
	rec := httptest.NewRecorder()

	m.Handle(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/wallet", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestStatusRecorder_DefaultsToOK(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	m := NewLogging(testutil.MakeNoopLogger())
	rec := httptest.NewRecorder()

	m.Handle(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
