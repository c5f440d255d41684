package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xueqianLu/txsigner/internal/metrics"
	"github.com/xueqianLu/txsigner/internal/middleware"
	"github.com/xueqianLu/txsigner/pkg/signer"
	"go.uber.org/zap/zaptest"
)

type stubSigner struct{}

func (stubSigner) SignTransaction(context.Context, string) (string, error) {
	return "00ff", nil
}

func (stubSigner) Kind() signer.Kind {
	return signer.KindNode
}

func TestNewServer(t *testing.T) {
	srv := NewServer(http.NotFoundHandler(), "127.0.0.1", "2818")
	assert.Equal(t, "127.0.0.1:2818", srv.Addr)

	srv = NewServer(http.NotFoundHandler(), "", "8080")
	assert.Equal(t, ":8080", srv.Addr)
}

func TestRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	inst := metrics.NewInstrumentedSigner(stubSigner{}, reg)
	h := NewRouter(RouterConfig{
		Signer:    inst,
		Logger:    zaptest.NewLogger(t),
		Auth:      middleware.NewAuthMiddleware("key", "secret"),
		RateLimit: middleware.NewRateLimiter(0, 0),
		Gatherer:  reg,
	})

	get := func(path string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		return rr
	}

	rr := get("/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))

	assert.Equal(t, http.StatusUnauthorized, get("/signer").Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/sign-transaction", strings.NewReader(`{"unsignedTx":"00"}`)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	_, err := inst.SignTransaction(context.Background(), "00")
	require.NoError(t, err)
	rr = get("/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "txsigner_sign_duration_seconds")
}

func TestRouter_NoAuth(t *testing.T) {
	h := NewRouter(RouterConfig{Signer: stubSigner{}})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/signer", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"kind":"node"`)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
