package server

import (
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xueqianLu/txsigner/internal/handler"
	"github.com/xueqianLu/txsigner/internal/middleware"
	"github.com/xueqianLu/txsigner/pkg/signer"
	"go.uber.org/zap"
)

// RouterConfig holds what the HTTP routes are built from.
type RouterConfig struct {
	Signer signer.Signer
	Logger *zap.Logger
	// Auth protects the signing routes. Nil disables authentication.
	Auth *middleware.AuthMiddleware
	// RateLimit applies to the signing route. Nil disables limiting.
	RateLimit *middleware.RateLimiter
	// Gatherer backs /metrics. Nil omits the route.
	Gatherer prometheus.Gatherer
}

// NewRouter registers the service routes.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	protect := func(h http.Handler) http.Handler {
		if cfg.Auth != nil {
			h = cfg.Auth.Wrap(h)
		}
		return h
	}

	var signTx http.Handler = handler.NewSignTxHandler(cfg.Signer, logger)
	signTx = protect(signTx)
	if cfg.RateLimit != nil {
		signTx = cfg.RateLimit.Wrap(signTx)
	}

	mux := http.NewServeMux()
	mux.Handle("/health", handler.NewHealthHandler())
	mux.Handle("/signer", protect(handler.NewSignerHandler(cfg.Signer)))
	mux.Handle("/sign-transaction", signTx)
	if cfg.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	return middleware.RequestID(logger, mux)
}

// NewServer creates and configures an HTTP server.
func NewServer(handler http.Handler, address, port string) *http.Server {
	return &http.Server{
		Addr:         net.JoinHostPort(address, port),
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
