package handler

import (
	"encoding/json"
	"net/http"

	"github.com/xueqianLu/txsigner/internal/middleware"
	"github.com/xueqianLu/txsigner/pkg/signer"
	"go.uber.org/zap"
)

// SignTxHandler handles transaction signing requests.
type SignTxHandler struct {
	signer signer.Signer
	logger *zap.Logger
}

// NewSignTxHandler creates a new SignTxHandler.
func NewSignTxHandler(s signer.Signer, logger *zap.Logger) *SignTxHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SignTxHandler{signer: s, logger: logger}
}

// ServeHTTP implements the http.Handler interface.
func (h *SignTxHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req SignTxRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, middleware.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	log := h.logger.With(
		zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
		zap.String("signer", h.signer.Kind().String()),
	)

	signed, err := h.signer.SignTransaction(r.Context(), req.UnsignedTx)
	if err != nil {
		log.Warn("sign transaction failed", zap.String("code", string(signer.CodeOf(err))), zap.Error(err))
		writeSignerError(w, err)
		return
	}

	log.Info("transaction signed", zap.Int("signed_len", len(signed)))
	writeJSON(w, http.StatusOK, SignTxResponse{SignedTx: signed})
}
