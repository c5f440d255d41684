package handler

import (
	"net/http"

	"github.com/xueqianLu/txsigner/pkg/signer"
)

// SignerHandler reports which backend serves signing requests.
type SignerHandler struct {
	signer signer.Signer
}

// NewSignerHandler creates a new SignerHandler.
func NewSignerHandler(s signer.Signer) *SignerHandler {
	return &SignerHandler{signer: s}
}

// ServeHTTP implements the http.Handler interface.
func (h *SignerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, SignerResponse{
		Kind:        h.signer.Kind().String(),
		Description: signer.Describe(h.signer),
	})
}
