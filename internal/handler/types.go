package handler

import (
	"encoding/json"
	"net/http"

	"github.com/xueqianLu/txsigner/pkg/signer"
)

// SignTxRequest represents the request to sign a transaction.
type SignTxRequest struct {
	UnsignedTx string `json:"unsignedTx"`
}

// SignTxResponse represents the response for a signed transaction.
type SignTxResponse struct {
	SignedTx string `json:"signedTx"`
}

// SignerResponse identifies the active signing backend.
type SignerResponse struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

// ErrorResponse represents a standard error response. Code is set for
// signer errors.
type ErrorResponse struct {
	Error string      `json:"error"`
	Code  signer.Code `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeSignerError maps err onto the HTTP status of its code. Errors outside
// the signer taxonomy are reported as library errors.
func writeSignerError(w http.ResponseWriter, err error) {
	se, ok := signer.FromError(err)
	if !ok {
		se = signer.LibraryError("unexpected signer failure", err)
	}
	writeJSON(w, signer.HTTPStatus(se.Code), ErrorResponse{Error: se.Error(), Code: se.Code})
}
