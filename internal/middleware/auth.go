package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	APIKeyHeader    = "X-API-Key"
	SignatureHeader = "X-Signature"
	TimestampHeader = "X-Timestamp"
	maxTimeSkew     = 60 // seconds

	// MaxBodyBytes bounds request bodies read by the service.
	MaxBodyBytes = 1 << 20
)

// Sign returns hex(HMAC-SHA256(secret, timestamp+body)), the value expected
// in the X-Signature header.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// AuthMiddleware provides HMAC-based authentication.
type AuthMiddleware struct {
	apiKey    string
	apiSecret string
	now       func() time.Time
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(apiKey, apiSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		now:       time.Now,
	}
}

// Wrap wraps an http.Handler with authentication.
func (m *AuthMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestAPIKey := r.Header.Get(APIKeyHeader)
		if !hmac.Equal([]byte(requestAPIKey), []byte(m.apiKey)) {
			http.Error(w, "Invalid API Key", http.StatusUnauthorized)
			return
		}

		timestampStr := r.Header.Get(TimestampHeader)
		if timestampStr == "" {
			http.Error(w, "Missing timestamp header", http.StatusUnauthorized)
			return
		}
		timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
		if err != nil {
			http.Error(w, "Invalid timestamp format", http.StatusUnauthorized)
			return
		}
		skew := m.now().Unix() - timestamp
		if skew > maxTimeSkew || skew < -maxTimeSkew {
			http.Error(w, "Timestamp outside allowed window", http.StatusUnauthorized)
			return
		}

		requestSignature := r.Header.Get(SignatureHeader)
		if requestSignature == "" {
			http.Error(w, "Missing signature header", http.StatusUnauthorized)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Failed to read request body", http.StatusInternalServerError)
			return
		}
		// Restore the body so the next handler can read it
		r.Body = io.NopCloser(bytes.NewReader(body))

		expectedSignature := Sign(m.apiSecret, timestampStr, body)
		if !hmac.Equal([]byte(requestSignature), []byte(expectedSignature)) {
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
