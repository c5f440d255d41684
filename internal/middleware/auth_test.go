package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(body)
	})
}

func signedRequest(key, secret string, ts time.Time, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/sign-transaction", strings.NewReader(body))
	stamp := strconv.FormatInt(ts.Unix(), 10)
	req.Header.Set(APIKeyHeader, key)
	req.Header.Set(TimestampHeader, stamp)
	req.Header.Set(SignatureHeader, Sign(secret, stamp, []byte(body)))
	return req
}

func TestAuthMiddleware(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m := NewAuthMiddleware("key", "secret")
	m.now = func() time.Time { return now }
	h := m.Wrap(echoHandler())

	body := `{"unsignedTx":"0200"}`

	cases := []struct {
		name   string
		req    func() *http.Request
		status int
	}{
		{"valid", func() *http.Request { return signedRequest("key", "secret", now, body) }, http.StatusOK},
		{"wrong key", func() *http.Request { return signedRequest("nope", "secret", now, body) }, http.StatusUnauthorized},
		{"wrong secret", func() *http.Request { return signedRequest("key", "other", now, body) }, http.StatusUnauthorized},
		{"expired", func() *http.Request { return signedRequest("key", "secret", now.Add(-61*time.Second), body) }, http.StatusUnauthorized},
		{"future", func() *http.Request { return signedRequest("key", "secret", now.Add(61*time.Second), body) }, http.StatusUnauthorized},
		{"within skew", func() *http.Request { return signedRequest("key", "secret", now.Add(-59*time.Second), body) }, http.StatusOK},
		{"tampered body", func() *http.Request {
			req := signedRequest("key", "secret", now, body)
			req.Body = io.NopCloser(strings.NewReader(`{"unsignedTx":"0300"}`))
			return req
		}, http.StatusUnauthorized},
		{"missing timestamp", func() *http.Request {
			req := signedRequest("key", "secret", now, body)
			req.Header.Del(TimestampHeader)
			return req
		}, http.StatusUnauthorized},
		{"bad timestamp", func() *http.Request {
			req := signedRequest("key", "secret", now, body)
			req.Header.Set(TimestampHeader, "yesterday")
			return req
		}, http.StatusUnauthorized},
		{"missing signature", func() *http.Request {
			req := signedRequest("key", "secret", now, body)
			req.Header.Del(SignatureHeader)
			return req
		}, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, tc.req())
			require.Equal(t, tc.status, rr.Code, rr.Body.String())
			if tc.status == http.StatusOK {
				assert.Equal(t, body, rr.Body.String())
			}
		})
	}
}

func TestAuthMiddleware_BodyLimit(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m := NewAuthMiddleware("key", "secret")
	m.now = func() time.Time { return now }
	h := m.Wrap(echoHandler())

	body := `{"unsignedTx":"` + strings.Repeat("00", MaxBodyBytes/2) + `"}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, signedRequest("key", "secret", now, body))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

	body = strings.Repeat("a", MaxBodyBytes)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, signedRequest("key", "secret", now, body))
	assert.Equal(t, http.StatusOK, rr.Code)
}
