// Package client is a Go client for the txsigner HTTP service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xueqianLu/txsigner/internal/middleware"
	"github.com/xueqianLu/txsigner/pkg/signer"
)

type signTxRequest struct {
	UnsignedTx string `json:"unsignedTx"`
}

type signTxResponse struct {
	SignedTx string `json:"signedTx"`
}

type signerResponse struct {
	Kind string `json:"kind"`
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  signer.Code `json:"code"`
}

// StatusError is returned for non-2xx responses that carry no signer error.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

// Client is a client for the txsigner service.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a new txsigner client.
func NewClient(baseURL, apiKey, apiSecret string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		apiSecret: apiSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
	}
}

// Health checks the health of the signer service.
func (c *Client) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// SignTransaction asks the service to sign unsignedTx. Malformed input is
// rejected locally; service failures come back as *signer.Error with the
// same code.
func (c *Client) SignTransaction(ctx context.Context, unsignedTx string) (string, error) {
	if _, err := signer.ValidateUnsignedTx(unsignedTx); err != nil {
		return "", err
	}
	var resp signTxResponse
	if err := c.doRequest(ctx, http.MethodPost, "/sign-transaction", signTxRequest{UnsignedTx: unsignedTx}, &resp); err != nil {
		return "", err
	}
	return resp.SignedTx, nil
}

// SignerKind returns the kind of backend the service signs with.
func (c *Client) SignerKind(ctx context.Context) (signer.Kind, error) {
	var resp signerResponse
	if err := c.doRequest(ctx, http.MethodGet, "/signer", nil, &resp); err != nil {
		return "", err
	}
	kind := signer.Kind(resp.Kind)
	if !kind.Valid() {
		return "", fmt.Errorf("service reported unknown signer kind %q", resp.Kind)
	}
	return kind, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, data, result any) error {
	var reqBody []byte
	var err error

	if data != nil {
		reqBody, err = json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal request data: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	timestamp := strconv.FormatInt(c.now().Unix(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.APIKeyHeader, c.apiKey)
	req.Header.Set(middleware.TimestampHeader, timestamp)
	req.Header.Set(middleware.SignatureHeader, middleware.Sign(c.apiSecret, timestamp, reqBody))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

// decodeError rebuilds a *signer.Error from an error body when the service
// sent one with a known code.
func decodeError(status int, body []byte) error {
	var er errorResponse
	if json.Unmarshal(body, &er) == nil && er.Code.Valid() && signer.HTTPStatus(er.Code) == status {
		return signer.NewError(er.Code, stripDescription(er.Code, er.Error))
	}
	return &StatusError{StatusCode: status, Body: strings.TrimSpace(string(body))}
}

// stripDescription removes the "<description>: " prefix the server's
// Error() rendering adds, so the rebuilt error prints the same text.
func stripDescription(code signer.Code, msg string) string {
	prefix := signer.NewError(code, "").Error() + ": "
	return strings.TrimPrefix(msg, prefix)
}
