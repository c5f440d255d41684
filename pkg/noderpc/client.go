// Package noderpc is a JSON-RPC client for Bitcoin Core derived nodes
// (bitcoind, elementsd). It satisfies signer.RPCCaller.
package noderpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// Environment variables read by FromEnv.
const (
	EnvRPCURL      = "ELEMENTS_RPC_URL"
	EnvRPCUser     = "ELEMENTS_RPC_USER"
	EnvRPCPassword = "ELEMENTS_RPC_PASSWORD"
	EnvRPCWallet   = "ELEMENTS_RPC_WALLET"
)

// DefaultTimeout bounds each HTTP request when Config.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// Config describes how to reach a node.
type Config struct {
	URL      string
	User     string
	Password string
	// Wallet selects a named wallet via the /wallet/<name> endpoint.
	Wallet  string
	Timeout time.Duration
}

// Client is safe for concurrent use; each call is an independent HTTP request.
type Client struct {
	baseURL  string
	endpoint string
	rpc      *gethrpc.Client
}

// Dial prepares a client for cfg. HTTP connections are opened lazily.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("rpc url cannot be empty")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid rpc url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported rpc url scheme %q", u.Scheme)
	}

	baseURL := strings.TrimRight(cfg.URL, "/")
	endpoint := baseURL
	if cfg.Wallet != "" {
		endpoint = baseURL + "/wallet/" + url.PathEscape(cfg.Wallet)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	opts := []gethrpc.ClientOption{
		gethrpc.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.User != "" || cfg.Password != "" {
		token := base64.StdEncoding.EncodeToString([]byte(cfg.User + ":" + cfg.Password))
		opts = append(opts, gethrpc.WithHTTPAuth(func(h http.Header) error {
			h.Set("Authorization", "Basic "+token)
			return nil
		}))
	}

	c, err := gethrpc.DialOptions(ctx, endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc client: %w", err)
	}
	return &Client{baseURL: baseURL, endpoint: endpoint, rpc: c}, nil
}

// FromEnv dials using the ELEMENTS_RPC_* environment variables.
func FromEnv(ctx context.Context) (*Client, error) {
	rawURL := os.Getenv(EnvRPCURL)
	if rawURL == "" {
		return nil, fmt.Errorf("required environment variable %s not set", EnvRPCURL)
	}
	return Dial(ctx, Config{
		URL:      rawURL,
		User:     os.Getenv(EnvRPCUser),
		Password: os.Getenv(EnvRPCPassword),
		Wallet:   os.Getenv(EnvRPCWallet),
	})
}

// BaseURL returns the configured node URL. Credentials are never part of it.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Endpoint returns the URL requests are sent to, including any wallet path.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Call invokes method with positional params and returns the raw result.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.rpc.CallContext(ctx, &result, method, params...); err != nil {
		return nil, newCallError(method, err)
	}
	return result, nil
}

// NetworkInfo is the subset of getnetworkinfo used for diagnostics.
type NetworkInfo struct {
	Version     int    `json:"version"`
	Subversion  string `json:"subversion"`
	Connections int    `json:"connections"`
}

// GetNetworkInfo calls getnetworkinfo.
func (c *Client) GetNetworkInfo(ctx context.Context) (*NetworkInfo, error) {
	raw, err := c.Call(ctx, "getnetworkinfo")
	if err != nil {
		return nil, err
	}
	var info NetworkInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("failed to decode getnetworkinfo result: %w", err)
	}
	return &info, nil
}

// Close releases the underlying client.
func (c *Client) Close() {
	c.rpc.Close()
}
