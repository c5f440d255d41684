package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xueqianLu/txsigner/internal/config"
	"github.com/xueqianLu/txsigner/pkg/signer"
	"go.uber.org/zap/zaptest"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestBuildSigner_Software(t *testing.T) {
	cfg := &config.Config{Signer: config.SignerConfig{
		Type:     config.SignerTypeSoftware,
		Software: config.SoftwareConfig{Mnemonic: testMnemonic, Network: "regtest", Index: 2},
	}}
	s, closeFn, err := buildSigner(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, signer.KindSoftware, s.Kind())

	var out bytes.Buffer
	require.NoError(t, describeSigner(context.Background(), &out, s))
	assert.Contains(t, out.String(), "m/44'/1'/0'/0/2")
	assert.Contains(t, out.String(), "regtest")
}

func TestBuildSigner_SoftwareFromVault(t *testing.T) {
	vault := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/kv/data/signers/hot" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"data": map[string]any{"phrase": testMnemonic}, "metadata": map[string]any{}},
		})
	}))
	defer vault.Close()

	cfg := &config.Config{Signer: config.SignerConfig{
		Type: config.SignerTypeSoftware,
		Software: config.SoftwareConfig{Network: "testnet", Vault: config.VaultConfig{
			Address: vault.URL, Token: "t", Mount: "kv", Path: "signers/hot", Field: "phrase",
		}},
	}}
	s, closeFn, err := buildSigner(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer closeFn()

	direct, err := signer.NewSoftwareSigner(testMnemonic, signer.NetworkTestnet, 0)
	require.NoError(t, err)
	defer direct.Close()
	assert.Equal(t, direct.Address(), s.(*signer.SoftwareSigner).Address())
}

func TestBuildSigner_Node(t *testing.T) {
	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]any{"version": 230201, "subversion": "/Elements Core:23.2.1/", "connections": 3},
		})
	}))
	defer node.Close()

	cfg := &config.Config{Signer: config.SignerConfig{
		Type: config.SignerTypeNode,
		Node: config.NodeConfig{URL: node.URL, User: "u", Password: "p"},
	}}
	s, closeFn, err := buildSigner(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, signer.KindNode, s.Kind())

	var out bytes.Buffer
	require.NoError(t, describeSigner(context.Background(), &out, s))
	assert.Contains(t, out.String(), node.URL)
	assert.Contains(t, out.String(), "/Elements Core:23.2.1/")
	assert.Contains(t, out.String(), "peers:   3")
}

func TestBuildSigner_UnknownType(t *testing.T) {
	_, _, err := buildSigner(context.Background(), &config.Config{Signer: config.SignerConfig{Type: "hsm"}}, zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestDerivationIndex(t *testing.T) {
	got, err := derivationIndex(7)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), got)

	got, err = derivationIndex(1<<31 - 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1<<31-1), got)

	_, err = derivationIndex(1 << 31)
	require.Error(t, err)

	// Would truncate to 5 in a plain conversion.
	wide := uint64(1)<<32 + 5
	_, err = derivationIndex(uint(wide))
	require.Error(t, err)
}
