package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	p := writeConfig(t, `
server:
  port: "2818"
auth:
  api_key: key
  api_secret: secret
signer:
  type: software
  software:
    network: regtest
    index: 3
    mnemonic: "`+testMnemonic+`"
`)
	cfg, err := LoadConfig(p)
	require.NoError(t, err)

	assert.Equal(t, "2818", cfg.Server.Port)
	assert.Equal(t, "key", cfg.Auth.APIKey)
	assert.Equal(t, SignerTypeSoftware, cfg.Signer.Type)
	assert.Equal(t, "regtest", cfg.Signer.Software.Network)
	assert.Equal(t, uint32(3), cfg.Signer.Software.Index)
	assert.Equal(t, 30*time.Second, cfg.Signer.Node.Timeout)
	assert.Equal(t, "secret", cfg.Signer.Software.Vault.Mount)
	assert.Equal(t, "mnemonic", cfg.Signer.Software.Vault.Field)
	assert.False(t, cfg.Signer.Software.Vault.Enabled())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	p := writeConfig(t, `
signer:
  type: node
  node:
    url: http://file:18884
`)
	t.Setenv("TXSIGNER_SIGNER_NODE_URL", "http://env:18884")
	t.Setenv("TXSIGNER_SIGNER_NODE_WALLET", "amp")
	t.Setenv("TXSIGNER_SIGNER_NODE_TIMEOUT", "5s")
	t.Setenv("TXSIGNER_LOG_DEBUG", "true")

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, "http://env:18884", cfg.Signer.Node.URL)
	assert.Equal(t, "amp", cfg.Signer.Node.Wallet)
	assert.Equal(t, 5*time.Second, cfg.Signer.Node.Timeout)
	assert.True(t, cfg.Log.Debug)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg := &Config{
		Auth:      AuthConfig{APIKey: "only-key"},
		RateLimit: RateLimitConfig{RPS: 5, Burst: 0},
		Signer:    SignerConfig{Type: SignerTypeNode},
	}
	err := cfg.Validate()
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "server.port")
	assert.Contains(t, msg, "api_key and api_secret")
	assert.Contains(t, msg, "rate_limit.burst")
	assert.Contains(t, msg, "signer.node.url")
	assert.NotContains(t, msg, "only-key")
}

func TestValidate_Signer(t *testing.T) {
	cases := []struct {
		name    string
		signer  SignerConfig
		wantErr string
	}{
		{
			name:    "unknown type",
			signer:  SignerConfig{Type: "hsm"},
			wantErr: "signer.type",
		},
		{
			name:    "software without key source",
			signer:  SignerConfig{Type: SignerTypeSoftware, Software: SoftwareConfig{Network: "testnet"}},
			wantErr: "mnemonic or vault.path is required",
		},
		{
			name: "software with both sources",
			signer: SignerConfig{Type: SignerTypeSoftware, Software: SoftwareConfig{
				Network: "testnet", Mnemonic: testMnemonic,
				Vault: VaultConfig{Path: "txsigner", Mount: "secret", Field: "mnemonic"},
			}},
			wantErr: "mutually exclusive",
		},
		{
			name:    "software bad mnemonic",
			signer:  SignerConfig{Type: SignerTypeSoftware, Software: SoftwareConfig{Network: "testnet", Mnemonic: "one two three"}},
			wantErr: "not a valid BIP39",
		},
		{
			name:    "software bad network",
			signer:  SignerConfig{Type: SignerTypeSoftware, Software: SoftwareConfig{Network: "liquidv1", Mnemonic: testMnemonic}},
			wantErr: "signer.software.network",
		},
		{
			name: "software vault without field",
			signer: SignerConfig{Type: SignerTypeSoftware, Software: SoftwareConfig{
				Network: "mainnet", Vault: VaultConfig{Path: "txsigner", Mount: "secret"},
			}},
			wantErr: "signer.software.vault.field",
		},
		{
			name: "software vault ok",
			signer: SignerConfig{Type: SignerTypeSoftware, Software: SoftwareConfig{
				Network: "mainnet", Vault: VaultConfig{Path: "txsigner", Mount: "secret", Field: "mnemonic"},
			}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{Server: ServerConfig{Port: "8080"}, Signer: tc.signer}
			err := cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
