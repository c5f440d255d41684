// Package secrets loads signing key material from HashiCorp Vault.
package secrets

import (
	"context"
	"errors"
	"fmt"

	vault "github.com/hashicorp/vault/api"
)

var (
	ErrSecretNotFound = errors.New("secret not found")
	ErrFieldMissing   = errors.New("field missing")
	ErrFieldNotString = errors.New("field not a string")
)

// NewVaultClient creates a Vault client from the VAULT_* environment,
// overriding the address and token when they are set.
func NewVaultClient(address, token string) (*vault.Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("could not read vault environment variables: %w", err)
	}
	if address != "" {
		cfg.Address = address
	}
	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}
	return client, nil
}

// LoadMnemonic reads field from the KV v2 secret at mount/path.
func LoadMnemonic(ctx context.Context, client *vault.Client, mount, path, field string) (string, error) {
	secret, err := client.KVv2(mount).Get(ctx, path)
	if err != nil {
		if errors.Is(err, vault.ErrSecretNotFound) {
			return "", fmt.Errorf("%w: %s/%s", ErrSecretNotFound, mount, path)
		}
		return "", fmt.Errorf("failed to read secret %s/%s: %w", mount, path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("%w: %s/%s", ErrSecretNotFound, mount, path)
	}

	raw, ok := secret.Data[field]
	if !ok {
		return "", fmt.Errorf("%w: %q in %s/%s", ErrFieldMissing, field, mount, path)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q in %s/%s", ErrFieldNotString, field, mount, path)
	}
	return value, nil
}
