package main

import (
	"context"
	"fmt"
	"io"

	"github.com/btcsuite/btcutil/hdkeychain"
	"github.com/xueqianLu/txsigner/internal/config"
	"github.com/xueqianLu/txsigner/internal/secrets"
	"github.com/xueqianLu/txsigner/pkg/noderpc"
	"github.com/xueqianLu/txsigner/pkg/signer"
	"go.uber.org/zap"
)

// buildSigner creates the backend selected by cfg. The returned func
// releases its resources.
func buildSigner(ctx context.Context, cfg *config.Config, l *zap.Logger) (signer.Signer, func(), error) {
	switch cfg.Signer.Type {
	case config.SignerTypeNode:
		nc := cfg.Signer.Node
		rpc, err := noderpc.Dial(ctx, noderpc.Config{
			URL:      nc.URL,
			User:     nc.User,
			Password: nc.Password,
			Wallet:   nc.Wallet,
			Timeout:  nc.Timeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create node rpc client: %w", err)
		}
		s, err := signer.NewNodeSigner(rpc, signer.WithLogger(l))
		if err != nil {
			rpc.Close()
			return nil, nil, err
		}
		l.Info("node signer configured", zap.String("endpoint", rpc.BaseURL()), zap.String("wallet", nc.Wallet))
		return s, rpc.Close, nil

	case config.SignerTypeSoftware:
		sc := cfg.Signer.Software
		network, err := signer.ParseNetwork(sc.Network)
		if err != nil {
			return nil, nil, err
		}
		mnemonic := sc.Mnemonic
		if sc.Vault.Enabled() {
			vc, err := secrets.NewVaultClient(sc.Vault.Address, sc.Vault.Token)
			if err != nil {
				return nil, nil, err
			}
			mnemonic, err = secrets.LoadMnemonic(ctx, vc, sc.Vault.Mount, sc.Vault.Path, sc.Vault.Field)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to load mnemonic: %w", err)
			}
		}
		s, err := signer.NewSoftwareSigner(mnemonic, network, sc.Index, signer.WithLogger(l))
		if err != nil {
			return nil, nil, err
		}
		l.Info("software signer configured",
			zap.String("network", network.String()),
			zap.String("path", s.DerivationPath()),
			zap.String("address", s.Address()),
		)
		return s, func() { _ = s.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported signer type %q", cfg.Signer.Type)
	}
}

// derivationIndex converts a flag value to a non-hardened BIP32 index.
func derivationIndex(v uint) (uint32, error) {
	if uint64(v) >= uint64(hdkeychain.HardenedKeyStart) {
		return 0, fmt.Errorf("derivation index %d out of range, must be below %d", v, uint64(hdkeychain.HardenedKeyStart))
	}
	return uint32(v), nil
}

// describeSigner prints backend-specific diagnostics. Only this command
// inspects the concrete backend.
func describeSigner(ctx context.Context, w io.Writer, s signer.Signer) error {
	fmt.Fprintf(w, "signer:  %s\n", signer.Describe(s))

	switch b := s.(type) {
	case *signer.NodeSigner:
		rpc, ok := b.RPC().(*noderpc.Client)
		if !ok {
			return nil
		}
		fmt.Fprintf(w, "node:    %s\n", rpc.BaseURL())
		info, err := rpc.GetNetworkInfo(ctx)
		if err != nil {
			return fmt.Errorf("failed to query node: %w", err)
		}
		fmt.Fprintf(w, "version: %s (%d)\n", info.Subversion, info.Version)
		fmt.Fprintf(w, "peers:   %d\n", info.Connections)
	case *signer.SoftwareSigner:
		fmt.Fprintf(w, "network: %s\n", b.Network())
		fmt.Fprintf(w, "path:    %s\n", b.DerivationPath())
		fmt.Fprintf(w, "address: %s\n", b.Address())
		fmt.Fprintf(w, "pubkey:  %s\n", b.PublicKeyHex())
	}
	return nil
}
