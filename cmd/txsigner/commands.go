package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"github.com/xueqianLu/txsigner/internal/config"
	"github.com/xueqianLu/txsigner/internal/logger"
	"github.com/xueqianLu/txsigner/internal/metrics"
	"github.com/xueqianLu/txsigner/internal/middleware"
	"github.com/xueqianLu/txsigner/internal/server"
	"github.com/xueqianLu/txsigner/pkg/signer"
	"go.uber.org/zap"
)

// setup loads and validates configuration and creates the logger.
func setup(c *cli.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose") || cfg.Log.Debug})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, l, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP signing service",
		Action: func(c *cli.Context) error {
			cfg, l, err := setup(c)
			if err != nil {
				return err
			}
			defer func() { _ = l.Sync() }()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			backend, closeFn, err := buildSigner(ctx, cfg, l)
			if err != nil {
				return err
			}
			defer closeFn()

			reg := prometheus.NewRegistry()
			rc := server.RouterConfig{
				Signer:    metrics.NewInstrumentedSigner(backend, reg),
				Logger:    l,
				RateLimit: middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
				Gatherer:  reg,
			}
			if cfg.Auth.APIKey != "" {
				rc.Auth = middleware.NewAuthMiddleware(cfg.Auth.APIKey, cfg.Auth.APISecret)
			} else {
				l.Warn("api credentials not configured, signing routes are unauthenticated")
			}

			srv := server.NewServer(server.NewRouter(rc), cfg.Server.Address, cfg.Server.Port)
			errCh := make(chan error, 1)
			go func() {
				l.Info("server listening",
					zap.String("addr", srv.Addr),
					zap.String("signer", backend.Kind().String()),
				)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			l.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func signCommand() *cli.Command {
	return &cli.Command{
		Name:      "sign",
		Usage:     "Sign a hex-encoded unsigned transaction and print the result",
		ArgsUsage: "<unsigned-tx-hex>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("expected exactly one argument: the unsigned transaction hex", 2)
			}
			cfg, l, err := setup(c)
			if err != nil {
				return err
			}
			defer func() { _ = l.Sync() }()

			backend, closeFn, err := buildSigner(c.Context, cfg, l)
			if err != nil {
				return err
			}
			defer closeFn()

			signed, err := backend.SignTransaction(c.Context, strings.TrimSpace(c.Args().First()))
			if err != nil {
				return fmt.Errorf("[%s] %w", signer.CodeOf(err), err)
			}
			_, err = fmt.Fprintln(c.App.Writer, signed)
			return err
		},
	}
}

func mnemonicCommand() *cli.Command {
	return &cli.Command{
		Name:  "mnemonic",
		Usage: "Generate a new 24-word BIP39 mnemonic",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "network",
				Value: string(signer.NetworkMainnet),
				Usage: "Network used to show the derived address (mainnet, testnet, regtest)",
			},
			&cli.UintFlag{
				Name:  "index",
				Usage: "Derivation index used to show the derived address",
			},
		},
		Action: func(c *cli.Context) error {
			network, err := signer.ParseNetwork(c.String("network"))
			if err != nil {
				return err
			}
			index, err := derivationIndex(c.Uint("index"))
			if err != nil {
				return err
			}
			mnemonic, s, err := signer.GenerateSoftwareSigner(network, index)
			if err != nil {
				return err
			}
			defer s.Close()

			w := c.App.Writer
			fmt.Fprintln(w, mnemonic)
			fmt.Fprintf(w, "path:    %s\n", s.DerivationPath())
			fmt.Fprintf(w, "address: %s\n", s.Address())
			return nil
		},
	}
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Show the configured signer and backend diagnostics",
		Action: func(c *cli.Context) error {
			cfg, l, err := setup(c)
			if err != nil {
				return err
			}
			defer func() { _ = l.Sync() }()

			backend, closeFn, err := buildSigner(c.Context, cfg, l)
			if err != nil {
				return err
			}
			defer closeFn()

			return describeSigner(c.Context, c.App.Writer, backend)
		},
	}
}
