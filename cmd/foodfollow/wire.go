package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/urfave/cli/v3"

	adapthttp "foodfollow/internal/adapter/http"
	"foodfollow/internal/adapter/memory"
	"foodfollow/internal/adapter/openfoodfacts"
	"foodfollow/internal/adapter/postgres"
	"foodfollow/internal/adapter/sqlite"
	"foodfollow/internal/config"
	"foodfollow/internal/domain"
	"foodfollow/internal/logging"
)

type blobStore interface {
	domain.BlobStore
	Close() error
}

// loadConfig reads the file named by --config, falling back to defaults
// when it does not exist.
func loadConfig(cmd *cli.Command) (*config.Config, *slog.Logger, error) {
	cfg := config.NewDefaultConfig()
	if err := config.LoadOrDefault(cmd.String("config"), cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}
	logger := logging.Setup(os.Stderr, cfg.App.LogLevel, cfg.App.LogFormat)
	return cfg, logger, nil
}

func openStore(cfg config.StorageConfig) (blobStore, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.DSN)
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func newCatalog(cfg config.CatalogConfig) *openfoodfacts.Client {
	return openfoodfacts.New(cfg.BaseURL, cfg.UserAgent, &http.Client{Timeout: cfg.Timeout})
}

// newVerifier returns nil when authentication is disabled.
func newVerifier(ctx context.Context, cfg config.AuthConfig) (adapthttp.TokenVerifier, error) {
	if cfg.Mode != config.AuthModeOIDC {
		return nil, nil
	}
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc provider %s: %w", cfg.Issuer, err)
	}
	return provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}), nil
}
