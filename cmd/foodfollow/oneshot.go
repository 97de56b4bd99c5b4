package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"foodfollow/internal/app"
	"foodfollow/internal/domain"
	"foodfollow/internal/mcpserver"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runSearch(ctx context.Context, cmd *cli.Command) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	terms := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(terms) == "" {
		return errors.New("usage: foodfollow search <terms>")
	}
	catalog := app.NewCatalogService(newCatalog(cfg.Catalog), cfg.Catalog.PageSize, nil)
	products, err := catalog.SearchByText(ctx, terms, 0)
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, products)
}

func runBarcode(ctx context.Context, cmd *cli.Command) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	catalog := app.NewCatalogService(newCatalog(cfg.Catalog), cfg.Catalog.PageSize, nil)
	p, found, err := catalog.LookupByBarcode(ctx, cmd.Args().First())
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("product %s not found", cmd.Args().First())
	}
	return printJSON(os.Stdout, domain.NewFoodItem(p))
}

// runMCP serves the tools for the local user. Logs go to stderr since stdout
// carries the protocol.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	catalog := app.NewCatalogService(newCatalog(cfg.Catalog), cfg.Catalog.PageSize, nil)
	meals := app.NewMealService(store, nil, logger)
	return mcpserver.New(catalog, meals, domain.LocalUser, version).ServeStdio()
}
