package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	adapthttp "foodfollow/internal/adapter/http"
	"foodfollow/internal/app"
	"foodfollow/internal/metrics"
)

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("catalog", cfg.Catalog.BaseURL),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := openStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	verifier, err := newVerifier(ctx, cfg.Auth)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	catalog := app.NewCatalogService(newCatalog(cfg.Catalog), cfg.Catalog.PageSize, m)
	meals := app.NewMealService(store, m, logger)
	workspaces := app.NewWorkspaces(catalog, app.SearchSessionOptions{
		Debounce: cfg.Search.Debounce,
		PageSize: cfg.Catalog.PageSize,
		Metrics:  m,
		OnOutcome: func(o app.DispatchOutcome) {
			logger.Debug("search dispatch", "generation", o.Generation, "query", o.Query, "outcome", string(o.State))
		},
	})
	defer workspaces.Close()

	srv := adapthttp.New(adapthttp.Config{
		Catalog:    catalog,
		Meals:      meals,
		Charts:     app.NewChartsService(meals),
		Scanner:    app.NewScanService(catalog),
		Workspaces: workspaces,
		Verifier:   verifier,
		Metrics:    m,
		Gatherer:   reg,
		Logger:     logger,
	})

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: srv.Handler(),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.HTTP.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
