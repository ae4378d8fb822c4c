// Package main runs the resampling HTTP API:
// - POST /api/v1/resample: trades in the request body → bars
// - POST /api/v1/symbols/{symbol}/resample: stored trades → stored series
// - GET  /api/v1/series/{seriesID}/bars: stored bars
// - /health and /metrics
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"taq-bars/internal/api"
	"taq-bars/internal/app"
	"taq-bars/internal/config"
	"taq-bars/internal/logging"
	"taq-bars/internal/sampling"
)

func main() {
	configPath := flag.String("config", os.Getenv("TAQBARS_CONFIG"), "Path to YAML config file")
	addr := flag.String("addr", "", "HTTP listen address")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := config.Load(*configPath, func(c *config.Config) {
		if set["addr"] {
			c.Server.Addr = *addr
		}
		if set["use-memory"] {
			c.Storage.UseMemory = *useMemory
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.Setup("server", cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(2)
	}

	if err := run(cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := app.HandleSignals(context.Background(), logger, cfg.Server.ShutdownTimeout)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	samplingCfg, err := cfg.ToSampling()
	if err != nil {
		return err
	}

	stores, cleanup, err := app.OpenStores(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	runner := sampling.NewRunner(sampling.RunnerOptions{
		TradeStore:        stores.Trades,
		BarStore:          stores.Bars,
		Config:            samplingCfg,
		Policies:          cfg.Policies(),
		ExcludeConditions: cfg.Session.ExcludeConditions,
		Concurrency:       cfg.Runner.Concurrency,
		SkipExisting:      cfg.Runner.SkipExisting,
		Location:          loc,
		Logger:            logger,
	})

	handler := api.NewServer(api.Options{
		BarStore:  stores.Bars,
		Engine:    runner,
		Defaults:  samplingCfg,
		Location:  loc,
		MaxTrades: cfg.Server.MaxTrades,
		Logger:    logger,
	}).Router()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	logger.Info("shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}
