// Command ingest loads pipe-delimited trade files into the trade store.
//
// Usage:
//
//	ingest [flags] FILE...
//
// The session date is taken from a YYYYMMDD run in each file name unless
// -session-date is given.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"taq-bars/internal/app"
	"taq-bars/internal/config"
	"taq-bars/internal/ingestion"
	"taq-bars/internal/logging"
)

func main() {
	configPath := flag.String("config", os.Getenv("TAQBARS_CONFIG"), "Path to YAML config file")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	sessionDate := flag.String("session-date", "", "Session date YYYY-MM-DD (default: from file name)")
	symbols := flag.String("symbols", "", "Comma-separated symbols to keep (default: all)")
	exclude := flag.String("exclude", "", "Comma-separated sale condition codes to drop")
	filterHours := flag.Bool("filter-hours", false, "Keep only trades inside session open/close")
	skipInvalid := flag.Bool("skip-invalid", false, "Skip malformed rows instead of failing")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	flag.Parse()

	set := setFlags()
	cfg, err := config.Load(*configPath, func(c *config.Config) {
		if set["use-memory"] {
			c.Storage.UseMemory = *useMemory
		}
		if set["postgres-dsn"] {
			c.Storage.PostgresDSN = *postgresDSN
		}
		if set["symbols"] {
			c.Session.Symbols = splitList(*symbols)
		}
		if set["exclude"] {
			c.Session.ExcludeConditions = splitList(*exclude)
		}
		if set["filter-hours"] {
			c.Session.FilterHours = *filterHours
		}
		if set["skip-invalid"] {
			c.Session.SkipInvalid = *skipInvalid
		}
		if set["metrics-addr"] {
			c.Server.MetricsAddr = *metricsAddr
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ingest: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.Setup("ingest", cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ingest: %v\n", err)
		os.Exit(2)
	}

	if flag.NArg() == 0 {
		logger.Error("no input files")
		os.Exit(2)
	}

	if err := run(cfg, logger, *sessionDate, flag.Args()); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(cfg *config.Config, logger *slog.Logger, sessionDate string, files []string) error {
	ctx, stop := app.HandleSignals(context.Background(), logger, cfg.Server.ShutdownTimeout)
	defer stop()

	app.ServeMetrics(cfg.Server.MetricsAddr, logger)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	var date time.Time
	if sessionDate != "" {
		if date, err = time.ParseInLocation("2006-01-02", sessionDate, loc); err != nil {
			return fmt.Errorf("invalid -session-date: %w", err)
		}
	}

	opts := ingestion.LoaderOptions{
		Location:          loc,
		Symbols:           cfg.Session.Symbols,
		ExcludeConditions: cfg.Session.ExcludeConditions,
		SkipInvalid:       cfg.Session.SkipInvalid,
		Logger:            logger,
	}
	if cfg.Session.FilterHours {
		openAt, closeAt, err := cfg.TradingHours()
		if err != nil {
			return err
		}
		opts.Hours = &ingestion.SessionHours{Open: openAt, Close: closeAt}
	}

	stores, cleanup, err := app.OpenStores(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer cleanup()
	opts.TradeStore = stores.Trades
	opts.IngestLog = stores.IngestLog

	results, err := ingestion.NewLoader(opts).LoadFiles(ctx, files, date)
	if err != nil {
		return err
	}

	var stored, skipped int
	for _, r := range results {
		stored += r.Stored
		if r.Skipped {
			skipped++
		}
	}
	logger.Info("ingestion complete", "files", len(results), "skipped", skipped, "trades", stored)
	return nil
}

// setFlags returns the names of flags given on the command line.
func setFlags() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
