// Command resample turns stored trades into bar series.
//
// Trades are read from the trade store, or first loaded from delimited
// files given as arguments. Every requested symbol is resampled under each
// configured policy; series are written to the bar store and, with
// -format, exported to files. With -verify every produced series is
// replayed from the trade store and compared bar by bar.
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
	"taq-bars/internal/domain"
	"taq-bars/internal/export"
	"taq-bars/internal/ingestion"
	"taq-bars/internal/logging"
	"taq-bars/internal/sampling"
	"taq-bars/internal/verification"
)

func main() {
	configPath := flag.String("config", os.Getenv("TAQBARS_CONFIG"), "Path to YAML config file")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	symbols := flag.String("symbols", "", "Comma-separated symbols (default: every stored symbol)")
	policies := flag.String("policies", "", "Comma-separated policies: time,tick,volume,dollar")
	sessionDate := flag.String("session-date", "", "Session date YYYY-MM-DD for file arguments (default: from file name)")
	format := flag.String("format", "", "Export series as csv, json or parquet (no export unless set)")
	outputDir := flag.String("output-dir", "", "Export directory")
	concurrency := flag.Int("concurrency", 0, "Symbols resampled in parallel")
	skipExisting := flag.Bool("skip-existing", false, "Treat already stored series as done")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	verify := flag.Bool("verify", false, "Replay each produced series and report divergences")
	flag.Parse()

	set := setFlags()
	cfg, err := config.Load(*configPath, func(c *config.Config) {
		if set["use-memory"] {
			c.Storage.UseMemory = *useMemory
		}
		if set["symbols"] {
			c.Session.Symbols = splitList(*symbols)
		}
		if set["policies"] {
			c.Sampling.Policies = splitList(*policies)
		}
		if set["format"] {
			c.Export.Format = *format
		}
		if set["output-dir"] {
			c.Export.Dir = *outputDir
		}
		if set["concurrency"] {
			c.Runner.Concurrency = *concurrency
		}
		if set["skip-existing"] {
			c.Runner.SkipExisting = *skipExisting
		}
		if set["metrics-addr"] {
			c.Server.MetricsAddr = *metricsAddr
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "resample: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.Setup("resample", cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resample: %v\n", err)
		os.Exit(2)
	}

	opts := runOptions{
		sessionDate: *sessionDate,
		files:       flag.Args(),
		export:      set["format"],
		verify:      *verify,
	}
	if err := run(cfg, logger, opts); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("resample failed", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

type runOptions struct {
	sessionDate string
	files       []string
	export      bool
	verify      bool
}

func run(cfg *config.Config, logger *slog.Logger, opts runOptions) error {
	ctx, stop := app.HandleSignals(context.Background(), logger, cfg.Server.ShutdownTimeout)
	defer stop()

	app.ServeMetrics(cfg.Server.MetricsAddr, logger)

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

	// 1. Optional file load
	if len(opts.files) > 0 {
		var date time.Time
		if opts.sessionDate != "" {
			if date, err = time.ParseInLocation("2006-01-02", opts.sessionDate, loc); err != nil {
				return fmt.Errorf("invalid -session-date: %w", err)
			}
		}
		loaderOpts := ingestion.LoaderOptions{
			TradeStore:        stores.Trades,
			IngestLog:         stores.IngestLog,
			Location:          loc,
			Symbols:           cfg.Session.Symbols,
			ExcludeConditions: cfg.Session.ExcludeConditions,
			SkipInvalid:       cfg.Session.SkipInvalid,
			Logger:            logger,
		}
		if cfg.Session.FilterHours {
			openAt, closeAt, _ := cfg.TradingHours()
			loaderOpts.Hours = &ingestion.SessionHours{Open: openAt, Close: closeAt}
		}
		if _, err := ingestion.NewLoader(loaderOpts).LoadFiles(ctx, opts.files, date); err != nil {
			return err
		}
	}

	// 2. Resample
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

	var results map[string][]*domain.BarSeries
	if len(cfg.Session.Symbols) > 0 {
		results, err = runner.RunBatch(ctx, cfg.Session.Symbols)
	} else {
		results, err = runner.RunAll(ctx)
	}
	if err != nil {
		return err
	}

	var total int
	for _, list := range results {
		total += len(list)
	}
	logger.Info("resampling complete", "symbols", len(results), "series", total)

	// 3. Optional verification
	if opts.verify {
		verifier := verification.NewReplayVerifier(verification.ReplayVerifierOptions{
			TradeStore:        stores.Trades,
			BarStore:          stores.Bars,
			Config:            samplingCfg,
			ExcludeConditions: cfg.Session.ExcludeConditions,
			Location:          loc,
			Logger:            logger,
		})
		if err := verifyResults(ctx, verifier, results, logger); err != nil {
			return err
		}
	}

	// 4. Optional export
	if !opts.export {
		return nil
	}
	saver, err := export.NewSaver(cfg.Export.Format)
	if err != nil {
		return err
	}
	exporter := &export.SeriesExporter{Store: stores.Bars, Saver: saver, Dir: cfg.Export.Dir}
	for symbol, list := range results {
		for _, s := range list {
			path, err := exporter.Export(ctx, s.SeriesID)
			if err != nil {
				return err
			}
			logger.Info("series exported", "symbol", symbol, "policy", s.Policy, "path", path)
		}
	}
	return nil
}

func verifyResults(ctx context.Context, verifier verification.Verifier, results map[string][]*domain.BarSeries, logger *slog.Logger) error {
	var divergent int
	for _, list := range results {
		for _, s := range list {
			result, err := verifier.VerifySeries(ctx, s.SeriesID)
			if err != nil {
				return fmt.Errorf("verify %s %s: %w", s.Symbol, s.Policy, err)
			}
			if result.Match {
				continue
			}
			divergent++
			for _, d := range result.Divergences {
				logger.Warn("divergence",
					"series_id", s.SeriesID,
					"field", d.Field,
					"expected", d.Expected,
					"actual", d.Actual,
				)
			}
		}
	}
	if divergent > 0 {
		return fmt.Errorf("%d series diverged on replay", divergent)
	}
	logger.Info("verification passed")
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
