// Command report summarizes stored bar series.
//
// It computes bar statistics for every stored series of the requested
// symbols and writes REPORT.md and SERIES_STATS.csv to the output
// directory. With -verify each series is also replayed from the trade
// store using the configured sampling parameters.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"taq-bars/internal/app"
	"taq-bars/internal/config"
	"taq-bars/internal/logging"
	"taq-bars/internal/reporting"
	"taq-bars/internal/verification"
)

func main() {
	configPath := flag.String("config", os.Getenv("TAQBARS_CONFIG"), "Path to YAML config file")
	outputDir := flag.String("output-dir", "reports", "Output directory for generated files")
	symbols := flag.String("symbols", "", "Comma-separated symbols (default: every stored symbol)")
	verify := flag.Bool("verify", false, "Replay each series and report divergences")
	flag.Parse()

	cfg, err := config.Load(*configPath, func(c *config.Config) {
		if *symbols != "" {
			c.Session.Symbols = splitList(*symbols)
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "report: %v\n", err)
		os.Exit(2)
	}
	if cfg.Storage.UseMemory {
		fmt.Fprintln(os.Stderr, "report: in-memory storage holds no series, configure PostgreSQL and ClickHouse")
		os.Exit(2)
	}

	logger, err := logging.Setup("report", cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "report: %v\n", err)
		os.Exit(2)
	}

	if err := run(cfg, logger, *outputDir, *verify); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("report failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, outputDir string, verify bool) error {
	ctx, stop := app.HandleSignals(context.Background(), logger, cfg.Server.ShutdownTimeout)
	defer stop()

	stores, cleanup, err := app.OpenStores(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	gen := reporting.NewGenerator(stores.Trades, stores.Bars)
	if verify {
		samplingCfg, err := cfg.ToSampling()
		if err != nil {
			return err
		}
		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		gen = gen.WithVerifier(verification.NewReplayVerifier(verification.ReplayVerifierOptions{
			TradeStore:        stores.Trades,
			BarStore:          stores.Bars,
			Config:            samplingCfg,
			ExcludeConditions: cfg.Session.ExcludeConditions,
			Location:          loc,
			Logger:            logger,
		}))
	}

	report, err := gen.Generate(ctx, cfg.Session.Symbols)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	files := map[string]string{
		"REPORT.md":        reporting.RenderMarkdown(report),
		"SERIES_STATS.csv": reporting.RenderCSV(report.SeriesMetrics),
	}
	for name, content := range files {
		path := filepath.Join(outputDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		logger.Info("report written", "path", path)
	}

	if v := report.DataQuality.Verification; v != nil && v.DivergentSeries > 0 {
		return fmt.Errorf("%d of %d series diverged on replay", v.DivergentSeries, v.TotalSeries)
	}
	return nil
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
