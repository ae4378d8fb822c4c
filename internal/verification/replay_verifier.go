package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"taq-bars/internal/domain"
	"taq-bars/internal/observability"
	"taq-bars/internal/sampling"
	"taq-bars/internal/storage"
)

var (
	// ErrSeriesNotFound is returned when series ID doesn't exist.
	ErrSeriesNotFound = errors.New("series not found")

	// ErrParamsMismatch is returned when the series was produced with
	// parameters other than the verifier's configuration.
	ErrParamsMismatch = errors.New("series params do not match configuration")
)

// ReplayVerifier implements Verifier by resampling stored trades.
type ReplayVerifier struct {
	tradeStore storage.TradeStore
	barStore   storage.BarStore

	// config must describe the parameters the series were produced with.
	config            sampling.Config
	excludeConditions []string
	location          *time.Location

	logger *slog.Logger
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
// Config, ExcludeConditions and Location should match the Runner that
// produced the series.
type ReplayVerifierOptions struct {
	TradeStore        storage.TradeStore
	BarStore          storage.BarStore
	Config            sampling.Config
	ExcludeConditions []string
	Location          *time.Location
	Logger            *slog.Logger
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ReplayVerifier{
		tradeStore:        opts.TradeStore,
		barStore:          opts.BarStore,
		config:            opts.Config,
		excludeConditions: opts.ExcludeConditions,
		location:          opts.Location,
		logger:            logger.With("component", "verification"),
	}
}

// VerifySeries verifies a single series by replaying sampling.
func (v *ReplayVerifier) VerifySeries(ctx context.Context, seriesID string) (*VerificationResult, error) {
	// 1. Load stored series
	stored, err := v.barStore.GetSeries(ctx, seriesID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSeriesNotFound
		}
		return nil, err
	}
	return v.verify(ctx, stored)
}

// VerifyAll verifies every series of every symbol in the trade store.
func (v *ReplayVerifier) VerifyAll(ctx context.Context) (*VerificationReport, error) {
	symbols, err := v.tradeStore.ListSymbols(ctx)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{}
	for _, symbol := range symbols {
		if err := v.verifySymbol(ctx, symbol, report); err != nil {
			return nil, err
		}
	}

	v.logger.Info("verification finished",
		"series", report.TotalSeries,
		"matched", report.MatchedSeries,
		"divergent", report.DivergentSeries,
	)
	return report, nil
}

// VerifySymbol verifies every stored series of one symbol.
func (v *ReplayVerifier) VerifySymbol(ctx context.Context, symbol string) (*VerificationReport, error) {
	report := &VerificationReport{}
	if err := v.verifySymbol(ctx, symbol, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (v *ReplayVerifier) verifySymbol(ctx context.Context, symbol string, report *VerificationReport) error {
	series, err := v.barStore.ListSeriesBySymbol(ctx, symbol)
	if err != nil {
		return fmt.Errorf("list series for %s: %w", symbol, err)
	}

	for _, s := range series {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.TotalSeries++

		result, err := v.verify(ctx, s)
		if err != nil {
			// Record error as divergence
			report.Results = append(report.Results, VerificationResult{
				SeriesID:   s.SeriesID,
				Symbol:     s.Symbol,
				Policy:     s.Policy,
				Match:      false,
				StoredBars: s.BarCount,
				Divergences: []FieldDivergence{
					{Field: "Error", Expected: nil, Actual: err.Error()},
				},
			})
			report.DivergentSeries++
			continue
		}

		report.Results = append(report.Results, *result)
		if result.Match {
			report.MatchedSeries++
		} else {
			report.DivergentSeries++
		}
	}
	return nil
}

func (v *ReplayVerifier) verify(ctx context.Context, stored *domain.BarSeries) (*VerificationResult, error) {
	result, err := v.compare(ctx, stored)

	outcome := "match"
	switch {
	case err != nil:
		outcome = "error"
	case !result.Match:
		outcome = "diverged"
	}
	observability.RecordVerification(string(stored.Policy), outcome)
	return result, err
}

func (v *ReplayVerifier) compare(ctx context.Context, stored *domain.BarSeries) (*VerificationResult, error) {
	// 1. Parameters must be reproducible from the configuration
	if params := v.config.Params(stored.Policy); params != stored.Params {
		return nil, fmt.Errorf("%w: stored %q, configured %q", ErrParamsMismatch, stored.Params, params)
	}

	storedBars, err := v.barStore.GetBars(ctx, stored.SeriesID)
	if err != nil {
		return nil, err
	}

	// 2. Replay sampling
	replayed, err := v.replay(ctx, stored)
	if err != nil {
		return nil, err
	}

	// 3. Compare results
	divergences := CompareSeries(stored, replayed.Series(stored.Symbol, stored.CreatedAt))
	divergences = append(divergences, CompareBars(storedBars, replayed.Bars)...)

	if len(divergences) > 0 {
		v.logger.Warn("series diverged",
			"series_id", stored.SeriesID,
			"symbol", stored.Symbol,
			"policy", stored.Policy,
			"divergences", len(divergences),
		)
	}

	return &VerificationResult{
		SeriesID:     stored.SeriesID,
		Symbol:       stored.Symbol,
		Policy:       stored.Policy,
		Match:        len(divergences) == 0,
		Divergences:  divergences,
		StoredBars:   len(storedBars),
		ReplayedBars: len(replayed.Bars),
	}, nil
}

// replay re-executes sampling with the stored series' policy.
func (v *ReplayVerifier) replay(ctx context.Context, stored *domain.BarSeries) (*sampling.Result, error) {
	trades, err := v.tradeStore.GetBySymbol(ctx, stored.Symbol, v.excludeConditions)
	if err != nil {
		return nil, fmt.Errorf("load trades for %s: %w", stored.Symbol, err)
	}
	return sampling.Resample(sampling.InLocation(trades, v.location), stored.Policy, v.config)
}
