package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"taq-bars/internal/domain"
	"taq-bars/internal/metrics"
	"taq-bars/internal/storage"
	"taq-bars/internal/verification"
)

// Generator produces reports from stored data.
type Generator struct {
	tradeStore storage.TradeStore
	barStore   storage.BarStore
	verifier   verification.Verifier // optional
	now        func() time.Time      // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(tradeStore storage.TradeStore, barStore storage.BarStore) *Generator {
	return &Generator{
		tradeStore: tradeStore,
		barStore:   barStore,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithVerifier replays every reported series and adds the outcome to
// the data quality section.
func (g *Generator) WithVerifier(v verification.Verifier) *Generator {
	g.verifier = v
	return g
}

// Generate produces a report for symbols, or for every stored symbol
// when symbols is empty.
func (g *Generator) Generate(ctx context.Context, symbols []string) (*Report, error) {
	if len(symbols) == 0 {
		var err error
		if symbols, err = g.tradeStore.ListSymbols(ctx); err != nil {
			return nil, err
		}
	}
	symbols = sortedUnique(symbols)

	// Generate data summary
	dataSummary, err := g.generateDataSummary(ctx, symbols)
	if err != nil {
		return nil, err
	}

	// Compute statistics of every series
	aggregator := metrics.NewAggregator(g.barStore)
	var stats []*domain.SeriesStats
	for _, symbol := range symbols {
		s, err := aggregator.ComputeSymbol(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("compute stats for %s: %w", symbol, err)
		}
		stats = append(stats, s...)
	}

	seriesMetrics := generateSeriesMetrics(stats)

	quality := DataQualitySection{Warnings: aggregator.GetEmptySeriesWarnings()}
	if g.verifier != nil {
		summary, err := g.generateVerification(ctx, symbols)
		if err != nil {
			return nil, err
		}
		quality.Verification = summary
	}

	return &Report{
		GeneratedAt:      g.now(),
		SymbolCount:      len(symbols),
		SeriesCount:      len(stats) + len(aggregator.EmptySeries),
		DataSummary:      *dataSummary,
		DataQuality:      quality,
		SeriesMetrics:    seriesMetrics,
		PolicyComparison: generatePolicyComparison(stats),
	}, nil
}

// generateDataSummary counts stored trades and finds their date range.
func (g *Generator) generateDataSummary(ctx context.Context, symbols []string) (*DataSummary, error) {
	summary := &DataSummary{Symbols: symbols}

	for _, symbol := range symbols {
		trades, err := g.tradeStore.GetBySymbol(ctx, symbol, nil)
		if err != nil {
			return nil, err
		}
		summary.TotalTrades += len(trades)

		for _, t := range trades {
			if summary.DateRangeStart.IsZero() || t.Timestamp.Before(summary.DateRangeStart) {
				summary.DateRangeStart = t.Timestamp
			}
			if t.Timestamp.After(summary.DateRangeEnd) {
				summary.DateRangeEnd = t.Timestamp
			}
		}
	}

	return summary, nil
}

// generateVerification replays every stored series of symbols.
func (g *Generator) generateVerification(ctx context.Context, symbols []string) (*VerificationSummary, error) {
	summary := &VerificationSummary{}

	for _, symbol := range symbols {
		series, err := g.barStore.ListSeriesBySymbol(ctx, symbol)
		if err != nil {
			return nil, err
		}

		for _, s := range series {
			summary.TotalSeries++
			row := VerificationRow{SeriesID: s.SeriesID, Symbol: s.Symbol, Policy: string(s.Policy)}

			result, err := g.verifier.VerifySeries(ctx, s.SeriesID)
			switch {
			case err != nil:
				row.Divergences = 1
				row.FirstField = "Error: " + err.Error()
			case result.Match:
				summary.MatchedSeries++
				continue
			default:
				row.Divergences = len(result.Divergences)
				row.FirstField = result.Divergences[0].Field
			}

			summary.DivergentSeries++
			summary.Divergent = append(summary.Divergent, row)
		}
	}

	return summary, nil
}

// generateSeriesMetrics builds sorted rows from series statistics.
func generateSeriesMetrics(stats []*domain.SeriesStats) []SeriesMetricRow {
	rows := make([]SeriesMetricRow, len(stats))
	for i, s := range stats {
		rows[i] = SeriesMetricRow{
			Symbol:          s.Symbol,
			Policy:          string(s.Policy),
			Params:          s.Params,
			SeriesID:        s.SeriesID,
			Bars:            s.Bars,
			EmptyBars:       s.EmptyBars,
			TradeCount:      s.TradeCount,
			DroppedTrades:   s.DroppedTrades,
			TicksMean:       s.TicksMean,
			DurationMeanSec: s.DurationMeanSec,
			ReturnMean:      s.ReturnMean,
			ReturnMedian:    s.ReturnMedian,
			ReturnP10:       s.ReturnP10,
			ReturnP90:       s.ReturnP90,
			ReturnStddev:    s.ReturnStddev,
			ReturnAutocorr:  s.ReturnAutocorr,
			MaxDrawdown:     s.MaxDrawdown,
		}
	}

	// Sort by (symbol, policy, params)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Symbol != rows[j].Symbol {
			return rows[i].Symbol < rows[j].Symbol
		}
		if rows[i].Policy != rows[j].Policy {
			return rows[i].Policy < rows[j].Policy
		}
		return rows[i].Params < rows[j].Params
	})
	return rows
}

// generatePolicyComparison averages statistics per policy.
func generatePolicyComparison(stats []*domain.SeriesStats) []PolicyComparisonRow {
	groups := make(map[domain.PolicyKind][]*domain.SeriesStats)
	for _, s := range stats {
		groups[s.Policy] = append(groups[s.Policy], s)
	}

	var rows []PolicyComparisonRow
	for _, kind := range domain.AllPolicies {
		group := groups[kind]
		if len(group) == 0 {
			continue
		}

		row := PolicyComparisonRow{Policy: string(kind), Series: len(group)}
		for _, s := range group {
			row.BarsMean += float64(s.Bars)
			row.ReturnStddevMean += s.ReturnStddev
			row.ReturnAutocorrMean += s.ReturnAutocorr
		}
		n := float64(len(group))
		row.BarsMean /= n
		row.ReturnStddevMean /= n
		row.ReturnAutocorrMean /= n

		rows = append(rows, row)
	}
	return rows
}

func sortedUnique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
