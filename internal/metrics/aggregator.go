// Package metrics computes statistical properties of stored bar series.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"taq-bars/internal/domain"
	"taq-bars/internal/storage"
)

// ErrNoBars is returned when a series has no bars to aggregate.
var ErrNoBars = errors.New("no bars available for aggregation")

// Aggregator computes series statistics from stored bars.
type Aggregator struct {
	barStore storage.BarStore

	// EmptySeries tracks series that produced no bars (for data quality reporting).
	// Key: series_id, Value: trades consumed by the series.
	EmptySeries map[string]int
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator(barStore storage.BarStore) *Aggregator {
	return &Aggregator{
		barStore:    barStore,
		EmptySeries: make(map[string]int),
	}
}

// ComputeSeries computes statistics for one stored series.
// Returns ErrNoBars if the series holds no bars.
func (a *Aggregator) ComputeSeries(ctx context.Context, seriesID string) (*domain.SeriesStats, error) {
	series, err := a.barStore.GetSeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	return a.compute(ctx, series)
}

// ComputeSymbol computes statistics for every stored series of a symbol,
// ordered by (policy, params). Series without bars are recorded in
// EmptySeries and skipped.
func (a *Aggregator) ComputeSymbol(ctx context.Context, symbol string) ([]*domain.SeriesStats, error) {
	series, err := a.barStore.ListSeriesBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.SeriesStats, 0, len(series))
	for _, s := range series {
		stats, err := a.compute(ctx, s)
		if err != nil {
			if errors.Is(err, ErrNoBars) {
				// Record empty series (don't silently skip)
				a.EmptySeries[s.SeriesID] = s.TradeCount
				continue
			}
			return nil, err
		}
		out = append(out, stats)
	}
	return out, nil
}

func (a *Aggregator) compute(ctx context.Context, series *domain.BarSeries) (*domain.SeriesStats, error) {
	bars, err := a.barStore.GetBars(ctx, series.SeriesID)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, ErrNoBars
	}
	return computeFromBars(series, bars), nil
}

// GetEmptySeriesWarnings returns data quality warnings for series without bars.
// Returns slice of messages sorted by series_id for deterministic output.
func (a *Aggregator) GetEmptySeriesWarnings() []string {
	if len(a.EmptySeries) == 0 {
		return nil
	}

	// Sort keys for deterministic output
	keys := make([]string, 0, len(a.EmptySeries))
	for k := range a.EmptySeries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	warnings := make([]string, len(keys))
	for i, seriesID := range keys {
		warnings[i] = fmt.Sprintf("series %s produced no bars from %d trade(s)", seriesID, a.EmptySeries[seriesID])
	}
	return warnings
}
