package sampling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"taq-bars/internal/domain"
	"taq-bars/internal/observability"
	"taq-bars/internal/storage"
)

// RunSymbol resamples a single symbol.
// Steps:
//  1. Load trades from the trade store, excluded sale conditions filtered out
//  2. Validate configuration for every policy before touching the bar store
//  3. Resample under each policy
//  4. Store series header and bars
func (r *Runner) RunSymbol(ctx context.Context, symbol string) ([]*domain.BarSeries, error) {
	start := time.Now()
	series, err := r.runSymbol(ctx, symbol)

	status := "success"
	if err != nil {
		status = "error"
	}
	observability.RecordRun(status, time.Since(start).Seconds())
	return series, err
}

func (r *Runner) runSymbol(ctx context.Context, symbol string) ([]*domain.BarSeries, error) {
	for _, kind := range r.policies {
		if err := r.config.Validate(kind); err != nil {
			return nil, err
		}
	}

	// 1. Load trades
	trades, err := r.tradeStore.GetBySymbol(ctx, symbol, r.excludeConditions)
	if err != nil {
		return nil, fmt.Errorf("load trades for %s: %w", symbol, err)
	}
	r.logger.Debug("loaded trades", "symbol", symbol, "trades", len(trades))
	trades = InLocation(trades, r.location)

	out := make([]*domain.BarSeries, 0, len(r.policies))
	for _, kind := range r.policies {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		// 2. Resample
		began := time.Now()
		res, err := Resample(trades, kind, r.config)
		if err != nil {
			return out, fmt.Errorf("resample %s %s: %w", symbol, kind, err)
		}
		observability.RecordResample(string(kind), res.TradesConsumed, len(res.Bars), res.TradesDropped, time.Since(began).Seconds())

		// 3. Store
		s := res.Series(symbol, r.clock().UnixMilli())
		if err := r.barStore.InsertSeries(ctx, s, res.Bars); err != nil {
			if r.skipExisting && errors.Is(err, storage.ErrDuplicateKey) {
				r.logger.Info("series already stored", "symbol", symbol, "policy", kind, "series_id", s.SeriesID)
				out = append(out, s)
				continue
			}
			return out, fmt.Errorf("store %s %s: %w", symbol, kind, err)
		}

		r.logger.Info("series stored",
			"symbol", symbol,
			"policy", kind,
			"params", s.Params,
			"series_id", s.SeriesID,
			"bars", s.BarCount,
			"dropped", s.DroppedTrades,
		)
		out = append(out, s)
	}
	return out, nil
}

// RunBatch resamples symbols in parallel, at most Concurrency at a time.
// Each symbol is processed by exactly one goroutine. The first error
// cancels the remaining work.
func (r *Runner) RunBatch(ctx context.Context, symbols []string) (map[string][]*domain.BarSeries, error) {
	results := make([][]*domain.BarSeries, len(symbols))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			series, err := r.RunSymbol(ctx, symbol)
			if err != nil {
				return err
			}
			results[i] = series
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]*domain.BarSeries, len(symbols))
	for i, symbol := range symbols {
		out[symbol] = results[i]
	}
	return out, nil
}

// RunAll resamples every symbol known to the trade store.
func (r *Runner) RunAll(ctx context.Context) (map[string][]*domain.BarSeries, error) {
	symbols, err := r.tradeStore.ListSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	return r.RunBatch(ctx, symbols)
}

// InLocation returns copies of trades with timestamps in loc.
// A nil loc returns trades unchanged.
func InLocation(trades []*domain.Trade, loc *time.Location) []*domain.Trade {
	if loc == nil {
		return trades
	}
	out := make([]*domain.Trade, len(trades))
	for i, t := range trades {
		c := *t
		c.Timestamp = c.Timestamp.In(loc)
		out[i] = &c
	}
	return out
}
