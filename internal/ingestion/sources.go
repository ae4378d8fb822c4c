package ingestion

import (
	"context"

	"taq-bars/internal/domain"
	"taq-bars/internal/storage"
)

// TradeSource provides trades from an external source.
type TradeSource interface {
	// Trades returns every trade the source holds. Order is source-defined;
	// callers run SortTrades before resampling.
	Trades(ctx context.Context) ([]*domain.Trade, error)
}

// StoreSource reads one symbol from a trade store with excluded sale
// conditions filtered out by the store.
type StoreSource struct {
	Store             storage.TradeStore
	Symbol            string
	ExcludeConditions []string
}

// Trades implements TradeSource. Results are already in (timestamp, id) order.
func (s *StoreSource) Trades(ctx context.Context) ([]*domain.Trade, error) {
	return s.Store.GetBySymbol(ctx, s.Symbol, s.ExcludeConditions)
}

// SliceSource serves trades held in memory.
type SliceSource []*domain.Trade

// Trades implements TradeSource.
func (s SliceSource) Trades(context.Context) ([]*domain.Trade, error) {
	return []*domain.Trade(s), nil
}

var (
	_ TradeSource = (*StoreSource)(nil)
	_ TradeSource = SliceSource(nil)
	_ TradeSource = (*DelimitedSource)(nil)
)
