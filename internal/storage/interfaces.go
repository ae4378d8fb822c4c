package storage

import (
	"context"
	"time"

	"taq-bars/internal/domain"
)

// TradeStore provides access to trades storage.
type TradeStore interface {
	// InsertBulk adds multiple trades atomically.
	// Fails entire batch on duplicate (symbol, timestamp, sequence_no).
	InsertBulk(ctx context.Context, trades []*domain.Trade) error

	// GetBySymbol retrieves all trades for a symbol ordered by (timestamp, id) ASC.
	// Trades whose sale condition contains any of excludeConditions are skipped.
	GetBySymbol(ctx context.Context, symbol string, excludeConditions []string) ([]*domain.Trade, error)

	// GetByTimeRange retrieves trades for a symbol within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, symbol string, start, end time.Time) ([]*domain.Trade, error)

	// ListSymbols returns every distinct symbol, sorted.
	ListSymbols(ctx context.Context) ([]string, error)
}

// BarStore provides access to bar_series and bars storage.
type BarStore interface {
	// InsertSeries stores a series header with its bars.
	// Returns ErrDuplicateKey if series_id exists or bar indexes repeat.
	InsertSeries(ctx context.Context, series *domain.BarSeries, bars []*domain.SeriesBar) error

	// GetSeries retrieves a series header. Returns ErrNotFound if not exists.
	GetSeries(ctx context.Context, seriesID string) (*domain.BarSeries, error)

	// GetBars retrieves all bars of a series ordered by bar_index ASC.
	GetBars(ctx context.Context, seriesID string) ([]*domain.SeriesBar, error)

	// ListSeriesBySymbol retrieves every series of a symbol ordered by (policy, params).
	ListSeriesBySymbol(ctx context.Context, symbol string) ([]*domain.BarSeries, error)
}
