package clickhouse

import (
	"context"
	"fmt"
	"time"

	"taq-bars/internal/domain"
	"taq-bars/internal/storage"
)

// BarStore implements storage.BarStore using ClickHouse.
// Series headers live in bar_series, bars in bars.
type BarStore struct {
	conn *Conn
}

// NewBarStore creates a new BarStore.
func NewBarStore(conn *Conn) *BarStore {
	return &BarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertSeries stores a series header with its bars.
// Bars are written before the header so a visible header implies its bars.
func (s *BarStore) InsertSeries(ctx context.Context, series *domain.BarSeries, bars []*domain.SeriesBar) (err error) {
	defer observeQuery("insert_series", time.Now(), &err)

	if series == nil || series.SeriesID == "" || series.Symbol == "" {
		return storage.ErrInvalidInput
	}

	// Check for intra-batch duplicates
	seen := make(map[int]struct{}, len(bars))
	for _, b := range bars {
		if b == nil || b.SeriesID != series.SeriesID || b.BarIndex < 0 {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[b.BarIndex]; exists {
			return storage.ErrDuplicateKey
		}
		seen[b.BarIndex] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	exists, err := s.exists(ctx, series.SeriesID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	if len(bars) > 0 {
		if err := s.insertBars(ctx, bars); err != nil {
			return err
		}
	}

	err = s.conn.Exec(ctx, `
		INSERT INTO bar_series (
			series_id, symbol, policy, params, bar_count, trade_count, dropped_trades, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		series.SeriesID, series.Symbol, string(series.Policy), series.Params,
		uint32(series.BarCount), uint64(series.TradeCount), uint64(series.DroppedTrades), uint64(series.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert series: %w", err)
	}

	return nil
}

func (s *BarStore) insertBars(ctx context.Context, bars []*domain.SeriesBar) error {
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO bars (
			series_id, bar_index, state, start_ns, end_ns, interval_start, interval_end,
			open, high, low, close, volume, dollar_value, tick_count
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bars {
		err = batch.Append(
			b.SeriesID, uint32(b.BarIndex), string(b.State),
			toNanos(b.Bar.Start), toNanos(b.Bar.End),
			toNanos(b.IntervalStart), toNanos(b.IntervalEnd),
			b.Bar.Open, b.Bar.High, b.Bar.Low, b.Bar.Close,
			b.Bar.Volume, b.Bar.DollarValue, uint32(b.Bar.TickCount),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetSeries retrieves a series header. Returns ErrNotFound if not exists.
func (s *BarStore) GetSeries(ctx context.Context, seriesID string) (*domain.BarSeries, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT series_id, symbol, policy, params, bar_count, trade_count, dropped_trades, created_at
		FROM bar_series
		WHERE series_id = ?
		LIMIT 1
	`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}
	defer rows.Close()

	series, err := scanBarSeries(rows)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, storage.ErrNotFound
	}
	return series[0], nil
}

// GetBars retrieves all bars of a series ordered by bar_index ASC.
func (s *BarStore) GetBars(ctx context.Context, seriesID string) (_ []*domain.SeriesBar, err error) {
	defer observeQuery("get_bars", time.Now(), &err)

	rows, err := s.conn.Query(ctx, `
		SELECT series_id, bar_index, state, start_ns, end_ns, interval_start, interval_end,
		       open, high, low, close, volume, dollar_value, tick_count
		FROM bars
		WHERE series_id = ?
		ORDER BY bar_index ASC
	`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	return scanSeriesBars(rows)
}

// ListSeriesBySymbol retrieves every series of a symbol ordered by (policy, params).
func (s *BarStore) ListSeriesBySymbol(ctx context.Context, symbol string) ([]*domain.BarSeries, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT series_id, symbol, policy, params, bar_count, trade_count, dropped_trades, created_at
		FROM bar_series
		WHERE symbol = ?
		ORDER BY policy ASC, params ASC
	`, symbol)
	if err != nil {
		return nil, fmt.Errorf("query series by symbol: %w", err)
	}
	defer rows.Close()

	return scanBarSeries(rows)
}

// exists checks if a series header with the given ID exists.
func (s *BarStore) exists(ctx context.Context, seriesID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `
		SELECT count(*) FROM bar_series WHERE series_id = ?
	`, seriesID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanBarSeries(rows chRows) ([]*domain.BarSeries, error) {
	var result []*domain.BarSeries

	for rows.Next() {
		var bs domain.BarSeries
		var policy string
		var barCount uint32
		var tradeCount, dropped, createdAt uint64

		err := rows.Scan(
			&bs.SeriesID, &bs.Symbol, &policy, &bs.Params,
			&barCount, &tradeCount, &dropped, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan bar series row: %w", err)
		}

		bs.Policy = domain.PolicyKind(policy)
		bs.BarCount = int(barCount)
		bs.TradeCount = int(tradeCount)
		bs.DroppedTrades = int(dropped)
		bs.CreatedAt = int64(createdAt)
		result = append(result, &bs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bar series rows: %w", err)
	}

	return result, nil
}

func scanSeriesBars(rows chRows) ([]*domain.SeriesBar, error) {
	var result []*domain.SeriesBar

	for rows.Next() {
		var b domain.SeriesBar
		var state string
		var barIndex, tickCount uint32
		var startNs, endNs, intervalStart, intervalEnd int64

		err := rows.Scan(
			&b.SeriesID, &barIndex, &state,
			&startNs, &endNs, &intervalStart, &intervalEnd,
			&b.Bar.Open, &b.Bar.High, &b.Bar.Low, &b.Bar.Close,
			&b.Bar.Volume, &b.Bar.DollarValue, &tickCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan bar row: %w", err)
		}

		b.BarIndex = int(barIndex)
		b.State = domain.BarState(state)
		b.Bar.Start = fromNanos(startNs)
		b.Bar.End = fromNanos(endNs)
		b.IntervalStart = fromNanos(intervalStart)
		b.IntervalEnd = fromNanos(intervalEnd)
		b.Bar.TickCount = int(tickCount)
		result = append(result, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bar rows: %w", err)
	}

	return result, nil
}

// toNanos maps the zero time to 0 so unset bounds round-trip.
func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
