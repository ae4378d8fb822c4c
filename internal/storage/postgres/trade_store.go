package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"taq-bars/internal/domain"
	"taq-bars/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

var tradeColumns = []string{
	"symbol", "exchange", "timestamp_ns", "price", "volume", "sale_condition", "sequence_no",
}

// InsertBulk adds multiple trades atomically using COPY. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.Trade) (err error) {
	defer observeQuery("insert_trades", time.Now(), &err)

	if len(trades) == 0 {
		return nil
	}
	for _, t := range trades {
		if t == nil || t.Symbol == "" || t.Timestamp.IsZero() {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"trades"}, tradeColumns,
		pgx.CopyFromSlice(len(trades), func(i int) ([]any, error) {
			t := trades[i]
			return []any{
				t.Symbol,
				t.Exchange,
				t.Timestamp.UnixNano(),
				t.Price,
				t.Volume,
				t.SaleCondition,
				t.SequenceNo,
			}, nil
		}),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("copy trades: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetBySymbol retrieves all trades for a symbol ordered by (timestamp, id) ASC.
// Excluded sale conditions are matched as substrings, like the memory store.
func (s *TradeStore) GetBySymbol(ctx context.Context, symbol string, excludeConditions []string) (_ []*domain.Trade, err error) {
	defer observeQuery("get_trades_by_symbol", time.Now(), &err)

	query := `
		SELECT id, symbol, exchange, timestamp_ns, price, volume, sale_condition, sequence_no
		FROM trades
		WHERE symbol = $1 AND NOT (sale_condition LIKE ANY($2))
		ORDER BY timestamp_ns ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol, likePatterns(excludeConditions))
	if err != nil {
		return nil, fmt.Errorf("get trades by symbol: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByTimeRange retrieves trades for a symbol within [start, end] (inclusive).
func (s *TradeStore) GetByTimeRange(ctx context.Context, symbol string, start, end time.Time) ([]*domain.Trade, error) {
	query := `
		SELECT id, symbol, exchange, timestamp_ns, price, volume, sale_condition, sequence_no
		FROM trades
		WHERE symbol = $1 AND timestamp_ns >= $2 AND timestamp_ns <= $3
		ORDER BY timestamp_ns ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol, start.UnixNano(), end.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("get trades by time range: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// ListSymbols returns every distinct symbol, sorted.
func (s *TradeStore) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT symbol FROM trades ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	defer rows.Close()

	symbols, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan symbols: %w", err)
	}
	return symbols, nil
}

// likePatterns turns condition codes into escaped %code% patterns.
// Empty codes are skipped; an empty result matches nothing.
func likePatterns(codes []string) []string {
	escaper := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	patterns := make([]string, 0, len(codes))
	for _, code := range codes {
		if code == "" {
			continue
		}
		patterns = append(patterns, "%"+escaper.Replace(code)+"%")
	}
	return patterns
}

// scanTrades scans multiple rows into a slice of Trade.
func scanTrades(rows pgx.Rows) ([]*domain.Trade, error) {
	var trades []*domain.Trade

	for rows.Next() {
		var t domain.Trade
		var tsNanos int64

		err := rows.Scan(
			&t.ID,
			&t.Symbol,
			&t.Exchange,
			&tsNanos,
			&t.Price,
			&t.Volume,
			&t.SaleCondition,
			&t.SequenceNo,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		t.Timestamp = time.Unix(0, tsNanos).UTC()

		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}
