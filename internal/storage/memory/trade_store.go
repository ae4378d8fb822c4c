package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"taq-bars/internal/domain"
	"taq-bars/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu     sync.RWMutex
	data   map[string]*domain.Trade // keyed by (symbol, timestamp_ns, sequence_no)
	nextID int64
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]*domain.Trade),
	}
}

// tradeKey generates a unique key for a trade.
func tradeKey(symbol string, ts time.Time, sequenceNo int64) string {
	return fmt.Sprintf("%s|%d|%d", symbol, ts.UnixNano(), sequenceNo)
}

// InsertBulk adds multiple trades. Fails entire batch on duplicate.
// IDs are assigned in insertion order, as a BIGSERIAL column would.
func (s *TradeStore) InsertBulk(_ context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(trades))

	// First pass: check for duplicates (existing + intra-batch)
	for _, t := range trades {
		if t == nil || t.Symbol == "" || t.Timestamp.IsZero() {
			return storage.ErrInvalidInput
		}
		key := tradeKey(t.Symbol, t.Timestamp, t.SequenceNo)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, t := range trades {
		s.nextID++
		tradeCopy := *t
		tradeCopy.ID = s.nextID
		s.data[tradeKey(t.Symbol, t.Timestamp, t.SequenceNo)] = &tradeCopy
	}

	return nil
}

// GetBySymbol retrieves all trades for a symbol ordered by (timestamp, id) ASC,
// skipping excluded sale conditions.
func (s *TradeStore) GetBySymbol(_ context.Context, symbol string, excludeConditions []string) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.data {
		if t.Symbol != symbol || excluded(t.SaleCondition, excludeConditions) {
			continue
		}
		tradeCopy := *t
		result = append(result, &tradeCopy)
	}

	sortTrades(result)
	return result, nil
}

// GetByTimeRange retrieves trades for a symbol within [start, end] (inclusive).
func (s *TradeStore) GetByTimeRange(_ context.Context, symbol string, start, end time.Time) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.data {
		if t.Symbol == symbol && !t.Timestamp.Before(start) && !t.Timestamp.After(end) {
			tradeCopy := *t
			result = append(result, &tradeCopy)
		}
	}

	sortTrades(result)
	return result, nil
}

// ListSymbols returns every distinct symbol, sorted.
func (s *TradeStore) ListSymbols(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, t := range s.data {
		seen[t.Symbol] = struct{}{}
	}

	symbols := make([]string, 0, len(seen))
	for sym := range seen {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols, nil
}

func excluded(condition string, codes []string) bool {
	for _, code := range codes {
		if code != "" && strings.Contains(condition, code) {
			return true
		}
	}
	return false
}

func sortTrades(trades []*domain.Trade) {
	sort.Slice(trades, func(i, j int) bool {
		if !trades[i].Timestamp.Equal(trades[j].Timestamp) {
			return trades[i].Timestamp.Before(trades[j].Timestamp)
		}
		return trades[i].ID < trades[j].ID
	})
}

var _ storage.TradeStore = (*TradeStore)(nil)
