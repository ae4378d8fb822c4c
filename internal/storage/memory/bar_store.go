package memory

import (
	"context"
	"sort"
	"sync"

	"taq-bars/internal/domain"
	"taq-bars/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu     sync.RWMutex
	series map[string]*domain.BarSeries   // keyed by series_id
	bars   map[string][]*domain.SeriesBar // keyed by series_id, ordered by bar_index
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		series: make(map[string]*domain.BarSeries),
		bars:   make(map[string][]*domain.SeriesBar),
	}
}

// InsertSeries stores a series header with its bars. Fails entirely on duplicate.
func (s *BarStore) InsertSeries(_ context.Context, series *domain.BarSeries, bars []*domain.SeriesBar) error {
	if series == nil || series.SeriesID == "" || series.Symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.series[series.SeriesID]; exists {
		return storage.ErrDuplicateKey
	}

	// First pass: validate bars and detect repeated indexes
	indexes := make(map[int]struct{}, len(bars))
	for _, b := range bars {
		if b == nil || b.SeriesID != series.SeriesID {
			return storage.ErrInvalidInput
		}
		if _, exists := indexes[b.BarIndex]; exists {
			return storage.ErrDuplicateKey
		}
		indexes[b.BarIndex] = struct{}{}
	}

	// Second pass: insert all
	stored := make([]*domain.SeriesBar, len(bars))
	for i, b := range bars {
		stored[i] = copySeriesBar(b)
	}
	sort.Slice(stored, func(i, j int) bool {
		return stored[i].BarIndex < stored[j].BarIndex
	})

	seriesCopy := *series
	s.series[series.SeriesID] = &seriesCopy
	s.bars[series.SeriesID] = stored

	return nil
}

// GetSeries retrieves a series header by ID.
func (s *BarStore) GetSeries(_ context.Context, seriesID string) (*domain.BarSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, ok := s.series[seriesID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	seriesCopy := *series
	return &seriesCopy, nil
}

// GetBars retrieves all bars of a series ordered by bar_index ASC.
func (s *BarStore) GetBars(_ context.Context, seriesID string) ([]*domain.SeriesBar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.bars[seriesID]
	result := make([]*domain.SeriesBar, len(stored))
	for i, b := range stored {
		result[i] = copySeriesBar(b)
	}
	return result, nil
}

// ListSeriesBySymbol retrieves every series of a symbol ordered by (policy, params).
func (s *BarStore) ListSeriesBySymbol(_ context.Context, symbol string) ([]*domain.BarSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BarSeries
	for _, series := range s.series {
		if series.Symbol == symbol {
			seriesCopy := *series
			result = append(result, &seriesCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Policy != result[j].Policy {
			return result[i].Policy < result[j].Policy
		}
		return result[i].Params < result[j].Params
	})
	return result, nil
}

// copySeriesBar deep-copies the optional volume and dollar fields.
func copySeriesBar(b *domain.SeriesBar) *domain.SeriesBar {
	c := *b
	if b.Bar.Volume != nil {
		v := *b.Bar.Volume
		c.Bar.Volume = &v
	}
	if b.Bar.DollarValue != nil {
		v := *b.Bar.DollarValue
		c.Bar.DollarValue = &v
	}
	return &c
}

var _ storage.BarStore = (*BarStore)(nil)
