package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"taq-bars/internal/domain"
	"taq-bars/internal/storage"
)

func int64Ptr(v int64) *int64 { return &v }

func testSeries(id, symbol string, policy domain.PolicyKind) (*domain.BarSeries, []*domain.SeriesBar) {
	series := &domain.BarSeries{SeriesID: id, Symbol: symbol, Policy: policy, Params: "p", BarCount: 2, TradeCount: 6}
	bars := []*domain.SeriesBar{
		{SeriesID: id, BarIndex: 1, State: domain.BarStatePopulated, Bar: domain.Bar{Open: 11, High: 13, Low: 8, Close: 8, TickCount: 3, Volume: int64Ptr(30)}},
		{SeriesID: id, BarIndex: 0, State: domain.BarStatePopulated, Bar: domain.Bar{Open: 10, High: 12, Low: 9, Close: 9, TickCount: 3, Volume: int64Ptr(30)}},
	}
	return series, bars
}

func TestBarStore_InsertSeriesAndGet(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	series, bars := testSeries("s1", "AAPL", domain.PolicyTick)
	if err := store.InsertSeries(ctx, series, bars); err != nil {
		t.Fatalf("InsertSeries failed: %v", err)
	}

	got, err := store.GetSeries(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSeries failed: %v", err)
	}
	if got.BarCount != 2 || got.Policy != domain.PolicyTick {
		t.Errorf("Unexpected series header: %+v", got)
	}

	result, err := store.GetBars(ctx, "s1")
	if err != nil {
		t.Fatalf("GetBars failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 bars, got %d", len(result))
	}
	if result[0].BarIndex != 0 || result[0].Bar.Open != 10 {
		t.Errorf("Expected bars ordered by index, got first index %d", result[0].BarIndex)
	}
}

func TestBarStore_ReturnsCopies(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	series, bars := testSeries("s1", "AAPL", domain.PolicyVolume)
	if err := store.InsertSeries(ctx, series, bars); err != nil {
		t.Fatalf("InsertSeries failed: %v", err)
	}

	first, _ := store.GetBars(ctx, "s1")
	*first[0].Bar.Volume = 999

	second, _ := store.GetBars(ctx, "s1")
	if *second[0].Bar.Volume != 30 {
		t.Errorf("Stored volume was mutated through returned bar: %d", *second[0].Bar.Volume)
	}
}

func TestBarStore_DuplicateSeries(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	series, bars := testSeries("s1", "AAPL", domain.PolicyTick)
	if err := store.InsertSeries(ctx, series, bars); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertSeries(ctx, series, bars)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestBarStore_DuplicateBarIndex(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	series, bars := testSeries("s1", "AAPL", domain.PolicyTick)
	bars[1].BarIndex = 1

	err := store.InsertSeries(ctx, series, bars)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey for repeated bar index, got %v", err)
	}

	if _, err := store.GetSeries(ctx, "s1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected series not stored after failed insert, got %v", err)
	}
}

func TestBarStore_MismatchedSeriesID(t *testing.T) {
	store := NewBarStore()
	series, bars := testSeries("s1", "AAPL", domain.PolicyTick)
	bars[0].SeriesID = "other"

	err := store.InsertSeries(context.Background(), series, bars)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestBarStore_GetSeriesNotFound(t *testing.T) {
	store := NewBarStore()

	_, err := store.GetSeries(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestBarStore_TimeBarIntervals(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	start := time.Date(2020, 1, 2, 9, 40, 0, 0, time.UTC)
	series := &domain.BarSeries{SeriesID: "t1", Symbol: "AAPL", Policy: domain.PolicyTime, BarCount: 1}
	bars := []*domain.SeriesBar{{
		SeriesID: "t1", BarIndex: 0, State: domain.BarStateEmpty,
		IntervalStart: start, IntervalEnd: start.Add(20 * time.Minute),
	}}
	if err := store.InsertSeries(ctx, series, bars); err != nil {
		t.Fatalf("InsertSeries failed: %v", err)
	}

	result, _ := store.GetBars(ctx, "t1")
	if len(result) != 1 || !result[0].IntervalStart.Equal(start) || result[0].State != domain.BarStateEmpty {
		t.Errorf("Unexpected time bar: %+v", result)
	}
}

func TestBarStore_ListSeriesBySymbol(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	for _, tc := range []struct {
		id     string
		symbol string
		policy domain.PolicyKind
	}{
		{"s1", "AAPL", domain.PolicyVolume},
		{"s2", "AAPL", domain.PolicyDollar},
		{"s3", "MSFT", domain.PolicyTick},
	} {
		series, bars := testSeries(tc.id, tc.symbol, tc.policy)
		if err := store.InsertSeries(ctx, series, bars); err != nil {
			t.Fatalf("InsertSeries %s failed: %v", tc.id, err)
		}
	}

	result, err := store.ListSeriesBySymbol(ctx, "AAPL")
	if err != nil {
		t.Fatalf("ListSeriesBySymbol failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 series, got %d", len(result))
	}
	if result[0].Policy != domain.PolicyDollar || result[1].Policy != domain.PolicyVolume {
		t.Errorf("Expected series ordered by policy, got %s, %s", result[0].Policy, result[1].Policy)
	}
}
