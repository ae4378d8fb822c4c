package sampling

import (
	"context"
	"errors"
	"testing"
	"time"

	"taq-bars/internal/domain"
	"taq-bars/internal/storage"
	"taq-bars/internal/storage/memory"
)

func fixedClock() time.Time {
	return time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC)
}

func seedTrades(t *testing.T, store *memory.TradeStore, symbol string, prices []float64, conditions []string) {
	t.Helper()
	trades := mkTrades(prices, nil)
	for i, tr := range trades {
		tr.Symbol = symbol
		tr.SequenceNo = int64(i + 1)
		if conditions != nil {
			tr.SaleCondition = conditions[i]
		}
	}
	if err := store.InsertBulk(context.Background(), trades); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
}

func newTestRunner(trades *memory.TradeStore, bars *memory.BarStore, opts RunnerOptions) *Runner {
	opts.TradeStore = trades
	opts.BarStore = bars
	opts.Clock = fixedClock
	if opts.Config == (Config{}) {
		opts.Config = DefaultConfig()
	}
	return NewRunner(opts)
}

func TestRunner_RunSymbol(t *testing.T) {
	ctx := context.Background()
	tradeStore := memory.NewTradeStore()
	barStore := memory.NewBarStore()
	seedTrades(t, tradeStore, "IBM", []float64{10, 12, 9, 11, 13, 8}, nil)

	cfg := DefaultConfig()
	cfg.Tick.TickCount = 3
	runner := newTestRunner(tradeStore, barStore, RunnerOptions{Config: cfg, Policies: []domain.PolicyKind{domain.PolicyTick}})

	series, err := runner.RunSymbol(ctx, "IBM")
	if err != nil {
		t.Fatalf("RunSymbol failed: %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("Expected 1 series, got %d", len(series))
	}
	if series[0].CreatedAt != fixedClock().UnixMilli() {
		t.Errorf("Expected CreatedAt from clock, got %d", series[0].CreatedAt)
	}

	bars, err := barStore.GetBars(ctx, series[0].SeriesID)
	if err != nil {
		t.Fatalf("GetBars failed: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("Expected 2 stored bars, got %d", len(bars))
	}
	if ohlc(bars[0].Bar) != [4]float64{10, 12, 9, 9} || ohlc(bars[1].Bar) != [4]float64{11, 13, 8, 8} {
		t.Errorf("Unexpected stored bars: %v, %v", ohlc(bars[0].Bar), ohlc(bars[1].Bar))
	}
}

func TestRunner_AllPoliciesByDefault(t *testing.T) {
	tradeStore := memory.NewTradeStore()
	barStore := memory.NewBarStore()
	seedTrades(t, tradeStore, "IBM", []float64{10, 11}, nil)

	series, err := newTestRunner(tradeStore, barStore, RunnerOptions{}).RunSymbol(context.Background(), "IBM")
	if err != nil {
		t.Fatalf("RunSymbol failed: %v", err)
	}
	if len(series) != len(domain.AllPolicies) {
		t.Fatalf("Expected %d series, got %d", len(domain.AllPolicies), len(series))
	}
	for i, kind := range domain.AllPolicies {
		if series[i].Policy != kind {
			t.Errorf("Series %d: expected %s, got %s", i, kind, series[i].Policy)
		}
	}
}

func TestRunner_ExcludeConditions(t *testing.T) {
	tradeStore := memory.NewTradeStore()
	barStore := memory.NewBarStore()
	seedTrades(t, tradeStore, "IBM", []float64{10, 50, 11, 12}, []string{"@", "@ Z", "F", "@"})

	runner := newTestRunner(tradeStore, barStore, RunnerOptions{
		Policies:          []domain.PolicyKind{domain.PolicyTick},
		ExcludeConditions: []string{"Z"},
	})
	series, err := runner.RunSymbol(context.Background(), "IBM")
	if err != nil {
		t.Fatalf("RunSymbol failed: %v", err)
	}
	if series[0].TradeCount != 3 {
		t.Errorf("Expected 3 trades after exclusion, got %d", series[0].TradeCount)
	}

	bars, _ := barStore.GetBars(context.Background(), series[0].SeriesID)
	if bars[0].Bar.High != 12 {
		t.Errorf("Excluded trade leaked into bar, high = %v", bars[0].Bar.High)
	}
}

func TestRunner_DuplicateSeries(t *testing.T) {
	ctx := context.Background()
	tradeStore := memory.NewTradeStore()
	barStore := memory.NewBarStore()
	seedTrades(t, tradeStore, "IBM", []float64{10, 11}, nil)

	opts := RunnerOptions{Policies: []domain.PolicyKind{domain.PolicyTick}}
	if _, err := newTestRunner(tradeStore, barStore, opts).RunSymbol(ctx, "IBM"); err != nil {
		t.Fatalf("First run failed: %v", err)
	}

	_, err := newTestRunner(tradeStore, barStore, opts).RunSymbol(ctx, "IBM")
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey on rerun, got %v", err)
	}

	opts.SkipExisting = true
	series, err := newTestRunner(tradeStore, barStore, opts).RunSymbol(ctx, "IBM")
	if err != nil {
		t.Fatalf("Expected rerun with SkipExisting to succeed, got %v", err)
	}
	if len(series) != 1 {
		t.Errorf("Expected existing series reported, got %d", len(series))
	}
}

func TestRunner_InvalidConfigurationStoresNothing(t *testing.T) {
	tradeStore := memory.NewTradeStore()
	barStore := memory.NewBarStore()
	seedTrades(t, tradeStore, "IBM", []float64{10, 11}, nil)

	cfg := DefaultConfig()
	cfg.Volume.Threshold = 0
	runner := newTestRunner(tradeStore, barStore, RunnerOptions{Config: cfg})

	_, err := runner.RunSymbol(context.Background(), "IBM")
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("Expected ErrInvalidConfiguration, got %v", err)
	}
	stored, _ := barStore.ListSeriesBySymbol(context.Background(), "IBM")
	if len(stored) != 0 {
		t.Errorf("Expected no series stored, got %d", len(stored))
	}
}

func TestRunner_Location(t *testing.T) {
	ctx := context.Background()
	tradeStore := memory.NewTradeStore()
	barStore := memory.NewBarStore()

	// 14:31 UTC is 09:31 in a UTC-5 session.
	ts := time.Date(2020, 1, 2, 14, 31, 0, 0, time.UTC)
	if err := tradeStore.InsertBulk(ctx, []*domain.Trade{tradeAt(ts, 10, 1)}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	loc := time.FixedZone("ET", -5*3600)
	cfg := DefaultConfig()
	cfg.Time.WindowSize = 7
	runner := newTestRunner(tradeStore, barStore, RunnerOptions{
		Config:   cfg,
		Policies: []domain.PolicyKind{domain.PolicyTime},
		Location: loc,
	})

	series, err := runner.RunSymbol(ctx, "TEST")
	if err != nil {
		t.Fatalf("RunSymbol failed: %v", err)
	}
	bars, _ := barStore.GetBars(ctx, series[0].SeriesID)
	want := time.Date(2020, 1, 2, 9, 27, 0, 0, loc)
	if len(bars) != 1 || !bars[0].IntervalStart.Equal(want) {
		t.Errorf("Expected interval aligned to session midnight at %v, got %+v", want, bars)
	}
}

func TestRunner_RunAll(t *testing.T) {
	tradeStore := memory.NewTradeStore()
	barStore := memory.NewBarStore()
	seedTrades(t, tradeStore, "IBM", []float64{10, 11, 12}, nil)
	seedTrades(t, tradeStore, "MSFT", []float64{20, 21}, nil)
	seedTrades(t, tradeStore, "AAPL", []float64{30}, nil)

	runner := newTestRunner(tradeStore, barStore, RunnerOptions{
		Policies:    []domain.PolicyKind{domain.PolicyTick},
		Concurrency: 2,
	})

	results, err := runner.RunAll(context.Background())
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 symbols, got %d", len(results))
	}
	if results["IBM"][0].TradeCount != 3 || results["AAPL"][0].TradeCount != 1 {
		t.Errorf("Unexpected trade counts: IBM=%d AAPL=%d", results["IBM"][0].TradeCount, results["AAPL"][0].TradeCount)
	}
}

func TestRunner_RunBatchCancelled(t *testing.T) {
	tradeStore := memory.NewTradeStore()
	seedTrades(t, tradeStore, "IBM", []float64{10}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := newTestRunner(tradeStore, memory.NewBarStore(), RunnerOptions{Policies: []domain.PolicyKind{domain.PolicyTick}})
	if _, err := runner.RunBatch(ctx, []string{"IBM"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
