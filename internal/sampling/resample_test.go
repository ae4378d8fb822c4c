package sampling

import (
	"reflect"
	"testing"
	"time"

	"taq-bars/internal/domain"
	"taq-bars/internal/idhash"
)

func TestResample_ContiguousIndexes(t *testing.T) {
	trades := []*domain.Trade{
		tradeAt(hm(9, 30, 0), 10, 60),
		tradeAt(hm(9, 31, 0), 11, 60),
		tradeAt(hm(10, 45, 0), 12, 60),
	}

	for _, kind := range domain.AllPolicies {
		res, err := Resample(trades, kind, DefaultConfig())
		if err != nil {
			t.Fatalf("%s: Resample failed: %v", kind, err)
		}
		for i, b := range res.Bars {
			if b.BarIndex != i {
				t.Errorf("%s: bar %d has index %d", kind, i, b.BarIndex)
			}
		}
		if res.TradesConsumed != 3 {
			t.Errorf("%s: expected 3 trades consumed, got %d", kind, res.TradesConsumed)
		}
	}
}

func TestResample_TimeIncludesEmptyIntervals(t *testing.T) {
	trades := []*domain.Trade{
		tradeAt(hm(9, 30, 0), 10, 1),
		tradeAt(hm(10, 45, 0), 12, 1),
	}

	res, err := Resample(trades, domain.PolicyTime, DefaultConfig())
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	if len(res.Bars) != 5 {
		t.Fatalf("Expected 5 bars, got %d", len(res.Bars))
	}
	if res.Bars[2].State != domain.BarStateEmpty {
		t.Errorf("Expected EMPTY interval at index 2, got %s", res.Bars[2].State)
	}
	if !res.Bars[2].IntervalStart.Equal(hm(10, 0, 0)) {
		t.Errorf("Expected interval start 10:00, got %v", res.Bars[2].IntervalStart)
	}
}

func TestResample_TrailingDropCounted(t *testing.T) {
	trades := mkTrades([]float64{10, 11, 12}, []int64{40, 40, 10})

	res, err := Resample(trades, domain.PolicyVolume, DefaultConfig())
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	if len(res.Bars) != 0 || res.TradesDropped != 3 {
		t.Errorf("Expected 0 bars and 3 dropped trades, got %d bars and %d dropped", len(res.Bars), res.TradesDropped)
	}
}

func TestResample_Determinism(t *testing.T) {
	prices := []float64{10, 12, 9, 11, 13, 8, 10.5, 10.25, 9.75, 11, 12.5}
	volumes := []int64{30, 70, 5, 120, 40, 40, 15, 300, 2, 90, 60}
	trades := mkTrades(prices, volumes)

	cfg := DefaultConfig()
	cfg.Time.WindowSize = 3
	cfg.Time.WindowUnit = UnitSecond
	cfg.Time.IncludeVolume = true
	cfg.Tick.TickCount = 4

	for _, kind := range domain.AllPolicies {
		first, err := Resample(trades, kind, cfg)
		if err != nil {
			t.Fatalf("%s: Resample failed: %v", kind, err)
		}
		for run := 0; run < 5; run++ {
			again, _ := Resample(trades, kind, cfg)
			if !reflect.DeepEqual(first, again) {
				t.Fatalf("%s: run %d differs from first run", kind, run)
			}
		}
	}
}

func TestResult_Series(t *testing.T) {
	trades := mkTrades([]float64{10, 12, 9, 11, 13, 8}, nil)
	cfg := DefaultConfig()
	cfg.Tick.TickCount = 3

	res, err := Resample(trades, domain.PolicyTick, cfg)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}

	createdAt := time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC).UnixMilli()
	s := res.Series("IBM", createdAt)

	wantID := idhash.ComputeSeriesID("IBM", domain.PolicyTick, "ticks=3,volume=false")
	if s.SeriesID != wantID {
		t.Errorf("Expected series ID %s, got %s", wantID, s.SeriesID)
	}
	if s.BarCount != 2 || s.TradeCount != 6 || s.CreatedAt != createdAt {
		t.Errorf("Unexpected series header: %+v", s)
	}
	for _, b := range res.Bars {
		if b.SeriesID != wantID {
			t.Errorf("Bar %d not stamped with series ID", b.BarIndex)
		}
	}
}
