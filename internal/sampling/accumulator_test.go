package sampling

import (
	"testing"

	"taq-bars/internal/domain"
)

// scriptedPolicy returns decisions from a fixed script.
type scriptedPolicy struct {
	decisions []Decision
	trailing  TrailingRule
	resets    int
	i         int
}

func (p *scriptedPolicy) Observe(*domain.Trade) Decision {
	d := p.decisions[p.i]
	p.i++
	return d
}

func (p *scriptedPolicy) Trailing() TrailingRule { return p.trailing }
func (p *scriptedPolicy) Reset()                 { p.resets++ }

func TestAccumulator_CloseInclusive(t *testing.T) {
	policy := &scriptedPolicy{decisions: []Decision{Continue, CloseInclusive, Continue}, trailing: EmitTrailing}
	acc := NewAccumulator(policy, Emitter{})

	for _, tr := range mkTrades([]float64{1, 2, 3}, nil) {
		acc.Push(tr)
		if acc.State() != Accumulating {
			t.Fatalf("Expected Accumulating between trades, got %v", acc.State())
		}
	}
	if acc.Buffered() != 1 {
		t.Errorf("Expected 1 buffered trade after close, got %d", acc.Buffered())
	}

	bars := acc.Finish()
	if len(bars) != 2 {
		t.Fatalf("Expected 2 bars, got %d", len(bars))
	}
	if bars[0].TickCount != 2 || bars[0].Close != 2 {
		t.Errorf("First bar should include the closing trade, got %+v", bars[0])
	}
	if bars[1].TickCount != 1 || bars[1].Open != 3 {
		t.Errorf("Trailing bar should hold the last trade, got %+v", bars[1])
	}
	// One reset after the inclusive close, one at Finish.
	if policy.resets != 2 {
		t.Errorf("Expected 2 policy resets, got %d", policy.resets)
	}
}

func TestAccumulator_CloseBefore(t *testing.T) {
	policy := &scriptedPolicy{decisions: []Decision{Continue, Continue, CloseBefore}, trailing: EmitTrailing}
	acc := NewAccumulator(policy, Emitter{})

	for _, tr := range mkTrades([]float64{1, 2, 3}, nil) {
		acc.Push(tr)
	}
	if policy.resets != 0 {
		t.Errorf("CloseBefore must not reset the policy, got %d resets", policy.resets)
	}

	bars := acc.Finish()
	if len(bars) != 2 || bars[0].TickCount != 2 || bars[1].Open != 3 {
		t.Errorf("Expected bars [1,2] and [3], got %+v", bars)
	}
}

func TestAccumulator_CloseBeforeOnFirstTradeEmitsNothing(t *testing.T) {
	policy := &scriptedPolicy{decisions: []Decision{CloseBefore}, trailing: EmitTrailing}
	acc := NewAccumulator(policy, Emitter{})

	acc.Push(mkTrades([]float64{1}, nil)[0])
	bars := acc.Finish()
	if len(bars) != 1 || bars[0].TickCount != 1 {
		t.Errorf("Empty buffer must never produce a bar, got %+v", bars)
	}
}

func TestAccumulator_DropTrailing(t *testing.T) {
	policy := &scriptedPolicy{decisions: []Decision{CloseInclusive, Continue, Continue}, trailing: DropTrailing}
	acc := NewAccumulator(policy, Emitter{})

	for _, tr := range mkTrades([]float64{1, 2, 3}, nil) {
		acc.Push(tr)
	}
	bars := acc.Finish()
	if len(bars) != 1 {
		t.Errorf("Expected trailing bar dropped, got %d bars", len(bars))
	}
	if acc.Dropped() != 2 {
		t.Errorf("Expected 2 dropped trades, got %d", acc.Dropped())
	}
	if acc.Buffered() != 0 {
		t.Errorf("Expected empty buffer after Finish, got %d", acc.Buffered())
	}
}

func TestAccumulator_BarsDoNotShareBuffer(t *testing.T) {
	acc := NewAccumulator(NewTickPolicy(2), Emitter{IncludeVolume: true})
	for _, tr := range mkTrades([]float64{1, 2, 3, 4}, []int64{1, 2, 3, 4}) {
		acc.Push(tr)
	}
	bars := acc.Finish()

	if *bars[0].Volume != 3 || *bars[1].Volume != 7 {
		t.Errorf("Expected independent volumes 3 and 7, got %d and %d", *bars[0].Volume, *bars[1].Volume)
	}
}

func TestEmitter_Emit(t *testing.T) {
	window := mkTrades([]float64{10, 15, 5, 12}, []int64{1, 2, 3, 4})

	bar := Emitter{IncludeVolume: true, IncludeDollar: true}.Emit(window)

	if ohlc(bar) != [4]float64{10, 15, 5, 12} {
		t.Errorf("Expected (10,15,5,12), got %v", ohlc(bar))
	}
	if *bar.Volume != 10 {
		t.Errorf("Expected volume 10, got %d", *bar.Volume)
	}
	// 10 + 30 + 15 + 48
	if *bar.DollarValue != 103 {
		t.Errorf("Expected dollar value 103, got %v", *bar.DollarValue)
	}
	if !bar.Start.Equal(window[0].Timestamp) || !bar.End.Equal(window[3].Timestamp) {
		t.Error("Expected Start/End from first/last trade")
	}

	plain := Emitter{}.Emit(window)
	if plain.Volume != nil || plain.DollarValue != nil {
		t.Error("Expected no volume or dollar value when not requested")
	}
}

func TestDecisionString(t *testing.T) {
	if CloseBefore.String() != "close_before" || Decision(9).String() != "unknown" {
		t.Error("Unexpected Decision string")
	}
	if Emitting.String() != "emitting" || Accumulating.String() != "accumulating" {
		t.Error("Unexpected State string")
	}
}
