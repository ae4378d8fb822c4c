package sampling

import (
	"fmt"

	"taq-bars/internal/domain"
)

// TickPolicy closes a bar every size trades.
type TickPolicy struct {
	size  int
	count int
}

// NewTickPolicy returns a policy closing every size trades.
func NewTickPolicy(size int) *TickPolicy {
	return &TickPolicy{size: size}
}

func (p *TickPolicy) Observe(*domain.Trade) Decision {
	p.count++
	if p.count >= p.size {
		return CloseInclusive
	}
	return Continue
}

// Trailing emits the short final chunk.
func (p *TickPolicy) Trailing() TrailingRule { return EmitTrailing }

func (p *TickPolicy) Reset() { p.count = 0 }

// ResampleByTickCount splits trades into consecutive chunks of cfg.TickCount.
// The k-th bar covers trades [(k-1)*n, k*n); a short final chunk is emitted.
func ResampleByTickCount(trades []*domain.Trade, cfg TickConfig) ([]domain.Bar, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateTrades(trades); err != nil {
		return nil, fmt.Errorf("tick bars: %w", err)
	}

	acc := NewAccumulator(NewTickPolicy(cfg.TickCount), Emitter{IncludeVolume: cfg.IncludeVolume})
	for _, t := range trades {
		acc.Push(t)
	}
	return orEmpty(acc.Finish()), nil
}

func orEmpty(bars []domain.Bar) []domain.Bar {
	if bars == nil {
		return []domain.Bar{}
	}
	return bars
}
