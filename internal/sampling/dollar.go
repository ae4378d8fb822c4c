package sampling

import (
	"fmt"

	"github.com/shopspring/decimal"

	"taq-bars/internal/domain"
)

// DollarPolicy is VolumePolicy over price×volume, summed in exact decimal.
type DollarPolicy struct {
	threshold decimal.Decimal
	partial   bool
	sum       decimal.Decimal
}

// NewDollarPolicy returns a dollar-sum policy.
func NewDollarPolicy(threshold decimal.Decimal, emitPartial bool) *DollarPolicy {
	return &DollarPolicy{threshold: threshold, partial: emitPartial, sum: decimal.Zero}
}

func (p *DollarPolicy) Observe(t *domain.Trade) Decision {
	next := p.sum.Add(tradeDollarValue(t))
	if next.LessThan(p.threshold) {
		p.sum = next
		return Continue
	}
	return CloseInclusive
}

func (p *DollarPolicy) Trailing() TrailingRule {
	if p.partial {
		return EmitTrailing
	}
	return DropTrailing
}

func (p *DollarPolicy) Reset() { p.sum = decimal.Zero }

// ResampleByDollarValue emits a bar each time cumulative price×volume reaches
// cfg.Threshold. Each bar reports summed volume and summed dollar value.
func ResampleByDollarValue(trades []*domain.Trade, cfg DollarConfig) ([]domain.Bar, error) {
	bars, _, err := resampleByDollarValue(trades, cfg)
	return bars, err
}

func resampleByDollarValue(trades []*domain.Trade, cfg DollarConfig) ([]domain.Bar, int, error) {
	if err := cfg.Validate(); err != nil {
		return nil, 0, err
	}
	if err := ValidateTrades(trades); err != nil {
		return nil, 0, fmt.Errorf("dollar bars: %w", err)
	}

	acc := NewAccumulator(
		NewDollarPolicy(cfg.Threshold, cfg.EmitPartialTrailingBar),
		Emitter{IncludeVolume: true, IncludeDollar: true},
	)
	for _, t := range trades {
		acc.Push(t)
	}
	bars := acc.Finish()
	return orEmpty(bars), acc.Dropped(), nil
}
