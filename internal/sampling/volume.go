package sampling

import (
	"fmt"

	"taq-bars/internal/domain"
)

// VolumePolicy closes a bar on the trade whose volume brings the running
// sum to the threshold or beyond.
type VolumePolicy struct {
	threshold int64
	partial   bool
	sum       int64
}

// NewVolumePolicy returns a volume-sum policy. With emitPartial the
// below-threshold remainder at end of input becomes a final bar.
func NewVolumePolicy(threshold int64, emitPartial bool) *VolumePolicy {
	return &VolumePolicy{threshold: threshold, partial: emitPartial}
}

func (p *VolumePolicy) Observe(t *domain.Trade) Decision {
	if p.sum+t.Volume < p.threshold {
		p.sum += t.Volume
		return Continue
	}
	return CloseInclusive
}

func (p *VolumePolicy) Trailing() TrailingRule {
	if p.partial {
		return EmitTrailing
	}
	return DropTrailing
}

func (p *VolumePolicy) Reset() { p.sum = 0 }

// ResampleByVolume emits a bar each time cumulative volume reaches cfg.Threshold.
// Volume is always reported.
func ResampleByVolume(trades []*domain.Trade, cfg VolumeConfig) ([]domain.Bar, error) {
	bars, _, err := resampleByVolume(trades, cfg)
	return bars, err
}

func resampleByVolume(trades []*domain.Trade, cfg VolumeConfig) ([]domain.Bar, int, error) {
	if err := cfg.Validate(); err != nil {
		return nil, 0, err
	}
	if err := ValidateTrades(trades); err != nil {
		return nil, 0, fmt.Errorf("volume bars: %w", err)
	}

	acc := NewAccumulator(NewVolumePolicy(cfg.Threshold, cfg.EmitPartialTrailingBar), Emitter{IncludeVolume: true})
	for _, t := range trades {
		acc.Push(t)
	}
	bars := acc.Finish()
	return orEmpty(bars), acc.Dropped(), nil
}
