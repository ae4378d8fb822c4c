package sampling

import (
	"fmt"
	"time"

	"taq-bars/internal/domain"
)

// TimePolicy closes a bar when a trade falls into a later window than the
// open bar. Windows are [start, start+window) and aligned to midnight of
// the first trade's day in the trade's location.
type TimePolicy struct {
	window  time.Duration
	started bool
	origin  time.Time
	current time.Time
}

// NewTimePolicy returns a wall-clock window policy.
func NewTimePolicy(window time.Duration) *TimePolicy {
	return &TimePolicy{window: window}
}

func (p *TimePolicy) Observe(t *domain.Trade) Decision {
	if !p.started {
		p.started = true
		p.origin = sessionOrigin(t.Timestamp)
		p.current = windowStart(p.origin, p.window, t.Timestamp)
		return Continue
	}
	ws := windowStart(p.origin, p.window, t.Timestamp)
	if ws.Equal(p.current) {
		return Continue
	}
	p.current = ws
	return CloseBefore
}

// Trailing emits the final partial interval.
func (p *TimePolicy) Trailing() TrailingRule { return EmitTrailing }

func (p *TimePolicy) Reset() {
	p.started = false
	p.origin = time.Time{}
	p.current = time.Time{}
}

// sessionOrigin is midnight of ts's calendar day in ts's location.
func sessionOrigin(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
}

func windowStart(origin time.Time, window time.Duration, ts time.Time) time.Time {
	off := ts.Sub(origin)
	return origin.Add(off - off%window)
}

// ResampleByTime buckets trades into back-to-back windows of
// cfg.WindowSize×cfg.WindowUnit. Every interval between the first and last
// trade is returned; intervals without trades are tagged EMPTY.
func ResampleByTime(trades []*domain.Trade, cfg TimeConfig) ([]domain.TimeBar, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateTrades(trades); err != nil {
		return nil, fmt.Errorf("time bars: %w", err)
	}
	if len(trades) == 0 {
		return []domain.TimeBar{}, nil
	}

	window := cfg.Window()
	acc := NewAccumulator(NewTimePolicy(window), Emitter{IncludeVolume: cfg.IncludeVolume})
	for _, t := range trades {
		acc.Push(t)
	}
	bars := acc.Finish()

	origin := sessionOrigin(trades[0].Timestamp)
	out := make([]domain.TimeBar, 0, len(bars))
	var next time.Time
	for i, bar := range bars {
		start := windowStart(origin, window, bar.Start)
		if i > 0 {
			for gap := next; gap.Before(start); gap = gap.Add(window) {
				out = append(out, emptyTimeBar(gap, window, cfg.IncludeVolume))
			}
		}
		out = append(out, domain.TimeBar{
			IntervalStart: start,
			IntervalEnd:   start.Add(window),
			State:         domain.BarStatePopulated,
			Bar:           bar,
		})
		next = start.Add(window)
	}
	return out, nil
}

func emptyTimeBar(start time.Time, window time.Duration, includeVolume bool) domain.TimeBar {
	tb := domain.TimeBar{
		IntervalStart: start,
		IntervalEnd:   start.Add(window),
		State:         domain.BarStateEmpty,
	}
	if includeVolume {
		var zero int64
		tb.Bar.Volume = &zero
	}
	return tb
}
