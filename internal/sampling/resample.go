package sampling

import (
	"fmt"

	"taq-bars/internal/domain"
	"taq-bars/internal/idhash"
)

// Result is the outcome of resampling one trade sequence under one policy.
type Result struct {
	Policy         domain.PolicyKind
	Params         string
	Bars           []*domain.SeriesBar
	TradesConsumed int
	TradesDropped  int
}

// Resample runs the policy named by kind with its section of cfg and
// returns the bars in storable form. Bar indexes are 0-based and
// contiguous; time series include their EMPTY intervals.
func Resample(trades []*domain.Trade, kind domain.PolicyKind, cfg Config) (*Result, error) {
	if err := cfg.Validate(kind); err != nil {
		return nil, err
	}

	res := &Result{
		Policy:         kind,
		Params:         cfg.Params(kind),
		TradesConsumed: len(trades),
	}

	switch kind {
	case domain.PolicyTime:
		timeBars, err := ResampleByTime(trades, cfg.Time)
		if err != nil {
			return nil, err
		}
		res.Bars = make([]*domain.SeriesBar, len(timeBars))
		for i, tb := range timeBars {
			res.Bars[i] = &domain.SeriesBar{
				BarIndex:      i,
				State:         tb.State,
				Bar:           tb.Bar,
				IntervalStart: tb.IntervalStart,
				IntervalEnd:   tb.IntervalEnd,
			}
		}
		return res, nil

	case domain.PolicyTick:
		bars, err := ResampleByTickCount(trades, cfg.Tick)
		if err != nil {
			return nil, err
		}
		res.Bars = populated(bars)

	case domain.PolicyVolume:
		bars, dropped, err := resampleByVolume(trades, cfg.Volume)
		if err != nil {
			return nil, err
		}
		res.Bars = populated(bars)
		res.TradesDropped = dropped

	case domain.PolicyDollar:
		bars, dropped, err := resampleByDollarValue(trades, cfg.Dollar)
		if err != nil {
			return nil, err
		}
		res.Bars = populated(bars)
		res.TradesDropped = dropped

	default:
		return nil, fmt.Errorf("%w: unknown policy %q", ErrInvalidConfiguration, kind)
	}
	return res, nil
}

func populated(bars []domain.Bar) []*domain.SeriesBar {
	out := make([]*domain.SeriesBar, len(bars))
	for i, b := range bars {
		out[i] = &domain.SeriesBar{BarIndex: i, State: domain.BarStatePopulated, Bar: b}
	}
	return out
}

// Series stamps the result with the series ID derived from symbol and
// returns the series header.
func (r *Result) Series(symbol string, createdAt int64) *domain.BarSeries {
	id := idhash.ComputeSeriesID(symbol, r.Policy, r.Params)
	for _, b := range r.Bars {
		b.SeriesID = id
	}
	return &domain.BarSeries{
		SeriesID:      id,
		Symbol:        symbol,
		Policy:        r.Policy,
		Params:        r.Params,
		BarCount:      len(r.Bars),
		TradeCount:    r.TradesConsumed,
		DroppedTrades: r.TradesDropped,
		CreatedAt:     createdAt,
	}
}
