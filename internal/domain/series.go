package domain

import "time"

// PolicyKind identifies a bar sampling policy.
type PolicyKind string

// Sampling policies
const (
	PolicyTime   PolicyKind = "TIME"
	PolicyTick   PolicyKind = "TICK"
	PolicyVolume PolicyKind = "VOLUME"
	PolicyDollar PolicyKind = "DOLLAR"
)

// AllPolicies lists every supported policy in canonical order.
var AllPolicies = []PolicyKind{PolicyTime, PolicyTick, PolicyVolume, PolicyDollar}

// Valid reports whether k names a supported policy.
func (k PolicyKind) Valid() bool {
	switch k {
	case PolicyTime, PolicyTick, PolicyVolume, PolicyDollar:
		return true
	}
	return false
}

// BarSeries describes one resampling run: one symbol, one policy, one parameter set.
// Corresponds to bar_series table in ClickHouse.
type BarSeries struct {
	SeriesID      string     // deterministic hash of (symbol, policy, params)
	Symbol        string     // ticker symbol
	Policy        PolicyKind // sampling policy
	Params        string     // canonical parameter string, e.g. "window=20T,volume=true"
	BarCount      int        // bars in the series (time bars include empty intervals)
	TradeCount    int        // trades consumed
	DroppedTrades int        // trailing trades not emitted (volume/dollar drop policy)
	CreatedAt     int64      // record creation timestamp (ms)
}

// SeriesBar is one stored bar of a series.
// Corresponds to bars table in ClickHouse.
type SeriesBar struct {
	SeriesID string
	BarIndex int      // 0-based position within the series
	State    BarState // always POPULATED outside time bars
	Bar      Bar

	// Interval bounds, set for time bars only.
	IntervalStart time.Time
	IntervalEnd   time.Time
}
