package domain

import "time"

// Bar is an OHLC(V) summary of a non-empty, contiguous run of trades.
type Bar struct {
	Start       time.Time // timestamp of the first trade in the bar
	End         time.Time // timestamp of the last trade in the bar
	Open        float64   // price of the first trade
	High        float64   // max price
	Low         float64   // min price
	Close       float64   // price of the last trade
	Volume      *int64    // summed volume (nil when not requested)
	DollarValue *float64  // summed price×volume (dollar bars only)
	TickCount   int       // number of trades folded into the bar
}

// BarState tags a time bar as carrying trades or not.
type BarState string

// Bar state constants
const (
	BarStatePopulated BarState = "POPULATED"
	BarStateEmpty     BarState = "EMPTY"
)

// TimeBar is one wall-clock interval of a time-bar series.
// Empty intervals carry a zero Bar whose prices must not be read;
// Volume is set to zero when volume was requested.
type TimeBar struct {
	IntervalStart time.Time // inclusive
	IntervalEnd   time.Time // exclusive
	State         BarState
	Bar           Bar
}

// IsEmpty reports whether no trade fell into the interval.
func (b TimeBar) IsEmpty() bool {
	return b.State == BarStateEmpty
}
