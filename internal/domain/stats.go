package domain

// SeriesStats represents statistical properties of one bar series.
// Returns are log returns between the closes of consecutive populated bars.
type SeriesStats struct {
	SeriesID string
	Symbol   string
	Policy   PolicyKind
	Params   string

	// Counts
	Bars          int
	EmptyBars     int // time bars only
	TradeCount    int
	DroppedTrades int

	// Bar shape
	TicksMean       float64 // mean trades per populated bar
	DurationMeanSec float64 // mean first-to-last trade span of populated bars

	// Return distribution
	Returns      int // number of returns, populated bars - 1
	ReturnMean   float64
	ReturnMedian float64
	ReturnP10    float64 // 10th percentile
	ReturnP90    float64 // 90th percentile
	ReturnMin    float64
	ReturnMax    float64
	ReturnStddev float64

	// Serial dependence
	ReturnAutocorr float64 // lag-1 autocorrelation

	// Drawdown
	MaxDrawdown float64 // worst peak-to-trough of cumulative log return
}
