// Package reporting renders stored bar series into a summary report.
package reporting

import "time"

// Report represents the bar series report structure.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	SymbolCount int
	SeriesCount int

	// Data Summary
	DataSummary DataSummary

	// Data Quality (empty series, verification)
	DataQuality DataQualitySection

	// Series Metrics (sorted by symbol, policy, params)
	SeriesMetrics []SeriesMetricRow

	// Policy Comparison (sorted by canonical policy order)
	PolicyComparison []PolicyComparisonRow
}

// DataSummary contains data description.
type DataSummary struct {
	Symbols        []string
	TotalTrades    int
	DateRangeStart time.Time // first trade, zero without trades
	DateRangeEnd   time.Time // last trade, zero without trades
}

// DataQualitySection contains warnings and replay verification results.
type DataQualitySection struct {
	Warnings     []string
	Verification *VerificationSummary // nil when verification was not run
}

// VerificationSummary condenses a replay verification run.
type VerificationSummary struct {
	TotalSeries     int
	MatchedSeries   int
	DivergentSeries int
	Divergent       []VerificationRow
}

// VerificationRow lists one divergent series.
type VerificationRow struct {
	SeriesID    string
	Symbol      string
	Policy      string
	Divergences int
	FirstField  string // first divergent field
}

// SeriesMetricRow represents one row in the series metrics table.
type SeriesMetricRow struct {
	Symbol          string
	Policy          string
	Params          string
	SeriesID        string
	Bars            int
	EmptyBars       int
	TradeCount      int
	DroppedTrades   int
	TicksMean       float64
	DurationMeanSec float64
	ReturnMean      float64
	ReturnMedian    float64
	ReturnP10       float64
	ReturnP90       float64
	ReturnStddev    float64
	ReturnAutocorr  float64
	MaxDrawdown     float64
}

// PolicyComparisonRow averages series statistics of one policy across symbols.
type PolicyComparisonRow struct {
	Policy             string
	Series             int
	BarsMean           float64
	ReturnStddevMean   float64
	ReturnAutocorrMean float64
}
