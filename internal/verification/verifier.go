// Package verification checks that stored bar series are reproducible:
// re-running sampling over the stored trades yields the stored bars.
package verification

import (
	"context"
	"fmt"
	"math"
	"time"

	"taq-bars/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name, bar fields are prefixed with their index
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// VerificationResult contains the result of verifying a single series.
type VerificationResult struct {
	SeriesID     string            // verified series ID
	Symbol       string            // series symbol
	Policy       domain.PolicyKind // series policy
	Match        bool              // true if all fields match
	Divergences  []FieldDivergence // list of divergent fields
	StoredBars   int               // bars in the stored series
	ReplayedBars int               // bars produced by the replay
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalSeries     int                  // total series verified
	MatchedSeries   int                  // series that matched exactly
	DivergentSeries int                  // series with divergences
	Results         []VerificationResult // individual results
}

// Verifier interface for series replay verification.
type Verifier interface {
	// VerifySeries verifies a single series by ID.
	// It loads the stored series, resamples the stored trades with the
	// same parameters, and compares header and bars field by field.
	VerifySeries(ctx context.Context, seriesID string) (*VerificationResult, error)

	// VerifyAll verifies every stored series of every known symbol.
	VerifyAll(ctx context.Context) (*VerificationReport, error)
}

// CompareSeries compares two series headers and returns divergences.
// SeriesID, CreatedAt and identity fields are not compared.
func CompareSeries(stored, replayed *domain.BarSeries) []FieldDivergence {
	var divergences []FieldDivergence

	if stored.Params != replayed.Params {
		divergences = append(divergences, FieldDivergence{
			Field:    "Params",
			Expected: stored.Params,
			Actual:   replayed.Params,
		})
	}

	if stored.BarCount != replayed.BarCount {
		divergences = append(divergences, FieldDivergence{
			Field:    "BarCount",
			Expected: stored.BarCount,
			Actual:   replayed.BarCount,
		})
	}

	if stored.TradeCount != replayed.TradeCount {
		divergences = append(divergences, FieldDivergence{
			Field:    "TradeCount",
			Expected: stored.TradeCount,
			Actual:   replayed.TradeCount,
		})
	}

	if stored.DroppedTrades != replayed.DroppedTrades {
		divergences = append(divergences, FieldDivergence{
			Field:    "DroppedTrades",
			Expected: stored.DroppedTrades,
			Actual:   replayed.DroppedTrades,
		})
	}

	return divergences
}

// CompareBars compares stored and replayed bars pairwise by position.
// Bars present on only one side are reported as whole-bar divergences.
func CompareBars(stored, replayed []*domain.SeriesBar) []FieldDivergence {
	var divergences []FieldDivergence

	n := min(len(stored), len(replayed))
	for i := 0; i < n; i++ {
		divergences = append(divergences, CompareSeriesBar(stored[i], replayed[i])...)
	}
	for i := n; i < len(stored); i++ {
		divergences = append(divergences, FieldDivergence{
			Field:    fmt.Sprintf("bars[%d]", i),
			Expected: stored[i].Bar,
			Actual:   nil,
		})
	}
	for i := n; i < len(replayed); i++ {
		divergences = append(divergences, FieldDivergence{
			Field:    fmt.Sprintf("bars[%d]", i),
			Expected: nil,
			Actual:   replayed[i].Bar,
		})
	}

	return divergences
}

// CompareSeriesBar compares two stored bars and returns divergences.
// Uses FloatTolerance for float64 comparisons and time.Equal for timestamps.
func CompareSeriesBar(stored, replayed *domain.SeriesBar) []FieldDivergence {
	var divergences []FieldDivergence
	add := func(field string, expected, actual interface{}) {
		divergences = append(divergences, FieldDivergence{
			Field:    fmt.Sprintf("bars[%d].%s", stored.BarIndex, field),
			Expected: expected,
			Actual:   actual,
		})
	}

	if stored.BarIndex != replayed.BarIndex {
		add("BarIndex", stored.BarIndex, replayed.BarIndex)
	}
	if stored.State != replayed.State {
		add("State", stored.State, replayed.State)
	}
	if !timeEquals(stored.IntervalStart, replayed.IntervalStart) {
		add("IntervalStart", stored.IntervalStart, replayed.IntervalStart)
	}
	if !timeEquals(stored.IntervalEnd, replayed.IntervalEnd) {
		add("IntervalEnd", stored.IntervalEnd, replayed.IntervalEnd)
	}

	s, r := stored.Bar, replayed.Bar

	// Trade window
	if !timeEquals(s.Start, r.Start) {
		add("Start", s.Start, r.Start)
	}
	if !timeEquals(s.End, r.End) {
		add("End", s.End, r.End)
	}
	if s.TickCount != r.TickCount {
		add("TickCount", s.TickCount, r.TickCount)
	}

	// Prices
	if !floatEquals(s.Open, r.Open) {
		add("Open", s.Open, r.Open)
	}
	if !floatEquals(s.High, r.High) {
		add("High", s.High, r.High)
	}
	if !floatEquals(s.Low, r.Low) {
		add("Low", s.Low, r.Low)
	}
	if !floatEquals(s.Close, r.Close) {
		add("Close", s.Close, r.Close)
	}

	// Sums
	if !int64PtrEquals(s.Volume, r.Volume) {
		add("Volume", s.Volume, r.Volume)
	}
	if !floatPtrEquals(s.DollarValue, r.DollarValue) {
		add("DollarValue", s.DollarValue, r.DollarValue)
	}

	return divergences
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}

// floatPtrEquals compares two *float64 values within FloatTolerance.
// Returns true if both are nil, or both are non-nil and equal.
func floatPtrEquals(a, b *float64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return floatEquals(*a, *b)
}

func int64PtrEquals(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// timeEquals compares instants, ignoring location.
func timeEquals(a, b time.Time) bool {
	return a.Equal(b)
}
