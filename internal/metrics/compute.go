package metrics

import (
	"math"
	"sort"

	"taq-bars/internal/domain"
)

// computeFromBars calculates all statistics of one series.
// Bars must be ordered by BarIndex; EMPTY time bars count toward Bars and
// EmptyBars but never contribute prices.
func computeFromBars(series *domain.BarSeries, bars []*domain.SeriesBar) *domain.SeriesStats {
	stats := &domain.SeriesStats{
		SeriesID:      series.SeriesID,
		Symbol:        series.Symbol,
		Policy:        series.Policy,
		Params:        series.Params,
		Bars:          len(bars),
		TradeCount:    series.TradeCount,
		DroppedTrades: series.DroppedTrades,
	}

	// Bar shape
	var ticks, durations []float64
	for _, b := range bars {
		if b.State == domain.BarStateEmpty {
			stats.EmptyBars++
			continue
		}
		ticks = append(ticks, float64(b.Bar.TickCount))
		durations = append(durations, b.Bar.End.Sub(b.Bar.Start).Seconds())
	}
	stats.TicksMean = computeMean(ticks)
	stats.DurationMeanSec = computeMean(durations)

	returns := closeReturns(bars)
	n := len(returns)
	stats.Returns = n
	if n == 0 {
		return stats
	}

	// Sort returns for percentile calculations
	sorted := make([]float64, n)
	copy(sorted, returns)
	sort.Float64s(sorted)

	mean := computeMean(returns)

	stats.ReturnMean = mean
	stats.ReturnMedian = computePercentile(sorted, 0.50)
	stats.ReturnP10 = computePercentile(sorted, 0.10)
	stats.ReturnP90 = computePercentile(sorted, 0.90)
	stats.ReturnMin = sorted[0]
	stats.ReturnMax = sorted[n-1]
	stats.ReturnStddev = computeStddev(returns, mean)

	// Order-dependent, uses bar order
	stats.ReturnAutocorr = computeAutocorrelation(returns, mean)
	stats.MaxDrawdown = computeMaxDrawdown(returns)

	return stats
}

// closeReturns returns ln(close[i] / close[i-1]) over consecutive
// populated bars, skipping EMPTY intervals.
func closeReturns(bars []*domain.SeriesBar) []float64 {
	var returns []float64
	prev := 0.0
	for _, b := range bars {
		if b.State == domain.BarStateEmpty || b.Bar.Close <= 0 {
			continue
		}
		if prev > 0 {
			returns = append(returns, math.Log(b.Bar.Close/prev))
		}
		prev = b.Bar.Close
	}
	return returns
}

// computeMean calculates arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0 // Need at least 2 samples for sample stddev
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	// Index for percentile (0-based, continuous)
	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	// Linear interpolation
	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeAutocorrelation calculates the lag-1 autocorrelation.
// Returns 0 for fewer than 2 values or zero variance.
func computeAutocorrelation(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	num, den := 0.0, 0.0
	for i, v := range values {
		d := v - mean
		den += d * d
		if i+1 < n {
			num += d * (values[i+1] - mean)
		}
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// computeMaxDrawdown calculates worst peak-to-trough on cumulative returns.
// max_drawdown = MAX(peak_cumulative - trough_cumulative)
// Returns must be in chronological order.
func computeMaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	cumulative := 0.0
	peak := 0.0
	maxDrawdown := 0.0

	for _, r := range returns {
		cumulative += r
		if cumulative > peak {
			peak = cumulative
		}
		drawdown := peak - cumulative
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}
