package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders series metrics as CSV string.
func RenderCSV(metrics []SeriesMetricRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("symbol,policy,params,series_id,bars,empty_bars,trade_count,dropped_trades,")
	sb.WriteString("ticks_mean,duration_mean_sec,return_mean,return_median,return_p10,return_p90,")
	sb.WriteString("return_stddev,return_autocorr,max_drawdown\n")

	// Rows
	for _, m := range metrics {
		sb.WriteString(fmt.Sprintf("%s,%s,%q,%s,%d,%d,%d,%d,%.4f,%.4f,%.8f,%.8f,%.8f,%.8f,%.8f,%.6f,%.8f\n",
			m.Symbol,
			m.Policy,
			m.Params,
			m.SeriesID,
			m.Bars,
			m.EmptyBars,
			m.TradeCount,
			m.DroppedTrades,
			m.TicksMean,
			m.DurationMeanSec,
			m.ReturnMean,
			m.ReturnMedian,
			m.ReturnP10,
			m.ReturnP90,
			m.ReturnStddev,
			m.ReturnAutocorr,
			m.MaxDrawdown,
		))
	}

	return sb.String()
}
