package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Bar Series Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Symbols: %d | Series: %d\n\n", r.SymbolCount, r.SeriesCount))

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Symbols | %s |\n", strings.Join(r.DataSummary.Symbols, ", ")))
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", r.DataSummary.TotalTrades))
	sb.WriteString(fmt.Sprintf("| First Trade | %s |\n", formatTime(r.DataSummary.DateRangeStart)))
	sb.WriteString(fmt.Sprintf("| Last Trade | %s |\n", formatTime(r.DataSummary.DateRangeEnd)))
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	if v := r.DataQuality.Verification; v != nil {
		sb.WriteString("### Replay Verification\n\n")
		sb.WriteString(fmt.Sprintf("Verified: %d | Matched: %d | Divergent: %d\n\n",
			v.TotalSeries, v.MatchedSeries, v.DivergentSeries))
		if len(v.Divergent) > 0 {
			sb.WriteString("| Series | Symbol | Policy | Divergences | First Field |\n")
			sb.WriteString("|--------|--------|--------|-------------|-------------|\n")
			for _, d := range v.Divergent {
				sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %s |\n",
					d.SeriesID, d.Symbol, d.Policy, d.Divergences, d.FirstField))
			}
			sb.WriteString("\n")
		} else {
			sb.WriteString("**All series reproduced exactly.**\n\n")
		}
	} else if len(r.DataQuality.Warnings) == 0 {
		sb.WriteString("No data quality checks performed.\n\n")
	}

	// Warnings (always shown if present, even without verification)
	if len(r.DataQuality.Warnings) > 0 {
		sb.WriteString("### Warnings\n\n")
		for _, w := range r.DataQuality.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
		sb.WriteString("\n")
	}

	// Series Metrics
	sb.WriteString("## Series Metrics\n\n")
	if len(r.SeriesMetrics) > 0 {
		sb.WriteString("| Symbol | Policy | Params | Bars | Empty | Trades | Dropped | Ticks/Bar | Mean | Median | P10 | P90 | Stddev | AC(1) | MaxDD |\n")
		sb.WriteString("|--------|--------|--------|------|-------|--------|---------|-----------|------|--------|-----|-----|--------|-------|-------|\n")
		for _, m := range r.SeriesMetrics {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %d | %d | %d | %.2f | %.6f | %.6f | %.6f | %.6f | %.6f | %.4f | %.6f |\n",
				m.Symbol, m.Policy, m.Params,
				m.Bars, m.EmptyBars, m.TradeCount, m.DroppedTrades, m.TicksMean,
				m.ReturnMean, m.ReturnMedian, m.ReturnP10, m.ReturnP90,
				m.ReturnStddev, m.ReturnAutocorr, m.MaxDrawdown))
		}
	} else {
		sb.WriteString("No series metrics available.\n")
	}
	sb.WriteString("\n")

	// Policy Comparison
	sb.WriteString("## Policy Comparison\n\n")
	if len(r.PolicyComparison) > 0 {
		sb.WriteString("| Policy | Series | Bars (mean) | Stddev (mean) | AC(1) (mean) |\n")
		sb.WriteString("|--------|--------|-------------|---------------|--------------|\n")
		for _, c := range r.PolicyComparison {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.6f | %.4f |\n",
				c.Policy, c.Series, c.BarsMean, c.ReturnStddevMean, c.ReturnAutocorrMean))
		}
	} else {
		sb.WriteString("No policy comparison available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339Nano)
}
