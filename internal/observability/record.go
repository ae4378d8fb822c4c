package observability

import (
	"strconv"
	"time"
)

// RecordTradesIngested records trades written from one file.
func RecordTradesIngested(n int, seconds float64) {
	DefaultMetrics.TradesIngested.Add(float64(n))
	DefaultMetrics.FilesIngested.WithLabelValues("loaded").Inc()
	DefaultMetrics.IngestionLatency.Observe(seconds)
	DefaultMetrics.LastSuccessfulIngestion.SetToCurrentTime()
}

// RecordFileSkipped records a file skipped because it was already ingested.
func RecordFileSkipped() {
	DefaultMetrics.FilesIngested.WithLabelValues("skipped").Inc()
}

// RecordRowRejected records a delimited row that did not become a trade.
func RecordRowRejected(reason string) {
	DefaultMetrics.RowsRejected.WithLabelValues(reason).Inc()
}

// RecordResample records one resampling pass.
func RecordResample(policy string, trades, bars, dropped int, seconds float64) {
	DefaultMetrics.TradesConsumed.WithLabelValues(policy).Add(float64(trades))
	DefaultMetrics.BarsEmitted.WithLabelValues(policy).Add(float64(bars))
	if dropped > 0 {
		DefaultMetrics.TrailingDropped.WithLabelValues(policy).Add(float64(dropped))
	}
	DefaultMetrics.ResampleDuration.WithLabelValues(policy).Observe(seconds)
}

// RecordRun records a per-symbol run.
func RecordRun(status string, seconds float64) {
	DefaultMetrics.RunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.RunDuration.Observe(seconds)
	if status == "success" {
		DefaultMetrics.LastSuccessfulRun.Set(float64(time.Now().Unix()))
	}
}

// RecordVerification records one replayed series.
func RecordVerification(policy, outcome string) {
	DefaultMetrics.SeriesVerified.WithLabelValues(policy, outcome).Inc()
}

// RecordHTTPRequest records an API request.
func RecordHTTPRequest(route string, code int, seconds float64) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(route).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
