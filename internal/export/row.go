// Package export writes bar series to files.
package export

import (
	"taq-bars/internal/domain"
)

// Row is the flat file form of one bar.
// OHLC is nil for EMPTY time intervals; Volume and DollarValue are nil when
// the series was not asked to report them.
type Row struct {
	Symbol      string   `json:"symbol" parquet:"symbol,dict"`
	Policy      string   `json:"policy" parquet:"policy,dict"`
	Index       int64    `json:"index" parquet:"index"`
	State       string   `json:"state" parquet:"state,dict"`
	Timestamp   int64    `json:"t" parquet:"t"` // label, unix ns: interval start for time bars, first trade otherwise
	IntervalEnd int64    `json:"interval_end,omitempty" parquet:"interval_end,optional"`
	FirstTrade  int64    `json:"first_trade,omitempty" parquet:"first_trade,optional"`
	LastTrade   int64    `json:"last_trade,omitempty" parquet:"last_trade,optional"`
	Open        *float64 `json:"o" parquet:"o,optional"`
	High        *float64 `json:"h" parquet:"h,optional"`
	Low         *float64 `json:"l" parquet:"l,optional"`
	Close       *float64 `json:"c" parquet:"c,optional"`
	Volume      *int64   `json:"v,omitempty" parquet:"v,optional"`
	DollarValue *float64 `json:"dv,omitempty" parquet:"dv,optional"`
	TickCount   int64    `json:"n" parquet:"n"`
}

// Rows flattens a stored series.
func Rows(series *domain.BarSeries, bars []*domain.SeriesBar) []Row {
	rows := make([]Row, len(bars))
	for i, b := range bars {
		rows[i] = toRow(series, b)
	}
	return rows
}

func toRow(series *domain.BarSeries, b *domain.SeriesBar) Row {
	row := Row{
		Symbol:      series.Symbol,
		Policy:      string(series.Policy),
		Index:       int64(b.BarIndex),
		State:       string(b.State),
		Volume:      b.Bar.Volume,
		DollarValue: b.Bar.DollarValue,
		TickCount:   int64(b.Bar.TickCount),
	}

	if !b.IntervalStart.IsZero() {
		row.Timestamp = b.IntervalStart.UnixNano()
		row.IntervalEnd = b.IntervalEnd.UnixNano()
	} else {
		row.Timestamp = b.Bar.Start.UnixNano()
	}

	if b.State == domain.BarStateEmpty {
		return row
	}
	row.FirstTrade = b.Bar.Start.UnixNano()
	row.LastTrade = b.Bar.End.UnixNano()
	open, high, low, closePrice := b.Bar.Open, b.Bar.High, b.Bar.Low, b.Bar.Close
	row.Open, row.High, row.Low, row.Close = &open, &high, &low, &closePrice
	return row
}
