package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taq-bars/internal/domain"
	"taq-bars/internal/storage"
	"taq-bars/internal/storage/memory"
)

var base = time.Date(2020, 1, 2, 9, 20, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func timeSeries() (*domain.BarSeries, []*domain.SeriesBar) {
	series := &domain.BarSeries{
		SeriesID: "0123456789abcdef0123",
		Symbol:   "IBM",
		Policy:   domain.PolicyTime,
		Params:   "window=20T,volume=true",
		BarCount: 2,
	}
	bars := []*domain.SeriesBar{
		{
			SeriesID: series.SeriesID,
			BarIndex: 0,
			State:    domain.BarStatePopulated,
			Bar: domain.Bar{
				Start: base.Add(10 * time.Minute), End: base.Add(15 * time.Minute),
				Open: 10, High: 12, Low: 9, Close: 11.5,
				Volume: ptr(int64(300)), TickCount: 4,
			},
			IntervalStart: base,
			IntervalEnd:   base.Add(20 * time.Minute),
		},
		{
			SeriesID:      series.SeriesID,
			BarIndex:      1,
			State:         domain.BarStateEmpty,
			Bar:           domain.Bar{Volume: ptr(int64(0))},
			IntervalStart: base.Add(20 * time.Minute),
			IntervalEnd:   base.Add(40 * time.Minute),
		},
	}
	return series, bars
}

func TestRows(t *testing.T) {
	series, bars := timeSeries()
	rows := Rows(series, bars)
	require.Len(t, rows, 2)

	assert.Equal(t, "IBM", rows[0].Symbol)
	assert.Equal(t, base.UnixNano(), rows[0].Timestamp)
	assert.Equal(t, base.Add(10*time.Minute).UnixNano(), rows[0].FirstTrade)
	require.NotNil(t, rows[0].Open)
	assert.Equal(t, 10.0, *rows[0].Open)
	assert.Equal(t, 11.5, *rows[0].Close)

	assert.Equal(t, "EMPTY", rows[1].State)
	assert.Nil(t, rows[1].Open, "empty interval must not carry prices")
	assert.Nil(t, rows[1].Close)
	assert.Equal(t, int64(0), *rows[1].Volume)
	assert.Zero(t, rows[1].FirstTrade)
}

func TestRows_UntimedBarsLabelledByFirstTrade(t *testing.T) {
	series := &domain.BarSeries{SeriesID: "x", Symbol: "IBM", Policy: domain.PolicyTick}
	bars := []*domain.SeriesBar{{
		State: domain.BarStatePopulated,
		Bar:   domain.Bar{Start: base, End: base.Add(time.Second), Open: 1, High: 1, Low: 1, Close: 1, TickCount: 2},
	}}

	rows := Rows(series, bars)
	assert.Equal(t, base.UnixNano(), rows[0].Timestamp)
	assert.Zero(t, rows[0].IntervalEnd)
	assert.Nil(t, rows[0].Volume)
}

func TestNewSaver(t *testing.T) {
	for _, format := range []string{"csv", " JSON ", "parquet"} {
		s, err := NewSaver(format)
		require.NoError(t, err, format)
		assert.NotNil(t, s)
	}

	_, err := NewSaver("xlsx")
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "IBM_time_0123456789ab.csv", FileName("IBM", "TIME", "0123456789abcdef", CSVSaver{}))
	assert.Equal(t, "IBM_tick_abc.parquet", FileName("IBM", "TICK", "abc", ParquetSaver{}))
}

func TestCSVSaver(t *testing.T) {
	series, bars := timeSeries()
	path := filepath.Join(t.TempDir(), "bars.csv")

	require.NoError(t, CSVSaver{}.Save(Rows(series, bars), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, "10", records[1][8])
	assert.Equal(t, "11.5", records[1][11])
	assert.Equal(t, "300", records[1][12])
	assert.Equal(t, "", records[1][13], "dollar value not reported")
	assert.Equal(t, "", records[2][8], "empty interval open")
	assert.Equal(t, "0", records[2][12], "empty interval volume")
}

func TestJSONSaver(t *testing.T) {
	series, bars := timeSeries()
	path := filepath.Join(t.TempDir(), "bars.json")

	require.NoError(t, JSONSaver{}.Save(Rows(series, bars), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.Len(t, decoded, 2)
	assert.Equal(t, 12.0, decoded[0]["h"])
	assert.Nil(t, decoded[1]["h"])
	assert.NotContains(t, decoded[0], "dv")
}

func TestParquetSaver(t *testing.T) {
	series, bars := timeSeries()
	path := filepath.Join(t.TempDir(), "bars.parquet")

	require.NoError(t, ParquetSaver{}.Save(Rows(series, bars), path))

	rows, err := parquet.ReadFile[Row](path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(4), rows[0].TickCount)
	require.NotNil(t, rows[0].Low)
	assert.Equal(t, 9.0, *rows[0].Low)
	assert.Nil(t, rows[1].Low)
}

func TestSeriesExporter(t *testing.T) {
	ctx := context.Background()
	store := memory.NewBarStore()
	series, bars := timeSeries()
	require.NoError(t, store.InsertSeries(ctx, series, bars))

	dir := filepath.Join(t.TempDir(), "out")
	exporter := &SeriesExporter{Store: store, Saver: JSONSaver{}, Dir: dir}

	path, err := exporter.Export(ctx, series.SeriesID)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "IBM_time_0123456789ab.json"), path)
	assert.FileExists(t, path)

	_, err = exporter.Export(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
