package export

import (
	"encoding/csv"
	"os"
	"strconv"
)

var csvHeader = []string{
	"symbol", "policy", "index", "state", "t", "interval_end", "first_trade", "last_trade",
	"o", "h", "l", "c", "v", "dv", "n",
}

// CSVSaver writes one header line and one line per row. Null fields are empty.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(rows []Row, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{
			r.Symbol,
			r.Policy,
			strconv.FormatInt(r.Index, 10),
			r.State,
			strconv.FormatInt(r.Timestamp, 10),
			optInt(r.IntervalEnd),
			optInt(r.FirstTrade),
			optInt(r.LastTrade),
			floatPtr(r.Open),
			floatPtr(r.High),
			floatPtr(r.Low),
			floatPtr(r.Close),
			intPtr(r.Volume),
			floatPtr(r.DollarValue),
			strconv.FormatInt(r.TickCount, 10),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func floatPtr(f *float64) string {
	if f == nil {
		return ""
	}
	return floatStr(*f)
}

func intPtr(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func optInt(v int64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}
