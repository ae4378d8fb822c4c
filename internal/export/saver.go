package export

import (
	"fmt"
	"strings"
)

// Saver writes rows to a file.
type Saver interface {
	Save(rows []Row, path string) error
	Extension() string
}

// Formats lists the supported format names.
var Formats = []string{"csv", "json", "parquet"}

// NewSaver returns the implementation for format (csv, json, parquet).
func NewSaver(format string) (Saver, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}, nil
	case "json":
		return JSONSaver{}, nil
	case "parquet":
		return ParquetSaver{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (use: %s)", format, strings.Join(Formats, ", "))
	}
}

// FileName builds "<symbol>_<policy>_<seriesID[:12]>.<ext>".
func FileName(symbol, policy, seriesID string, s Saver) string {
	id := seriesID
	if len(id) > 12 {
		id = id[:12]
	}
	return fmt.Sprintf("%s_%s_%s.%s", symbol, strings.ToLower(policy), id, s.Extension())
}
