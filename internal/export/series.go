package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"taq-bars/internal/storage"
)

// SeriesExporter writes stored series to a directory.
type SeriesExporter struct {
	Store storage.BarStore
	Saver Saver
	Dir   string
}

// Export loads one series and writes it to Dir. Returns the written path.
func (e *SeriesExporter) Export(ctx context.Context, seriesID string) (string, error) {
	series, err := e.Store.GetSeries(ctx, seriesID)
	if err != nil {
		return "", fmt.Errorf("get series %s: %w", seriesID, err)
	}
	bars, err := e.Store.GetBars(ctx, seriesID)
	if err != nil {
		return "", fmt.Errorf("get bars %s: %w", seriesID, err)
	}

	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(e.Dir, FileName(series.Symbol, string(series.Policy), series.SeriesID, e.Saver))
	if err := e.Saver.Save(Rows(series, bars), path); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
