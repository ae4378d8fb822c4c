package storage

import "context"

// IngestedFile records one delimited trade file that was loaded into the trade store.
type IngestedFile struct {
	Checksum   string // SHA256 of file contents, hex
	Path       string // path at ingestion time
	Rows       int64  // trades inserted
	IngestedAt int64  // ms
}

// IngestLogStore remembers which files were ingested.
// This enables re-running ingestion over a directory without duplicating trades.
type IngestLogStore interface {
	// IsIngested reports whether a file with this checksum was already loaded.
	IsIngested(ctx context.Context, checksum string) (bool, error)

	// MarkIngested records a loaded file. Re-marking a checksum updates path, rows and time.
	MarkIngested(ctx context.Context, f *IngestedFile) error

	// List returns all ingested files ordered by ingestion time.
	List(ctx context.Context) ([]*IngestedFile, error)
}
