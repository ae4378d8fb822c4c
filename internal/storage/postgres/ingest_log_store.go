package postgres

import (
	"context"
	"fmt"

	"taq-bars/internal/storage"
)

// IngestLogStore is a PostgreSQL implementation of storage.IngestLogStore.
// Uses the ingest_log table keyed by file checksum.
type IngestLogStore struct {
	pool *Pool
}

// NewIngestLogStore creates a new PostgreSQL ingest log store.
func NewIngestLogStore(pool *Pool) *IngestLogStore {
	return &IngestLogStore{pool: pool}
}

var _ storage.IngestLogStore = (*IngestLogStore)(nil)

// IsIngested reports whether a file with this checksum was loaded.
func (s *IngestLogStore) IsIngested(ctx context.Context, checksum string) (bool, error) {
	if checksum == "" {
		return false, storage.ErrInvalidInput
	}

	row := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM ingest_log WHERE checksum = $1)
	`, checksum)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("check ingest log: %w", err)
	}
	return exists, nil
}

// MarkIngested records a loaded file.
// Uses upsert so a re-ingested checksum refreshes path, rows and time.
func (s *IngestLogStore) MarkIngested(ctx context.Context, f *storage.IngestedFile) error {
	if f == nil || f.Checksum == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO ingest_log (checksum, path, rows, ingested_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (checksum) DO UPDATE
		SET path = EXCLUDED.path,
		    rows = EXCLUDED.rows,
		    ingested_at = EXCLUDED.ingested_at
	`, f.Checksum, f.Path, f.Rows, f.IngestedAt)
	if err != nil {
		return fmt.Errorf("mark ingested: %w", err)
	}
	return nil
}

// List returns all ingested files ordered by ingestion time.
func (s *IngestLogStore) List(ctx context.Context) ([]*storage.IngestedFile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT checksum, path, rows, ingested_at
		FROM ingest_log
		ORDER BY ingested_at ASC, checksum ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list ingest log: %w", err)
	}
	defer rows.Close()

	var files []*storage.IngestedFile
	for rows.Next() {
		var f storage.IngestedFile
		if err := rows.Scan(&f.Checksum, &f.Path, &f.Rows, &f.IngestedAt); err != nil {
			return nil, fmt.Errorf("scan ingest log row: %w", err)
		}
		files = append(files, &f)
	}

	return files, rows.Err()
}
