package migrations

import (
	"context"
	"log/slog"

	"taq-bars/internal/storage/postgres"
)

// RunPostgresMigrations creates the trades and ingest_log tables.
// Files use IF NOT EXISTS, so running against a migrated database changes nothing.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	// With no arguments pgx uses the simple protocol, which accepts a whole file per Exec.
	n, err := eachMigration(PostgresFS, "postgres", func(_, sql string) error {
		_, err := pool.Exec(ctx, sql)
		return err
	})
	if err != nil {
		return err
	}
	slog.Debug("schema up to date", "database", "postgres", "files", n)
	return nil
}
