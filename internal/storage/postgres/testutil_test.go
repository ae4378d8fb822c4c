package postgres

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// schemaTables are created by internal/storage/migrations/postgres.
var schemaTables = []string{"trades", "ingest_log"}

// setupTestDB starts PostgreSQL in a container and creates the trade and
// ingest log tables. The migrations package imports this one, so the SQL
// files are read from disk instead of its embedded FS.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("postgres store tests need docker, skipped with -short")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("taqbars"),
		postgres.WithUsername("taqbars"),
		postgres.WithPassword("taqbars"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "postgres connection string")

	pool, err := NewPoolWithOptions(ctx, dsn, PoolOptions{MaxConns: 4})
	require.NoError(t, err, "connect to postgres")

	createSchema(t, ctx, pool)

	return pool, func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	}
}

// createSchema applies the trade store migrations and checks every table exists.
func createSchema(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	dir := os.DirFS(schemaDir(t))
	files, err := fs.Glob(dir, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files, "no postgres migrations found")

	// Glob returns names in lexical order, matching RunPostgresMigrations.
	for _, name := range files {
		sql, err := fs.ReadFile(dir, name)
		require.NoError(t, err, name)
		_, err = pool.Exec(ctx, string(sql))
		require.NoError(t, err, "apply %s", name)
	}

	for _, table := range schemaTables {
		var exists bool
		err := pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, table,
		).Scan(&exists)
		require.NoError(t, err)
		require.True(t, exists, "table %s missing after migrations", table)
	}
}

// schemaDir locates the migration files relative to this source file.
func schemaDir(t *testing.T) string {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok, "locate test source")
	return filepath.Join(filepath.Dir(file), "..", "migrations", "postgres")
}
