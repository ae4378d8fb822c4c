// Package migrations applies the embedded schema for the trade store
// (PostgreSQL) and the bar store (ClickHouse).
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// PostgresFS embeds all PostgreSQL migration files.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds all ClickHouse migration files.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS

// migrationFiles lists the .sql files under dir in lexical order.
func migrationFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, dir+"/"+entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// eachMigration calls apply with the SQL of every non-blank file under dir,
// in lexical order, and returns how many files were applied.
func eachMigration(fsys fs.FS, dir string, apply func(file, sql string) error) (int, error) {
	files, err := migrationFiles(fsys, dir)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", file, err)
		}
		sql := string(data)
		if strings.TrimSpace(sql) == "" {
			continue
		}
		if err := apply(file, sql); err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", file, err)
		}
		applied++
	}
	return applied, nil
}
