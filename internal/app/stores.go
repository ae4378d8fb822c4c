// Package app wires configuration into the stores and process plumbing
// shared by the commands.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"taq-bars/internal/config"
	"taq-bars/internal/storage"
	chstore "taq-bars/internal/storage/clickhouse"
	"taq-bars/internal/storage/memory"
	"taq-bars/internal/storage/migrations"
	pgstore "taq-bars/internal/storage/postgres"
)

// Stores holds all storage implementations.
type Stores struct {
	Trades    storage.TradeStore
	Bars      storage.BarStore
	IngestLog storage.IngestLogStore
}

// OpenStores connects the configured backends: in-memory stores when
// UseMemory is set, otherwise PostgreSQL for trades and the ingest log
// and ClickHouse for bars. The returned cleanup closes connections.
func OpenStores(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*Stores, func(), error) {
	if cfg.UseMemory {
		logger.Info("using in-memory storage")
		return &Stores{
			Trades:    memory.NewTradeStore(),
			Bars:      memory.NewBarStore(),
			IngestLog: memory.NewIngestLogStore(),
		}, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPoolWithOptions(ctx, cfg.PostgresDSN, pgstore.PoolOptions{MaxConns: cfg.MaxConns})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if cfg.Migrate {
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
	}

	// ClickHouse
	var chConn *chstore.Conn
	if cfg.Migrate {
		chConn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	} else {
		chConn, err = chstore.NewConn(ctx, cfg.ClickhouseDSN)
	}
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	stores := &Stores{
		Trades:    pgstore.NewTradeStore(pool),
		IngestLog: pgstore.NewIngestLogStore(pool),
		Bars:      chstore.NewBarStore(chConn),
	}
	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	logger.Info("connected to storage", "migrated", cfg.Migrate)
	return stores, cleanup, nil
}
