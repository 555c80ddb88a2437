// Package postgres persists the ledger in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ledger/internal/core"
	"ledger/internal/store"
)

//go:embed 001_create_transactions.sql
var migrationSQL string

// Config holds the connection settings.
type Config struct {
	DSN         string
	MaxPoolSize int
}

type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// New connects, pings and applies the schema.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = 4
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxPoolSize)
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, migrationSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("connected to PostgreSQL", "host", poolConfig.ConnConfig.Host, "database", poolConfig.ConnConfig.Database)
	return &Store{pool: pool, logger: logger}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Load(ctx context.Context) (store.Snapshot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT COALESCE(date::text, raw_date), type, category, amount::text
		FROM ledger_transactions
		ORDER BY position, id`)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	snap := store.Snapshot{Transactions: []core.Transaction{}}
	for rows.Next() {
		var date, typ, category, amount string
		if err := rows.Scan(&date, &typ, &category, &amount); err != nil {
			return store.Snapshot{}, fmt.Errorf("scan transaction: %w", err)
		}
		tx, err := store.DecodeFields(date, typ, category, amount)
		if err != nil {
			snap.Rejected++
			continue
		}
		snap.Transactions = append(snap.Transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return store.Snapshot{}, fmt.Errorf("iterate transactions: %w", err)
	}
	return snap, nil
}

// Save replaces the table contents inside one database transaction.
func (s *Store) Save(ctx context.Context, txs []core.Transaction) error {
	dbtx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbtx.Rollback(ctx)

	if _, err := dbtx.Exec(ctx, `DELETE FROM ledger_transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}

	batch := &pgx.Batch{}
	for i, t := range txs {
		batch.Queue(`
			INSERT INTO ledger_transactions (position, date, raw_date, type, category, amount)
			VALUES ($1, NULLIF($2::text, '')::date, $3, $4, $5, ($6::text)::numeric)`,
			i, t.Date.String(), t.RawDate, t.Type.String(), t.Category, t.Amount.String())
	}
	results := dbtx.SendBatch(ctx, batch)
	for i := range txs {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("insert transaction %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := dbtx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.logger.Debug("ledger saved to PostgreSQL", "count", len(txs))
	return nil
}
