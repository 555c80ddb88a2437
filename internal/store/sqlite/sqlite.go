// Package sqlite persists the ledger in a single SQLite table. Amounts are
// stored as decimal text so no precision is lost.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"ledger/internal/core"
	"ledger/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (store.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, type, category, amount FROM transactions ORDER BY position, id`)
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

// Save replaces the table contents in one transaction.
func (s *Store) Save(ctx context.Context, txs []core.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (position, date, type, category, amount) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range txs {
		f := store.EncodeFields(t)
		if _, err := stmt.ExecContext(ctx, i, f[0], f[1], f[2], f[3]); err != nil {
			return fmt.Errorf("insert transaction %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
