// Package csvfile persists the ledger as a CSV file with a
// Date,Type,Category,Amount header.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"ledger/internal/core"
	"ledger/internal/store"
)

type Store struct {
	path string
}

var _ store.Store = (*Store)(nil)

func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load reads the file. A missing file is an empty ledger.
func (s *Store) Load(ctx context.Context) (store.Snapshot, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return store.Snapshot{Transactions: []core.Transaction{}}, nil
	}
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()
	return decode(ctx, f)
}

func decode(ctx context.Context, r io.Reader) (store.Snapshot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return store.Snapshot{Transactions: []core.Transaction{}}, nil
	}
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("read header: %w", err)
	}
	cols, err := store.IndexHeader(header)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("parse header: %w", err)
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("read rows: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return store.Snapshot{}, err
	}
	return cols.DecodeRows(rows), nil
}

// Save writes the full ledger to a temporary file and renames it over the
// previous one.
func (s *Store) Save(ctx context.Context, txs []core.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ledger-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(store.Header); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, tx := range txs {
		if err := w.Write(store.EncodeFields(tx)); err != nil {
			tmp.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace ledger file: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return nil }
