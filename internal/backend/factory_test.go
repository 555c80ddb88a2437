package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/config"
	"ledger/internal/store/csvfile"
	"ledger/internal/store/memory"
	"ledger/internal/store/sqlite"
)

func TestBackendTypeIsValid(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		if !bt.IsValid() {
			t.Fatalf("%s should be valid", bt)
		}
	}
	if BackendType("redis").IsValid() {
		t.Fatal("redis should not be valid")
	}
	assert.Equal(t, config.Backends, GetBackendTypeStrings())
}

func TestFromAppConfig(t *testing.T) {
	app := config.Defaults()
	app.Backend = "postgres"
	app.PostgresHost = "db"

	cfg, err := FromAppConfig(app)
	require.NoError(t, err)
	assert.Equal(t, PostgresBackend, cfg.Type)
	assert.Contains(t, cfg.PostgresDSN, "@db:5432/ledger")

	app.Backend = "redis"
	_, err = FromAppConfig(app)
	assert.ErrorContains(t, err, "want one of memory, csv, sqlite, postgres, sheets")

	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestCreateBackend(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name   string
		config Config
		check  func(t *testing.T, r *BackendResult)
	}{
		{
			name:   "memory",
			config: Config{Type: MemoryBackend},
			check: func(t *testing.T, r *BackendResult) {
				assert.IsType(t, &memory.Store{}, r.Store)
			},
		},
		{
			name:   "csv",
			config: Config{Type: CSVBackend, CSVPath: filepath.Join(dir, "ledger.csv")},
			check: func(t *testing.T, r *BackendResult) {
				assert.IsType(t, &csvfile.Store{}, r.Store)
			},
		},
		{
			name:   "sqlite",
			config: Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "ledger.db")},
			check: func(t *testing.T, r *BackendResult) {
				assert.IsType(t, &sqlite.Store{}, r.Store)
			},
		},
	}
	f := NewFactory(nil)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, err := f.CreateBackend(context.Background(), c.config)
			require.NoError(t, err)
			c.check(t, r)
			require.NoError(t, r.Cleanup())
		})
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	f := NewFactory(nil)
	cases := []Config{
		{Type: "redis"},
		{Type: CSVBackend},
		{Type: SQLiteBackend},
		{Type: PostgresBackend},
		{Type: SheetsBackend, GoogleSpreadsheetID: "id"},
	}
	for _, c := range cases {
		if _, err := f.CreateBackend(context.Background(), c); err == nil {
			t.Fatalf("CreateBackend(%+v) error = nil, want error", c)
		}
	}
}
