package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/config"
	"ledger/internal/log"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("LEDGER_BACKEND", "memory")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Backend)
	assert.Equal(t, "9090", cfg.Port)

	logger := SetupLogger(cfg)
	assert.Equal(t, log.ComponentApp, logger.Component())
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("LEDGER_BACKEND", "floppy")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ledger backend 'floppy'")
}

func TestOpenSessionMemory(t *testing.T) {
	cfg := config.Defaults()
	cfg.Backend = "memory"

	session, err := OpenSession(context.Background(), cfg, log.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Service.Close() })

	assert.Zero(t, session.Stats.Transactions)
	assert.NotNil(t, session.Reports)
	assert.Empty(t, session.Service.Transactions())
}

func TestOpenSessionCSV(t *testing.T) {
	cfg := config.Defaults()
	cfg.CSVPath = t.TempDir() + "/ledger.csv"

	session, err := OpenSession(context.Background(), cfg, log.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Service.Close() })
	assert.Zero(t, session.Stats.Transactions)
}

func TestOpenSessionInvalidBackend(t *testing.T) {
	cfg := config.Defaults()
	cfg.Backend = "floppy"

	_, err := OpenSession(context.Background(), cfg, log.Discard())
	require.Error(t, err)
}
