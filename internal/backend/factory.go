package backend

import (
	"context"
	"fmt"
	"log/slog"

	"ledger/internal/store/csvfile"
	"ledger/internal/store/memory"
	"ledger/internal/store/postgres"
	"ledger/internal/store/sheets"
	"ledger/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		s := memory.New(nil)
		return &BackendResult{Store: s, Cleanup: s.Close}, nil

	case CSVBackend:
		f.logger.Info("Initialized CSV backend", "path", config.CSVPath)
		s := csvfile.New(config.CSVPath)
		return &BackendResult{Store: s, Cleanup: s.Close}, nil

	case SQLiteBackend:
		s, err := sqlite.New(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &BackendResult{Store: s, Cleanup: s.Close}, nil

	case PostgresBackend:
		s, err := postgres.New(ctx, postgres.Config{DSN: config.PostgresDSN}, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
		return &BackendResult{Store: s, Cleanup: s.Close}, nil

	case SheetsBackend:
		s, err := sheets.New(ctx, sheets.Config{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			SheetName:       config.GoogleSheetName,
			CredentialsJSON: config.GoogleServiceAccountJSON,
			CredentialsFile: config.GoogleServiceAccountFile,
		}, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets store: %w", err)
		}
		f.logger.Info("Initialized Google Sheets backend", "sheet", config.GoogleSheetName)
		return &BackendResult{Store: s, Cleanup: s.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
