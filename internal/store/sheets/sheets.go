// Package sheets persists the ledger in one tab of a Google spreadsheet,
// header in row 1 and one transaction per row below it.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ledger/internal/core"
	"ledger/internal/store"
)

// Config selects the spreadsheet tab and the service account used.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string

	// RetryAttempts and RetryDelay govern retries on HTTP 429.
	RetryAttempts uint
	RetryDelay    time.Duration
}

// valuesAPI is the slice of the Sheets values API the store needs.
type valuesAPI interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error
}

type Store struct {
	api           valuesAPI
	spreadsheetID string
	sheet         string
	attempts      uint
	delay         time.Duration
	logger        *slog.Logger
}

var _ store.Store = (*Store)(nil)

// New builds a Sheets client from service account credentials.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return newStore(serviceAPI{svc: svc}, cfg, logger), nil
}

func newStore(api valuesAPI, cfg Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Ledger"
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 30 * time.Second
	}
	return &Store{
		api:           api,
		spreadsheetID: cfg.SpreadsheetID,
		sheet:         cfg.SheetName,
		attempts:      cfg.RetryAttempts,
		delay:         cfg.RetryDelay,
		logger:        logger,
	}
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case cfg.CredentialsFile != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) Load(ctx context.Context) (store.Snapshot, error) {
	var values [][]any
	err := s.retry(func() error {
		var err error
		values, err = s.api.Get(ctx, s.spreadsheetID, fmt.Sprintf("%s!A1:Z", s.sheet))
		return err
	})
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("read sheet %s: %w", s.sheet, err)
	}
	if len(values) == 0 {
		return store.Snapshot{Transactions: []core.Transaction{}}, nil
	}

	cols, err := store.IndexHeader(toStrings(values[0]))
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("parse sheet header: %w", err)
	}
	rows := make([][]string, 0, len(values)-1)
	for _, row := range values[1:] {
		rows = append(rows, toStrings(row))
	}
	return cols.DecodeRows(rows), nil
}

// Save clears the tab and writes the header and every transaction.
func (s *Store) Save(ctx context.Context, txs []core.Transaction) error {
	values := make([][]any, 0, len(txs)+1)
	values = append(values, toAny(store.Header))
	for _, tx := range txs {
		values = append(values, toAny(store.EncodeFields(tx)))
	}

	err := s.retry(func() error {
		return s.api.Clear(ctx, s.spreadsheetID, fmt.Sprintf("%s!A:D", s.sheet))
	})
	if err != nil {
		return fmt.Errorf("clear sheet %s: %w", s.sheet, err)
	}
	err = s.retry(func() error {
		return s.api.Update(ctx, s.spreadsheetID, fmt.Sprintf("%s!A1", s.sheet), values)
	})
	if err != nil {
		return fmt.Errorf("write sheet %s: %w", s.sheet, err)
	}

	s.logger.Debug("ledger saved to sheet", "sheet", s.sheet, "count", len(txs))
	return nil
}

func (s *Store) retry(fn func() error) error {
	return retry.Do(
		fn,
		retry.RetryIf(func(err error) bool {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
				s.logger.Warn("rate limited, will retry", "error", err)
				return true
			}
			return false
		}),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.LastErrorOnly(true),
	)
}

func toStrings(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func toAny(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

// serviceAPI adapts the generated Sheets client to valuesAPI.
type serviceAPI struct {
	svc *gsheet.Service
}

func (a serviceAPI) Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error) {
	resp, err := a.svc.Spreadsheets.Values.Get(spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (a serviceAPI) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := a.svc.Spreadsheets.Values.Clear(spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).
		Do()
	return err
}

func (a serviceAPI) Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	_, err := a.svc.Spreadsheets.Values.Update(spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}
