package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/ledger"
	"ledger/internal/log"
	"ledger/internal/report"
	"ledger/internal/store"
)

// Publisher delivers change notifications. It is optional.
type Publisher interface {
	Publish(ctx context.Context, event *amqp.LedgerEvent) error
	Close() error
}

// AddRequest is a transaction as entered by a user. Amount is the raw text
// typed in; NewCategory marks a label the user just created, which gets
// normalized before use.
type AddRequest struct {
	Date        core.Date
	Type        core.TxType
	Category    string
	Amount      string
	NewCategory bool
}

// Stats summarizes the session ledger.
type Stats struct {
	Transactions int
	Undated      int
	Rejected     int
	Revision     uint64
}

// LedgerService owns one session ledger and keeps it in step with its store.
// Every mutation is saved synchronously; when the save fails the in-memory
// change is undone and the error returned.
type LedgerService struct {
	mu        sync.RWMutex
	ledger    *ledger.Ledger
	store     store.Store
	publisher Publisher
	reports   *cache.ReportCache
	logger    *log.Logger
	events    *log.StructuredLogger
	rejected  int
}

type Option func(*LedgerService)

func WithPublisher(p Publisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

func WithReportCache(c *cache.ReportCache) Option {
	return func(s *LedgerService) { s.reports = c }
}

func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) { s.logger = l }
}

func NewLedgerService(st store.Store, opts ...Option) *LedgerService {
	s := &LedgerService{
		ledger: ledger.New(nil),
		store:  st,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)
	s.events = log.NewStructuredLogger(s.logger)
	if s.reports == nil {
		s.reports = cache.NewReportCache(0, 0)
	}
	return s
}

// Open replaces the session ledger with the store contents.
func (s *LedgerService) Open(ctx context.Context) (Stats, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load ledger: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.Replace(snap.Transactions)
	s.rejected = snap.Rejected
	s.reports.Purge()

	stats := s.statsLocked()
	if stats.Rejected > 0 || stats.Undated > 0 {
		s.logger.WarnContext(ctx, "Ledger loaded with unusable rows",
			log.FieldRejected, stats.Rejected,
			log.FieldUnparseable, stats.Undated)
	}
	s.logger.InfoContext(ctx, "Ledger loaded",
		log.FieldCount, stats.Transactions,
		log.FieldRevision, stats.Revision)
	return stats, nil
}

// Reload is Open under the name used by the presentation layers.
func (s *LedgerService) Reload(ctx context.Context) (Stats, error) {
	return s.Open(ctx)
}

// Stats reports the current session state.
func (s *LedgerService) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statsLocked()
}

func (s *LedgerService) statsLocked() Stats {
	st := Stats{
		Transactions: s.ledger.Len(),
		Rejected:     s.rejected,
		Revision:     s.ledger.Revision(),
	}
	for _, tx := range s.ledger.View() {
		if !tx.HasDate() {
			st.Undated++
		}
	}
	return st
}

// Add validates req, inserts it and persists the ledger.
func (s *LedgerService) Add(ctx context.Context, req AddRequest) (core.Transaction, error) {
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	category := strings.TrimSpace(req.Category)
	if req.NewCategory {
		category = core.NormalizeCategory(category)
	}
	tx := core.Transaction{
		Date:     req.Date,
		Type:     req.Type,
		Category: category,
		Amount:   amount,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.ledger.Transactions()
	if err := s.ledger.Insert(tx); err != nil {
		return core.Transaction{}, err
	}
	if err := s.persistLocked(ctx, before); err != nil {
		return core.Transaction{}, err
	}

	rev := s.ledger.Revision()
	s.events.LogTransactionAdded(ctx, tx, rev)
	s.publish(ctx, amqp.NewInsertEvent(tx, rev))
	return tx, nil
}

// Delete removes every transaction matching id and persists the ledger.
// ledger.ErrIdentityNotFound is returned, unwrapped, when nothing matched;
// it is a warning and nothing was changed.
func (s *LedgerService) Delete(ctx context.Context, id core.Identity) (int, error) {
	if err := id.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.ledger.Transactions()
	removed, err := s.ledger.Delete(id)
	if err != nil {
		return 0, err
	}
	if err := s.persistLocked(ctx, before); err != nil {
		return 0, err
	}

	rev := s.ledger.Revision()
	s.events.LogTransactionsDeleted(ctx, id, removed, rev)
	s.publish(ctx, amqp.NewDeleteEvent(id, removed, rev))
	return removed, nil
}

func (s *LedgerService) persistLocked(ctx context.Context, before []core.Transaction) error {
	if err := s.store.Save(ctx, s.ledger.View()); err != nil {
		s.ledger.Replace(before)
		s.events.LogError(ctx, "Failed to save ledger, change rolled back", err,
			log.ComponentStorage, log.OpSave, nil)
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

func (s *LedgerService) publish(ctx context.Context, event *amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldEventID, event.ID.String(),
			log.FieldError, err.Error())
	}
}

// Transactions returns a copy of the session ledger in insertion order.
func (s *LedgerService) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Transactions()
}

// CategoryIndex returns the labels for both types.
func (s *LedgerService) CategoryIndex() map[core.TxType][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Index()
}

// HasCategory reports whether label is already used for type t. The label
// is compared after trimming surrounding spaces.
func (s *LedgerService) HasCategory(t core.TxType, label string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.HasCategory(t, strings.TrimSpace(label))
}

// List runs a listing query over the session ledger.
func (s *LedgerService) List(q report.ListQuery) report.ListResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return report.List(s.ledger.View(), q)
}

// Report builds req over the session ledger, reusing a cached result for
// the current revision when there is one.
func (s *LedgerService) Report(ctx context.Context, req report.Request) (report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := cache.ReportKey(s.ledger.Revision(), req)
	view := s.ledger.View()
	rep, hit, err := s.reports.Get(key, func() (report.Report, error) {
		return report.Build(view, req)
	})
	if err != nil {
		return report.Report{}, err
	}
	s.logger.DebugContext(ctx, "Report built",
		log.FieldReportKind, req.Kind.String(),
		log.FieldGranularity, req.Granularity.String(),
		"cache_hit", hit)
	return rep, nil
}

// Close releases the store and the publisher.
func (s *LedgerService) Close() error {
	var errs []error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}
