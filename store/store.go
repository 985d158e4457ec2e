// Package store orchestrates the two position ledgers ("real" and
// "demo"), the transient trade-entry state shared between them, and
// snapshot persistence. All ledger mutations flow through here; the
// store persists the affected book after every structural change.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stockfolio/config"
	"stockfolio/ledger"
	"stockfolio/models"
	"stockfolio/observability"
	"stockfolio/repository"
)

// The two books. They share no state beyond the trade-entry scratch.
const (
	BookReal = "real"
	BookDemo = "demo"
)

var (
	// ErrUnknownBook means the operation named a book other than real or demo.
	ErrUnknownBook = errors.New("unknown book")

	// ErrNoPendingTrade means ConfirmTrade was called with no trade staged.
	ErrNoPendingTrade = errors.New("no pending trade")
)

// Draft is the trade-entry form state: the position being typed in,
// plus the row it replaces when editing. It is scratch state, cleared
// after each commit.
type Draft struct {
	Ticker    string
	Shares    decimal.Decimal
	AvgPrice  decimal.Decimal
	EditIndex int
}

// pendingTrade tracks which book, row and direction the open trade
// modal targets.
type pendingTrade struct {
	active bool
	book   string
	index  int
	sell   bool
}

// ImportResult reports what an external import did.
type ImportResult struct {
	BatchID uuid.UUID `json:"batchId"`
	Added   int       `json:"added"`
	Dropped int       `json:"dropped"`
}

// Store owns the two ledgers and everything around them. The ledgers
// themselves are not safe for concurrent use, so every operation holds
// the store mutex for its full duration; two logical operations never
// interleave on the same ledger.
type Store struct {
	mu sync.Mutex

	real *ledger.Ledger
	demo *ledger.Ledger

	snapshots repository.SnapshotStore

	// interactive bounds each ticker lookup on user-triggered
	// refreshes; imports covers reconciliation refreshes, which may
	// involve a cold external lookup and get a longer budget.
	interactive ledger.QuoteResolver
	imports     ledger.QuoteResolver

	draft   Draft
	pending pendingTrade
}

// scopedResolver bounds every lookup with a per-call timeout.
type scopedResolver struct {
	inner   ledger.QuoteResolver
	timeout time.Duration
}

func (r scopedResolver) Resolve(ctx context.Context, ticker string) (models.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.Resolve(ctx, ticker)
}

// New creates a Store with empty books. Call Open to restore snapshots.
func New(cfg *config.Config, snapshots repository.SnapshotStore, resolver ledger.QuoteResolver) *Store {
	return &Store{
		real:        ledger.New(BookReal),
		demo:        ledger.New(BookDemo),
		snapshots:   snapshots,
		interactive: scopedResolver{resolver, time.Duration(cfg.Quotes.InteractiveTimeoutSec) * time.Second},
		imports:     scopedResolver{resolver, time.Duration(cfg.Quotes.ImportTimeoutSec) * time.Second},
		draft:       Draft{EditIndex: ledger.Append},
	}
}

// Open restores both books from their persisted snapshots and refreshes
// prices. A snapshot that fails to load leaves that book empty; startup
// never aborts on corrupt persistence. Restore-time lookups may be cold
// external fetches, so they run on the import timeout budget.
func (s *Store) Open(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.real = s.restore(ctx, BookReal)
	s.demo = s.restore(ctx, BookDemo)

	for _, book := range []string{BookReal, BookDemo} {
		l, _ := s.ledgerFor(book)
		if l.Len() == 0 {
			continue
		}
		s.refreshAll(ctx, l, s.imports)
		s.save(ctx, l)
	}
}

func (s *Store) restore(ctx context.Context, book string) *ledger.Ledger {
	metrics := observability.GetMetrics()
	positions, err := s.snapshots.Load(ctx, book)
	if err != nil {
		observability.Error("failed to load snapshot, starting empty",
			"book", book,
			"error", err)
		metrics.RecordSnapshotOp(book, "load", "failure")
		return ledger.New(book)
	}
	metrics.RecordSnapshotOp(book, "load", "success")
	return ledger.Restore(book, positions)
}

// save persists the book's full snapshot. Persistence failure is logged
// and absorbed; the in-memory state stays authoritative.
func (s *Store) save(ctx context.Context, l *ledger.Ledger) {
	metrics := observability.GetMetrics()
	if err := s.snapshots.Save(ctx, l.Book(), l.Positions()); err != nil {
		observability.Error("failed to persist snapshot",
			"book", l.Book(),
			"error", err)
		metrics.RecordSnapshotOp(l.Book(), "save", "failure")
		return
	}
	metrics.RecordSnapshotOp(l.Book(), "save", "success")
}

func (s *Store) refreshAll(ctx context.Context, l *ledger.Ledger, resolver ledger.QuoteResolver) {
	start := time.Now()
	l.RefreshAll(ctx, resolver)
	observability.GetMetrics().RecordRefresh(l.Book(), time.Since(start))
}

func (s *Store) ledgerFor(book string) (*ledger.Ledger, error) {
	switch book {
	case BookReal:
		return s.real, nil
	case BookDemo:
		return s.demo, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBook, book)
	}
}

// Positions returns the book's positions in display order.
func (s *Store) Positions(book string) ([]models.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ledgerFor(book)
	if err != nil {
		return nil, err
	}
	return l.Positions(), nil
}

// Summary returns the book's derived aggregates.
func (s *Store) Summary(book string) (ledger.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ledgerFor(book)
	if err != nil {
		return ledger.Summary{}, err
	}
	return l.Summary(), nil
}

// SetDraft stages trade-entry form state.
func (s *Store) SetDraft(d Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = d
}

// Draft returns the staged trade-entry form state.
func (s *Store) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// EditPosition stages the position at index as the draft, marking it as
// the edit target so the next commit replaces it in place.
func (s *Store) EditPosition(book string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ledgerFor(book)
	if err != nil {
		return err
	}
	p, err := l.Position(index)
	if err != nil {
		return err
	}
	s.draft = Draft{
		Ticker:    p.Ticker,
		Shares:    p.Shares,
		AvgPrice:  p.AvgPrice,
		EditIndex: index,
	}
	return nil
}

// CommitDraft opens (or edits, when the draft targets a row) a position
// from the staged draft, persists, refreshes prices and clears the
// draft. Validation errors leave the book and the draft untouched.
func (s *Store) CommitDraft(ctx context.Context, book string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ledgerFor(book)
	if err != nil {
		return err
	}
	entry := ledger.Entry{
		Ticker:   s.draft.Ticker,
		Shares:   s.draft.Shares,
		AvgPrice: s.draft.AvgPrice,
	}
	if err := l.Open(entry, s.draft.EditIndex); err != nil {
		return err
	}
	s.draft = Draft{EditIndex: ledger.Append}
	s.save(ctx, l)
	s.refreshAll(ctx, l, s.interactive)
	s.save(ctx, l)
	return nil
}

// AddPosition opens a position directly, bypassing the draft.
func (s *Store) AddPosition(ctx context.Context, book string, entry ledger.Entry, editIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ledgerFor(book)
	if err != nil {
		return err
	}
	if err := l.Open(entry, editIndex); err != nil {
		return err
	}
	s.save(ctx, l)
	s.refreshAll(ctx, l, s.interactive)
	s.save(ctx, l)
	return nil
}

// RemovePosition deletes the position at index and persists.
func (s *Store) RemovePosition(ctx context.Context, book string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ledgerFor(book)
	if err != nil {
		return err
	}
	if err := l.Remove(index); err != nil {
		return err
	}
	s.save(ctx, l)
	return nil
}

// BeginTrade stages a buy (sell=false) or sell (sell=true) against one
// row of one book. The amount arrives later with ConfirmTrade.
func (s *Store) BeginTrade(book string, index int, sell bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ledgerFor(book); err != nil {
		return err
	}
	s.pending = pendingTrade{active: true, book: book, index: index, sell: sell}
	return nil
}

// CancelTrade clears the staged trade.
func (s *Store) CancelTrade() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = pendingTrade{}
}

// ConfirmTrade commits the staged trade with the given share amount,
// dispatching to buy or sell on the targeted book. On success the
// staged trade is cleared and the book persisted; on failure the stage
// stays set so the caller can correct the amount and retry.
func (s *Store) ConfirmTrade(ctx context.Context, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pending.active {
		return ErrNoPendingTrade
	}
	if err := s.trade(ctx, s.pending.book, s.pending.index, s.pending.sell, amount); err != nil {
		return err
	}
	s.pending = pendingTrade{}
	return nil
}

// Trade commits a buy or sell against one row of one book in a single
// step, without touching the staged-trade scratch state. Callers that
// already know the amount (the HTTP surface) use this instead of the
// BeginTrade/ConfirmTrade pair so concurrent requests cannot commit
// each other's stage.
func (s *Store) Trade(ctx context.Context, book string, index int, sell bool, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trade(ctx, book, index, sell, amount)
}

// trade is the shared commit path. The caller holds the mutex.
func (s *Store) trade(ctx context.Context, book string, index int, sell bool, amount decimal.Decimal) error {
	l, err := s.ledgerFor(book)
	if err != nil {
		return err
	}

	side := "buy"
	if sell {
		side = "sell"
		err = l.Sell(index, amount)
	} else {
		err = l.Buy(index, amount)
	}
	if err != nil {
		return err
	}

	observability.GetMetrics().RecordTrade(l.Book(), side)
	s.save(ctx, l)
	return nil
}

// Refresh re-resolves prices for every position in the book and persists.
func (s *Store) Refresh(ctx context.Context, book string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ledgerFor(book)
	if err != nil {
		return err
	}
	s.refreshAll(ctx, l, s.interactive)
	s.save(ctx, l)
	return nil
}

// Import reconciles recognized positions into the book: new tickers are
// appended, existing tickers dropped, then prices refresh and the book
// persists. The returned batch ID ties log lines to the API response.
func (s *Store) Import(ctx context.Context, book string, items []models.RecognizedPosition) (ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ledgerFor(book)
	if err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{BatchID: uuid.New()}
	merged := l.Merge(items)
	res.Added = merged.Added
	res.Dropped = merged.Dropped

	observability.GetMetrics().RecordImport(l.Book(), merged.Added, merged.Dropped)
	observability.Info("import merged",
		"batch_id", res.BatchID,
		"book", l.Book(),
		"added", merged.Added,
		"dropped", merged.Dropped)

	s.refreshAll(ctx, l, s.imports)
	s.save(ctx, l)
	return res, nil
}

// Close releases the snapshot store.
func (s *Store) Close() {
	s.snapshots.Close()
}
