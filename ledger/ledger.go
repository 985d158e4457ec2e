package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"stockfolio/models"
	"stockfolio/observability"
)

// Append is the edit target passed to Open when the entry should be
// added as a new position instead of replacing an existing one.
const Append = -1

// QuoteResolver resolves the current market price for a ticker. An
// error means no usable price could be obtained from any source; the
// ledger degrades the position to "price unknown" instead of failing.
type QuoteResolver interface {
	Resolve(ctx context.Context, ticker string) (models.Quote, error)
}

// Entry is the validated input for opening or editing a position.
type Entry struct {
	Ticker   string
	Shares   decimal.Decimal
	AvgPrice decimal.Decimal
}

// Ledger is the ordered collection of positions for one book. Insertion
// order is display order. Each ticker appears at most once.
//
// A Ledger is not safe for concurrent use; the book store serializes
// all access under its mutex and never interleaves two logical
// operations on the same ledger.
type Ledger struct {
	book      string
	positions []models.Position
}

// New creates an empty ledger for the named book.
func New(book string) *Ledger {
	return &Ledger{book: book}
}

// Restore creates a ledger pre-populated from a persisted snapshot.
func Restore(book string, positions []models.Position) *Ledger {
	return &Ledger{book: book, positions: positions}
}

// Book returns the book name this ledger belongs to.
func (l *Ledger) Book() string {
	return l.book
}

// Len returns the number of positions held.
func (l *Ledger) Len() int {
	return len(l.positions)
}

// Positions returns a copy of the positions in display order.
func (l *Ledger) Positions() []models.Position {
	out := make([]models.Position, len(l.positions))
	copy(out, l.positions)
	return out
}

// Position returns a copy of the position at the given ordinal.
func (l *Ledger) Position(index int) (models.Position, error) {
	if index < 0 || index >= len(l.positions) {
		return models.Position{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return l.positions[index], nil
}

// Open adds a position or, when editIndex targets an existing row,
// replaces that row in place. Edits never merge tickers or blend cost
// bases: the replaced row's values are discarded wholesale.
//
// The ticker is normalized to uppercase. The new position starts with
// no resolved price; callers refresh afterwards.
func (l *Ledger) Open(e Entry, editIndex int) error {
	ticker := strings.ToUpper(strings.TrimSpace(e.Ticker))
	if ticker == "" {
		return fmt.Errorf("%w: ticker is required", ErrValidation)
	}
	if !e.Shares.IsPositive() {
		return fmt.Errorf("%w: shares must be positive, got %s", ErrValidation, e.Shares)
	}
	if !e.AvgPrice.IsPositive() {
		return fmt.Errorf("%w: average price must be positive, got %s", ErrValidation, e.AvgPrice)
	}
	if editIndex != Append && (editIndex < 0 || editIndex >= len(l.positions)) {
		return fmt.Errorf("%w: edit target %d", ErrIndexOutOfRange, editIndex)
	}
	for i := range l.positions {
		if i != editIndex && l.positions[i].Ticker == ticker {
			return fmt.Errorf("%w: position for %s already exists", ErrValidation, ticker)
		}
	}

	pos := models.Position{
		Ticker:   ticker,
		Shares:   e.Shares.Round(models.SharePrecision),
		AvgPrice: e.AvgPrice,
	}
	if editIndex == Append {
		l.positions = append(l.positions, pos)
	} else {
		l.positions[editIndex] = pos
	}
	return nil
}

// Remove deletes the position at the given ordinal.
func (l *Ledger) Remove(index int) error {
	if index < 0 || index >= len(l.positions) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	l.positions = append(l.positions[:index], l.positions[index+1:]...)
	return nil
}

// Buy enlarges the position at index by added shares at the current
// market price, moving the average price to the weighted mean of the
// old basis and the purchase:
//
//	newAvg = (shares*avgPrice + added*currentPrice) / (shares + added)
//
// The position must carry a resolved price; without one the trade is
// rejected and the ledger is left untouched.
func (l *Ledger) Buy(index int, added decimal.Decimal) error {
	if index < 0 || index >= len(l.positions) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if !added.IsPositive() {
		return fmt.Errorf("%w: shares to buy must be positive, got %s", ErrValidation, added)
	}
	p := &l.positions[index]
	if p.CurrentPrice == nil || !p.CurrentPrice.IsPositive() {
		return fmt.Errorf("%w: %s", ErrQuoteUnavailable, p.Ticker)
	}

	oldInvestment := p.Shares.Mul(p.AvgPrice)
	newInvestment := added.Mul(*p.CurrentPrice)
	totalShares := p.Shares.Add(added)

	p.AvgPrice = oldInvestment.Add(newInvestment).Div(totalShares)
	p.Shares = totalShares.Round(models.SharePrecision)
	p.RecomputePnL()
	return nil
}

// Sell reduces the position at index by removed shares. The average
// price never changes on a sell. Selling down to exactly zero leaves a
// present P&L of zero, marking the position closed rather than
// price-unknown.
func (l *Ledger) Sell(index int, removed decimal.Decimal) error {
	if index < 0 || index >= len(l.positions) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if !removed.IsPositive() {
		return fmt.Errorf("%w: shares to sell must be positive, got %s", ErrValidation, removed)
	}
	p := &l.positions[index]
	if p.CurrentPrice == nil || !p.CurrentPrice.IsPositive() {
		return fmt.Errorf("%w: %s", ErrQuoteUnavailable, p.Ticker)
	}
	if removed.GreaterThan(p.Shares) {
		return fmt.Errorf("%w: have %s, asked to sell %s", ErrInsufficientShares, p.Shares, removed)
	}

	p.Shares = p.Shares.Sub(removed).Round(models.SharePrecision)
	if p.Shares.IsZero() {
		zero := decimal.Zero
		p.PnL = &zero
	} else {
		p.RecomputePnL()
	}
	return nil
}

// RefreshPrice resolves the current price for the position at index.
// Resolution failure is not an error: the position degrades to
// price-unknown and the failure is logged. The returned error only
// reports an out-of-range index.
func (l *Ledger) RefreshPrice(ctx context.Context, resolver QuoteResolver, index int) error {
	if index < 0 || index >= len(l.positions) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	l.refresh(ctx, resolver, &l.positions[index])
	return nil
}

// RefreshAll resolves prices for every position, one ticker at a time.
// A failure on one ticker never prevents the next ticker's refresh.
func (l *Ledger) RefreshAll(ctx context.Context, resolver QuoteResolver) {
	for i := range l.positions {
		l.refresh(ctx, resolver, &l.positions[i])
	}
}

func (l *Ledger) refresh(ctx context.Context, resolver QuoteResolver, p *models.Position) {
	quote, err := resolver.Resolve(ctx, p.Ticker)
	if err != nil {
		observability.Warn("price refresh failed",
			"book", l.book,
			"ticker", p.Ticker,
			"error", err)
		p.ClearQuote()
		return
	}
	if p.Name == "" && quote.Name != "" {
		p.Name = quote.Name
	}
	p.ApplyQuote(quote.Price)
}
