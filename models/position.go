package models

import (
	"github.com/shopspring/decimal"
)

// SharePrecision is the number of fractional digits kept on share
// quantities after any mutation.
const SharePrecision = 6

// Position is one holding in a book: the ticker, how many shares are
// held, the weighted-average price paid per share, and the last resolved
// market price with its derived unrealized P&L.
//
// CurrentPrice and PnL are nil when no price has been resolved (or the
// last resolution failed). A nil field is omitted from the serialized
// snapshot, which is distinct from a present zero: a position sold down
// to zero shares carries PnL = 0, not nil.
type Position struct {
	Ticker       string           `json:"ticker"`
	Name         string           `json:"name,omitempty"`
	Shares       decimal.Decimal  `json:"shares"`
	AvgPrice     decimal.Decimal  `json:"avgPrice"`
	CurrentPrice *decimal.Decimal `json:"currentPrice,omitempty"`
	PnL          *decimal.Decimal `json:"pnl,omitempty"`
}

// HasQuote reports whether the position carries a resolved market price.
func (p *Position) HasQuote() bool {
	return p.CurrentPrice != nil
}

// Invested returns the cost basis of the whole position, shares * avgPrice.
func (p *Position) Invested() decimal.Decimal {
	return p.Shares.Mul(p.AvgPrice)
}

// ApplyQuote sets the current price and recomputes the unrealized P&L.
func (p *Position) ApplyQuote(price decimal.Decimal) {
	p.CurrentPrice = &price
	p.RecomputePnL()
}

// ClearQuote marks the position as having no resolved price. Both the
// price and the P&L become absent.
func (p *Position) ClearQuote() {
	p.CurrentPrice = nil
	p.PnL = nil
}

// RecomputePnL derives (currentPrice - avgPrice) * shares. Without a
// resolved price the P&L is absent.
func (p *Position) RecomputePnL() {
	if p.CurrentPrice == nil {
		p.PnL = nil
		return
	}
	pnl := p.CurrentPrice.Sub(p.AvgPrice).Mul(p.Shares)
	p.PnL = &pnl
}
