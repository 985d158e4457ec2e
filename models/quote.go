package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a resolved market price for a ticker. Name and EPS are only
// populated by sources that carry descriptive fields.
type Quote struct {
	Ticker    string          `json:"ticker"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name,omitempty"`
	EPS       decimal.Decimal `json:"eps,omitempty"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
}
