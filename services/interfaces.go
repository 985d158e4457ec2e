package services

import (
	"context"
	"errors"

	"stockfolio/models"
)

// Quote source names, used for metrics labels and the Quote.Source field.
const (
	SourceStocks = "stocks"
	SourceQuotes = "quotes"
)

// ErrQuoteNotFound means a source answered but had no usable price for
// the ticker. A usable price is present and strictly positive; a
// present-but-zero field counts as not found.
var ErrQuoteNotFound = errors.New("quote not found")

// ErrQuoteUnavailable means every source in the resolver's chain failed
// or had no usable price. It is the only error Resolve returns.
var ErrQuoteUnavailable = errors.New("quote unavailable from all sources")

// QuoteSource fetches the latest price for one ticker from a single
// upstream API.
type QuoteSource interface {
	GetQuote(ctx context.Context, ticker string) (*models.Quote, error)
}
