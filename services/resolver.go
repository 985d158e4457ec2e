package services

import (
	"context"
	"fmt"
	"time"

	"stockfolio/models"
	"stockfolio/observability"
)

// Resolver resolves a ticker's current price through a two-tier fallback
// chain: the coverage dataset first, then the broader quotes API. The
// primary indexes only tickers with analyst coverage; the secondary
// covers ETFs and the rest but lacks some fields.
//
// Resolve never propagates a transport error. Every failure mode
// (network error, malformed response, missing or zero price) is logged
// and collapsed into ErrQuoteUnavailable once both tiers are exhausted.
type Resolver struct {
	primary  QuoteSource
	fallback QuoteSource
}

// NewResolver creates a Resolver over the given primary and fallback sources.
func NewResolver(primary, fallback QuoteSource) *Resolver {
	return &Resolver{primary: primary, fallback: fallback}
}

// Resolve returns a usable quote for the ticker or ErrQuoteUnavailable.
func (r *Resolver) Resolve(ctx context.Context, ticker string) (models.Quote, error) {
	metrics := observability.GetMetrics()

	start := time.Now()
	quote, err := r.primary.GetQuote(ctx, ticker)
	if err == nil && quote.Price.IsPositive() {
		metrics.RecordQuoteRequest(SourceStocks, "success", time.Since(start))
		return *quote, nil
	}
	metrics.RecordQuoteRequest(SourceStocks, "failure", time.Since(start))
	observability.Debug("primary quote source failed, falling back",
		tierFailure(ticker, quote, err)...)
	metrics.RecordQuoteFallback()

	start = time.Now()
	quote, err = r.fallback.GetQuote(ctx, ticker)
	if err == nil && quote.Price.IsPositive() {
		metrics.RecordQuoteRequest(SourceQuotes, "success", time.Since(start))
		return *quote, nil
	}
	metrics.RecordQuoteRequest(SourceQuotes, "failure", time.Since(start))
	observability.Warn("all quote sources failed",
		tierFailure(ticker, quote, err)...)

	return models.Quote{}, fmt.Errorf("%w: %s", ErrQuoteUnavailable, ticker)
}

// tierFailure builds the log attributes for a failed tier: the error
// when the source failed outright, the unusable price when it answered
// without one.
func tierFailure(ticker string, quote *models.Quote, err error) []any {
	if err != nil {
		return []any{"ticker", ticker, "error", err}
	}
	return []any{"ticker", ticker, "price", quote.Price}
}
