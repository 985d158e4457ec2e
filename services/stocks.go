package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"stockfolio/models"
)

// StocksService is the primary quote source: the analyst-coverage stock
// dataset API. It only indexes tickers with coverage, so lookups for
// anything outside that universe fail and the resolver falls back.
type StocksService struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewStocksService creates a new StocksService instance
func NewStocksService(baseURL, apiKey string) *StocksService {
	return &StocksService{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
	}
}

// stockResponse represents a single stock record from the coverage dataset.
// CurrentPrice is a pointer so a missing field is distinguishable from zero.
type stockResponse struct {
	Ticker       string   `json:"ticker"`
	Company      string   `json:"company,omitempty"`
	CurrentPrice *float64 `json:"current_price"`
}

// GetQuote returns the latest price for a ticker from the coverage dataset.
// A missing or non-positive price field is reported as ErrQuoteNotFound,
// the same as any transport failure.
func (s *StocksService) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	return WithCircuitBreaker(ctx, BreakerStocks, func() (*models.Quote, error) {
		var quote *models.Quote

		err := WithRetry(ctx, DefaultRetryConfig, func() error {
			reqURL := fmt.Sprintf("%s/stocks/%s", s.baseURL, url.PathEscape(ticker))

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if err != nil {
				return fmt.Errorf("failed to create stocks request: %w", err)
			}
			if s.apiKey != "" {
				req.Header.Set("Authorization", "Bearer "+s.apiKey)
			}

			resp, err := s.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("failed to fetch stock: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("stocks API returned status %d", resp.StatusCode)
			}

			var stock stockResponse
			if err := json.NewDecoder(resp.Body).Decode(&stock); err != nil {
				return fmt.Errorf("failed to decode stock response: %w", err)
			}

			if stock.CurrentPrice == nil || *stock.CurrentPrice <= 0 {
				return fmt.Errorf("%w: %s has no usable price in coverage dataset", ErrQuoteNotFound, ticker)
			}

			quote = &models.Quote{
				Ticker:    ticker,
				Price:     decimal.NewFromFloat(*stock.CurrentPrice),
				Name:      stock.Company,
				Source:    SourceStocks,
				Timestamp: time.Now(),
			}
			return nil
		})

		if err != nil {
			return nil, err
		}

		return quote, nil
	})
}

// Compile-time interface verification
var _ QuoteSource = (*StocksService)(nil)
