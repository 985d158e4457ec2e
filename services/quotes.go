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

// QuotesService is the secondary quote source. It covers a broader
// universe than the coverage dataset (ETFs included) and carries
// descriptive fields, but lacks analyst data.
type QuotesService struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewQuotesService creates a new QuotesService instance
func NewQuotesService(baseURL, apiKey string) *QuotesService {
	return &QuotesService{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
	}
}

// quoteResponse represents a quote from the fallback API. CurrentPrice
// is a pointer so a missing field is distinguishable from zero.
type quoteResponse struct {
	Ticker       string   `json:"ticker"`
	CurrentPrice *float64 `json:"current_price"`
	Name         string   `json:"name,omitempty"`
	EPS          *float64 `json:"eps,omitempty"`
}

// GetQuote returns the latest price for a ticker, with name and EPS when
// the API carries them. A missing or non-positive price field is reported
// as ErrQuoteNotFound, the same as any transport failure.
func (s *QuotesService) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	return WithCircuitBreaker(ctx, BreakerQuotes, func() (*models.Quote, error) {
		var quote *models.Quote

		err := WithRetry(ctx, DefaultRetryConfig, func() error {
			params := url.Values{}
			if s.apiKey != "" {
				params.Set("apikey", s.apiKey)
			}
			reqURL := fmt.Sprintf("%s/quotes/%s", s.baseURL, url.PathEscape(ticker))
			if len(params) > 0 {
				reqURL += "?" + params.Encode()
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if err != nil {
				return fmt.Errorf("failed to create quote request: %w", err)
			}

			resp, err := s.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("failed to fetch quote: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("quotes API returned status %d", resp.StatusCode)
			}

			var q quoteResponse
			if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
				return fmt.Errorf("failed to decode quote response: %w", err)
			}

			if q.CurrentPrice == nil || *q.CurrentPrice <= 0 {
				return fmt.Errorf("%w: no usable price for %s", ErrQuoteNotFound, ticker)
			}

			quote = &models.Quote{
				Ticker:    ticker,
				Price:     decimal.NewFromFloat(*q.CurrentPrice),
				Name:      q.Name,
				Source:    SourceQuotes,
				Timestamp: time.Now(),
			}
			if q.EPS != nil {
				quote.EPS = decimal.NewFromFloat(*q.EPS)
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
var _ QuoteSource = (*QuotesService)(nil)
