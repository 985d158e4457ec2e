package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestQuotesService_GetQuote(t *testing.T) {
	resetBreakers(t)

	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("apikey")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ticker": "VOO", "current_price": 412.07, "name": "Vanguard S&P 500 ETF", "eps": 21.6}`))
	}))
	defer server.Close()

	svc := NewQuotesService(server.URL, "fmp-key")
	quote, err := svc.GetQuote(context.Background(), "VOO")
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}

	if gotPath != "/quotes/VOO" {
		t.Errorf("path = %q, want /quotes/VOO", gotPath)
	}
	if gotKey != "fmp-key" {
		t.Errorf("apikey = %q, want fmp-key", gotKey)
	}
	if !quote.Price.Equal(decimal.NewFromFloat(412.07)) {
		t.Errorf("Price = %s, want 412.07", quote.Price)
	}
	if quote.Name != "Vanguard S&P 500 ETF" {
		t.Errorf("Name = %q", quote.Name)
	}
	if !quote.EPS.Equal(decimal.NewFromFloat(21.6)) {
		t.Errorf("EPS = %s, want 21.6", quote.EPS)
	}
	if quote.Source != SourceQuotes {
		t.Errorf("Source = %q, want %q", quote.Source, SourceQuotes)
	}
}

func TestQuotesService_GetQuote_OptionalFieldsAbsent(t *testing.T) {
	resetBreakers(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("unexpected query %q without api key", r.URL.RawQuery)
		}
		w.Write([]byte(`{"ticker": "VOO", "current_price": 410}`))
	}))
	defer server.Close()

	svc := NewQuotesService(server.URL, "")
	quote, err := svc.GetQuote(context.Background(), "VOO")
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}
	if quote.Name != "" {
		t.Errorf("Name = %q, want empty", quote.Name)
	}
	if !quote.EPS.IsZero() {
		t.Errorf("EPS = %s, want zero", quote.EPS)
	}
}

func TestQuotesService_GetQuote_UnusablePrice(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing price", `{"ticker": "NOPE", "name": "Nope Corp"}`},
		{"zero price", `{"ticker": "NOPE", "current_price": 0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetBreakers(t)

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			svc := NewQuotesService(server.URL, "")
			_, err := svc.GetQuote(context.Background(), "NOPE")
			if !errors.Is(err, ErrQuoteNotFound) {
				t.Errorf("err = %v, want ErrQuoteNotFound", err)
			}
		})
	}
}

func TestQuotesService_GetQuote_NotFoundStatus(t *testing.T) {
	resetBreakers(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	svc := NewQuotesService(server.URL, "")
	if _, err := svc.GetQuote(context.Background(), "NOPE"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}
