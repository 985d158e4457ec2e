package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"stockfolio/config"
	"stockfolio/models"
	"stockfolio/repository"
	"stockfolio/store"
)

// tableResolver resolves from a fixed price table; unknown tickers fail.
type tableResolver struct {
	prices map[string]decimal.Decimal
}

func (f *tableResolver) Resolve(_ context.Context, ticker string) (models.Quote, error) {
	price, ok := f.prices[ticker]
	if !ok {
		return models.Quote{}, fmt.Errorf("no quote for %s", ticker)
	}
	return models.Quote{Ticker: ticker, Price: price}, nil
}

func newTestServer(t *testing.T, prices map[string]decimal.Decimal) *httptest.Server {
	t.Helper()

	cfg := config.NewTestConfig()
	cfg.Snapshot.Dir = t.TempDir()

	snapshots, err := repository.NewFileStore(cfg.Snapshot.Dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	resolver := &tableResolver{prices: prices}
	st := store.New(cfg, snapshots, resolver)
	st.Open(context.Background())

	app := &App{cfg: cfg, store: st, snapshots: snapshots, resolver: resolver}
	server := httptest.NewServer(NewRouter(NewAPIHandler(app), cfg))
	t.Cleanup(func() {
		server.Close()
		app.Close()
	})
	return server
}

func doJSON(t *testing.T, method, url string, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

type positionsResponse struct {
	Positions []models.Position `json:"positions"`
	Count     int               `json:"count"`
}

func decodePositions(t *testing.T, resp *http.Response) positionsResponse {
	t.Helper()
	var out positionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

func TestAPI_Health(t *testing.T) {
	server := newTestServer(t, nil)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestAPI_OpenPosition(t *testing.T) {
	server := newTestServer(t, map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(160),
	})

	resp := doJSON(t, http.MethodPost, server.URL+"/api/books/real/positions/",
		`{"ticker": "aapl", "shares": 10, "avgPrice": 150}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	out := decodePositions(t, resp)
	if len(out.Positions) != 1 {
		t.Fatalf("positions = %d, want 1", len(out.Positions))
	}
	p := out.Positions[0]
	if p.Ticker != "AAPL" {
		t.Errorf("Ticker = %q, want AAPL", p.Ticker)
	}
	if p.CurrentPrice == nil || !p.CurrentPrice.Equal(decimal.NewFromInt(160)) {
		t.Errorf("CurrentPrice = %v, want 160", p.CurrentPrice)
	}
	if p.PnL == nil || !p.PnL.Equal(decimal.NewFromInt(100)) {
		t.Errorf("PnL = %v, want 100", p.PnL)
	}
}

func TestAPI_OpenPosition_BadBody(t *testing.T) {
	server := newTestServer(t, nil)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/books/real/positions/", `{not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAPI_OpenPosition_Invalid(t *testing.T) {
	server := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"negative shares", `{"ticker": "AAPL", "shares": -5, "avgPrice": 150}`},
		{"zero price", `{"ticker": "AAPL", "shares": 5, "avgPrice": 0}`},
		{"blank ticker", `{"ticker": "  ", "shares": 5, "avgPrice": 150}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, server.URL+"/api/books/real/positions/", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestAPI_OpenPosition_DuplicateTicker(t *testing.T) {
	server := newTestServer(t, map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(160),
	})

	body := `{"ticker": "AAPL", "shares": 10, "avgPrice": 150}`
	resp := doJSON(t, http.MethodPost, server.URL+"/api/books/real/positions/", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/books/real/positions/", body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate status = %d, want 400", resp.StatusCode)
	}
}

func TestAPI_UnknownBook(t *testing.T) {
	server := newTestServer(t, nil)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/books/margin/", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestAPI_BooksAreIndependent(t *testing.T) {
	server := newTestServer(t, map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(160),
	})

	resp := doJSON(t, http.MethodPost, server.URL+"/api/books/demo/positions/",
		`{"ticker": "AAPL", "shares": 3, "avgPrice": 100}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/api/books/real/", "")
	out := decodePositions(t, resp)
	if out.Count != 0 {
		t.Errorf("real book has %d positions, want 0", out.Count)
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/api/books/demo/", "")
	out = decodePositions(t, resp)
	if out.Count != 1 {
		t.Errorf("demo book has %d positions, want 1", out.Count)
	}
}

func TestAPI_RemovePosition(t *testing.T) {
	server := newTestServer(t, map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(160),
	})

	doJSON(t, http.MethodPost, server.URL+"/api/books/real/positions/",
		`{"ticker": "AAPL", "shares": 10, "avgPrice": 150}`)

	resp := doJSON(t, http.MethodDelete, server.URL+"/api/books/real/positions/0", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodDelete, server.URL+"/api/books/real/positions/0", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", resp.StatusCode)
	}
}

func TestAPI_BuyAndSell(t *testing.T) {
	server := newTestServer(t, map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(160),
	})

	doJSON(t, http.MethodPost, server.URL+"/api/books/real/positions/",
		`{"ticker": "AAPL", "shares": 10, "avgPrice": 150}`)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/books/real/positions/0/buy",
		`{"shares": 10}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("buy status = %d, want 200", resp.StatusCode)
	}
	out := decodePositions(t, resp)
	if !out.Positions[0].Shares.Equal(decimal.NewFromInt(20)) {
		t.Errorf("Shares = %s, want 20", out.Positions[0].Shares)
	}
	if !out.Positions[0].AvgPrice.Equal(decimal.NewFromInt(155)) {
		t.Errorf("AvgPrice = %s, want 155", out.Positions[0].AvgPrice)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/books/real/positions/0/sell",
		`{"shares": 5}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sell status = %d, want 200", resp.StatusCode)
	}
	out = decodePositions(t, resp)
	if !out.Positions[0].Shares.Equal(decimal.NewFromInt(15)) {
		t.Errorf("Shares = %s, want 15", out.Positions[0].Shares)
	}
}

func TestAPI_SellMoreThanHeld(t *testing.T) {
	server := newTestServer(t, map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(160),
	})

	doJSON(t, http.MethodPost, server.URL+"/api/books/real/positions/",
		`{"ticker": "AAPL", "shares": 10, "avgPrice": 150}`)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/books/real/positions/0/sell",
		`{"shares": 50}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}

	// The position is untouched after the rejected sell.
	resp = doJSON(t, http.MethodGet, server.URL+"/api/books/real/", "")
	out := decodePositions(t, resp)
	if !out.Positions[0].Shares.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Shares = %s, want 10", out.Positions[0].Shares)
	}
}

func TestAPI_TradeWithoutQuote(t *testing.T) {
	// No prices resolve, so the opened position has no current price and
	// trades against it are rejected.
	server := newTestServer(t, nil)

	doJSON(t, http.MethodPost, server.URL+"/api/books/real/positions/",
		`{"ticker": "NOPE", "shares": 10, "avgPrice": 150}`)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/books/real/positions/0/buy",
		`{"shares": 5}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
}

func TestAPI_Refresh(t *testing.T) {
	prices := map[string]decimal.Decimal{"AAPL": decimal.NewFromInt(160)}
	server := newTestServer(t, prices)

	doJSON(t, http.MethodPost, server.URL+"/api/books/real/positions/",
		`{"ticker": "AAPL", "shares": 10, "avgPrice": 150}`)

	prices["AAPL"] = decimal.NewFromInt(170)
	resp := doJSON(t, http.MethodPost, server.URL+"/api/books/real/refresh", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	out := decodePositions(t, resp)
	if out.Positions[0].CurrentPrice == nil || !out.Positions[0].CurrentPrice.Equal(decimal.NewFromInt(170)) {
		t.Errorf("CurrentPrice = %v, want 170", out.Positions[0].CurrentPrice)
	}
	if out.Positions[0].PnL == nil || !out.Positions[0].PnL.Equal(decimal.NewFromInt(200)) {
		t.Errorf("PnL = %v, want 200", out.Positions[0].PnL)
	}
}

func TestAPI_Import(t *testing.T) {
	server := newTestServer(t, map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(160),
		"MSFT": decimal.NewFromInt(300),
	})

	doJSON(t, http.MethodPost, server.URL+"/api/books/real/positions/",
		`{"ticker": "AAPL", "shares": 10, "avgPrice": 150}`)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/books/real/import",
		`{"items": [
			{"ticker": "AAPL", "position": 99, "average_price": 1},
			{"ticker": "msft", "position": 4, "average_price": 280}
		]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var result store.ImportResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if result.Added != 1 || result.Dropped != 1 {
		t.Errorf("result = %+v, want added 1 dropped 1", result)
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/api/books/real/", "")
	out := decodePositions(t, resp)
	if out.Count != 2 {
		t.Fatalf("count = %d, want 2", out.Count)
	}
	if !out.Positions[0].Shares.Equal(decimal.NewFromInt(10)) {
		t.Errorf("existing row changed: %+v", out.Positions[0])
	}
}

func TestAPI_Summary(t *testing.T) {
	server := newTestServer(t, map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(160),
		"MSFT": decimal.NewFromInt(280),
	})

	doJSON(t, http.MethodPost, server.URL+"/api/books/real/positions/",
		`{"ticker": "AAPL", "shares": 10, "avgPrice": 150}`)
	doJSON(t, http.MethodPost, server.URL+"/api/books/real/positions/",
		`{"ticker": "MSFT", "shares": 2, "avgPrice": 300}`)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/books/real/summary", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var summary struct {
		TotalPnL       decimal.Decimal  `json:"totalPnl"`
		TotalInvested  decimal.Decimal  `json:"totalInvested"`
		BestPerformer  *models.Position `json:"bestPerformer"`
		WorstPerformer *models.Position `json:"worstPerformer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("failed to decode summary: %v", err)
	}

	// AAPL +100, MSFT -40.
	if !summary.TotalPnL.Equal(decimal.NewFromInt(60)) {
		t.Errorf("TotalPnL = %s, want 60", summary.TotalPnL)
	}
	if !summary.TotalInvested.Equal(decimal.NewFromInt(2100)) {
		t.Errorf("TotalInvested = %s, want 2100", summary.TotalInvested)
	}
	if summary.BestPerformer == nil || summary.BestPerformer.Ticker != "AAPL" {
		t.Errorf("BestPerformer = %+v, want AAPL", summary.BestPerformer)
	}
	if summary.WorstPerformer == nil || summary.WorstPerformer.Ticker != "MSFT" {
		t.Errorf("WorstPerformer = %+v, want MSFT", summary.WorstPerformer)
	}
}

func TestAPI_CORSPreflight(t *testing.T) {
	server := newTestServer(t, nil)

	resp := doJSON(t, http.MethodOptions, server.URL+"/api/books/real/", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
