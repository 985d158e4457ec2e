package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"stockfolio/models"
)

func TestFileStore_RoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	defer store.Close()

	price := decimal.NewFromFloat(160.5)
	pnl := decimal.NewFromInt(105)
	positions := []models.Position{
		{
			Ticker:       "AAPL",
			Name:         "Apple Inc.",
			Shares:       decimal.NewFromFloat(10.5),
			AvgPrice:     decimal.NewFromInt(150),
			CurrentPrice: &price,
			PnL:          &pnl,
		},
		{
			Ticker:   "VOO",
			Shares:   decimal.NewFromInt(2),
			AvgPrice: decimal.NewFromFloat(405.17),
		},
	}

	ctx := context.Background()
	if err := store.Save(ctx, "real", positions); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx, "real")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d positions, want 2", len(loaded))
	}
	if loaded[0].Ticker != "AAPL" || !loaded[0].Shares.Equal(positions[0].Shares) {
		t.Errorf("loaded[0] = %+v", loaded[0])
	}
	if loaded[0].CurrentPrice == nil || !loaded[0].CurrentPrice.Equal(price) {
		t.Errorf("loaded[0].CurrentPrice = %v, want %v", loaded[0].CurrentPrice, price)
	}
	if loaded[1].CurrentPrice != nil || loaded[1].PnL != nil {
		t.Errorf("unresolved fields must stay absent: %+v", loaded[1])
	}
}

func TestFileStore_LoadMissingBook(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	positions, err := store.Load(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if positions != nil {
		t.Errorf("positions = %v, want nil for never-saved book", positions)
	}
}

func TestFileStore_LoadCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "real.json"), []byte("{corrupt"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = store.Load(context.Background(), "real")
	if err == nil {
		t.Fatal("expected error for corrupt snapshot")
	}
	if !strings.Contains(err.Error(), "real") {
		t.Errorf("error should name the book: %v", err)
	}
}

func TestFileStore_BooksAreIndependent(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	ctx := context.Background()
	real := []models.Position{{Ticker: "AAPL", Shares: decimal.NewFromInt(1), AvgPrice: decimal.NewFromInt(150)}}
	demo := []models.Position{{Ticker: "TSLA", Shares: decimal.NewFromInt(9), AvgPrice: decimal.NewFromInt(200)}}

	if err := store.Save(ctx, "real", real); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, "demo", demo); err != nil {
		t.Fatal(err)
	}

	gotReal, err := store.Load(ctx, "real")
	if err != nil {
		t.Fatal(err)
	}
	gotDemo, err := store.Load(ctx, "demo")
	if err != nil {
		t.Fatal(err)
	}

	if len(gotReal) != 1 || gotReal[0].Ticker != "AAPL" {
		t.Errorf("real book = %+v", gotReal)
	}
	if len(gotDemo) != 1 || gotDemo[0].Ticker != "TSLA" {
		t.Errorf("demo book = %+v", gotDemo)
	}
}

func TestFileStore_SaveEmptyBook(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	ctx := context.Background()
	if err := store.Save(ctx, "real", nil); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx, "real")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("loaded = %v, want empty", loaded)
	}
}
