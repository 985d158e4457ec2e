package main

import (
	"context"

	"stockfolio/config"
	"stockfolio/ledger"
	"stockfolio/observability"
	"stockfolio/repository"
	"stockfolio/services"
	"stockfolio/store"
)

// App wires the quote sources, the resolver, snapshot persistence and
// the book store together for one process.
type App struct {
	cfg       *config.Config
	store     *store.Store
	snapshots repository.SnapshotStore
	resolver  ledger.QuoteResolver
}

// NewApp builds the full engine from configuration. When the database
// is configured but unreachable, it degrades to the file store instead
// of refusing to start.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	var snapshots repository.SnapshotStore
	if cfg.HasDatabase() {
		pg, err := repository.NewPostgresStore(ctx, cfg.Snapshot.DatabaseURL)
		if err != nil {
			observability.Warn("failed to connect to database, falling back to file snapshots",
				"error", err)
		} else {
			snapshots = pg
		}
	}
	if snapshots == nil {
		fs, err := repository.NewFileStore(cfg.Snapshot.Dir)
		if err != nil {
			return nil, err
		}
		snapshots = fs
	}

	stocks := services.NewStocksService(cfg.Quotes.StocksBaseURL, cfg.Quotes.StocksAPIKey)
	quotes := services.NewQuotesService(cfg.Quotes.QuotesBaseURL, cfg.Quotes.QuotesAPIKey)
	resolver := services.NewResolver(stocks, quotes)

	st := store.New(cfg, snapshots, resolver)
	st.Open(ctx)

	return &App{
		cfg:       cfg,
		store:     st,
		snapshots: snapshots,
		resolver:  resolver,
	}, nil
}

// Health reports whether the snapshot backend is reachable.
func (a *App) Health(ctx context.Context) error {
	if pg, ok := a.snapshots.(*repository.PostgresStore); ok {
		return pg.Health(ctx)
	}
	return nil
}

// Close releases resources held by the app.
func (a *App) Close() {
	a.store.Close()
}
