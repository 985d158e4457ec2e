package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockfolio/models"
	"stockfolio/observability"
)

// PostgresStore persists book snapshots as jsonb rows, one per book.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore with a connection pool and
// ensures the snapshot table exists.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS book_snapshots (
			book       TEXT PRIMARY KEY,
			positions  JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure snapshot table: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Load reads the book's snapshot. A book with no row yields an empty slice.
func (s *PostgresStore) Load(ctx context.Context, book string) ([]models.Position, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `
		SELECT positions FROM book_snapshots WHERE book = $1
	`, book).Scan(&data)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot for book %s: %w", book, err)
	}

	var positions []models.Position
	if err := json.Unmarshal(data, &positions); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot for book %s: %w", book, err)
	}
	return positions, nil
}

// Save upserts the book's complete position array.
func (s *PostgresStore) Save(ctx context.Context, book string, positions []models.Position) error {
	if positions == nil {
		positions = []models.Position{}
	}
	data, err := json.Marshal(positions)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for book %s: %w", book, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO book_snapshots (book, positions, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (book) DO UPDATE SET positions = EXCLUDED.positions, updated_at = NOW()
	`, book, data)
	if err != nil {
		return fmt.Errorf("failed to save snapshot for book %s: %w", book, err)
	}
	return nil
}

// Health checks if the database connection is healthy
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the database connection pool
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
	observability.Debug("postgres snapshot store closed")
}

// Compile-time interface verification
var _ SnapshotStore = (*PostgresStore)(nil)
