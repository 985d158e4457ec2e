package repository

import (
	"context"

	"stockfolio/models"
)

// SnapshotStore persists the complete position array of a book under
// its own key. Load returns an empty slice (not an error) when the book
// has never been saved; a snapshot that exists but fails to parse is an
// error the caller is expected to absorb.
type SnapshotStore interface {
	Load(ctx context.Context, book string) ([]models.Position, error)
	Save(ctx context.Context, book string, positions []models.Position) error
	Close()
}
