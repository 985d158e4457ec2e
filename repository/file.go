package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"stockfolio/models"
)

// FileStore keeps one JSON file per book in a directory. It is the
// default store when no database is configured.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(book string) string {
	return filepath.Join(s.dir, book+".json")
}

// Load reads the book's snapshot. A missing file means the book has
// never been saved and yields an empty slice.
func (s *FileStore) Load(_ context.Context, book string) ([]models.Position, error) {
	data, err := os.ReadFile(s.path(book))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot for book %s: %w", book, err)
	}

	var positions []models.Position
	if err := json.Unmarshal(data, &positions); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot for book %s: %w", book, err)
	}
	return positions, nil
}

// Save writes the book's complete position array. The write goes through
// a temp file and rename so a crash never leaves a half-written snapshot.
func (s *FileStore) Save(_ context.Context, book string, positions []models.Position) error {
	if positions == nil {
		positions = []models.Position{}
	}
	data, err := json.MarshalIndent(positions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for book %s: %w", book, err)
	}

	tmp := s.path(book) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot for book %s: %w", book, err)
	}
	if err := os.Rename(tmp, s.path(book)); err != nil {
		return fmt.Errorf("failed to replace snapshot for book %s: %w", book, err)
	}
	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() {}

// Compile-time interface verification
var _ SnapshotStore = (*FileStore)(nil)
