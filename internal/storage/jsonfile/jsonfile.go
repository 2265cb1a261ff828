// Package jsonfile keeps the snapshot in a local JSON file.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/goserg/blockcleaner/internal/storage"
)

type Storage struct {
	path string
}

var _ storage.SnapshotStorage = (*Storage)(nil)

func New(path string) *Storage {
	return &Storage{path: path}
}

func (s *Storage) Read(context.Context) ([]domain.BlockedEntry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, storage.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrPersistence, err)
	}
	entries, err := storage.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return entries, nil
}

// Write replaces the file through a temp file and rename, so readers see
// either the old or the new document.
func (s *Storage) Write(_ context.Context, entries []domain.BlockedEntry) error {
	data, err := storage.Encode(entries)
	if err != nil {
		return err
	}
	if err := writeAtomic(s.path, data); err != nil {
		return fmt.Errorf("%w: %s: %w", storage.ErrPersistence, s.path, err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
