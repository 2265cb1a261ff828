package storage

import (
	"context"
	"errors"

	"github.com/goserg/blockcleaner/internal/domain"
)

var (
	ErrPersistence = errors.New("snapshot persistence failed")
	ErrNoSnapshot  = errors.New("no snapshot saved yet")
)

// SnapshotStorage holds the single blocked-list snapshot document.
type SnapshotStorage interface {
	Read(ctx context.Context) ([]domain.BlockedEntry, error)
	Write(ctx context.Context, entries []domain.BlockedEntry) error
}
