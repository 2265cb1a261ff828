// Package redis keeps the snapshot document under a single Redis key.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/goserg/blockcleaner/internal/storage"
	"github.com/redis/go-redis/v9"
)

type Storage struct {
	client redis.Cmdable
	key    string
}

var _ storage.SnapshotStorage = (*Storage)(nil)

func New(client redis.Cmdable, key string) *Storage {
	return &Storage{
		client: client,
		key:    key,
	}
}

func (s *Storage) Read(ctx context.Context) ([]domain.BlockedEntry, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", storage.ErrPersistence, s.key, err)
	}
	return storage.Decode(data)
}

func (s *Storage) Write(ctx context.Context, entries []domain.BlockedEntry) error {
	data, err := storage.Encode(entries)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, string(data), 0).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %w", storage.ErrPersistence, s.key, err)
	}
	return nil
}
