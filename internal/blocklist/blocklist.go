// Package blocklist loads the blocked players from the local client and
// keeps the snapshot in step with it.
package blocklist

import (
	"context"
	"errors"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/goserg/blockcleaner/internal/storage"
	"github.com/sirupsen/logrus"
)

// LiveSource returns the blocked list as the running client sees it.
type LiveSource interface {
	BlockedPlayers(ctx context.Context) ([]domain.BlockedEntry, error)
}

type Store struct {
	live LiveSource
	snap storage.SnapshotStorage
	log  *logrus.Entry
}

// New builds a Store. live may be nil, in which case only the snapshot is used.
func New(live LiveSource, snap storage.SnapshotStorage, log *logrus.Logger) *Store {
	return &Store{
		live: live,
		snap: snap,
		log:  log.WithField("name", "blocklist"),
	}
}

// Load never fails: it falls back from the live list to the snapshot and
// from the snapshot to an empty list.
func (s *Store) Load(ctx context.Context) []domain.BlockedEntry {
	if s.live != nil {
		entries, err := s.live.BlockedPlayers(ctx)
		if err == nil {
			entries = s.dedupe(entries)
			s.log.WithField("count", len(entries)).Info("loaded live blocked list")
			if len(entries) > 0 {
				if err := s.snap.Write(ctx, entries); err != nil {
					s.log.WithError(err).Warn("snapshot not refreshed")
				}
			}
			return entries
		}
		s.log.WithError(err).Warn("live blocked list unavailable, using snapshot")
	}

	entries, err := s.snap.Read(ctx)
	switch {
	case errors.Is(err, storage.ErrNoSnapshot):
		s.log.Info("no snapshot yet")
		return []domain.BlockedEntry{}
	case err != nil:
		s.log.WithError(err).Warn("snapshot unreadable")
		return []domain.BlockedEntry{}
	}
	entries = s.dedupe(entries)
	s.log.WithField("count", len(entries)).Info("loaded blocked list from snapshot")
	return entries
}

// Save overwrites the snapshot with entries in their given order.
func (s *Store) Save(ctx context.Context, entries []domain.BlockedEntry) error {
	if err := s.snap.Write(ctx, entries); err != nil {
		return err
	}
	s.log.WithField("count", len(entries)).Info("snapshot saved")
	return nil
}

func (s *Store) dedupe(entries []domain.BlockedEntry) []domain.BlockedEntry {
	seen := mapset.NewThreadUnsafeSetWithSize[string](len(entries))
	out := make([]domain.BlockedEntry, 0, len(entries))
	for _, e := range entries {
		if !seen.Add(e.Key()) {
			s.log.WithField("key", e.Key()).Warn("duplicate blocked entry dropped")
			continue
		}
		out = append(out, e)
	}
	return out
}
