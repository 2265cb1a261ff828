package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/goserg/blockcleaner/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_ReadMissing(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "bloqueados.json"))
	_, err := s.Read(context.Background())
	assert.ErrorIs(t, err, storage.ErrNoSnapshot)
}

func TestStorage_WriteRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bloqueados.json")
	s := New(path)
	ctx := context.Background()

	entries := []domain.BlockedEntry{
		{LocalID: "b", DisplayName: "Segundo", TagLine: "BR1"},
		{LocalID: "a", DisplayName: "Primeiro", TagLine: "BR1"},
	}
	require.NoError(t, s.Write(ctx, entries))
	require.NoError(t, s.Write(ctx, entries[:1]))

	got, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, entries[:1], got)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1, "temp files are cleaned up")
}

func TestStorage_ReadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bloqueados.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))
	_, err := New(path).Read(context.Background())
	assert.ErrorIs(t, err, storage.ErrPersistence)
}

func TestStorage_WriteFails(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing", "bloqueados.json"))
	err := s.Write(context.Background(), nil)
	assert.ErrorIs(t, err, storage.ErrPersistence)
}
