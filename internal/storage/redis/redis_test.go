package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/goserg/blockcleaner/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const key = "blockcleaner:snapshot"

func TestStorage_Write(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := New(db, key)

	entries := []domain.BlockedEntry{{LocalID: "1", DisplayName: "A", TagLine: "B"}}
	data, err := storage.Encode(entries)
	require.NoError(t, err)
	mock.ExpectSet(key, string(data), 0).SetVal("OK")

	require.NoError(t, s.Write(context.Background(), entries))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_WriteError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := New(db, key)

	data, err := storage.Encode(nil)
	require.NoError(t, err)
	mock.ExpectSet(key, string(data), 0).SetErr(errors.New("connection refused"))

	err = s.Write(context.Background(), nil)
	assert.ErrorIs(t, err, storage.ErrPersistence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_Read(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := New(db, key)

	mock.ExpectGet(key).SetVal(`{"usuariosBlock":[{"id":"1","gameName":"A","gameTag":"B"}]}`)
	got, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.BlockedEntry{{LocalID: "1", DisplayName: "A", TagLine: "B"}}, got)

	mock.ExpectGet(key).RedisNil()
	_, err = s.Read(context.Background())
	assert.ErrorIs(t, err, storage.ErrNoSnapshot)

	assert.NoError(t, mock.ExpectationsWereMet())
}
