package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vireo-trade/tradecore/internal/bot"
)

func TestFileStoreRoundTrips(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	id := uuid.New()
	snap := bot.Snapshot{UUID: id, Symbol: "EURUSD"}
	require.NoError(t, s.Upsert(context.Background(), snap))

	got, ok, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "EURUSD", got.Symbol)
}

func TestFileStoreMissingReturnsNotOk(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	_, ok, err := s.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemStoreRoundTrips(t *testing.T) {
	s := NewMemStore()
	id := uuid.New()
	require.NoError(t, s.Upsert(context.Background(), bot.Snapshot{UUID: id}))
	_, ok, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
}
