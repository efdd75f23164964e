package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, KeyAgentStates, []byte(`{"a":1}`)))
	require.NoError(t, s.Put(ctx, ProjectKey("p2"), []byte("two")))
	require.NoError(t, s.Put(ctx, ProjectKey("p1"), []byte("one")))

	got, err := s.Get(ctx, KeyAgentStates)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	require.NoError(t, s.Put(ctx, KeyAgentStates, []byte(`{"a":2}`)))
	got, err = s.Get(ctx, KeyAgentStates)
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(got))

	keys, err := s.Keys(ctx, KeyProjectPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"project:p1", "project:p2"}, keys)

	require.NoError(t, s.Delete(ctx, ProjectKey("p1")))
	_, err = s.Get(ctx, ProjectKey("p1"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Ping(context.Background()))
	exerciseStore(t, s)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, KeyAgentSettings, []byte("v")))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, KeyAgentSettings)
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestOpenWithoutPathIsMemory(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	_, ok := s.(*MemoryStore)
	assert.True(t, ok)
}
