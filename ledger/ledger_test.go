package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrestNiraj12/commonswipe/domain"
	"github.com/CrestNiraj12/commonswipe/infra/kv"
)

func stored(t *testing.T, s *kv.Memory) []string {
	t.Helper()
	raw, ok, err := s.Get(StorageKey)
	require.NoError(t, err)
	if !ok {
		return nil
	}
	var ids []string
	require.NoError(t, json.Unmarshal([]byte(raw), &ids))
	return ids
}

// snapshot returns the remembered ids, oldest first.
func snapshot(l *Ledger) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ids...)
}

func TestRecord_EvictsOldestFirst(t *testing.T) {
	store := kv.NewMemory()
	l := Load(store, 3, nil)

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, l.Record(id))
	}

	assert.Equal(t, []string{"b", "c", "d"}, snapshot(l))
	assert.False(t, l.Contains("a"))
	assert.True(t, l.Contains("d"))
	assert.Equal(t, []string{"b", "c", "d"}, stored(t, store))
}

func TestRecord_NeverExceedsCapacity(t *testing.T) {
	l := Load(kv.NewMemory(), 10, nil)
	for i := range 250 {
		require.NoError(t, l.Record(fmt.Sprintf("id-%d", i%40)))
		require.LessOrEqual(t, l.Len(), 10)
	}
}

func TestRecord_DuplicateIsNoop(t *testing.T) {
	l := Load(kv.NewMemory(), 3, nil)
	require.NoError(t, l.Record("a"))
	require.NoError(t, l.Record("b"))
	require.NoError(t, l.Record("a"))
	assert.Equal(t, []string{"a", "b"}, snapshot(l))
}

func TestLoad_RestoresAndTrimsToCapacity(t *testing.T) {
	store := kv.NewMemory()
	require.NoError(t, store.Set(StorageKey, `["1","2","3","4","5"]`))

	l := Load(store, 2, nil)
	assert.Equal(t, []string{"4", "5"}, snapshot(l))
}

func TestLoad_CorruptDataStartsEmpty(t *testing.T) {
	store := kv.NewMemory()
	require.NoError(t, store.Set(StorageKey, "not-json"))

	l := Load(store, 5, nil)
	assert.Zero(t, l.Len())
	require.NoError(t, l.Record("x"))
	assert.Equal(t, []string{"x"}, stored(t, store))
}

func TestLoad_DefaultCapacity(t *testing.T) {
	l := Load(kv.NewMemory(), 0, nil)
	for i := range DefaultCapacity + 5 {
		require.NoError(t, l.Record(fmt.Sprint(i)))
	}
	assert.Equal(t, DefaultCapacity, l.Len())
	assert.False(t, l.Contains("0"))
}

func TestClear_RemovesPersistedList(t *testing.T) {
	store := kv.NewMemory()
	l := Load(store, 3, nil)
	require.NoError(t, l.Record("a"))
	require.NoError(t, l.Clear())

	assert.Zero(t, l.Len())
	assert.False(t, l.Contains("a"))
	_, ok, _ := store.Get(StorageKey)
	assert.False(t, ok)
}

type failingStore struct{ *kv.Memory }

func (f *failingStore) Set(string, string) error { return errors.New("read-only filesystem") }

func TestRecord_StorageFailureKeepsMemoryState(t *testing.T) {
	l := Load(&failingStore{Memory: kv.NewMemory()}, 3, nil)

	err := l.Record("a")
	var serr *domain.StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "set", serr.Op)
	assert.True(t, l.Contains("a"))
}
