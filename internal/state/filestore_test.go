package state

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantry-sh/gantry/internal/graph"
)

func testRecord(name string) Record {
	return Record{
		Name:       name,
		Kind:       graph.KindNetwork,
		State:      graph.StateApplied,
		ConfigHash: HashConfig(map[string]any{"cidr": "10.0.0.0/16"}),
		Outputs:    map[string]any{"id": "123"},
		UpdatedAt:  time.Now().UTC().Truncate(time.Second),
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, found, err := store.Get(ctx, "net")
	require.NoError(t, err)
	assert.False(t, found)

	rec := testRecord("net")
	require.NoError(t, store.Save(ctx, rec))

	got, found, err := store.Get(ctx, "net")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, rec.Name, got.Name)
	assert.Equal(t, rec.State, got.State)
	assert.Equal(t, rec.ConfigHash, got.ConfigHash)
	assert.Equal(t, "123", got.Outputs["id"])
}

func TestFileStore_LoadAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, testRecord("net")))
	require.NoError(t, store.Save(ctx, testRecord("cluster")))

	records, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Contains(t, records, "net")
	assert.Contains(t, records, "cluster")
}

func TestFileStore_SaveReplaces(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	rec := testRecord("net")
	require.NoError(t, store.Save(ctx, rec))

	rec.State = graph.StateFailed
	rec.LastError = "boom"
	require.NoError(t, store.Save(ctx, rec))

	got, found, err := store.Get(ctx, "net")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, graph.StateFailed, got.State)
	assert.Equal(t, "boom", got.LastError)
}

func TestFileStore_DeleteAbsentIsNoError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete(ctx, "ghost"))

	require.NoError(t, store.Save(ctx, testRecord("net")))
	require.NoError(t, store.Delete(ctx, "net"))
	_, found, err := store.Get(ctx, "net")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileStore_CorruptRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o600))

	_, _, err = store.Get(ctx, "bad")
	require.Error(t, err)
	assert.True(t, IsStoreError(err))
}

func TestFileStore_ConcurrentSaves(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	names := []string{"a", "b", "c", "d"}
	for _, name := range names {
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = store.Save(ctx, testRecord(name))
			}()
		}
	}
	wg.Wait()

	records, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, records, len(names))
}

func TestHashConfig_Stable(t *testing.T) {
	t.Parallel()

	a := HashConfig(map[string]any{"x": 1, "y": "z"})
	b := HashConfig(map[string]any{"y": "z", "x": 1})
	assert.Equal(t, a, b)

	c := HashConfig(map[string]any{"x": 2, "y": "z"})
	assert.NotEqual(t, a, c)
}

func TestMemoryStore_FailureInjection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewMemoryStore()
	store.Seed(testRecord("net"))

	store.FailNext = assert.AnError
	err := store.Save(ctx, testRecord("cluster"))
	require.Error(t, err)
	assert.True(t, IsStoreError(err))

	// The failure is consumed; the next call succeeds.
	assert.NoError(t, store.Save(ctx, testRecord("cluster")))
}
