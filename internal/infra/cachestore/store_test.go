package cachestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoresRoundTrip(t *testing.T) {
	fileStore, err := OpenFileStore(filepath.Join(t.TempDir(), "cache.json"))
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
	}
	for name, store := range stores {
		store := store
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			_, ok, err := store.Get(ctx, "missing")
			require.NoError(t, err)
			require.False(t, ok)

			require.NoError(t, store.Put(ctx, "summarize:abc", "[[[short]]]"))
			value, ok, err := store.Get(ctx, "summarize:abc")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "[[[short]]]", value)

			require.NoError(t, store.Put(ctx, "summarize:abc", "replaced"))
			n, err := store.Len(ctx)
			require.NoError(t, err)
			require.Equal(t, 1, n)

			require.NoError(t, store.Clear(ctx))
			n, err = store.Len(ctx)
			require.NoError(t, err)
			require.Zero(t, n)
		})
	}
}

func TestFileStorePersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cache.json")

	store, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "k1", "v1"))
	require.NoError(t, store.Put(ctx, "k2", "v2"))

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	value, ok, err := reopened.Get(ctx, "k2")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", value)
	n, err := reopened.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	payload, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `{"k1":"v1","k2":"v2"}`, string(payload))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestOpenFileStore(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content *string
		wantLen int
		wantErr bool
	}{
		{name: "missing file"},
		{name: "empty file", content: ptr("")},
		{name: "existing entries", content: ptr(`{"a":"1","b":"2"}`), wantLen: 2},
		{name: "corrupt file", content: ptr(`{"a":`), wantErr: true},
		{name: "wrong shape", content: ptr(`["a"]`), wantErr: true},
	}
	for i, tt := range tests {
		tt := tt
		path := filepath.Join(dir, string(rune('a'+i))+".json")
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.content), 0o644))
			}
			store, err := OpenFileStore(path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			n, err := store.Len(context.Background())
			require.NoError(t, err)
			require.Equal(t, tt.wantLen, n)
		})
	}
}

func ptr(s string) *string {
	return &s
}
