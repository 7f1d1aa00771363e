package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "passbook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestKVStore_GetMissing(t *testing.T) {
	store := NewKVStore(setupTestDB(t))

	value, ok, err := store.Get(context.Background(), "passwords")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestKVStore_SetGetOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewKVStore(setupTestDB(t))

	require.NoError(t, store.Set(ctx, "passwords", `[]`))
	require.NoError(t, store.Set(ctx, "passwords", `[{"website":"a.com","username":"u","password":"p"}]`))

	value, ok, err := store.Get(ctx, "passwords")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"website":"a.com","username":"u","password":"p"}]`, value)
}

func TestKVStore_Fingerprint(t *testing.T) {
	ctx := context.Background()
	store := NewKVStore(setupTestDB(t))

	fp, err := store.Fingerprint(ctx, "passwords")
	require.NoError(t, err)
	assert.Zero(t, fp)

	require.NoError(t, store.Set(ctx, "passwords", `[]`))
	first, err := store.Fingerprint(ctx, "passwords")
	require.NoError(t, err)
	assert.NotZero(t, first)

	require.NoError(t, store.Set(ctx, "passwords", `[]`))
	second, err := store.Fingerprint(ctx, "passwords")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, second, first)
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, ok, err := store.Get(ctx, "passwords")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "passwords", `[]`))
	require.NoError(t, store.Set(ctx, "other", "x"))

	value, ok, err := store.Get(ctx, "passwords")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, value)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// A second store on the same file sees both keys.
	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	value, ok, err = reopened.Get(ctx, "other")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x", value)
}

func TestFileStore_CancelledContext(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), "passwords", `[]`))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := store.Get(ctx, "passwords")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
	assert.ErrorIs(t, store.Set(ctx, "passwords", `[{}]`), context.Canceled)

	value, ok, err := store.Get(context.Background(), "passwords")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, value)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, _, err = store.Get(context.Background(), "passwords")
	assert.Error(t, err)
	assert.Error(t, store.Set(context.Background(), "passwords", "[]"))
}

func TestFileStore_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, ok, err := store.Get(context.Background(), "passwords")
	require.NoError(t, err)
	assert.False(t, ok)
}
