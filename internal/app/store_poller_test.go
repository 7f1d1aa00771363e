package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passbook/internal/config"
	mcpserver "passbook/internal/mcp"
	"passbook/internal/service"
	"passbook/internal/storage"
)

func newTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "passbook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStorePoller_ReloadsWhenValueChanges(t *testing.T) {
	db := newTestDB(t)
	kv := storage.NewKVStore(db)
	ctx := context.Background()

	reloads := 0
	p := newStorePoller(db.Conn(), &service.MockEmitter{}, time.Hour)
	p.watchCredentials(func(ctx context.Context) (int64, error) {
		return kv.Fingerprint(ctx, "passwords")
	}, func(context.Context) { reloads++ })

	p.check(ctx) // primes
	assert.Zero(t, reloads)

	require.NoError(t, kv.Set(ctx, "passwords", `[]`))
	p.check(ctx)
	assert.Equal(t, 1, reloads)

	p.check(ctx)
	assert.Equal(t, 1, reloads, "unchanged value must not reload")
}

func TestStorePoller_ForwardsApprovalsOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	emitter := &service.MockEmitter{}
	p := newStorePoller(db.Conn(), emitter, time.Hour)

	_, err := db.Conn().Exec(
		`INSERT INTO mcp_approvals (id, tool, description, metadata) VALUES ('a1', 'delete_credential', 'Delete 1 credential(s) for a.com', '{}')`)
	require.NoError(t, err)

	p.check(ctx)
	p.check(ctx)
	required := emitter.Named(mcpserver.EventApprovalRequired)
	require.Len(t, required, 1)
	assert.Equal(t, "a1", required[0].Data.(mcpserver.PendingAction).ID)

	ok, err := mcpserver.ResolveInDB(ctx, db.Conn(), "a1", false)
	require.NoError(t, err)
	require.True(t, ok)

	p.check(ctx)
	dismissed := emitter.Named(mcpserver.EventApprovalDismissed)
	require.Len(t, dismissed, 1)
	assert.Equal(t, map[string]string{"id": "a1"}, dismissed[0].Data)
}

func TestStorePoller_StartStop(t *testing.T) {
	db := newTestDB(t)
	p := newStorePoller(db.Conn(), &service.MockEmitter{}, 5*time.Millisecond)
	p.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	p.Stop()
	p.Stop()
}

func TestOpenBackend(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()

	sqliteCfg := &config.Config{DataDir: dir, Backend: config.BackendSQLite, StorageKey: "passwords"}
	b, err := openBackend(sqliteCfg, db)
	require.NoError(t, err)
	assert.IsType(t, &storage.KVStore{}, b.store)
	assert.NotNil(t, b.fingerprint)
	assert.Empty(t, b.filePath)

	fileCfg := &config.Config{DataDir: dir, Backend: config.BackendFile, StorageKey: "passwords"}
	b, err = openBackend(fileCfg, db)
	require.NoError(t, err)
	assert.IsType(t, &storage.FileStore{}, b.store)
	assert.Equal(t, fileCfg.StoreFilePath(), b.filePath)
	assert.Nil(t, b.fingerprint)

	_, err = openBackend(&config.Config{DataDir: dir, Backend: "cloud"}, db)
	assert.Error(t, err)
}
