package app

import (
	"context"
	"fmt"
	"time"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"passbook/internal/config"
	"passbook/internal/domain"
	"passbook/internal/secret"
	"passbook/internal/service"
	"passbook/internal/storage"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx context.Context
	cfg *config.Config

	db        *storage.DB
	creds     *service.CredentialService
	snapshots *service.SnapshotService
	watcher   *service.StoreWatcher
	poller    *storePoller
	window    *service.WindowSettingsService
}

// New creates a new App.
func New() *App {
	return &App{}
}

// wailsEmitter forwards service events to the webview.
type wailsEmitter struct{}

func (wailsEmitter) Emit(ctx context.Context, event string, data any) {
	wailsRuntime.EventsEmit(ctx, event, data)
}

// wailsClipboard is the system clipboard as exposed by the Wails runtime.
type wailsClipboard struct{}

func (wailsClipboard) SetText(ctx context.Context, text string) error {
	return wailsRuntime.ClipboardSetText(ctx, text)
}

// credentialBackend is the configured KVStore plus whatever the app needs to
// notice writes made by other processes.
type credentialBackend struct {
	store domain.KVStore
	// filePath is set for the file backend and watched with fsnotify.
	filePath string
	// fingerprint is set for the SQLite backend and polled.
	fingerprint func(ctx context.Context) (int64, error)
}

func openBackend(cfg *config.Config, db *storage.DB) (credentialBackend, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		kv := storage.NewKVStore(db)
		return credentialBackend{
			store: kv,
			fingerprint: func(ctx context.Context) (int64, error) {
				return kv.Fingerprint(ctx, cfg.StorageKey)
			},
		}, nil
	case config.BackendFile:
		fs, err := storage.NewFileStore(cfg.StoreFilePath())
		if err != nil {
			return credentialBackend{}, err
		}
		return credentialBackend{store: fs, filePath: fs.Path()}, nil
	case config.BackendKeychain:
		return credentialBackend{store: secret.NewKVStore(secret.NewKeychainStore())}, nil
	default:
		return credentialBackend{}, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	cfg, err := config.Load()
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Invalid configuration: %v", err)
		return
	}
	a.cfg = cfg

	// The database is opened for every backend: it also carries MCP approvals.
	db, err := storage.New(cfg.DBPath())
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to open database: %v", err)
		return
	}
	a.db = db

	a.window = service.NewWindowSettingsService(storage.NewKVStore(db))
	size := a.window.LoadWindowSize(ctx)
	wailsRuntime.WindowSetSize(ctx, size.Width, size.Height)

	backend, err := openBackend(cfg, db)
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to open %s store: %v", cfg.Backend, err)
		return
	}

	emitter := wailsEmitter{}
	a.creds = service.NewCredentialService(backend.store, wailsClipboard{}, emitter, cfg.StorageKey, cfg.CopyIndicator)
	a.creds.Load(ctx)

	a.poller = newStorePoller(db.Conn(), emitter, 2*time.Second)
	if cfg.Watch {
		switch {
		case backend.filePath != "":
			a.watcher = service.NewStoreWatcher(backend.filePath, 500*time.Millisecond, a.creds.Load)
			if err := a.watcher.Start(ctx); err != nil {
				wailsRuntime.LogErrorf(ctx, "Failed to watch %s: %v", backend.filePath, err)
				a.watcher = nil
			}
		case backend.fingerprint != nil:
			a.poller.watchCredentials(backend.fingerprint, a.creds.Load)
		}
	}
	a.poller.Start(ctx)

	a.snapshots = service.NewSnapshotService(backend.store, cfg.StorageKey, cfg.SnapshotDir(), cfg.SnapshotKeep, emitter)
	if cfg.SnapshotsEnabled() {
		if err := a.snapshots.Start(ctx, cfg.SnapshotSchedule); err != nil {
			wailsRuntime.LogErrorf(ctx, "Failed to schedule snapshots: %v", err)
		}
	}

	wailsRuntime.LogInfof(ctx, "Passbook started: backend=%s data=%s", cfg.Backend, cfg.DataDir)
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.poller != nil {
		a.poller.Stop()
	}
	if a.snapshots != nil {
		a.snapshots.Stop()
	}
	if a.creds != nil {
		waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		a.creds.Close(waitCtx)
		cancel()
	}
	if a.window != nil {
		w, h := wailsRuntime.WindowGetSize(ctx)
		if err := a.window.SaveWindowSize(ctx, w, h); err != nil {
			wailsRuntime.LogErrorf(ctx, "Failed to save window size: %v", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
