// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Backend selects where the credential collection is persisted.
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendFile     Backend = "file"
	BackendKeychain Backend = "keychain"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DataDir          string
	Backend          Backend
	StorageKey       string
	CopyIndicator    time.Duration
	SnapshotSchedule string
	SnapshotKeep     int
	Watch            bool
}

// DBPath is the SQLite file holding the kv_store and mcp_approvals tables.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "passbook.db")
}

// StoreFilePath is the JSON file used by the file backend.
func (c *Config) StoreFilePath() string {
	return filepath.Join(c.DataDir, "store.json")
}

// SnapshotDir is where scheduled snapshots are written.
func (c *Config) SnapshotDir() string {
	return filepath.Join(c.DataDir, "snapshots")
}

// SnapshotsEnabled returns true when a snapshot schedule is configured.
func (c *Config) SnapshotsEnabled() bool {
	return c.SnapshotSchedule != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// All variables are optional: PASSBOOK_DATA_DIR (~/.local/share/passbook),
// PASSBOOK_BACKEND (sqlite), PASSBOOK_STORAGE_KEY (passwords),
// PASSBOOK_COPY_INDICATOR (2s), PASSBOOK_SNAPSHOT_SCHEDULE (empty, disabled),
// PASSBOOK_SNAPSHOT_KEEP (10), PASSBOOK_WATCH (true).
func Load() (*Config, error) {
	dataDir := ""
	if v, ok := lookupEnv("PASSBOOK_DATA_DIR"); ok {
		dataDir = v
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share", "passbook")
	}

	backend := BackendSQLite
	if v, ok := lookupEnv("PASSBOOK_BACKEND"); ok {
		b, err := ParseBackend(v)
		if err != nil {
			return nil, err
		}
		backend = b
	}

	storageKey := "passwords"
	if v, ok := lookupEnv("PASSBOOK_STORAGE_KEY"); ok {
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("PASSBOOK_STORAGE_KEY must not be empty")
		}
		storageKey = v
	}

	copyIndicator := 2 * time.Second
	if v, ok := lookupEnv("PASSBOOK_COPY_INDICATOR"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("PASSBOOK_COPY_INDICATOR has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("PASSBOOK_COPY_INDICATOR must be positive, got %s", parsed)
		}
		copyIndicator = parsed
	}

	schedule := ""
	if v, ok := lookupEnv("PASSBOOK_SNAPSHOT_SCHEDULE"); ok {
		if _, err := cron.ParseStandard(v); err != nil {
			return nil, fmt.Errorf("PASSBOOK_SNAPSHOT_SCHEDULE has invalid cron expression %q: %w", v, err)
		}
		schedule = v
	}

	keep := 10
	if v, ok := lookupEnv("PASSBOOK_SNAPSHOT_KEEP"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("PASSBOOK_SNAPSHOT_KEEP must be a positive integer, got %q", v)
		}
		keep = n
	}

	watch := true
	if v, ok := lookupEnv("PASSBOOK_WATCH"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("PASSBOOK_WATCH has invalid boolean %q: %w", v, err)
		}
		watch = b
	}

	return &Config{
		DataDir:          dataDir,
		Backend:          backend,
		StorageKey:       storageKey,
		CopyIndicator:    copyIndicator,
		SnapshotSchedule: schedule,
		SnapshotKeep:     keep,
		Watch:            watch,
	}, nil
}

// lookupEnv treats an empty variable the same as an unset one.
func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	return v, ok && v != ""
}

// ParseBackend checks if the given string is a valid Backend.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(s)) {
	case BackendSQLite:
		return BackendSQLite, nil
	case BackendFile:
		return BackendFile, nil
	case BackendKeychain:
		return BackendKeychain, nil
	default:
		return "", fmt.Errorf("invalid backend %q: must be 'sqlite', 'file' or 'keychain'", s)
	}
}
