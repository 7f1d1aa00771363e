package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"passbook/internal/domain"
)

// KVStore implements domain.KVStore on the kv_store table.
type KVStore struct {
	db *DB
}

// NewKVStore creates a new KVStore.
func NewKVStore(db *DB) *KVStore {
	return &KVStore{db: db}
}

var _ domain.KVStore = (*KVStore)(nil)

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.conn.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Fingerprint returns the last write time of key, or 0 if it is not set.
// Used to detect writes made by another process.
func (s *KVStore) Fingerprint(ctx context.Context, key string) (int64, error) {
	var updated int64
	err := s.db.conn.QueryRowContext(ctx, `SELECT updated_at FROM kv_store WHERE key = ?`, key).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return updated, err
}
