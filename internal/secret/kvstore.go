package secret

import (
	"context"

	"passbook/internal/domain"
)

// KVStore adapts a SecretStore to domain.KVStore so the credential
// collection can live in the OS secret store instead of a local file.
type KVStore struct {
	secrets SecretStore
}

// NewKVStore wraps secrets.
func NewKVStore(secrets SecretStore) *KVStore {
	return &KVStore{secrets: secrets}
}

var _ domain.KVStore = (*KVStore)(nil)

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	value, err := s.secrets.Get(key)
	if err != nil {
		return "", false, err
	}
	if value == nil {
		return "", false, nil
	}
	return string(value), true, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.secrets.Set(key, []byte(value))
}
