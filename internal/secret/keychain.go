package secret

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keychainService = "passbook"

// KeychainStore implements SecretStore using the OS keyring (macOS Keychain,
// Secret Service on Linux, Credential Manager on Windows).
//
// On macOS go-keyring hands the value to `security -i` on stdin, base64
// encoded, so it never shows in the process list and non-ASCII text comes
// back as written instead of as a hex dump.
type KeychainStore struct {
	service string
}

// NewKeychainStore creates a new KeychainStore.
func NewKeychainStore() *KeychainStore {
	return &KeychainStore{service: keychainService}
}

// Set stores a secret. If the key already exists, it updates the value.
func (k *KeychainStore) Set(key string, value []byte) error {
	if err := keyring.Set(k.service, key, string(value)); err != nil {
		return fmt.Errorf("keychain set: %w", err)
	}
	return nil
}

// Get retrieves a secret.
// Returns nil and nil error if the key doesn't exist.
func (k *KeychainStore) Get(key string) ([]byte, error) {
	value, err := keyring.Get(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("keychain get: %w", err)
	}
	return []byte(value), nil
}
