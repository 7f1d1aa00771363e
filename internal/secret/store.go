package secret

// SecretStore provides a pluggable interface for storing values in an
// OS-managed secret store.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns nil and nil error if key does not exist.
	Get(key string) ([]byte, error)
}
