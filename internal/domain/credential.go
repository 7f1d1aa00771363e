package domain

import "context"

// Credential is one website/username/password triple.
// Passwords are stored and returned in clear; only the UI masks them.
type Credential struct {
	Website  string `json:"website"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Field names a single Credential field, used by per-field copy actions.
type Field string

const (
	FieldWebsite  Field = "website"
	FieldUsername Field = "username"
	FieldPassword Field = "password"
)

// Value returns the content of field f, or false for an unknown field.
func (c Credential) Value(f Field) (string, bool) {
	switch f {
	case FieldWebsite:
		return c.Website, true
	case FieldUsername:
		return c.Username, true
	case FieldPassword:
		return c.Password, true
	default:
		return "", false
	}
}

// Complete reports whether all three fields are non-empty.
func (c Credential) Complete() bool {
	return c.Website != "" && c.Username != "" && c.Password != ""
}

// MissingFields lists the names of the empty fields, in display order.
func (c Credential) MissingFields() []string {
	var missing []string
	if c.Website == "" {
		missing = append(missing, string(FieldWebsite))
	}
	if c.Username == "" {
		missing = append(missing, string(FieldUsername))
	}
	if c.Password == "" {
		missing = append(missing, string(FieldPassword))
	}
	return missing
}

// KVStore is the durable string-keyed store the credential collection is
// persisted to. The whole collection lives under one key and is rewritten
// on every mutation.
type KVStore interface {
	// Get returns the value for key. ok is false when the key was never set.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set replaces the value for key.
	Set(ctx context.Context, key, value string) error
}

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	SetText(ctx context.Context, text string) error
}
