package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"passbook/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Credential Service — the credential list, the input form and
// the clipboard indicator
// ─────────────────────────────────────────────────────────────

// DefaultStorageKey is the KV key the collection is persisted under.
const DefaultStorageKey = "passwords"

// DefaultCopyIndicator is how long the "copied" flag stays up.
const DefaultCopyIndicator = 2 * time.Second

// State is the snapshot the UI renders.
type State struct {
	Credentials []domain.Credential `json:"credentials"`
	Form        domain.Form         `json:"form"`
	Copied      bool                `json:"copied"`
}

// CredentialService holds the in-memory credential collection and the form
// state, and rewrites the whole collection to the KV store on every mutation.
//
// Mutations are serialized by mu, so a read-modify-write never interleaves with
// another. The in-memory list is updated even when the write fails; the two
// converge again on the next Load.
type CredentialService struct {
	store     domain.KVStore
	clipboard domain.Clipboard
	emitter   EventEmitter
	key       string
	copyFor   time.Duration

	mu          sync.Mutex
	credentials []domain.Credential
	form        domain.Form

	copyMu    sync.Mutex
	copied    bool
	copySeq   uint64
	copyTimer *time.Timer

	inflight inflightGuard
}

// NewCredentialService creates a CredentialService. An empty key or a
// non-positive copyIndicator fall back to the defaults.
func NewCredentialService(
	store domain.KVStore,
	clipboard domain.Clipboard,
	emitter EventEmitter,
	key string,
	copyIndicator time.Duration,
) *CredentialService {
	if key == "" {
		key = DefaultStorageKey
	}
	if copyIndicator <= 0 {
		copyIndicator = DefaultCopyIndicator
	}
	if emitter == nil {
		emitter = discardEmitter{}
	}
	return &CredentialService{
		store:       store,
		clipboard:   clipboard,
		emitter:     emitter,
		key:         key,
		copyFor:     copyIndicator,
		credentials: []domain.Credential{},
		form:        domain.NewForm(),
	}
}

type discardEmitter struct{}

func (discardEmitter) Emit(context.Context, string, any) {}

// Key returns the storage key.
func (s *CredentialService) Key() string {
	return s.key
}

// ── Load / persist ─────────────────────────────────────────

// Load replaces the in-memory collection with the persisted one.
// Read failures and malformed data are logged and yield an empty collection.
// A legacy single-object value is merged into the current collection instead.
func (s *CredentialService) Load(ctx context.Context) {
	s.mu.Lock()
	s.credentials = s.load(ctx, s.credentials)
	count := len(s.credentials)
	s.mu.Unlock()

	s.emitter.Emit(ctx, EventCredentialsChanged, count)
}

func (s *CredentialService) load(ctx context.Context, current []domain.Credential) []domain.Credential {
	raw, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		log.Printf("vault: load failed: %v", &domain.PersistenceError{Op: "get", Key: s.key, Err: err})
		return []domain.Credential{}
	}
	if !ok {
		log.Printf("vault: no credentials stored under %q", s.key)
		return []domain.Credential{}
	}

	list, legacy, skipped, err := DecodeCredentials(raw)
	if err != nil {
		log.Printf("vault: ignoring stored credentials: %v", err)
		return []domain.Credential{}
	}
	if skipped > 0 {
		log.Printf("vault: dropped %d stored element(s) that are not records", skipped)
	}
	if legacy {
		log.Printf("vault: converting legacy single-object value (%d key(s))", len(list))
		return MergeUnique(current, list)
	}
	return list
}

// Persist serializes list and writes it under the storage key. A failure is
// logged and returned as a *domain.PersistenceError; nothing is rolled back.
func (s *CredentialService) Persist(ctx context.Context, list []domain.Credential) error {
	raw, err := EncodeCredentials(list)
	if err != nil {
		log.Printf("vault: %v", err)
		return err
	}
	if err := s.store.Set(ctx, s.key, raw); err != nil {
		perr := &domain.PersistenceError{Op: "set", Key: s.key, Err: err}
		log.Printf("vault: save failed: %v", perr)
		return perr
	}
	return nil
}

// ── Form ───────────────────────────────────────────────────

// SetPending replaces the pending input fields without changing the form mode.
func (s *CredentialService) SetPending(website, username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.Website = website
	s.form.Username = username
	s.form.Password = password
}

// BeginEdit copies the credential at index into the pending fields and
// switches the form to editing that position.
func (s *CredentialService) BeginEdit(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.credentials) {
		return fmt.Errorf("edit %d of %d: %w", index, len(s.credentials), domain.ErrIndexOutOfRange)
	}
	c := s.credentials[index]
	s.form = domain.Form{
		Website:  c.Website,
		Username: c.Username,
		Password: c.Password,
		Mode:     domain.FormEditing,
		Index:    index,
	}
	return nil
}

// Save submits the form. In adding mode the pending credential is appended;
// in editing mode it replaces the credential at the edited position. On
// success the form is cleared and returns to adding mode.
//
// An incomplete form returns a *domain.ValidationError and changes nothing.
// If the edited position no longer exists the form drops back to adding
// mode, keeping its fields, and domain.ErrIndexOutOfRange is returned.
func (s *CredentialService) Save(ctx context.Context) error {
	if !s.inflight.TryLock("save") {
		return domain.ErrOperationInFlight
	}
	defer s.inflight.Unlock("save")

	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.form.Pending()
	if !pending.Complete() {
		return s.invalid(ctx, pending)
	}

	updated := cloneCredentials(s.credentials)
	if index, editing := s.form.Editing(); editing {
		if index < 0 || index >= len(updated) {
			s.form.Mode = domain.FormAdding
			s.form.Index = -1
			return fmt.Errorf("save edit %d of %d: %w", index, len(updated), domain.ErrIndexOutOfRange)
		}
		updated[index] = pending
	} else {
		updated = append(updated, pending)
	}

	s.commit(ctx, updated)
	s.form = domain.NewForm()
	return nil
}

// Add appends c without touching the form.
func (s *CredentialService) Add(ctx context.Context, c domain.Credential) error {
	if !s.inflight.TryLock("add") {
		return domain.ErrOperationInFlight
	}
	defer s.inflight.Unlock("add")

	s.mu.Lock()
	defer s.mu.Unlock()

	if !c.Complete() {
		return s.invalid(ctx, c)
	}
	s.commit(ctx, append(cloneCredentials(s.credentials), c))
	return nil
}

// Update replaces the credential at index without touching the form.
func (s *CredentialService) Update(ctx context.Context, index int, c domain.Credential) error {
	if !s.inflight.TryLock("update") {
		return domain.ErrOperationInFlight
	}
	defer s.inflight.Unlock("update")

	s.mu.Lock()
	defer s.mu.Unlock()

	if !c.Complete() {
		return s.invalid(ctx, c)
	}
	if index < 0 || index >= len(s.credentials) {
		return fmt.Errorf("update %d of %d: %w", index, len(s.credentials), domain.ErrIndexOutOfRange)
	}
	updated := cloneCredentials(s.credentials)
	updated[index] = c
	s.commit(ctx, updated)
	return nil
}

// Delete removes every credential whose website equals website exactly and
// returns the success message shown to the user. The message is reported even
// when nothing matched.
func (s *CredentialService) Delete(ctx context.Context, website string) (string, error) {
	if !s.inflight.TryLock("delete") {
		return "", domain.ErrOperationInFlight
	}
	defer s.inflight.Unlock("delete")

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]domain.Credential, 0, len(s.credentials))
	for _, c := range s.credentials {
		if c.Website != website {
			kept = append(kept, c)
		}
	}
	s.commit(ctx, kept)

	msg := fmt.Sprintf("Successfully deleted %s's password", website)
	s.emitter.Emit(ctx, EventCredentialsAlert, msg)
	return msg, nil
}

// commit persists list and makes it the in-memory collection. Caller holds mu.
func (s *CredentialService) commit(ctx context.Context, list []domain.Credential) {
	_ = s.Persist(ctx, list)
	s.credentials = list
	s.emitter.Emit(ctx, EventCredentialsChanged, len(list))
}

func (s *CredentialService) invalid(ctx context.Context, c domain.Credential) error {
	verr := &domain.ValidationError{Missing: c.MissingFields()}
	s.emitter.Emit(ctx, EventCredentialsAlert, verr.UserMessage())
	return verr
}

// ── Clipboard ──────────────────────────────────────────────

// Copy puts text on the clipboard and raises the copied flag for the
// indicator duration. A newer copy restarts the countdown. Clipboard
// failures are only logged.
func (s *CredentialService) Copy(ctx context.Context, text string) {
	if err := s.clipboard.SetText(ctx, text); err != nil {
		log.Printf("vault: copy to clipboard failed: %v", err)
		return
	}

	timerCtx := context.WithoutCancel(ctx)

	s.copyMu.Lock()
	s.copied = true
	s.copySeq++
	seq := s.copySeq
	if s.copyTimer != nil {
		s.copyTimer.Stop()
	}
	s.copyTimer = time.AfterFunc(s.copyFor, func() { s.clearCopied(timerCtx, seq) })
	s.copyMu.Unlock()

	s.emitter.Emit(ctx, EventCopied, true)
}

// CopyField copies one field of the credential at index.
func (s *CredentialService) CopyField(ctx context.Context, index int, field domain.Field) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.credentials) {
		n := len(s.credentials)
		s.mu.Unlock()
		return fmt.Errorf("copy %d of %d: %w", index, n, domain.ErrIndexOutOfRange)
	}
	value, ok := s.credentials[index].Value(field)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown field %q", field)
	}

	s.Copy(ctx, value)
	return nil
}

func (s *CredentialService) clearCopied(ctx context.Context, seq uint64) {
	s.copyMu.Lock()
	if seq != s.copySeq {
		s.copyMu.Unlock()
		return
	}
	s.copied = false
	s.copyTimer = nil
	s.copyMu.Unlock()

	s.emitter.Emit(ctx, EventCopied, false)
}

// ── Read side ──────────────────────────────────────────────

// Credentials returns a copy of the collection in display order.
func (s *CredentialService) Credentials() []domain.Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCredentials(s.credentials)
}

// Form returns the current form state.
func (s *CredentialService) Form() domain.Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Copied reports whether the copied indicator is up.
func (s *CredentialService) Copied() bool {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()
	return s.copied
}

// State returns everything the UI renders in one snapshot.
func (s *CredentialService) State() State {
	return State{
		Credentials: s.Credentials(),
		Form:        s.Form(),
		Copied:      s.Copied(),
	}
}

// Close stops the indicator timer and waits for in-flight mutations.
func (s *CredentialService) Close(ctx context.Context) {
	s.copyMu.Lock()
	if s.copyTimer != nil {
		s.copyTimer.Stop()
		s.copyTimer = nil
	}
	s.copyMu.Unlock()

	s.inflight.WaitAll(ctx)
}

// ── Masking ────────────────────────────────────────────────

// Mask returns one '*' per character of password. The length of the
// password is therefore visible.
func Mask(password string) string {
	return strings.Repeat("*", utf8.RuneCountInString(password))
}

// MaskOptional is Mask for a value that may be absent; nil masks to "".
func MaskOptional(password *string) string {
	if password == nil {
		return ""
	}
	return Mask(*password)
}

func cloneCredentials(list []domain.Credential) []domain.Credential {
	out := make([]domain.Credential, len(list))
	copy(out, list)
	return out
}
