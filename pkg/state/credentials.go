package state

// credentials.go
//
// Backend token storage.
//
// Backend hosts ("erp.example.com", "erp.local:8443") are used as keys. Tokens are
// looked up in this order by ResolveBackendToken:
//   * environment variable EXECADMIN_<BACKEND>_TOKEN
//   * the credentials snapshot in the client state file
//   * a CredentialStore, when one is supplied
//
// Never log a raw token; pass it through RedactToken first.

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// CredentialStore defines the contract for token persistence.
type CredentialStore interface {
	// SetToken stores or updates a token for a backend.
	SetToken(backend string, token string) error
	// GetToken retrieves a token. Returns ErrCredentialNotFound if missing.
	GetToken(backend string) (string, error)
	// DeleteToken removes a stored token (idempotent).
	DeleteToken(backend string) error
	// ListBackends returns the backend names that have tokens stored.
	ListBackends() ([]string, error)
}

// ErrCredentialNotFound is returned when a token for a backend does not exist.
var ErrCredentialNotFound = errors.New("credential not found")

// InMemoryCredentialStore is a thread-safe, volatile implementation. The CLI
// holds the configuration file's token in one, layered over the file store.
type InMemoryCredentialStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewInMemoryCredentialStore creates an empty store.
func NewInMemoryCredentialStore() *InMemoryCredentialStore {
	return &InMemoryCredentialStore{tokens: make(map[string]string)}
}

// SetToken implements CredentialStore.
func (s *InMemoryCredentialStore) SetToken(backend string, token string) error {
	if backend == "" {
		return errors.New("backend cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[backend] = token
	return nil
}

// GetToken implements CredentialStore.
func (s *InMemoryCredentialStore) GetToken(backend string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.tokens[backend]
	if !ok {
		return "", ErrCredentialNotFound
	}
	return v, nil
}

// DeleteToken implements CredentialStore.
func (s *InMemoryCredentialStore) DeleteToken(backend string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, backend)
	return nil
}

// ListBackends implements CredentialStore.
func (s *InMemoryCredentialStore) ListBackends() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.tokens))
	for k := range s.tokens {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// FileCredentialStore keeps tokens in the client state file's credentials
// snapshot. The file is written with 0600 permissions.
type FileCredentialStore struct {
	store *Store
}

// NewFileCredentialStore wraps a Store.
func NewFileCredentialStore(store *Store) *FileCredentialStore {
	return &FileCredentialStore{store: store}
}

// SetToken implements CredentialStore.
func (f *FileCredentialStore) SetToken(backend, token string) error {
	if backend == "" {
		return errors.New("backend cannot be empty")
	}
	return f.store.update(func(st *ClientState) {
		if st.Credentials == nil {
			st.Credentials = &CredentialSnapshot{}
		}
		if st.Credentials.Tokens == nil {
			st.Credentials.Tokens = map[string]string{}
		}
		st.Credentials.Tokens[backend] = token
	})
}

// GetToken implements CredentialStore.
func (f *FileCredentialStore) GetToken(backend string) (string, error) {
	f.store.mu.RLock()
	defer f.store.mu.RUnlock()
	if c := f.store.state.Credentials; c != nil {
		if v, ok := c.Tokens[backend]; ok {
			return v, nil
		}
	}
	return "", ErrCredentialNotFound
}

// DeleteToken implements CredentialStore.
func (f *FileCredentialStore) DeleteToken(backend string) error {
	return f.store.update(func(st *ClientState) {
		if st.Credentials != nil {
			delete(st.Credentials.Tokens, backend)
			if len(st.Credentials.Tokens) == 0 {
				st.Credentials = nil
			}
		}
	})
}

// ListBackends implements CredentialStore.
func (f *FileCredentialStore) ListBackends() ([]string, error) {
	f.store.mu.RLock()
	defer f.store.mu.RUnlock()
	var out []string
	if c := f.store.state.Credentials; c != nil {
		for k := range c.Tokens {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// FallbackCredentialStore composes a primary and a fallback store.
// Reads prefer primary; writes attempt primary then fallback if primary fails.
type FallbackCredentialStore struct {
	primary  CredentialStore
	fallback CredentialStore
}

// NewFallbackCredentialStore creates a layered store.
// If primary is nil, fallback is used for all operations.
func NewFallbackCredentialStore(primary, fallback CredentialStore) *FallbackCredentialStore {
	if fallback == nil {
		fallback = NewInMemoryCredentialStore()
	}
	return &FallbackCredentialStore{primary: primary, fallback: fallback}
}

// SetToken implements CredentialStore.
func (f *FallbackCredentialStore) SetToken(backend, token string) error {
	if f.primary != nil {
		if err := f.primary.SetToken(backend, token); err == nil {
			return nil
		}
	}
	return f.fallback.SetToken(backend, token)
}

// GetToken implements CredentialStore.
func (f *FallbackCredentialStore) GetToken(backend string) (string, error) {
	if f.primary != nil {
		v, err := f.primary.GetToken(backend)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrCredentialNotFound) {
			return "", fmt.Errorf("primary get token: %w", err)
		}
	}
	return f.fallback.GetToken(backend)
}

// DeleteToken removes the token from both layers.
func (f *FallbackCredentialStore) DeleteToken(backend string) error {
	var primaryErr error
	if f.primary != nil {
		primaryErr = f.primary.DeleteToken(backend)
	}
	fallbackErr := f.fallback.DeleteToken(backend)
	if primaryErr != nil && !errors.Is(primaryErr, ErrCredentialNotFound) {
		return primaryErr
	}
	if fallbackErr != nil && !errors.Is(fallbackErr, ErrCredentialNotFound) {
		return fallbackErr
	}
	return nil
}

// ListBackends merges both layers, de-duplicated and sorted.
func (f *FallbackCredentialStore) ListBackends() ([]string, error) {
	seen := map[string]struct{}{}
	add := func(list []string, err error) error {
		if err != nil {
			return err
		}
		for _, p := range list {
			seen[p] = struct{}{}
		}
		return nil
	}
	if f.primary != nil {
		if err := add(f.primary.ListBackends()); err != nil {
			return nil, fmt.Errorf("primary list backends: %w", err)
		}
	}
	if err := add(f.fallback.ListBackends()); err != nil {
		return nil, fmt.Errorf("fallback list backends: %w", err)
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// TokenEnvName returns the environment variable consulted for a backend.
// Characters that cannot appear in a variable name (host dots and port
// colons included) become underscores.
func TokenEnvName(backend string) string {
	name := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, backend)
	return fmt.Sprintf("EXECADMIN_%s_TOKEN", strings.ToUpper(name))
}

// ResolveBackendToken returns the credential for the given backend, or ""
// when none is configured.
func ResolveBackendToken(backend string, st *ClientState, cs CredentialStore) (string, error) {
	if backend == "" {
		return "", errors.New("backend cannot be empty")
	}
	if v := strings.TrimSpace(os.Getenv(TokenEnvName(backend))); v != "" {
		return v, nil
	}
	if st != nil && st.Credentials != nil {
		if tok := strings.TrimSpace(st.Credentials.Tokens[backend]); tok != "" {
			return tok, nil
		}
	}
	if cs != nil {
		tok, err := cs.GetToken(backend)
		if err == nil && strings.TrimSpace(tok) != "" {
			return tok, nil
		}
		if err != nil && !errors.Is(err, ErrCredentialNotFound) {
			return "", fmt.Errorf("credential store failure: %w", err)
		}
	}
	return "", nil
}

// RedactToken safely redacts a token for logging purposes.
func RedactToken(tok string) string {
	if tok == "" {
		return ""
	}
	if len(tok) <= 4 {
		return "***"
	}
	return tok[:4] + "***"
}
