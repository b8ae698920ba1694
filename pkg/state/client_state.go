// Package state provides the client-side settings store used by the executive
// screens: pagination settings, the configured date format, saved search
// criteria and the navigation intent handed from the list to the edit form.
//
// The store is a single YAML document. Every mutation through Store is
// persisted atomically (temp file + rename) so a crashed CLI never leaves a
// truncated file behind.
//
// Keys follow the backend application's naming: per-task entries are keyed
// by task code (SOMNT01, PROMPT, ...).
package state

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/greg-hellings/execadmin/pkg/classification"
	"github.com/greg-hellings/execadmin/pkg/executive"
)

const (
	// PromptTaskCode is the master control key consulted by the classification selector.
	PromptTaskCode = "PROMPT"
	// DefaultSelectorPageSize is used when no PROMPT master control data is stored.
	DefaultSelectorPageSize = 10
	// DefaultLoadSize is used when a task has no usable master control data.
	DefaultLoadSize = 50
	// maxErrorLog bounds the persisted error log.
	maxErrorLog = 50
)

// ClientState is the persisted document.
type ClientState struct {
	StateVersion  int                          `yaml:"stateVersion"`
	SavedAt       time.Time                    `yaml:"savedAt"`
	Profile       string                       `yaml:"profile"`
	DateFormat    string                       `yaml:"clientDateFormat"`
	MasterControl map[string]MasterControlData `yaml:"masterControlData"`
	Screens       map[string]ScreenState       `yaml:"screens"`
	Values        map[string]string            `yaml:"values,omitempty"`
	Credentials   *CredentialSnapshot          `yaml:"credentials,omitempty"`
	ErrorLog      []ErrorLogEntry              `yaml:"errorLog,omitempty"`
}

// MasterControlData is the per-task pagination settings blob.
type MasterControlData struct {
	AllowPaging      string `yaml:"allowPaging" json:"AllowPaging"`
	PageSize         int    `yaml:"pageSize" json:"PageSize"`
	LoadSize         int    `yaml:"loadSize" json:"LoadSize"`
	ExtendedPageSize int    `yaml:"extendedPageSize" json:"ExtendedPageSize"`
}

// Paging reports whether paging is enabled ('1').
func (m MasterControlData) Paging() bool { return executive.Flag(m.AllowPaging) }

// ScreenState is what one screen (task code) keeps between visits.
type ScreenState struct {
	SelectionCriteria *executive.SelectionCriteria `yaml:"selectionCriteria,omitempty"`
	ExecutiveLevels   []classification.Selection   `yaml:"executiveLevels,omitempty"`
	PageInit          *executive.PageInit          `yaml:"pageInit,omitempty"`
}

// CredentialSnapshot is a plain-YAML token map keyed by backend name.
type CredentialSnapshot struct {
	Tokens map[string]string `yaml:"tokens,omitempty"`
}

// ErrorLogEntry records a failure reported through a side channel.
type ErrorLogEntry struct {
	Time    time.Time `yaml:"time"`
	Source  string    `yaml:"source"`
	Message string    `yaml:"message"`
}

// NewDefaultClientState creates an initialized state.
func NewDefaultClientState() *ClientState {
	return &ClientState{
		StateVersion:  1,
		SavedAt:       time.Now().UTC(),
		Profile:       "default",
		MasterControl: map[string]MasterControlData{},
		Screens:       map[string]ScreenState{},
		Values:        map[string]string{},
	}
}

// LoadClientState reads the state file, returning defaults if it is missing.
func LoadClientState(path string) (*ClientState, error) {
	if path == "" {
		path = DefaultClientStatePath()
	}
	// #nosec G304 path comes from operator configuration
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultClientState(), nil
		}
		return nil, fmt.Errorf("state: read failed: %w", err)
	}
	var st ClientState
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("state: parse failed: %w", err)
	}
	normalizeClientState(&st)
	return &st, nil
}

// SaveClientState persists the state atomically to disk.
func SaveClientState(st *ClientState, path string) error {
	if st == nil {
		return errors.New("state: nil ClientState")
	}
	if path == "" {
		path = DefaultClientStatePath()
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("state: mkdir failed: %w", err)
	}
	st.SavedAt = time.Now().UTC()

	out, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("state: marshal failed: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".client_state.tmp-*")
	if err != nil {
		return fmt.Errorf("state: temp create failed: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(out); err != nil {
		return fmt.Errorf("state: temp write failed: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		return fmt.Errorf("state: chmod failed: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("state: sync failed: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("state: atomic rename failed: %w", err)
	}
	return nil
}

// DefaultClientStatePath returns the OS-specific default path of the store.
func DefaultClientStatePath() string {
	return filepath.Join(userConfigDir(), "execadmin", "client_state.yaml")
}

// userConfigDir attempts to resolve a configuration directory in a portable way.
func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".config")
	}
	return "."
}

// normalizeClientState ensures invariants and fills defaults after load.
func normalizeClientState(st *ClientState) {
	if st.StateVersion <= 0 {
		st.StateVersion = 1
	}
	if st.Profile == "" {
		st.Profile = "default"
	}
	if st.MasterControl == nil {
		st.MasterControl = map[string]MasterControlData{}
	}
	if st.Screens == nil {
		st.Screens = map[string]ScreenState{}
	}
	if st.Values == nil {
		st.Values = map[string]string{}
	}
}

// WriteTo writes the YAML representation (tokens redacted) to w.
func (s *ClientState) WriteTo(w io.Writer) (int64, error) {
	out, err := yaml.Marshal(s.RedactedCopy())
	if err != nil {
		return 0, err
	}
	n, err := w.Write(out)
	return int64(n), err
}

// RedactedCopy returns a shallow copy with tokens anonymized.
func (s *ClientState) RedactedCopy() *ClientState {
	cp := *s
	if s.Credentials != nil {
		tokens := make(map[string]string, len(s.Credentials.Tokens))
		for k, v := range s.Credentials.Tokens {
			tokens[k] = RedactToken(v)
		}
		cp.Credentials = &CredentialSnapshot{Tokens: tokens}
	}
	return &cp
}

// Store is the key/value facade over ClientState. It is safe for concurrent
// use. A Store with an empty path never touches disk.
type Store struct {
	mu    sync.RWMutex
	path  string
	state *ClientState
}

// Open loads (or initialises) the store at path.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultClientStatePath()
	}
	st, err := LoadClientState(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, state: st}, nil
}

// NewMemoryStore returns a store that is never persisted.
func NewMemoryStore() *Store {
	return &Store{state: NewDefaultClientState()}
}

// Path returns the backing file ("" for memory stores).
func (s *Store) Path() string { return s.path }

// Snapshot returns a copy of the current document for display.
func (s *Store) Snapshot() *ClientState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.RedactedCopy()
}

// update applies fn under the write lock and persists the result.
func (s *Store) update(fn func(st *ClientState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
	if s.path == "" {
		return nil
	}
	return SaveClientState(s.state, s.path)
}

// Get returns a raw stored value.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.state.Values[key]
	return v, ok
}

// Set stores a raw value.
func (s *Store) Set(key, value string) error {
	return s.update(func(st *ClientState) { st.Values[key] = value })
}

// Delete removes a raw value (idempotent).
func (s *Store) Delete(key string) error {
	return s.update(func(st *ClientState) { delete(st.Values, key) })
}

// ClientDateFormat returns the configured date pattern ("" when unset).
func (s *Store) ClientDateFormat() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.DateFormat
}

// SetClientDateFormat stores the date pattern. Callers validate the value.
func (s *Store) SetClientDateFormat(format string) error {
	return s.update(func(st *ClientState) { st.DateFormat = format })
}

// MasterControlData returns the pagination blob for a task code.
func (s *Store) MasterControlData(taskCode string) (MasterControlData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.state.MasterControl[normalizeTask(taskCode)]
	return m, ok
}

// SetMasterControlData stores the pagination blob for a task code.
func (s *Store) SetMasterControlData(taskCode string, m MasterControlData) error {
	return s.update(func(st *ClientState) { st.MasterControl[normalizeTask(taskCode)] = m })
}

// SelectorPageSize is the candidate popup page size: PageSize when paging is
// allowed, ExtendedPageSize otherwise.
func (s *Store) SelectorPageSize() int {
	m, ok := s.MasterControlData(PromptTaskCode)
	if !ok {
		return DefaultSelectorPageSize
	}
	size := m.ExtendedPageSize
	if m.Paging() {
		size = m.PageSize
	}
	if size <= 0 {
		return DefaultSelectorPageSize
	}
	return size
}

// LoadSize is the grid loader page size for a task: LoadSize when paging is
// allowed, otherwise ExtendedPageSize, falling back to 50.
func (s *Store) LoadSize(taskCode string) int {
	m, ok := s.MasterControlData(taskCode)
	if !ok {
		return DefaultLoadSize
	}
	size := m.ExtendedPageSize
	if m.Paging() {
		size = m.LoadSize
	}
	if size <= 0 {
		return DefaultLoadSize
	}
	return size
}

// SelectionCriteria returns the saved search form for a task.
func (s *Store) SelectionCriteria(taskCode string) (executive.SelectionCriteria, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc := s.state.Screens[normalizeTask(taskCode)].SelectionCriteria
	if sc == nil {
		return executive.SelectionCriteria{}, false
	}
	return *sc, true
}

// SetSelectionCriteria saves the search form for a task.
func (s *Store) SetSelectionCriteria(taskCode string, c executive.SelectionCriteria) error {
	return s.updateScreen(taskCode, func(sc *ScreenState) { sc.SelectionCriteria = &c })
}

// ExecutiveLevels returns the saved classification selection of a task's
// search form.
func (s *Store) ExecutiveLevels(taskCode string) []classification.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lv := s.state.Screens[normalizeTask(taskCode)].ExecutiveLevels
	return append([]classification.Selection(nil), lv...)
}

// SetExecutiveLevels saves the classification selection of a task's search form.
func (s *Store) SetExecutiveLevels(taskCode string, levels []classification.Selection) error {
	cp := append([]classification.Selection(nil), levels...)
	return s.updateScreen(taskCode, func(sc *ScreenState) { sc.ExecutiveLevels = cp })
}

// PageInit returns the stored navigation intent for a task.
func (s *Store) PageInit(taskCode string) (executive.PageInit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pi := s.state.Screens[normalizeTask(taskCode)].PageInit
	if pi == nil {
		return executive.PageInit{}, false
	}
	return *pi, true
}

// SetPageInit stores the navigation intent for a task.
func (s *Store) SetPageInit(taskCode string, pi executive.PageInit) error {
	return s.updateScreen(taskCode, func(sc *ScreenState) { sc.PageInit = &pi })
}

// ClearPageInit removes the navigation intent for a task.
func (s *Store) ClearPageInit(taskCode string) error {
	return s.updateScreen(taskCode, func(sc *ScreenState) { sc.PageInit = nil })
}

func (s *Store) updateScreen(taskCode string, fn func(sc *ScreenState)) error {
	key := normalizeTask(taskCode)
	return s.update(func(st *ClientState) {
		sc := st.Screens[key]
		fn(&sc)
		st.Screens[key] = sc
	})
}

// AppendError records a side-channel failure, keeping the newest entries.
func (s *Store) AppendError(source string, err error) error {
	if err == nil {
		return nil
	}
	return s.update(func(st *ClientState) {
		st.ErrorLog = append(st.ErrorLog, ErrorLogEntry{
			Time:    time.Now().UTC(),
			Source:  source,
			Message: err.Error(),
		})
		if over := len(st.ErrorLog) - maxErrorLog; over > 0 {
			st.ErrorLog = st.ErrorLog[over:]
		}
	})
}

// ErrorLog returns a copy of the recorded failures, oldest first.
func (s *Store) ErrorLog() []ErrorLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ErrorLogEntry(nil), s.state.ErrorLog...)
}

func normalizeTask(taskCode string) string {
	return strings.ToUpper(strings.TrimSpace(taskCode))
}

// ParseMasterControlKey splits a legacy "<TASK>_MasterControlData" key. It is
// used when importing settings exported from the browser application.
func ParseMasterControlKey(key string) (string, bool) {
	task, ok := strings.CutSuffix(key, "_MasterControlData")
	if !ok || task == "" {
		return "", false
	}
	return normalizeTask(task), true
}

// ImportLegacyValues copies browser-style key/value pairs into the store.
// Keys named "<TASK>_MasterControlData" with fields AllowPaging, PageSize,
// LoadSize and ExtendedPageSize (flattened as "<key>.<field>") are turned
// into typed master control entries; "ClientDateFormat" sets the date
// format; everything else is stored raw.
func (s *Store) ImportLegacyValues(values map[string]string) error {
	return s.update(func(st *ClientState) {
		for k, v := range values {
			if k == "ClientDateFormat" {
				st.DateFormat = v
				continue
			}
			base, field, hasField := strings.Cut(k, ".")
			if task, ok := ParseMasterControlKey(base); ok && hasField {
				m := st.MasterControl[task]
				switch field {
				case "AllowPaging":
					m.AllowPaging = v
				case "PageSize":
					m.PageSize, _ = strconv.Atoi(v)
				case "LoadSize":
					m.LoadSize, _ = strconv.Atoi(v)
				case "ExtendedPageSize":
					m.ExtendedPageSize, _ = strconv.Atoi(v)
				}
				st.MasterControl[task] = m
				continue
			}
			st.Values[k] = v
		}
	})
}
