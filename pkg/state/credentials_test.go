package state

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestInMemoryCredentialStore(t *testing.T) {
	store := NewInMemoryCredentialStore()

	t.Run("set empty backend", func(t *testing.T) {
		if err := store.SetToken("", "token"); err == nil {
			t.Fatal("expected error for empty backend")
		}
	})

	t.Run("get missing token", func(t *testing.T) {
		if _, err := store.GetToken("default"); !errors.Is(err, ErrCredentialNotFound) {
			t.Errorf("expected ErrCredentialNotFound, got %v", err)
		}
	})

	t.Run("update existing token", func(t *testing.T) {
		_ = store.SetToken("default", "old")
		_ = store.SetToken("default", "new")
		tok, err := store.GetToken("default")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok != "new" {
			t.Errorf("expected new, got %s", tok)
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		if err := store.DeleteToken("default"); err != nil {
			t.Fatal(err)
		}
		if err := store.DeleteToken("default"); err != nil {
			t.Fatal(err)
		}
		list, _ := store.ListBackends()
		if len(list) != 0 {
			t.Errorf("expected no backends, got %v", list)
		}
	})
}

func TestFileCredentialStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client_state.yaml")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	fs := NewFileCredentialStore(s)
	if err := fs.SetToken("staging", "abc12345"); err != nil {
		t.Fatalf("set: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	tok, err := NewFileCredentialStore(reopened).GetToken("staging")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tok != "abc12345" {
		t.Errorf("expected abc12345, got %s", tok)
	}

	if err := fs.DeleteToken("staging"); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.GetToken("staging"); !errors.Is(err, ErrCredentialNotFound) {
		t.Errorf("expected ErrCredentialNotFound, got %v", err)
	}
}

type failingStore struct{}

func (failingStore) SetToken(string, string) error   { return errors.New("locked") }
func (failingStore) GetToken(string) (string, error) { return "", errors.New("locked") }
func (failingStore) DeleteToken(string) error        { return nil }
func (failingStore) ListBackends() ([]string, error) { return nil, nil }

func TestFallbackCredentialStore(t *testing.T) {
	t.Run("nil primary uses fallback", func(t *testing.T) {
		f := NewFallbackCredentialStore(nil, nil)
		if err := f.SetToken("default", "tok"); err != nil {
			t.Fatal(err)
		}
		tok, err := f.GetToken("default")
		if err != nil || tok != "tok" {
			t.Errorf("expected tok, got %q (%v)", tok, err)
		}
	})

	t.Run("failing primary write falls back", func(t *testing.T) {
		fb := NewInMemoryCredentialStore()
		f := NewFallbackCredentialStore(&failingStore{}, fb)
		if err := f.SetToken("default", "tok"); err != nil {
			t.Fatal(err)
		}
		if tok, _ := fb.GetToken("default"); tok != "tok" {
			t.Errorf("expected fallback to hold token, got %q", tok)
		}
	})

	t.Run("primary read error is surfaced", func(t *testing.T) {
		f := NewFallbackCredentialStore(&failingStore{}, nil)
		if _, err := f.GetToken("default"); err == nil {
			t.Fatal("expected primary error")
		}
	})

	t.Run("list merges layers", func(t *testing.T) {
		p := NewInMemoryCredentialStore()
		fb := NewInMemoryCredentialStore()
		_ = p.SetToken("a", "1")
		_ = fb.SetToken("a", "1")
		_ = fb.SetToken("b", "2")
		list, err := NewFallbackCredentialStore(p, fb).ListBackends()
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(list, []string{"a", "b"}) {
			t.Errorf("unexpected list %v", list)
		}
	})
}

func TestResolveBackendToken(t *testing.T) {
	tests := []struct {
		description string
		env         string
		snapshot    string
		stored      string
		expected    string
	}{
		{description: "env wins", env: "from-env", snapshot: "from-state", stored: "from-store", expected: "from-env"},
		{description: "snapshot before store", snapshot: "from-state", stored: "from-store", expected: "from-state"},
		{description: "store last", stored: "from-store", expected: "from-store"},
		{description: "nothing configured", expected: ""},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			t.Setenv(TokenEnvName("unit"), tt.env)
			if tt.env == "" {
				os.Unsetenv(TokenEnvName("unit"))
			}
			st := NewDefaultClientState()
			if tt.snapshot != "" {
				st.Credentials = &CredentialSnapshot{Tokens: map[string]string{"unit": tt.snapshot}}
			}
			cs := NewInMemoryCredentialStore()
			if tt.stored != "" {
				_ = cs.SetToken("unit", tt.stored)
			}
			got, err := ResolveBackendToken("unit", st, cs)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}

	if _, err := ResolveBackendToken("", nil, nil); err == nil {
		t.Error("expected error for empty backend")
	}
}

func TestTokenEnvName(t *testing.T) {
	cases := map[string]string{
		"my-backend":           "EXECADMIN_MY_BACKEND_TOKEN",
		"erp.example.com:8443": "EXECADMIN_ERP_EXAMPLE_COM_8443_TOKEN",
	}
	for in, want := range cases {
		if got := TokenEnvName(in); got != want {
			t.Errorf("TokenEnvName(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestRedactToken(t *testing.T) {
	cases := map[string]string{"": "", "abc": "***", "abcdefgh": "abcd***"}
	for in, want := range cases {
		if got := RedactToken(in); got != want {
			t.Errorf("RedactToken(%q) = %q, want %q", in, got, want)
		}
	}
}
