package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"
)

func stubKeyring(t *testing.T, fn func(service, user string) (string, error)) {
	t.Helper()
	original := keyringGet
	keyringGet = fn
	t.Cleanup(func() { keyringGet = original })
}

func TestLoadPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	t.Setenv("ATS_TEST_SECRET", "from-env")

	secret, err := Load(Source{Name: "service key", File: path, Env: "ATS_TEST_SECRET", Value: "inline"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secret != "from-file" {
		t.Fatalf("expected file secret, got %q", secret)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("   "), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	_, err := Load(Source{Name: "service key", File: path, Value: "inline"})
	if err == nil || !strings.Contains(err.Error(), "is empty") {
		t.Fatalf("expected empty file error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(Source{File: filepath.Join(t.TempDir(), "missing")})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist error, got %v", err)
	}
}

func TestLoadEnvThenKeyringThenValue(t *testing.T) {
	stubKeyring(t, func(service, user string) (string, error) {
		if service != KeyringService || user != "gemini" {
			t.Errorf("unexpected keyring lookup %s/%s", service, user)
		}
		return " from-keyring ", nil
	})

	t.Setenv("ATS_TEST_SECRET", "")
	secret, err := Load(Source{Env: "ATS_TEST_SECRET", Keyring: "gemini", Value: "inline"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secret != "from-keyring" {
		t.Fatalf("expected keyring secret, got %q", secret)
	}

	t.Setenv("ATS_TEST_SECRET", "from-env")
	secret, err = Load(Source{Env: "ATS_TEST_SECRET", Keyring: "gemini", Value: "inline"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secret != "from-env" {
		t.Fatalf("expected env secret, got %q", secret)
	}
}

func TestLoadKeyringNotFoundFallsBack(t *testing.T) {
	stubKeyring(t, func(string, string) (string, error) {
		return "", keyring.ErrNotFound
	})

	secret, err := Load(Source{Keyring: "gemini", Value: "inline"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secret != "inline" {
		t.Fatalf("expected inline secret, got %q", secret)
	}
}

func TestLoadKeyringFailure(t *testing.T) {
	stubKeyring(t, func(string, string) (string, error) {
		return "", errors.New("dbus unavailable")
	})

	if _, err := Load(Source{Name: "gemini api key", Keyring: "gemini", Value: "inline"}); err == nil {
		t.Fatal("expected keyring failure to be reported")
	}
}

func TestLoadNotConfigured(t *testing.T) {
	_, err := Load(Source{Name: "service key"})
	if err == nil || err.Error() != "service key is not configured" {
		t.Fatalf("unexpected error: %v", err)
	}
}
