package global

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTokenRoundTrip(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "nested", "global.db"))

	if err := store.SetToken(ServiceOpenAI, "sk-test-123"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	token, err := store.Token(ServiceOpenAI)
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if token != "sk-test-123" {
		t.Errorf("token = %q", token)
	}
}

func TestTokenMissing(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "global.db"))

	token, err := store.Token(ServiceOpenAI)
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if token != "" {
		t.Errorf("token = %q, want empty", token)
	}
}

func TestSetTokenReplaces(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "global.db"))

	if err := store.SetToken(ServiceOpenAI, "old"); err != nil {
		t.Fatal(err)
	}
	if err := store.SetToken(ServiceOpenAI, "new"); err != nil {
		t.Fatal(err)
	}
	token, err := store.Token(ServiceOpenAI)
	if err != nil {
		t.Fatal(err)
	}
	if token != "new" {
		t.Errorf("token = %q, want new", token)
	}
}

func TestTokenPersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "global.db")

	store, err := OpenPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SetToken(ServiceOpenAI, "persisted"); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened := openTestStore(t, path)
	token, err := reopened.Token(ServiceOpenAI)
	if err != nil {
		t.Fatal(err)
	}
	if token != "persisted" {
		t.Errorf("token = %q", token)
	}
}
