package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTOML(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadParsesSources(t *testing.T) {
	path := writeTOML(t, `
[[source]]
id = "wiktionary"
name = "Wiktionary"
type = "dictionary"
format = "json"
url = "https://example.org/wiktionary.json"
languages = ["en", "fr"]
license = "CC-BY-SA"
quality = "high"
version = "2026-01"
`)
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	sources, err := Load(path, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("want 1 source, got %d", len(sources))
	}
	got := sources[0]
	if got.ID != "wiktionary" || got.Name != "Wiktionary" {
		t.Fatalf("unexpected source: %+v", got)
	}
	if len(got.Languages) != 2 || got.Languages[0] != "en" {
		t.Fatalf("unexpected languages: %+v", got.Languages)
	}
	if !got.RetrievedAt.Equal(now) {
		t.Fatalf("want retrieved_at stamped with now, got %v", got.RetrievedAt)
	}
}

func TestLoadMultipleSources(t *testing.T) {
	path := writeTOML(t, `
[[source]]
id = "a"
name = "A"

[[source]]
id = "b"
name = "B"
`)
	sources, err := Load(path, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("want 2 sources, got %d", len(sources))
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"), time.Now())
	if err == nil {
		t.Fatal("expected an error for a missing catalog file")
	}
}

func TestLoadMalformedTOML(t *testing.T) {
	path := writeTOML(t, "this is not [valid toml")
	_, err := Load(path, time.Now())
	if err == nil {
		t.Fatal("expected an error for malformed TOML")
	}
}
