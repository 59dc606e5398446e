package domain

import "testing"

func TestCanonicalIDDeterministic(t *testing.T) {
	a := CanonicalID("cat", "en", "a small domesticated feline")
	b := CanonicalID("cat", "en", "a small domesticated feline")
	if a != b {
		t.Fatalf("same inputs produced different ids: %q vs %q", a, b)
	}
}

func TestCanonicalIDDistinctForDifferentHeadword(t *testing.T) {
	a := CanonicalID("cat", "en", "a small domesticated feline")
	b := CanonicalID("dog", "en", "a small domesticated feline")
	if a == b {
		t.Fatal("different headwords produced the same id")
	}
}

func TestCanonicalIDDistinctForDifferentLanguage(t *testing.T) {
	a := CanonicalID("cat", "en", "a small domesticated feline")
	b := CanonicalID("cat", "fr", "a small domesticated feline")
	if a == b {
		t.Fatal("different languages produced the same id")
	}
}

func TestCanonicalIDDistinctForDifferentDefinition(t *testing.T) {
	a := CanonicalID("cat", "en", "a small domesticated feline")
	b := CanonicalID("cat", "en", "a domesticated feline, family Felidae")
	if a == b {
		t.Fatal("different definitions produced the same id")
	}
}

func TestCanonicalIDPrefix(t *testing.T) {
	id := CanonicalID("cat", "en", "a small domesticated feline")
	if len(id) != len("entry_")+idHexLen {
		t.Fatalf("unexpected id length: %q", id)
	}
	if id[:6] != "entry_" {
		t.Fatalf("id missing entry_ prefix: %q", id)
	}
}

func TestChecksumDeterministic(t *testing.T) {
	payload := []byte(`{"headword":"cat","language":"en"}`)
	a := Checksum(payload)
	b := Checksum(payload)
	if a != b {
		t.Fatalf("same payload produced different checksums: %q vs %q", a, b)
	}
}

func TestChecksumDistinctForDifferentPayload(t *testing.T) {
	a := Checksum([]byte(`{"headword":"cat"}`))
	b := Checksum([]byte(`{"headword":"dog"}`))
	if a == b {
		t.Fatal("different payloads produced the same checksum")
	}
}
