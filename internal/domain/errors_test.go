package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidationErrorUnwrapsToSentinel(t *testing.T) {
	err := NewValidationError("ipa", "[bad", ErrCleanerValidation)
	if !errors.Is(err, ErrCleanerValidation) {
		t.Fatal("expected errors.Is to find the wrapped sentinel")
	}
}

func TestValidationErrorMessageIncludesFieldAndValue(t *testing.T) {
	err := NewValidationError("headword", "xyz", ErrCleanerValidation)
	msg := err.Error()
	if !errors.Is(err, ErrCleanerValidation) {
		t.Fatal("expected the sentinel to still be reachable via errors.Is")
	}
	if !strings.Contains(msg, "headword") || !strings.Contains(msg, "xyz") {
		t.Fatalf("expected the message to name the field and value, got %q", msg)
	}
}

func TestStageErrorUnwrapsToWrapped(t *testing.T) {
	inner := errors.New("boom")
	err := NewStageError("embedder", 2, inner)
	if !errors.Is(err, inner) {
		t.Fatal("expected errors.Is to find the wrapped inner error")
	}
}

func TestEmbeddingErrorUnwrapsToWrapped(t *testing.T) {
	inner := errors.New("oom")
	err := &EmbeddingError{BatchSize: 256, Count: 10, Wrapped: inner}
	if !errors.Is(err, inner) {
		t.Fatal("expected errors.Is to find the wrapped inner error")
	}
}
