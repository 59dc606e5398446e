package concept

import (
	"testing"

	"github.com/lexigraph/lexigraph/internal/domain"
)

func TestAssignBatchEmptyCatalogReturnsUnassigned(t *testing.T) {
	a := New(nil, nil)
	out := a.AssignBatch([][]float32{{1, 0, 0}, {0, 1, 0}})
	if len(out) != 2 {
		t.Fatalf("want 2 assignments, got %d", len(out))
	}
	for _, assignment := range out {
		if assignment.ConceptID != domain.UnassignedConceptID {
			t.Fatalf("want unassigned sentinel, got %q", assignment.ConceptID)
		}
		if assignment.Confidence != 1.0 {
			t.Fatalf("want confidence 1.0 for unassigned, got %f", assignment.Confidence)
		}
	}
}

func TestAssignBatchPicksNearestCentroid(t *testing.T) {
	catalog := []domain.Concept{
		{ID: "animal", Vector: []float32{1, 0, 0}},
		{ID: "plant", Vector: []float32{0, 1, 0}},
	}
	a := New(catalog, nil)
	out := a.AssignBatch([][]float32{{0.9, 0.1, 0}})
	if len(out) != 1 {
		t.Fatalf("want 1 assignment, got %d", len(out))
	}
	if out[0].ConceptID != "animal" {
		t.Fatalf("want animal, got %q", out[0].ConceptID)
	}
}

func TestAssignBatchPreservesOrder(t *testing.T) {
	catalog := []domain.Concept{
		{ID: "animal", Vector: []float32{1, 0}},
		{ID: "plant", Vector: []float32{0, 1}},
	}
	a := New(catalog, nil)
	out := a.AssignBatch([][]float32{{1, 0}, {0, 1}, {1, 0}})
	want := []string{"animal", "plant", "animal"}
	for i, w := range want {
		if out[i].ConceptID != w {
			t.Fatalf("index %d: want %q, got %q", i, w, out[i].ConceptID)
		}
	}
}

func TestAssignBatchHighConfidenceForExactMatch(t *testing.T) {
	catalog := []domain.Concept{{ID: "animal", Vector: []float32{1, 0, 0}}}
	a := New(catalog, nil)
	out := a.AssignBatch([][]float32{{1, 0, 0}})
	if out[0].Confidence < 0.99 {
		t.Fatalf("want confidence near 1.0 for an exact match, got %f", out[0].Confidence)
	}
}

func TestAssignBatchEmptyInputReturnsEmptyOutput(t *testing.T) {
	catalog := []domain.Concept{{ID: "animal", Vector: []float32{1, 0}}}
	a := New(catalog, nil)
	out := a.AssignBatch(nil)
	if len(out) != 0 {
		t.Fatalf("want 0 assignments for empty input, got %d", len(out))
	}
}
