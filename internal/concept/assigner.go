// Package concept implements the Concept Assigner: a nearest-centroid
// mapping from embedding vector to concept id and confidence, computed as
// a single dense batch matmul rather than a per-query loop over
// centroids.
package concept

import (
	"log/slog"
	"math"
	"sync"

	"github.com/lexigraph/lexigraph/internal/domain"
)

// Assignment is one (concept, confidence) result for a single input vector.
type Assignment struct {
	ConceptID  string
	Confidence float64
}

// Assigner holds a precomputed, unit-normalized concept catalog in
// memory. The catalog is assumed to fit in memory; out-of-core handling
// is out of scope.
type Assigner struct {
	ids       []string
	centroids [][]float32 // unit-normalized, K x D
	log       *slog.Logger

	warnOnce sync.Once
}

// New constructs an Assigner from a concept catalog. Centroids are
// assumed already unit-normalized by the Concept type's contract; New
// re-normalizes defensively so a non-conforming catalog doesn't silently
// corrupt cosine-distance math.
func New(catalog []domain.Concept, log *slog.Logger) *Assigner {
	if log == nil {
		log = slog.Default()
	}
	a := &Assigner{log: log}
	a.ids = make([]string, len(catalog))
	a.centroids = make([][]float32, len(catalog))
	for i, c := range catalog {
		a.ids[i] = c.ID
		a.centroids[i] = normalizedCopy(c.Vector)
	}
	return a
}

func normalizedCopy(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	var sumSq float64
	for _, f := range out {
		sumSq += float64(f) * float64(f)
	}
	if sumSq == 0 {
		return out
	}
	norm := math.Sqrt(sumSq)
	for i := range out {
		out[i] = float32(float64(out[i]) / norm)
	}
	return out
}

// AssignBatch computes concept assignments for M vectors against the K
// centroids in a single dense pass: for each vector, every centroid's dot
// product is computed once (the "M x K matmul"), rather than resolving
// one query against the catalog at a time. If the catalog is empty, every
// vector receives the sentinel "unassigned" id with confidence 1.0 and a
// warning is logged exactly once.
func (a *Assigner) AssignBatch(vectors [][]float32) []Assignment {
	if len(a.ids) == 0 {
		a.warnOnce.Do(func() {
			a.log.Warn("concept_catalog_empty", "assigned", domain.UnassignedConceptID)
		})
		out := make([]Assignment, len(vectors))
		for i := range out {
			out[i] = Assignment{ConceptID: domain.UnassignedConceptID, Confidence: 1.0}
		}
		return out
	}

	out := make([]Assignment, len(vectors))
	for i, v := range vectors {
		bestIdx := 0
		bestDot := float32(-2) // cosine similarity is in [-1, 1]; -2 is an invalid sentinel
		for k, centroid := range a.centroids {
			dot := dotProduct(v, centroid)
			// Tie-break by lower centroid index: only replace on strictly
			// greater similarity.
			if dot > bestDot {
				bestDot = dot
				bestIdx = k
			}
		}
		distance := 1 - float64(bestDot)
		out[i] = Assignment{ConceptID: a.ids[bestIdx], Confidence: 1 - distance}
	}
	return out
}

func dotProduct(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
