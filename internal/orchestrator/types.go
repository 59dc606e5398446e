package orchestrator

import "github.com/lexigraph/lexigraph/internal/domain"

// rawBatch carries a page of raw records between the reader and the
// cleaner pool, or acts as a poison pill when sentinel is true.
type rawBatch struct {
	records  []domain.RawRecord
	sentinel bool
}

// cleanedBatch carries records that passed cleaning and the quality gate
// (embedding and concept assignment still pending), or acts as a poison
// pill signaling that one cleaner has finished.
type cleanedBatch struct {
	records  []domain.CanonicalRecord
	steps    []domain.TransformStep
	sentinel bool
}

// writeBatch carries fully assembled records ready for the bulk writer,
// or acts as a poison pill signaling that the embedder pool has drained.
type writeBatch struct {
	records  []domain.CanonicalRecord
	sentinel bool
}
