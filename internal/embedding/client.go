// Package embedding implements the Embedding Engine: a GPU-batched,
// cache-backed producer of fixed-dimension, L2-normalized vectors from
// text.
package embedding

import "context"

// Client is the embedding-service contract: given texts, return
// same-length, L2-normalized vectors of length D. A concrete
// implementation whose accelerator reports out-of-memory for a batch must
// return an error that wraps domain.ErrEmbeddingOOM so the Engine's
// halve-once fallback can recognize it.
type Client interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Dim is the fixed embedding dimensionality referred to as D. 768 matches
// the paraphrase-multilingual-mpnet model and the records table's
// vector(768) column.
const Dim = 768
