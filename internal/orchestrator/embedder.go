package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/lexigraph/lexigraph/internal/domain"
)

// runEmbedder embeds and concept-assigns each batch of cleaned records.
// Sentinels are tallied against a shared counter rather than causing an
// immediate return: once the counter reaches total (every cleaner has
// finished), the shared input channel is closed so every embedder — not
// just the one that observed the Nth sentinel — drains and exits via its
// own range loop.
func (o *Orchestrator) runEmbedder(
	ctx context.Context,
	id int,
	in chan cleanedBatch,
	out chan<- writeBatch,
	sentinelsSeen *atomic.Int64,
	total int64,
	closeOnce *sync.Once,
) {
	metrics.activeStage.WithLabelValues("embedder").Inc()
	defer metrics.activeStage.WithLabelValues("embedder").Dec()

	for batch := range in {
		if len(batch.steps) > 0 {
			if err := o.deps.Writer.LogTransformSteps(ctx, batch.steps); err != nil {
				o.deps.Log.Warn("transform_log_write_failed", "error", err)
			}
		}

		if batch.sentinel {
			if sentinelsSeen.Add(1) == total {
				closeOnce.Do(func() { close(in) })
			}
			continue
		}

		if ctx.Err() != nil || o.stopFlag.Load() || len(batch.records) == 0 {
			continue
		}

		texts := make([]string, len(batch.records))
		for i, r := range batch.records {
			texts[i] = r.Definition
		}

		o.accelMu.Lock()
		vectors, err := o.deps.Embedder.EmbedBatch(ctx, texts)
		o.accelMu.Unlock()
		if err != nil {
			o.deps.Log.Error("embedding_failed", "error", err, "batch_size", len(texts))
			o.fail(err)
			continue
		}

		assignments := o.deps.Assigner.AssignBatch(vectors)

		written := make([]domain.CanonicalRecord, len(batch.records))
		for i, r := range batch.records {
			r.Embedding = vectors[i]
			r.ConceptID = assignments[i].ConceptID
			r.DataQuality = assignments[i].Confidence
			written[i] = r
		}

		o.embedded.Add(int64(len(written)))
		metrics.embedded.Add(float64(len(written)))
		out <- writeBatch{records: written}
	}
}
