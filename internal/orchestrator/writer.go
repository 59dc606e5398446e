package orchestrator

import (
	"context"

	"github.com/lexigraph/lexigraph/internal/clean"
	"github.com/lexigraph/lexigraph/internal/domain"
)

// runWriter accumulates records into a buffer and flushes with BulkUpsert
// once the buffer reaches WriteBatch, or immediately on its sentinel.
// Deduplication is scoped to this writer's own buffer; duplicates that
// land in two different writers' buffers are not caught here (see
// DESIGN.md).
func (o *Orchestrator) runWriter(ctx context.Context, id int, in <-chan writeBatch) {
	metrics.activeStage.WithLabelValues("writer").Inc()
	defer metrics.activeStage.WithLabelValues("writer").Dec()

	type dedupKey struct{ headword, language string }
	seen := clean.NewDuplicateDetector[dedupKey]()

	var buf []domain.CanonicalRecord
	flush := func() {
		if len(buf) == 0 {
			return
		}
		n, err := o.deps.Writer.BulkUpsert(ctx, buf)
		if err != nil {
			o.deps.Log.Error("bulk_upsert_failed", "error", err, "writer_id", id, "batch_size", len(buf))
			o.fail(err)
		} else {
			o.written.Add(int64(n))
			metrics.written.Add(float64(n))
		}
		buf = buf[:0]
		seen.Reset()
	}

	for batch := range in {
		if batch.sentinel {
			flush()
			return
		}
		for _, r := range batch.records {
			if seen.SeenOrMark(dedupKey{r.Headword, r.Language}) {
				continue
			}
			buf = append(buf, r)
		}
		if len(buf) >= o.opts.WriteBatch {
			flush()
		}
	}
}
