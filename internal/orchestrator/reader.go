package orchestrator

import "context"

// runReader pages through the raw staging store from resumeAfter until
// exhausted, then emits one sentinel per cleaner.
func (o *Orchestrator) runReader(ctx context.Context, out chan<- rawBatch) {
	metrics.activeStage.WithLabelValues("reader").Inc()
	defer metrics.activeStage.WithLabelValues("reader").Dec()

	resumeAfter := o.opts.ResumeAfter
	for {
		if ctx.Err() != nil || o.stopFlag.Load() {
			break
		}

		page, err := o.deps.RawStore.ScanPage(ctx, o.opts.SourceID, resumeAfter, o.opts.FetchBatch)
		if err != nil {
			o.deps.Log.Error("reader_scan_failed", "error", err, "resume_after", resumeAfter)
			o.fail(err)
			break
		}
		if len(page.Records) == 0 {
			break
		}

		out <- rawBatch{records: page.Records}
		o.rawRead.Add(int64(len(page.Records)))
		resumeAfter = page.ResumeAfter
		o.resumeAfter.Store(resumeAfter)
	}

	for i := 0; i < o.opts.NumCleaners; i++ {
		out <- rawBatch{sentinel: true}
	}
}
