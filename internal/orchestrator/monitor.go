package orchestrator

import (
	"context"
	"time"
)

// runMonitor logs pipeline throughput on a fixed tick, matching spec
// §4.7's 10-second progress reporting.
func (o *Orchestrator) runMonitor(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.deps.Log.Info("pipeline_progress",
				"raw_read", o.rawRead.Load(),
				"cleaned", o.cleaned.Load(),
				"rejected", o.rejected.Load(),
				"embedded", o.embedded.Load(),
				"written", o.written.Load(),
				"resume_after", o.resumeAfter.Load(),
			)
		}
	}
}
