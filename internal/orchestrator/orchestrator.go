// Package orchestrator wires the Raw Staging Store, Cleaning Pipeline,
// Quality Gate, Embedding Engine, Concept Assigner, and Bulk Writer into
// a queue-coupled concurrent pipeline: a Reader feeding N Cleaners,
// feeding M Embedders, feeding K Writers, with sentinel-based
// termination and a 10-second progress monitor.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lexigraph/lexigraph/internal/clean"
	"github.com/lexigraph/lexigraph/internal/concept"
	"github.com/lexigraph/lexigraph/internal/embedding"
	"github.com/lexigraph/lexigraph/internal/quality"
	"github.com/lexigraph/lexigraph/internal/stage"
)

// Deps are the orchestrator's external collaborators.
type Deps struct {
	RawStore *stage.RawStore
	Writer   *stage.BulkWriter
	Cleaners clean.Factory
	Gate     quality.Gate
	Embedder *embedding.Engine
	Assigner *concept.Assigner
	Log      *slog.Logger
}

// Options configures one pipeline run.
type Options struct {
	SourceID     string
	ResumeAfter  int64
	FetchBatch   int
	WriteBatch   int
	NumCleaners  int
	NumEmbedders int
	NumWriters   int
	ProgressTick time.Duration
}

// DefaultOptions is the pipeline's recommended stage topology and batch
// sizing, tuned for a single accelerator and a single Postgres pool.
// NumEmbedders defaults to 1: one accelerator call in flight at a time.
// Raising it fans out concept assignment and transform-log writes across
// more goroutines, but each Embedder.EmbedBatch call, cache round trips
// included, stays serialized (see accelMu and runEmbedder).
func DefaultOptions() Options {
	return Options{
		FetchBatch:   5000,
		WriteBatch:   10000,
		NumCleaners:  4,
		NumEmbedders: 1,
		NumWriters:   2,
		ProgressTick: 10 * time.Second,
	}
}

// Stats is the final summary returned by Run, matching
// accelerated_process.py's end-of-run report.
type Stats struct {
	RawRead         int64
	Cleaned         int64
	Rejected        int64
	Embedded        int64
	Written         int64
	LastResumeAfter int64
	Duration        time.Duration
}

// Orchestrator runs one pipeline pass over the raw staging store.
type Orchestrator struct {
	deps Deps
	opts Options

	rawRead     atomic.Int64
	cleaned     atomic.Int64
	rejected    atomic.Int64
	embedded    atomic.Int64
	written     atomic.Int64
	resumeAfter atomic.Int64

	stopFlag atomic.Bool
	errOnce  sync.Once
	firstErr error

	// accelMu serializes accelerator calls across embedder workers when
	// NumEmbedders > 1, since the Embedding Engine wraps a single shared
	// device with no internal locking of its own.
	accelMu sync.Mutex
}

// New constructs an Orchestrator. Zero-valued fields in opts fall back to
// DefaultOptions.
func New(deps Deps, opts Options) *Orchestrator {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	def := DefaultOptions()
	if opts.FetchBatch <= 0 {
		opts.FetchBatch = def.FetchBatch
	}
	if opts.WriteBatch <= 0 {
		opts.WriteBatch = def.WriteBatch
	}
	if opts.NumCleaners <= 0 {
		opts.NumCleaners = def.NumCleaners
	}
	if opts.NumEmbedders <= 0 {
		opts.NumEmbedders = def.NumEmbedders
	}
	if opts.NumWriters <= 0 {
		opts.NumWriters = def.NumWriters
	}
	if opts.ProgressTick <= 0 {
		opts.ProgressTick = def.ProgressTick
	}
	metrics.init()
	return &Orchestrator{deps: deps, opts: opts}
}

// Run drives the full Reader -> Cleaner(N) -> Embedder(M) -> Writer(K)
// topology to completion (or to the first fatal error).
//
// Termination is precise: the reader emits N sentinel
// batches once the raw table is exhausted (one per cleaner); each cleaner
// forwards exactly one sentinel of its own once it has seen the reader's;
// the embedder pool shares an atomic counter of sentinels it has drained,
// and once that counter reaches N the cleaner->embedder channel is safe
// to close (all cleaner producers are done); the orchestrator waits for
// every embedder to exit and then emits K sentinels — one per writer —
// which each writer treats as "flush remaining buffer, then stop".
func (o *Orchestrator) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rawCh := make(chan rawBatch, o.opts.NumCleaners*2)
	cleanCh := make(chan cleanedBatch, o.opts.NumCleaners*2)
	writeCh := make(chan writeBatch, o.opts.NumWriters*2)

	var g errgroup.Group

	g.Go(func() error {
		o.runReader(ctx, rawCh)
		return nil
	})

	for i := 0; i < o.opts.NumCleaners; i++ {
		id := i
		g.Go(func() error {
			o.runCleaner(ctx, id, rawCh, cleanCh)
			return nil
		})
	}

	var sentinelsSeen atomic.Int64
	var closeCleanChOnce sync.Once

	var embedderWG sync.WaitGroup
	embedderWG.Add(o.opts.NumEmbedders)
	for i := 0; i < o.opts.NumEmbedders; i++ {
		id := i
		g.Go(func() error {
			defer embedderWG.Done()
			o.runEmbedder(ctx, id, cleanCh, writeCh, &sentinelsSeen, int64(o.opts.NumCleaners), &closeCleanChOnce)
			return nil
		})
	}

	g.Go(func() error {
		embedderWG.Wait()
		for i := 0; i < o.opts.NumWriters; i++ {
			writeCh <- writeBatch{sentinel: true}
		}
		return nil
	})

	for i := 0; i < o.opts.NumWriters; i++ {
		id := i
		g.Go(func() error {
			o.runWriter(ctx, id, writeCh)
			return nil
		})
	}

	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		o.runMonitor(ctx, o.opts.ProgressTick)
	}()

	_ = g.Wait()
	cancel()
	<-monitorDone

	stats := Stats{
		RawRead:         o.rawRead.Load(),
		Cleaned:         o.cleaned.Load(),
		Rejected:        o.rejected.Load(),
		Embedded:        o.embedded.Load(),
		Written:         o.written.Load(),
		LastResumeAfter: o.resumeAfter.Load(),
		Duration:        time.Since(start),
	}

	if o.firstErr != nil {
		return stats, fmt.Errorf("orchestrator: %w", o.firstErr)
	}
	return stats, nil
}

// fail records the first fatal error seen by any stage and cancels
// further scanning. In-flight batches still drain through the sentinel
// protocol so no goroutine is left blocked.
func (o *Orchestrator) fail(err error) {
	o.errOnce.Do(func() {
		o.firstErr = err
		o.stopFlag.Store(true)
		metrics.errors.Inc()
	})
}
