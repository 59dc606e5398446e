package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/lexigraph/lexigraph/internal/domain"
	"github.com/lexigraph/lexigraph/pkg/fn"
	"github.com/lexigraph/lexigraph/pkg/resilience"
)

// DefaultSubBatchSize matches the original's GPU batch size.
const DefaultSubBatchSize = 512

// Engine batches text through a Client, consulting a Cache first, and
// implements a single-halving out-of-memory fallback: a failed batch
// fails the whole stage — there is no per-item CPU fallback.
type Engine struct {
	client  Client
	cache   Cache
	cacheTTL time.Duration
	log     *slog.Logger
	breaker *resilience.Breaker

	subBatchSize atomic.Int64
	hits         atomic.Int64
	misses       atomic.Int64
	writes       atomic.Int64
}

// acceleratorBreakerOpts trips after 3 consecutive accelerator failures
// (OOM or otherwise) and probes again after 30s, so a persistently wedged
// GPU fails the stage fast instead of every batch paying the full call
// latency while it is down.
var acceleratorBreakerOpts = resilience.BreakerOpts{
	FailThreshold: 3,
	Timeout:       30 * time.Second,
	HalfOpenMax:   1,
}

// NewEngine constructs an Engine. cache may be nil, in which case every
// lookup is a miss and the pipeline proceeds without acceleration from
// the cache.
func NewEngine(client Client, cache Cache, subBatchSize int, log *slog.Logger) *Engine {
	if subBatchSize <= 0 {
		subBatchSize = DefaultSubBatchSize
	}
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		client:  client,
		cache:   cache,
		cacheTTL: DefaultCacheTTL,
		log:     log,
		breaker: resilience.NewBreaker(acceleratorBreakerOpts),
	}
	e.subBatchSize.Store(int64(subBatchSize))
	return e
}

// Stats reports cumulative cache hit/miss/write counters.
type Stats struct {
	Hits   int64
	Misses int64
	Writes int64
}

func (e *Engine) Stats() Stats {
	return Stats{Hits: e.hits.Load(), Misses: e.misses.Load(), Writes: e.writes.Load()}
}

// EmbedBatch returns one L2-normalized vector of length Dim per input
// text, preserving order. Cache hits skip the accelerator entirely.
func (e *Engine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	result := make([][]float32, len(texts))
	missingIdx := make([]int, 0, len(texts))

	if e.cache != nil {
		vectors, missing, err := e.cache.GetMany(ctx, texts)
		if err != nil {
			// Transient cache error: log and bypass.
			e.log.Warn("embedding_cache_bypass", "error", err)
			for i := range texts {
				missingIdx = append(missingIdx, i)
			}
		} else {
			missingSet := make(map[int]struct{}, len(missing))
			for _, i := range missing {
				missingSet[i] = struct{}{}
			}
			for i, v := range vectors {
				if _, miss := missingSet[i]; miss || v == nil {
					missingIdx = append(missingIdx, i)
					continue
				}
				result[i] = v
			}
		}
	} else {
		for i := range texts {
			missingIdx = append(missingIdx, i)
		}
	}

	e.hits.Add(int64(len(texts) - len(missingIdx)))
	e.misses.Add(int64(len(missingIdx)))

	if len(missingIdx) == 0 {
		return result, nil
	}

	missingTexts := make([]string, len(missingIdx))
	for i, idx := range missingIdx {
		missingTexts[i] = texts[idx]
	}

	computed, err := e.computeMissing(ctx, missingTexts)
	if err != nil {
		return nil, err
	}

	for i, idx := range missingIdx {
		result[idx] = computed[i]
	}

	if e.cache != nil {
		if err := e.cache.SetMany(ctx, missingTexts, computed, e.cacheTTL); err != nil {
			e.log.Warn("embedding_cache_write_failed", "error", err)
		} else {
			e.writes.Add(int64(len(missingTexts)))
		}
	}

	return result, nil
}

// computeMissing sub-batches texts against the accelerator, applying the
// single-halving OOM fallback per sub-batch.
func (e *Engine) computeMissing(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	size := int(e.subBatchSize.Load())
	for _, chunk := range fn.Chunk(texts, size) {
		vecs, err := e.embedChunkWithFallback(ctx, chunk)
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *Engine) embedChunkWithFallback(ctx context.Context, chunk []string) ([][]float32, error) {
	vecs, err := e.callAccelerator(ctx, chunk)
	if err == nil {
		return normalizeAll(vecs), nil
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, fmt.Errorf("embedding: accelerator circuit open: %w", err)
	}
	if !errors.Is(err, domain.ErrEmbeddingOOM) {
		return nil, err
	}

	oldSize := int(e.subBatchSize.Load())
	newSize := oldSize / 2
	if newSize < 1 {
		newSize = 1
	}
	e.subBatchSize.Store(int64(newSize))
	e.log.Warn("gpu_oom_fallback", "original_batch", oldSize, "fallback_batch", newSize)

	out := make([][]float32, 0, len(chunk))
	for _, sub := range fn.Chunk(chunk, newSize) {
		retried, err2 := e.callAccelerator(ctx, sub)
		if err2 != nil {
			return nil, &domain.EmbeddingError{BatchSize: newSize, Count: len(chunk), Wrapped: err2}
		}
		out = append(out, normalizeAll(retried)...)
	}
	return out, nil
}

// callAccelerator issues one EmbedBatch call through the circuit breaker,
// so a persistently failing accelerator trips open and fails fast rather
// than every sub-batch eating the full call latency.
func (e *Engine) callAccelerator(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	err := e.breaker.Call(ctx, func(ctx context.Context) error {
		v, err := e.client.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		vecs = v
		return nil
	})
	return vecs, err
}

// normalizeAll defensively L2-normalizes every vector so the engine
// guarantees unit-norm output regardless of the client's own
// normalization behavior.
func normalizeAll(vecs [][]float32) [][]float32 {
	for _, v := range vecs {
		normalizeInPlace(v)
	}
	return vecs
}

func normalizeInPlace(v []float32) {
	var sumSq float64
	for _, f := range v {
		sumSq += float64(f) * float64(f)
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i, f := range v {
		v[i] = float32(float64(f) / norm)
	}
}
