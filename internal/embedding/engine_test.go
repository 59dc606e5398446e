package embedding

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/lexigraph/lexigraph/internal/domain"
)

// fakeClient returns a fixed vector per text, optionally failing with OOM
// once per batch size threshold to exercise the halving fallback.
type fakeClient struct {
	calls      int
	failAbove  int // batches larger than this OOM once
	oomTripped bool
	vecLen     int
}

func (f *fakeClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.failAbove > 0 && len(texts) > f.failAbove && !f.oomTripped {
		f.oomTripped = true
		return nil, domain.ErrEmbeddingOOM
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, f.vecLen)
		v[0] = float32(len(texts[i]) + 1) // deterministic, non-zero
		out[i] = v
	}
	return out, nil
}

type fakeCache struct {
	store map[string][]float32
	sets  int
}

func newFakeCache() *fakeCache { return &fakeCache{store: make(map[string][]float32)} }

func (c *fakeCache) GetMany(ctx context.Context, texts []string) ([][]float32, []int, error) {
	out := make([][]float32, len(texts))
	var missing []int
	for i, t := range texts {
		if v, ok := c.store[t]; ok {
			out[i] = v
		} else {
			missing = append(missing, i)
		}
	}
	return out, missing, nil
}

func (c *fakeCache) SetMany(ctx context.Context, texts []string, vectors [][]float32, ttl time.Duration) error {
	c.sets++
	for i, t := range texts {
		if vectors[i] != nil {
			c.store[t] = vectors[i]
		}
	}
	return nil
}

func TestEngineEmbedBatchNormalizesOutput(t *testing.T) {
	e := NewEngine(&fakeClient{vecLen: 4}, nil, 0, nil)
	vecs, err := e.EmbedBatch(context.Background(), []string{"hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sumSq float64
	for _, f := range vecs[0] {
		sumSq += float64(f) * float64(f)
	}
	if math.Abs(sumSq-1.0) > 1e-6 {
		t.Fatalf("expected an L2-normalized vector (sum of squares = 1), got %f", sumSq)
	}
}

func TestEngineEmbedBatchEmptyInput(t *testing.T) {
	e := NewEngine(&fakeClient{vecLen: 4}, nil, 0, nil)
	vecs, err := e.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs) != 0 {
		t.Fatalf("want empty result for empty input, got %d", len(vecs))
	}
}

func TestEngineUsesCacheBeforeClient(t *testing.T) {
	cache := newFakeCache()
	cache.store["cached"] = []float32{1, 0, 0, 0}
	client := &fakeClient{vecLen: 4}
	e := NewEngine(client, cache, 0, nil)

	_, err := e.EmbedBatch(context.Background(), []string{"cached"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.calls != 0 {
		t.Fatalf("expected client not to be called for a cache hit, calls=%d", client.calls)
	}
	stats := e.Stats()
	if stats.Hits != 1 || stats.Misses != 0 {
		t.Fatalf("want 1 hit and 0 misses, got %+v", stats)
	}
}

func TestEngineWritesBackMissesToCache(t *testing.T) {
	cache := newFakeCache()
	client := &fakeClient{vecLen: 4}
	e := NewEngine(client, cache, 0, nil)

	_, err := e.EmbedBatch(context.Background(), []string{"new text"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("want 1 cache write, got %d", cache.sets)
	}
	if _, ok := cache.store["new text"]; !ok {
		t.Fatal("expected the computed vector to be written back to the cache")
	}
}

func TestEngineOOMFallbackHalvesBatchAndRetries(t *testing.T) {
	client := &fakeClient{vecLen: 4, failAbove: 2}
	e := NewEngine(client, nil, 4, nil)

	texts := []string{"a", "b", "c", "d"}
	vecs, err := e.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("expected the halving fallback to recover, got error: %v", err)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("want %d vectors, got %d", len(texts), len(vecs))
	}
	for i, v := range vecs {
		if v == nil {
			t.Fatalf("missing vector at index %d after OOM fallback", i)
		}
	}
}

func TestEngineNonOOMErrorPropagates(t *testing.T) {
	client := &failingClient{err: errors.New("boom")}
	e := NewEngine(client, nil, 0, nil)
	_, err := e.EmbedBatch(context.Background(), []string{"a"})
	if err == nil {
		t.Fatal("expected a non-OOM client error to propagate")
	}
}

type failingClient struct{ err error }

func (f *failingClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, f.err
}
