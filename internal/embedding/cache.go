package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL is the embedding cache's entry lifetime: 7 days.
const DefaultCacheTTL = 7 * 24 * time.Hour

// Cache is the pipelined key-value embedding cache contract: GetMany and
// SetMany, both single-round-trip. A missing or unavailable cache must
// degrade gracefully rather than fail the pipeline.
type Cache interface {
	// GetMany looks up all keys in one pipelined round-trip. The returned
	// slice has one entry per key (nil for a miss) and missing holds the
	// indices that missed.
	GetMany(ctx context.Context, texts []string) (vectors [][]float32, missing []int, err error)
	SetMany(ctx context.Context, texts []string, vectors [][]float32, ttl time.Duration) error
}

// cacheKey derives the stable hash key, "emb:<hash>".
func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + hex.EncodeToString(sum[:16])
}

// RedisCache implements Cache against a shared go-redis client, using
// pipelined Redis commands for both directions.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache constructs a RedisCache. ttl of 0 uses DefaultCacheTTL.
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) GetMany(ctx context.Context, texts []string) ([][]float32, []int, error) {
	if len(texts) == 0 {
		return nil, nil, nil
	}
	pipe := c.rdb.Pipeline()
	cmds := make([]*redis.StringCmd, len(texts))
	for i, t := range texts {
		cmds[i] = pipe.Get(ctx, cacheKey(t))
	}
	// Errors are surfaced per-command (redis.Nil on miss); Exec's own
	// error is ignored so a handful of misses don't fail the round-trip.
	_, _ = pipe.Exec(ctx)

	vectors := make([][]float32, len(texts))
	var missing []int
	for i, cmd := range cmds {
		raw, err := cmd.Result()
		if err != nil {
			missing = append(missing, i)
			continue
		}
		vec, decodeErr := decodeVector(raw)
		if decodeErr != nil {
			missing = append(missing, i)
			continue
		}
		vectors[i] = vec
	}
	return vectors, missing, nil
}

func (c *RedisCache) SetMany(ctx context.Context, texts []string, vectors [][]float32, ttl time.Duration) error {
	if len(texts) == 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	pipe := c.rdb.Pipeline()
	for i, t := range texts {
		if vectors[i] == nil {
			continue
		}
		pipe.Set(ctx, cacheKey(t), encodeVector(vectors[i]), ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// encodeVector/decodeVector use a compact fixed-width binary encoding
// (4 bytes per float32) rather than a text vector literal, since the
// cache's wire format is internal to this service, not a database column.
func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.BigEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(raw string) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, errInvalidCacheEncoding
	}
	out := make([]float32, len(raw)/4)
	b := []byte(raw)
	for i := range out {
		out[i] = math.Float32frombits(binary.BigEndian.Uint32(b[i*4:]))
	}
	return out, nil
}

var errInvalidCacheEncoding = cacheEncodingError("embedding cache: invalid vector encoding")

type cacheEncodingError string

func (e cacheEncodingError) Error() string { return string(e) }
