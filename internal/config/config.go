// Package config defines the pipeline's flag- and environment-driven
// settings, in the style of cmd/backfill's envOr helper and cmd/ingest's
// flag set.
package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
)

// Pipeline carries the pipeline's tunables: batch sizes for each stage,
// worker counts, and the quality threshold.
type Pipeline struct {
	DatabaseURL string
	RedisURL    string
	OllamaURL   string
	OllamaModel string
	NatsURL     string

	SourceCatalogPath string

	DBFetchBatch     int
	EmbeddingBatch   int
	DBWriteBatch     int
	NumCleaners      int
	NumEmbedders     int
	NumWriters       int
	DefinitionMinLen int

	ProgressTickInterval time.Duration
	MetricsAddr          string
}

// Defaults returns the pipeline's recommended configuration.
func Defaults() Pipeline {
	return Pipeline{
		DatabaseURL:          envOr("DATABASE_URL", "postgres://localhost:5432/lexigraph"),
		RedisURL:             envOr("REDIS_URL", "localhost:6379"),
		OllamaURL:            envOr("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:          envOr("OLLAMA_MODEL", "paraphrase-multilingual"),
		NatsURL:              envOr("NATS_URL", nats.DefaultURL),
		SourceCatalogPath:    envOr("SOURCE_CATALOG", "sources.toml"),
		DBFetchBatch:         envOrInt("DB_FETCH_BATCH", 5000),
		EmbeddingBatch:       envOrInt("EMBEDDING_BATCH", 512),
		DBWriteBatch:         envOrInt("DB_WRITE_BATCH", 10000),
		NumCleaners:          envOrInt("NUM_CLEANERS", 4),
		NumEmbedders:         envOrInt("NUM_EMBEDDERS", 1),
		NumWriters:           envOrInt("NUM_WRITERS", 2),
		DefinitionMinLen:     envOrInt("DEFINITION_MIN_LENGTH", 5),
		ProgressTickInterval: 10 * time.Second,
		MetricsAddr:          envOr("METRICS_ADDR", ":9091"),
	}
}

// RegisterFlags binds flag.FlagSet fields to p, defaulting to whatever is
// already set on p (normally the result of Defaults()). Call fs.Parse
// after this to let CLI flags override environment defaults.
func (p *Pipeline) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&p.DatabaseURL, "db", p.DatabaseURL, "Postgres connection URL")
	fs.StringVar(&p.RedisURL, "redis", p.RedisURL, "Redis address for the embedding cache")
	fs.StringVar(&p.OllamaURL, "ollama", p.OllamaURL, "Ollama base URL")
	fs.StringVar(&p.OllamaModel, "model", p.OllamaModel, "Ollama embedding model")
	fs.StringVar(&p.NatsURL, "nats", p.NatsURL, "NATS URL for the reprocess dead-letter queue")
	fs.StringVar(&p.SourceCatalogPath, "sources", p.SourceCatalogPath, "source catalog TOML path")
	fs.IntVar(&p.DBFetchBatch, "fetch-batch", p.DBFetchBatch, "raw records fetched per page")
	fs.IntVar(&p.EmbeddingBatch, "embedding-batch", p.EmbeddingBatch, "embedding sub-batch size")
	fs.IntVar(&p.DBWriteBatch, "write-batch", p.DBWriteBatch, "records flushed per writer batch")
	fs.IntVar(&p.NumCleaners, "cleaners", p.NumCleaners, "number of cleaner workers")
	fs.IntVar(&p.NumEmbedders, "embedders", p.NumEmbedders, "number of embedder workers (accelerator calls are serialized regardless)")
	fs.IntVar(&p.NumWriters, "writers", p.NumWriters, "number of writer workers")
	fs.IntVar(&p.DefinitionMinLen, "min-definition-length", p.DefinitionMinLen, "quality gate minimum definition length")
	fs.StringVar(&p.MetricsAddr, "metrics-addr", p.MetricsAddr, "address to serve Prometheus metrics on")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
