// Command process-pipeline runs the accelerated ingestion pipeline end to
// end: Reader -> Cleaner(N) -> Embedder(M) -> Writer(K), built around the
// sentinel-terminated goroutine topology in internal/orchestrator.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/lexigraph/lexigraph/internal/clean"
	"github.com/lexigraph/lexigraph/internal/concept"
	"github.com/lexigraph/lexigraph/internal/config"
	"github.com/lexigraph/lexigraph/internal/domain"
	"github.com/lexigraph/lexigraph/internal/embedding"
	"github.com/lexigraph/lexigraph/internal/orchestrator"
	"github.com/lexigraph/lexigraph/internal/quality"
	"github.com/lexigraph/lexigraph/internal/stage"
	"github.com/lexigraph/lexigraph/pkg/mid"
	"github.com/lexigraph/lexigraph/pkg/ollama"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Defaults()
	fs := flag.NewFlagSet("process-pipeline", flag.ContinueOnError)
	cfg.RegisterFlags(fs)

	var (
		sourceID   = fs.String("source-id", "", "process only this source (all sources if omitted)")
		resumeFrom = fs.Int64("resume-from", 0, "resume the scan after this raw record id")
	)
	if err := fs.Parse(os.Args[1:]); err != nil {
		return 1
	}

	log := slog.Default()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println()
	fmt.Println("Lexigraph Accelerated Processing Pipeline")
	fmt.Println("==========================================")

	fmt.Println("\n[1/4] Connecting to Postgres and Redis...")
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connect failed", "error", err)
		return 1
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis ping failed, proceeding without embedding cache", "error", err)
		rdb = nil
	}
	fmt.Println("  connected")

	fmt.Println("\n[2/4] Initializing embedding engine and concept assigner...")
	var cache embedding.Cache
	if rdb != nil {
		cache = embedding.NewRedisCache(rdb, 0)
	}
	embedClient := ollama.NewEmbedClient(cfg.OllamaURL, cfg.OllamaModel)
	engine := embedding.NewEngine(embedClient, cache, cfg.EmbeddingBatch, log)

	assigner := concept.New(loadConceptCatalog(), log)
	fmt.Printf("  embedding model=%s batch=%d\n", cfg.OllamaModel, cfg.EmbeddingBatch)

	fmt.Println("\n[3/4] Serving Prometheus metrics...")
	go serveMetrics(cfg.MetricsAddr, log)
	fmt.Printf("  listening on %s/metrics\n", cfg.MetricsAddr)

	fmt.Println("\n[4/4] Starting pipeline...")
	fmt.Println("------------------------------------------")

	deps := orchestrator.Deps{
		RawStore: stage.NewRawStore(pool),
		Writer:   stage.NewBulkWriter(pool),
		Cleaners: clean.Factory{DefinitionMaxLength: 0},
		Gate:     quality.Default(cfg.DefinitionMinLen),
		Embedder: engine,
		Assigner: assigner,
		Log:      log,
	}
	opts := orchestrator.Options{
		SourceID:     *sourceID,
		ResumeAfter:  *resumeFrom,
		FetchBatch:   cfg.DBFetchBatch,
		WriteBatch:   cfg.DBWriteBatch,
		NumCleaners:  cfg.NumCleaners,
		NumEmbedders: cfg.NumEmbedders,
		NumWriters:   cfg.NumWriters,
		ProgressTick: cfg.ProgressTickInterval,
	}

	stats, runErr := orchestrator.New(deps, opts).Run(ctx)

	printSummary(stats, engine.Stats())

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "pipeline failed: %v\n", runErr)
		if ctx.Err() != nil {
			return 130
		}
		return 1
	}
	return 0
}

func printSummary(stats orchestrator.Stats, cacheStats embedding.Stats) {
	fmt.Println()
	fmt.Println("Pipeline Statistics")
	fmt.Println("==========================================")
	fmt.Printf("Raw Read:   %d\n", stats.RawRead)
	fmt.Printf("Cleaned:    %d\n", stats.Cleaned)
	fmt.Printf("Rejected:   %d\n", stats.Rejected)
	fmt.Printf("Embedded:   %d\n", stats.Embedded)
	fmt.Printf("Written:    %d\n", stats.Written)
	fmt.Println()

	seconds := stats.Duration.Seconds()
	rate := 0.0
	if seconds > 0 {
		rate = float64(stats.Written) / seconds
	}
	fmt.Println("Performance")
	fmt.Printf("  Duration:      %s\n", stats.Duration.Round(time.Millisecond))
	fmt.Printf("  Rate:          %.1f records/second\n", rate)
	fmt.Printf("  Resume cursor: %d\n", stats.LastResumeAfter)

	total := cacheStats.Hits + cacheStats.Misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(cacheStats.Hits) / float64(total) * 100
	}
	fmt.Println()
	fmt.Println("Embedding Cache")
	fmt.Printf("  Hit rate: %.1f%%\n", hitRate)
	fmt.Printf("  Hits:     %d\n", cacheStats.Hits)
	fmt.Printf("  Misses:   %d\n", cacheStats.Misses)
	fmt.Printf("  Writes:   %d\n", cacheStats.Writes)
	fmt.Println("==========================================")
	fmt.Println()
}

// serveMetrics exposes /metrics and /healthz behind the standard
// recover+logging+tracing middleware chain (pkg/mid).
func serveMetrics(addr string, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	handler := mid.Chain(mux, mid.Recover(log), mid.Logger(log), mid.OTel("lexigraph-pipeline"))
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Warn("metrics server stopped", "error", err)
	}
}

// loadConceptCatalog returns the concept catalog to assign against.
// The catalog's source is an external input out of scope for this
// service; an empty catalog is a valid, supported configuration
// (every vector is assigned the "unassigned" sentinel with a one-time
// warning, see internal/concept.Assigner).
func loadConceptCatalog() []domain.Concept {
	return nil
}
