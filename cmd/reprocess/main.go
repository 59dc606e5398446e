// Command reprocess re-runs the cleaning/embedding/concept-assignment
// transform over raw rows already in the staging store: "reprocess
// [--source-id ID]". Raw data never needs re-downloading when the
// transform changes, only re-running. Source filtering always goes
// through a parameterized query (see DESIGN.md's cmd/reprocess entry).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"

	"github.com/lexigraph/lexigraph/internal/clean"
	"github.com/lexigraph/lexigraph/internal/concept"
	"github.com/lexigraph/lexigraph/internal/config"
	"github.com/lexigraph/lexigraph/internal/domain"
	"github.com/lexigraph/lexigraph/internal/embedding"
	"github.com/lexigraph/lexigraph/internal/quality"
	"github.com/lexigraph/lexigraph/internal/stage"
	"github.com/lexigraph/lexigraph/pkg/natsutil"
	"github.com/lexigraph/lexigraph/pkg/ollama"
)

// dlqSubject is where raw records whose transform fails during reprocess
// are published for operator follow-up.
const dlqSubject = "lexigraph.pipeline.dlq"

// dlqMessage is published for a raw record whose transform failed.
type dlqMessage struct {
	RawRecordID int64  `json:"raw_record_id"`
	SourceID    string `json:"source_id"`
	Error       string `json:"error"`
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Defaults()
	fs := flag.NewFlagSet("reprocess", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	sourceID := fs.String("source-id", "", "reprocess only this source (all sources if omitted)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return 1
	}

	log := slog.Default()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connect failed", "error", err)
		return 1
	}
	defer pool.Close()

	nc, err := nats.Connect(cfg.NatsURL)
	if err != nil {
		log.Warn("nats connect failed, reprocess DLQ disabled", "error", err)
		nc = nil
	} else {
		defer nc.Close()
	}

	writer := stage.NewBulkWriter(pool)
	factory := clean.Factory{}
	gate := quality.Default(cfg.DefinitionMinLen)
	engine := embedding.NewEngine(ollama.NewEmbedClient(cfg.OllamaURL, cfg.OllamaModel), nil, cfg.EmbeddingBatch, log)
	assigner := concept.New(nil, log)

	fmt.Printf("\nReprocessing source: %s\n", orAll(*sourceID))

	start := time.Now()
	var reprocessed, errored, dlqed int

	rows, err := fetchRawRecords(ctx, pool, *sourceID)
	if err != nil {
		log.Error("fetch raw records failed", "error", err)
		return 1
	}

	pipelines := factory.FullEntryPipelines()
	var batch []domain.CanonicalRecord

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if _, err := writer.BulkUpsert(ctx, batch); err != nil {
			log.Error("bulk_upsert_failed", "error", err, "batch_size", len(batch))
			errored += len(batch)
		} else {
			reprocessed += len(batch)
		}
		batch = batch[:0]
	}

	for _, raw := range rows {
		if ctx.Err() != nil {
			flush()
			fmt.Println("reprocess cancelled")
			return 130
		}

		rec, err := transformOne(ctx, raw, pipelines, gate, engine, assigner)
		if err != nil {
			log.Warn("reprocess_transform_failed", "error", err, "raw_record_id", raw.ID)
			if nc != nil {
				publishToDLQ(nc, raw, err, log)
				dlqed++
			}
			errored++
			continue
		}

		batch = append(batch, rec)
		if len(batch) >= cfg.DBWriteBatch {
			flush()
		}
	}
	flush()

	fmt.Println("\nReprocessing Statistics")
	fmt.Println("-----------------------")
	fmt.Printf("reprocessed: %d\n", reprocessed)
	fmt.Printf("errors:      %d\n", errored)
	fmt.Printf("sent to dlq: %d\n", dlqed)
	fmt.Printf("duration:    %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Println()

	if errored > 0 {
		return 1
	}
	return 0
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}

// fetchRawRecords loads every raw record, optionally restricted to one
// source, always via a bound parameter rather than string interpolation.
func fetchRawRecords(ctx context.Context, pool *pgxpool.Pool, sourceID string) ([]domain.RawRecord, error) {
	var rows pgx.Rows
	var err error
	if sourceID == "" {
		rows, err = pool.Query(ctx, `SELECT id, source_id, payload, checksum, file_path, line_number FROM raw_records ORDER BY id`)
	} else {
		rows, err = pool.Query(ctx, `SELECT id, source_id, payload, checksum, file_path, line_number FROM raw_records WHERE source_id = $1 ORDER BY id`, sourceID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RawRecord
	for rows.Next() {
		var r domain.RawRecord
		if err := rows.Scan(&r.ID, &r.SourceID, &r.Payload, &r.Checksum, &r.FilePath, &r.LineNumber); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// transformOne re-runs the field pipelines, quality gate, embedding, and
// concept assignment for a single raw record, mirroring
// reprocess_with_pipeline's per-row _transform_entry/_save_entry call.
func transformOne(
	ctx context.Context,
	raw domain.RawRecord,
	pipelines map[string]clean.Pipeline,
	gate quality.Gate,
	engine *embedding.Engine,
	assigner *concept.Assigner,
) (domain.CanonicalRecord, error) {
	get := func(key string) string {
		v, _ := raw.Payload[key].(string)
		return v
	}

	var sigParts []string
	apply := func(field, value string) (string, error) {
		p, ok := pipelines[field]
		if !ok {
			return value, nil
		}
		result, _, err := p.Apply(raw.ID, value, false)
		if err != nil {
			return "", err
		}
		sigParts = append(sigParts, p.Signature())
		return result, nil
	}

	headword, err := apply("headword", get("headword"))
	if err != nil {
		return domain.CanonicalRecord{}, err
	}
	language, err := apply("language", get("language"))
	if err != nil {
		return domain.CanonicalRecord{}, err
	}
	definition, err := apply("definition", get("definition"))
	if err != nil {
		return domain.CanonicalRecord{}, err
	}
	ipa, err := apply("ipa", get("ipa"))
	if err != nil {
		return domain.CanonicalRecord{}, err
	}

	rec := domain.CanonicalRecord{
		ID:          domain.CanonicalID(headword, language, definition),
		Headword:    headword,
		IPA:         ipa,
		Language:    language,
		Definition:  definition,
		Etymology:   get("etymology"),
		POSTag:      get("pos_tag"),
		RawRecordID: raw.ID,
		PipelineSig: strings.Join(sigParts, "_"),
		CreatedAt:   time.Now().UTC(),
	}

	if admitted, rule := gate.Admit(rec); !admitted {
		return domain.CanonicalRecord{}, fmt.Errorf("reprocess: rejected by quality gate rule %q", rule)
	}

	vectors, err := engine.EmbedBatch(ctx, []string{rec.Definition})
	if err != nil {
		return domain.CanonicalRecord{}, fmt.Errorf("reprocess: embed: %w", err)
	}
	assignment := assigner.AssignBatch(vectors)[0]

	rec.Embedding = vectors[0]
	rec.ConceptID = assignment.ConceptID
	rec.DataQuality = assignment.Confidence
	return rec, nil
}

func publishToDLQ(nc *nats.Conn, raw domain.RawRecord, transformErr error, log *slog.Logger) {
	msg := dlqMessage{
		RawRecordID: raw.ID,
		SourceID:    raw.SourceID,
		Error:       transformErr.Error(),
	}
	if err := natsutil.Publish(context.Background(), nc, dlqSubject, msg); err != nil {
		log.Error("dlq_publish_failed", "error", err, "raw_record_id", raw.ID)
	}
}
