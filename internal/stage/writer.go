package stage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/lexigraph/lexigraph/internal/domain"
	"github.com/lexigraph/lexigraph/pkg/resilience"
)

// bulkWriterLimiterOpts caps how fast this writer issues bulk operations
// against the shared pool, so concurrent writer workers can't together
// starve the pool's connections out from under the rest of the pipeline
// (reader scans, catalog registration).
var bulkWriterLimiterOpts = resilience.LimiterOpts{
	Rate:  20,
	Burst: 5,
}

// BulkWriter persists canonical records to Postgres via the COPY
// protocol: a staging table loaded with CopyFrom, then a single
// INSERT ... SELECT ... ON CONFLICT DO UPDATE folds it into the target
// table.
type BulkWriter struct {
	pool    *pgxpool.Pool
	limiter *resilience.Limiter
}

// NewBulkWriter wraps a pgx connection pool.
func NewBulkWriter(pool *pgxpool.Pool) *BulkWriter {
	return &BulkWriter{pool: pool, limiter: resilience.NewLimiter(bulkWriterLimiterOpts)}
}

// BulkUpsert loads records into an ON COMMIT DROP staging table via COPY,
// then upserts them into the records table, refreshing updated_at but
// never created_at on conflict. It returns the number of rows written.
func (w *BulkWriter) BulkUpsert(ctx context.Context, records []domain.CanonicalRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if err := w.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("stage: bulk upsert rate limit: %w", err)
	}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("stage: begin bulk upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		CREATE TEMPORARY TABLE records_staging (
			id TEXT,
			headword TEXT,
			ipa TEXT,
			language TEXT,
			definition TEXT,
			etymology TEXT,
			pos_tag TEXT,
			embedding vector(768),
			concept_id TEXT,
			data_quality DOUBLE PRECISION,
			raw_record_id BIGINT,
			pipeline_sig TEXT,
			created_at TIMESTAMPTZ
		) ON COMMIT DROP
	`)
	if err != nil {
		return 0, fmt.Errorf("stage: create staging table: %w", err)
	}

	rows := make([][]any, len(records))
	for i, r := range records {
		var vec any
		if len(r.Embedding) > 0 {
			vec = pgvector.NewVector(r.Embedding)
		}
		createdAt := r.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		rows[i] = []any{
			r.ID, r.Headword, r.IPA, r.Language, r.Definition, r.Etymology, r.POSTag,
			vec, r.ConceptID, r.DataQuality, r.RawRecordID, r.PipelineSig, createdAt,
		}
	}

	copyCount, err := tx.CopyFrom(ctx,
		pgx.Identifier{"records_staging"},
		[]string{
			"id", "headword", "ipa", "language", "definition", "etymology", "pos_tag",
			"embedding", "concept_id", "data_quality", "raw_record_id", "pipeline_sig", "created_at",
		},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("stage: copy into staging: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO records (
			id, headword, ipa, language, definition, etymology, pos_tag,
			embedding, concept_id, data_quality, raw_record_id, pipeline_sig,
			created_at, updated_at
		)
		SELECT
			id, headword, ipa, language, definition, etymology, pos_tag,
			embedding, concept_id, data_quality, raw_record_id, pipeline_sig,
			created_at, created_at
		FROM records_staging
		ON CONFLICT (id) DO UPDATE SET
			headword = EXCLUDED.headword,
			ipa = EXCLUDED.ipa,
			definition = EXCLUDED.definition,
			etymology = EXCLUDED.etymology,
			pos_tag = EXCLUDED.pos_tag,
			embedding = EXCLUDED.embedding,
			concept_id = EXCLUDED.concept_id,
			data_quality = EXCLUDED.data_quality,
			pipeline_sig = EXCLUDED.pipeline_sig,
			updated_at = now()
	`)
	if err != nil {
		return 0, fmt.Errorf("stage: upsert from staging: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("stage: commit bulk upsert: %w", err)
	}
	return int(copyCount), nil
}

// BulkUpdateEmbeddings updates only the embedding column for a batch of
// existing records, via unnest rather than one UPDATE per row.
func (w *BulkWriter) BulkUpdateEmbeddings(ctx context.Context, ids []string, embeddings [][]float32) (int, error) {
	if len(ids) == 0 || len(ids) != len(embeddings) {
		return 0, nil
	}
	if err := w.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("stage: bulk update embeddings rate limit: %w", err)
	}

	vecs := make([]pgvector.Vector, len(embeddings))
	for i, e := range embeddings {
		vecs[i] = pgvector.NewVector(e)
	}

	tag, err := w.pool.Exec(ctx, `
		UPDATE records
		SET embedding = data.embedding,
		    updated_at = now()
		FROM (
			SELECT unnest($1::text[]) AS id, unnest($2::vector(768)[]) AS embedding
		) AS data
		WHERE records.id = data.id
	`, ids, vecs)
	if err != nil {
		return 0, fmt.Errorf("stage: bulk update embeddings: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// LogTransformSteps appends one provenance row per transform step, for
// however many raw records the steps belong to (the embedder passes a
// whole cleaned batch's steps at once).
func (w *BulkWriter) LogTransformSteps(ctx context.Context, steps []domain.TransformStep) error {
	if len(steps) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, s := range steps {
		batch.Queue(`
			INSERT INTO transform_log (
				raw_record_id, step_name, step_version, parameters,
				executed_at, duration_ms, success, error_message
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, s.RawRecordID, s.StepName, s.StepVersion, s.Parameters,
			s.ExecutedAt, s.DurationMS, s.Success, s.ErrorMessage)
	}
	br := w.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range steps {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("stage: log transform step: %w", err)
		}
	}
	return nil
}
