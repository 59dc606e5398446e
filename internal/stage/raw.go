// Package stage implements the Raw Staging Store (C1) and Bulk Writer
// (C6): the content-addressed immutable landing zone for source data, and
// the COPY-protocol bulk upsert path into the canonical records table.
package stage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexigraph/lexigraph/internal/domain"
)

// RawStore is the append-only, checksum-deduplicated landing table for
// unmodified source records.
type RawStore struct {
	pool *pgxpool.Pool
}

// NewRawStore wraps a pgx connection pool.
func NewRawStore(pool *pgxpool.Pool) *RawStore {
	return &RawStore{pool: pool}
}

// BulkAppend loads a batch of raw records into an ON COMMIT DROP staging
// table via COPY, then inserts the new ones into raw_records in a single
// statement, skipping any whose checksum already exists. It returns the
// number of rows actually inserted, so callers can report
// inserted/deduped counts for a whole batch without a round trip per
// record. The checksum column carries a unique constraint, so this is
// safe under concurrent ingestion of overlapping sources.
func (s *RawStore) BulkAppend(ctx context.Context, records []domain.RawRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("stage: begin bulk append: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		CREATE TEMPORARY TABLE raw_staging (
			source_id TEXT,
			payload JSONB,
			checksum TEXT,
			file_path TEXT,
			line_number INT
		) ON COMMIT DROP
	`)
	if err != nil {
		return 0, fmt.Errorf("stage: create staging table: %w", err)
	}

	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{r.SourceID, r.Payload, r.Checksum, r.FilePath, r.LineNumber}
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"raw_staging"},
		[]string{"source_id", "payload", "checksum", "file_path", "line_number"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("stage: copy into staging: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO raw_records (source_id, payload, checksum, file_path, line_number)
		SELECT source_id, payload, checksum, file_path, line_number
		FROM raw_staging
		ON CONFLICT (checksum) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("stage: insert from staging: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("stage: commit bulk append: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Page is one paged slice of raw records together with the cursor to
// resume after it.
type Page struct {
	Records     []domain.RawRecord
	ResumeAfter int64
}

// ScanPage returns up to limit raw records with id > resumeAfter, ordered
// by id, so callers can checkpoint and resume a full-table scan (spec
// §4.1, §4.7).
func (s *RawStore) ScanPage(ctx context.Context, sourceID string, resumeAfter int64, limit int) (Page, error) {
	var rows pgx.Rows
	var err error
	if sourceID == "" {
		rows, err = s.pool.Query(ctx,
			`SELECT id, source_id, payload, checksum, file_path, line_number
			 FROM raw_records WHERE id > $1 ORDER BY id LIMIT $2`,
			resumeAfter, limit)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT id, source_id, payload, checksum, file_path, line_number
			 FROM raw_records WHERE id > $1 AND source_id = $2 ORDER BY id LIMIT $3`,
			resumeAfter, sourceID, limit)
	}
	if err != nil {
		return Page{}, fmt.Errorf("stage: scan page: %w", err)
	}
	defer rows.Close()

	var page Page
	for rows.Next() {
		var r domain.RawRecord
		if err := rows.Scan(&r.ID, &r.SourceID, &r.Payload, &r.Checksum, &r.FilePath, &r.LineNumber); err != nil {
			return Page{}, fmt.Errorf("stage: scan raw record row: %w", err)
		}
		page.Records = append(page.Records, r)
		page.ResumeAfter = r.ID
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("stage: scan page rows: %w", err)
	}
	return page, nil
}
