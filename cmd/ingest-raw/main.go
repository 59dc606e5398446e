// Command ingest-raw loads source files into the raw staging store:
// "ingest-raw <source-dir> --source-id <ID> --format <fmt>". JSON and
// CSV are supported; cldf, swadesh, and starling are left for a future
// format-specific loader.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexigraph/lexigraph/internal/catalog"
	"github.com/lexigraph/lexigraph/internal/config"
	"github.com/lexigraph/lexigraph/internal/domain"
	"github.com/lexigraph/lexigraph/internal/stage"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Defaults()
	fs := flag.NewFlagSet("ingest-raw", flag.ContinueOnError)
	cfg.RegisterFlags(fs)

	var (
		sourceID    = fs.String("source-id", "", "source id from the catalog (required)")
		format      = fs.String("format", "json", "source file format: json or csv")
		catalogPath = fs.String("catalog", "", "source catalog TOML path to register before ingesting (optional)")
	)
	if err := fs.Parse(os.Args[1:]); err != nil {
		return 1
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: ingest-raw <source-dir> --source-id <ID> --format <fmt>")
		return 1
	}
	sourceDir := fs.Arg(0)

	if *sourceID == "" {
		fmt.Fprintln(os.Stderr, "ingest-raw: --source-id is required")
		return 1
	}
	switch *format {
	case "json", "csv":
	default:
		fmt.Fprintf(os.Stderr, "ingest-raw: unsupported --format %q (want json or csv)\n", *format)
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

	if *catalogPath != "" {
		sources, err := catalog.Load(*catalogPath, time.Now())
		if err != nil {
			log.Error("catalog load failed", "error", err)
			return 1
		}
		store := catalog.NewStore(pool)
		for _, src := range sources {
			if err := store.Register(ctx, src); err != nil {
				log.Error("source registration failed", "error", err, "source_id", src.ID)
				return 1
			}
			log.Info("source_registered", "source_id", src.ID, "name", src.Name)
		}
	}

	raw := stage.NewRawStore(pool)

	var read, inserted, deduped, skipped int

	entries, err := entriesFromDir(sourceDir, *format)
	if err != nil {
		log.Error("read source directory failed", "error", err, "dir", sourceDir)
		return 1
	}

	start := time.Now()
	var batch []domain.RawRecord
	for _, e := range entries {
		if ctx.Err() != nil {
			log.Warn("ingest cancelled", "read", read)
			return 130
		}
		read++

		payload, err := json.Marshal(e.Payload)
		if err != nil {
			log.Warn("payload_marshal_failed", "error", err, "file", e.FilePath, "line", e.LineNumber)
			skipped++
			continue
		}

		batch = append(batch, domain.RawRecord{
			SourceID:   *sourceID,
			Payload:    e.Payload,
			Checksum:   domain.Checksum(payload),
			FilePath:   e.FilePath,
			LineNumber: e.LineNumber,
		})

		if len(batch) >= cfg.DBFetchBatch {
			n, err := raw.BulkAppend(ctx, batch)
			if err != nil {
				log.Error("raw_bulk_append_failed", "error", err, "batch_size", len(batch))
				return 1
			}
			inserted += n
			deduped += len(batch) - n
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		n, err := raw.BulkAppend(ctx, batch)
		if err != nil {
			log.Error("raw_bulk_append_failed", "error", err, "batch_size", len(batch))
			return 1
		}
		inserted += n
		deduped += len(batch) - n
	}

	duration := time.Since(start)
	fmt.Println()
	fmt.Println("Ingestion Statistics")
	fmt.Println("--------------------")
	fmt.Printf("source_id:  %s\n", *sourceID)
	fmt.Printf("read:       %d\n", read)
	fmt.Printf("inserted:   %d\n", inserted)
	fmt.Printf("deduped:    %d\n", deduped)
	fmt.Printf("skipped:    %d\n", skipped)
	fmt.Printf("duration:   %s\n", duration.Round(time.Millisecond))
	fmt.Println()

	return 0
}

type sourceEntry struct {
	Payload    map[string]any
	FilePath   string
	LineNumber int
}

// entriesFromDir walks sourceDir for files matching format and parses
// each into raw payload maps: CSV rows become dicts keyed by header, and
// JSON files are read as a top-level array of objects.
func entriesFromDir(dir, format string) ([]sourceEntry, error) {
	var out []sourceEntry
	ext := ".json"
	if format == "csv" {
		ext = ".csv"
	}

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ext) {
			return nil
		}
		var entries []sourceEntry
		var loadErr error
		if format == "json" {
			entries, loadErr = loadJSONFile(path)
		} else {
			entries, loadErr = loadCSVFile(path)
		}
		if loadErr != nil {
			return fmt.Errorf("%s: %w", path, loadErr)
		}
		out = append(out, entries...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// loadJSONFile reads a JSON array of objects, one RawRecord payload per
// element.
func loadJSONFile(path string) ([]sourceEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []map[string]any
	if err := json.NewDecoder(f).Decode(&rows); err != nil {
		return nil, err
	}

	out := make([]sourceEntry, len(rows))
	for i, row := range rows {
		out[i] = sourceEntry{Payload: row, FilePath: path, LineNumber: i + 1}
	}
	return out, nil
}

// loadCSVFile reads a header-row CSV, one RawRecord payload per data row,
// matching SwadeshLoader's csv.DictReader usage.
func loadCSVFile(path string) ([]sourceEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}

	var out []sourceEntry
	lineNum := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		lineNum++

		payload := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(row) {
				payload[col] = row[i]
			}
		}
		out = append(out, sourceEntry{Payload: payload, FilePath: path, LineNumber: lineNum})
	}
	return out, nil
}
