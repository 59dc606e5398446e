// Package catalog loads and registers the data source catalog: the set
// of lexical data sources known to the pipeline, along with their
// metadata and registration state.
package catalog

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pelletier/go-toml/v2"

	"github.com/lexigraph/lexigraph/internal/domain"
	"github.com/lexigraph/lexigraph/pkg/repo"
)

type tomlCatalog struct {
	Source []tomlSource `toml:"source"`
}

type tomlSource struct {
	ID        string   `toml:"id"`
	Name      string   `toml:"name"`
	Type      string   `toml:"type"`
	Format    string   `toml:"format"`
	URL       string   `toml:"url"`
	Languages []string `toml:"languages"`
	License   string   `toml:"license"`
	Quality   string   `toml:"quality"`
	Version   string   `toml:"version"`
}

// Load parses a source catalog TOML file into domain.Source values.
// retrieved_at is stamped with now for every entry, matching
// load_source_catalog's behavior of timestamping at load time rather
// than reading it from the file.
func Load(path string, now time.Time) ([]domain.Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	var cat tomlCatalog
	if err := toml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}

	sources := make([]domain.Source, len(cat.Source))
	for i, s := range cat.Source {
		sources[i] = domain.Source{
			ID:          s.ID,
			Name:        s.Name,
			Type:        s.Type,
			Format:      s.Format,
			URL:         s.URL,
			Languages:   s.Languages,
			License:     s.License,
			Quality:     s.Quality,
			Version:     s.Version,
			RetrievedAt: now,
		}
	}
	return sources, nil
}

// Store persists the source catalog in Postgres. It implements
// repo.Repository[domain.Source, string] so callers that only need
// generic CRUD semantics (e.g. an admin surface, should one ever be
// built) can depend on the interface rather than this concrete type.
type Store struct {
	pool *pgxpool.Pool
}

var _ repo.Repository[domain.Source, string] = (*Store)(nil)

// NewStore wraps a pgx connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Register upserts a source: name, version, and retrieved_at refresh on
// conflict; everything else is fixed at first registration.
func (s *Store) Register(ctx context.Context, src domain.Source) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO data_sources (
			id, name, source_type, format, url, languages,
			license, quality, version, retrieved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			version = EXCLUDED.version,
			retrieved_at = EXCLUDED.retrieved_at
	`, src.ID, src.Name, src.Type, src.Format, src.URL, src.Languages,
		src.License, src.Quality, src.Version, src.RetrievedAt)
	if err != nil {
		return fmt.Errorf("catalog: register source %s: %w", src.ID, err)
	}
	return nil
}

// Get implements repo.Repository.
func (s *Store) Get(ctx context.Context, id string) (domain.Source, error) {
	var src domain.Source
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, source_type, format, url, languages, license, quality, version, retrieved_at
		FROM data_sources WHERE id = $1
	`, id).Scan(&src.ID, &src.Name, &src.Type, &src.Format, &src.URL, &src.Languages,
		&src.License, &src.Quality, &src.Version, &src.RetrievedAt)
	if err != nil {
		return domain.Source{}, fmt.Errorf("catalog: get source %s: %w", id, err)
	}
	return src, nil
}

// List implements repo.Repository.
func (s *Store) List(ctx context.Context, opts repo.ListOpts) ([]domain.Source, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, source_type, format, url, languages, license, quality, version, retrieved_at
		FROM data_sources ORDER BY id LIMIT $1 OFFSET $2
	`, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("catalog: list sources: %w", err)
	}
	defer rows.Close()

	var out []domain.Source
	for rows.Next() {
		var src domain.Source
		if err := rows.Scan(&src.ID, &src.Name, &src.Type, &src.Format, &src.URL, &src.Languages,
			&src.License, &src.Quality, &src.Version, &src.RetrievedAt); err != nil {
			return nil, fmt.Errorf("catalog: scan source row: %w", err)
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

// Create implements repo.Repository by delegating to Register.
func (s *Store) Create(ctx context.Context, entity domain.Source) (domain.Source, error) {
	if err := s.Register(ctx, entity); err != nil {
		return domain.Source{}, err
	}
	return entity, nil
}

// Update implements repo.Repository by delegating to Register, since
// registration is already an upsert.
func (s *Store) Update(ctx context.Context, entity domain.Source) (domain.Source, error) {
	if err := s.Register(ctx, entity); err != nil {
		return domain.Source{}, err
	}
	return entity, nil
}

// Delete implements repo.Repository.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM data_sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("catalog: delete source %s: %w", id, err)
	}
	return nil
}
