// Package domain defines the core record types that flow through the
// ingestion pipeline: raw staged documents, cleaned canonical records,
// their provenance trail, and the concept catalog consulted during
// assignment.
package domain

import "time"

// RawRecord is an immutable, content-addressed source document as loaded
// by a source-specific reader. It is never mutated after insertion.
type RawRecord struct {
	ID         int64          `json:"id"`
	SourceID   string         `json:"source_id"`
	Payload    map[string]any `json:"payload"`
	Checksum   string         `json:"checksum"`
	FilePath   string         `json:"file_path,omitempty"`
	LineNumber int            `json:"line_number,omitempty"`
}

// CanonicalRecord is the cleaned, validated, embedded, concept-assigned
// product of the pipeline. Its ID is a deterministic function of
// (Headword, Language, Definition) after cleaning — see
// internal/domain.CanonicalID.
type CanonicalRecord struct {
	ID           string    `json:"id"`
	Headword     string    `json:"headword"`
	IPA          string    `json:"ipa,omitempty"`
	Language     string    `json:"language"`
	Definition   string    `json:"definition"`
	Etymology    string    `json:"etymology,omitempty"`
	POSTag       string    `json:"pos_tag,omitempty"`
	Embedding    []float32 `json:"embedding,omitempty"`
	ConceptID    string    `json:"concept_id,omitempty"`
	DataQuality  float64   `json:"data_quality"`
	RawRecordID  int64     `json:"raw_record_id"`
	PipelineSig  string    `json:"pipeline_version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TransformStep records one cleaner application for provenance.
type TransformStep struct {
	RawRecordID  int64         `json:"raw_entry_id"`
	StepName     string        `json:"step_name"`
	StepVersion  string        `json:"step_version"`
	Parameters   string        `json:"parameters,omitempty"`
	ExecutedAt   time.Time     `json:"executed_at"`
	DurationMS   int64         `json:"duration_ms"`
	Success      bool          `json:"success"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// Concept is a single entry of the precomputed concept catalog fed to the
// assigner: a unit-normalized centroid plus bookkeeping fields.
type Concept struct {
	ID     string    `json:"id"`
	Label  string    `json:"label,omitempty"`
	Size   int       `json:"size"`
	Vector []float32 `json:"centroid"`
}

// UnassignedConceptID is the sentinel concept id returned by the assigner
// when the catalog is empty.
const UnassignedConceptID = "unassigned"

// Source describes one entry of the read-only sources catalog.
type Source struct {
	ID          string    `toml:"id" json:"id"`
	Name        string    `toml:"name" json:"name"`
	Type        string    `toml:"type" json:"type"`
	Format      string    `toml:"format" json:"format"`
	URL         string    `toml:"url" json:"url"`
	Languages   []string  `toml:"languages" json:"languages"`
	License     string    `toml:"license" json:"license"`
	Quality     string    `toml:"quality" json:"quality"`
	Version     string    `toml:"version" json:"version"`
	RetrievedAt time.Time `toml:"-" json:"retrieved_at"`
}
