package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline's error taxonomy.
var (
	ErrCleanerValidation  = errors.New("cleaner validation failed")
	ErrQualityRejected    = errors.New("quality gate rejected record")
	ErrEmbeddingOOM        = errors.New("embedding accelerator out of memory")
	ErrConceptCatalogEmpty = errors.New("concept catalog is empty")
	ErrStageFailed         = errors.New("pipeline stage failed")
)

// ValidationError wraps a sentinel with the field and value that failed.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError constructs a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}

// EmbeddingError names the batch that failed accelerator-side.
type EmbeddingError struct {
	BatchSize int
	Count     int
	Wrapped   error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding: batch_size=%d count=%d: %s", e.BatchSize, e.Count, e.Wrapped)
}

func (e *EmbeddingError) Unwrap() error { return e.Wrapped }

// StageError records which pipeline stage/worker failed and why. The
// orchestrator does not construct it: its shared error cell stores the
// first worker error as the worker returned it, unwrapped.
type StageError struct {
	Stage    string
	WorkerID int
	Wrapped  error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s worker %d: %s", e.Stage, e.WorkerID, e.Wrapped)
}

func (e *StageError) Unwrap() error { return e.Wrapped }

// NewStageError constructs a StageError.
func NewStageError(stage string, workerID int, wrapped error) *StageError {
	return &StageError{Stage: stage, WorkerID: workerID, Wrapped: wrapped}
}
