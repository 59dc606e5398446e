// Package clean implements the composable, idempotent, per-field cleaning
// pipeline that turns a raw string field into a canonical one while
// tracking provenance.
package clean

import (
	"fmt"
	"strings"
	"time"

	"github.com/lexigraph/lexigraph/internal/domain"
)

// Cleaner is a named, versioned pair of pure functions: Clean transforms a
// value, Validate checks an intermediate result. Concrete cleaners are
// struct values configured at construction time through their fields or a
// typed options record (e.g. TextNormalizerOpts) — Clean takes no per-call
// params.
type Cleaner interface {
	Name() string
	Version() string
	Clean(value string) string
	Validate(value string) bool
}

// Pipeline is an immutable ordered sequence of cleaners operating on the
// same value type. Add/Compose return new Pipelines; the zero value is a
// usable empty, non-strict pipeline.
type Pipeline struct {
	cleaners []Cleaner
	strict   bool
}

// New constructs a Pipeline from the given cleaners.
func New(strict bool, cleaners ...Cleaner) Pipeline {
	cs := make([]Cleaner, len(cleaners))
	copy(cs, cleaners)
	return Pipeline{cleaners: cs, strict: strict}
}

// Add returns a new Pipeline with c appended.
func (p Pipeline) Add(c Cleaner) Pipeline {
	cs := make([]Cleaner, len(p.cleaners)+1)
	copy(cs, p.cleaners)
	cs[len(p.cleaners)] = c
	return Pipeline{cleaners: cs, strict: p.strict}
}

// Compose concatenates two pipelines; the result is strict only if both are.
func (p Pipeline) Compose(other Pipeline) Pipeline {
	cs := make([]Cleaner, 0, len(p.cleaners)+len(other.cleaners))
	cs = append(cs, p.cleaners...)
	cs = append(cs, other.cleaners...)
	return Pipeline{cleaners: cs, strict: p.strict && other.strict}
}

// Apply folds each cleaner's Clean over value in order, optionally
// recording a TransformStep per cleaner. In strict mode, a cleaner whose
// Validate fails on the intermediate result aborts with an error naming
// the failing step.
func (p Pipeline) Apply(rawRecordID int64, value string, trackProvenance bool) (string, []domain.TransformStep, error) {
	result := value
	var steps []domain.TransformStep
	if trackProvenance {
		steps = make([]domain.TransformStep, 0, len(p.cleaners))
	}

	for _, c := range p.cleaners {
		start := time.Now()
		result = c.Clean(result)
		duration := time.Since(start)

		ok := true
		if p.strict {
			ok = c.Validate(result)
		}

		if trackProvenance {
			steps = append(steps, domain.TransformStep{
				RawRecordID: rawRecordID,
				StepName:    c.Name(),
				StepVersion: c.Version(),
				ExecutedAt:  start,
				DurationMS:  duration.Milliseconds(),
				Success:     ok,
			})
		}

		if !ok {
			return result, steps, domain.NewValidationError(c.Name(), result, domain.ErrCleanerValidation)
		}
	}

	return result, steps, nil
}

// ValidateAll runs Apply without provenance tracking over every value and
// returns the (index, error) pairs of the ones that failed.
func (p Pipeline) ValidateAll(values []string) []struct {
	Index int
	Err   error
} {
	var errs []struct {
		Index int
		Err   error
	}
	for i, v := range values {
		if _, _, err := p.Apply(0, v, false); err != nil {
			errs = append(errs, struct {
				Index int
				Err   error
			}{i, err})
		}
	}
	return errs
}

// Signature is the concatenation of "name:version" over the pipeline's
// cleaners, recorded with each emitted record to enable bulk re-transform
// detection when it changes.
func (p Pipeline) Signature() string {
	parts := make([]string, len(p.cleaners))
	for i, c := range p.cleaners {
		parts[i] = fmt.Sprintf("%s:%s", c.Name(), c.Version())
	}
	return strings.Join(parts, "_")
}

// Len reports the number of cleaners in the pipeline.
func (p Pipeline) Len() int { return len(p.cleaners) }
