package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/lexigraph/lexigraph/internal/clean"
	"github.com/lexigraph/lexigraph/internal/domain"
)

// runCleaner applies the field pipelines and quality gate to each raw
// record in a batch, forwarding admitted records downstream. On seeing
// its sentinel it forwards exactly one sentinel of its own and returns.
func (o *Orchestrator) runCleaner(ctx context.Context, id int, in <-chan rawBatch, out chan<- cleanedBatch) {
	metrics.activeStage.WithLabelValues("cleaner").Inc()
	defer metrics.activeStage.WithLabelValues("cleaner").Dec()

	pipelines := o.deps.Cleaners.FullEntryPipelines()

	for batch := range in {
		if batch.sentinel {
			out <- cleanedBatch{sentinel: true}
			return
		}
		if ctx.Err() != nil || o.stopFlag.Load() {
			continue
		}

		var admitted []domain.CanonicalRecord
		var steps []domain.TransformStep

		for _, raw := range batch.records {
			rec, recSteps, ok := o.cleanOne(raw, pipelines)
			steps = append(steps, recSteps...)
			if !ok {
				o.rejected.Add(1)
				metrics.rejected.Inc()
				continue
			}
			admitted = append(admitted, rec)
		}

		if len(admitted) > 0 {
			o.cleaned.Add(int64(len(admitted)))
			metrics.cleaned.Add(float64(len(admitted)))
			out <- cleanedBatch{records: admitted, steps: steps}
		} else if len(steps) > 0 {
			out <- cleanedBatch{steps: steps}
		}
	}
}

func (o *Orchestrator) cleanOne(raw domain.RawRecord, pipelines map[string]clean.Pipeline) (domain.CanonicalRecord, []domain.TransformStep, bool) {
	get := func(key string) string {
		v, _ := raw.Payload[key].(string)
		return v
	}

	var steps []domain.TransformStep
	var sigParts []string
	applyField := func(field, value string) (string, bool) {
		p, ok := pipelines[field]
		if !ok {
			return value, true
		}
		result, fieldSteps, err := p.Apply(raw.ID, value, true)
		steps = append(steps, fieldSteps...)
		if err != nil {
			return "", false
		}
		sigParts = append(sigParts, p.Signature())
		return result, true
	}

	headword, ok := applyField("headword", get("headword"))
	if !ok {
		return domain.CanonicalRecord{}, steps, false
	}
	language, ok := applyField("language", get("language"))
	if !ok {
		return domain.CanonicalRecord{}, steps, false
	}
	definition, ok := applyField("definition", get("definition"))
	if !ok {
		return domain.CanonicalRecord{}, steps, false
	}
	ipa, ok := applyField("ipa", get("ipa"))
	if !ok {
		return domain.CanonicalRecord{}, steps, false
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

	if admitted, rule := o.deps.Gate.Admit(rec); !admitted {
		o.deps.Log.Debug("quality_rejected", "raw_record_id", raw.ID, "rule", rule)
		return domain.CanonicalRecord{}, steps, false
	}
	return rec, steps, true
}
