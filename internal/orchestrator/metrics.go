package orchestrator

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// pipelineMetrics holds the process-wide Prometheus instruments shared by
// every orchestrator, registered with the default registry once, on the
// first New, so constructing several Orchestrators (as the tests do) does
// not register them twice.
type pipelineMetrics struct {
	once sync.Once

	rawRead     prometheus.Counter
	cleaned     prometheus.Counter
	rejected    prometheus.Counter
	embedded    prometheus.Counter
	written     prometheus.Counter
	errors      prometheus.Counter
	activeStage *prometheus.GaugeVec
}

var metrics pipelineMetrics

func (m *pipelineMetrics) init() {
	m.once.Do(func() {
		m.rawRead = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lexigraph_raw_records_read_total", Help: "Raw records read from the staging store",
		})
		m.cleaned = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lexigraph_records_cleaned_total", Help: "Records that passed cleaning and the quality gate",
		})
		m.rejected = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lexigraph_records_rejected_total", Help: "Records rejected by cleaning or the quality gate",
		})
		m.embedded = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lexigraph_records_embedded_total", Help: "Records embedded and concept-assigned",
		})
		m.written = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lexigraph_records_written_total", Help: "Records upserted into the records table",
		})
		m.errors = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lexigraph_pipeline_errors_total", Help: "Fatal pipeline errors observed across all stages",
		})
		m.activeStage = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lexigraph_stage_workers_active", Help: "Currently running workers per pipeline stage",
		}, []string{"stage"})

		prometheus.MustRegister(m.rawRead, m.cleaned, m.rejected, m.embedded, m.written, m.errors, m.activeStage)
	})
}
