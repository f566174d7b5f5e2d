package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// metrics are the service counters exposed on /metrics.
type metrics struct {
	evaluated prometheus.Counter
	flagged   *prometheus.CounterVec
	runs      prometheus.Counter
}

// newMetrics registers the service counters plus Go runtime collectors on reg.
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		evaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "holecheck_parts_evaluated_total",
			Help: "Parts evaluated by the evaluate and annotate endpoints.",
		}),
		flagged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "holecheck_parts_flagged_total",
			Help: "Parts flagged, by severity (warning or error).",
		}, []string{"severity"}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "holecheck_runs_total",
			Help: "Annotation runs stored.",
		}),
	}
	reg.MustRegister(
		m.evaluated,
		m.flagged,
		m.runs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	// Expose both series from the first scrape.
	m.flagged.WithLabelValues("warning")
	m.flagged.WithLabelValues("error")
	return m
}

func (m *metrics) observe(parts, warnings, errors int) {
	m.evaluated.Add(float64(parts))
	m.flagged.WithLabelValues("warning").Add(float64(warnings))
	m.flagged.WithLabelValues("error").Add(float64(errors))
}
