package compound

import "github.com/prometheus/client_golang/prometheus"

// Metric outcomes.
const (
	outcomeSuccess = "success"
	outcomeSkipped = "skipped"
	outcomeFailure = "failure"
)

// Metrics counts relationship edits and sequencing steps. A nil *Metrics
// records nothing.
type Metrics struct {
	edits *prometheus.CounterVec
	steps *prometheus.CounterVec
	runs  *prometheus.CounterVec
}

// NewMetrics creates the engine collectors and registers them with reg when
// reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "compound",
			Name:      "relationship_edits_total",
			Help:      "Parent/child link edits by operation and outcome.",
		}, []string{"op", "outcome"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "compound",
			Name:      "sequence_steps_total",
			Help:      "Sequencing steps attempted by kind and outcome.",
		}, []string{"kind", "outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "compound",
			Name:      "sequence_runs_total",
			Help:      "Sequencing runs by terminal status.",
		}, []string{"status"}),
	}
	if reg != nil {
		reg.MustRegister(m.edits, m.steps, m.runs)
	}
	return m
}

func (m *Metrics) edit(op, outcome string) {
	if m == nil {
		return
	}
	m.edits.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) step(kind StepKind, outcome string) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(string(kind), outcome).Inc()
}

func (m *Metrics) run(status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
}
