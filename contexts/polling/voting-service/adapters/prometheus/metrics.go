package prometheusadapter

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts poll creations and ballot outcomes.
type Metrics struct {
	pollsCreated  prometheus.Counter
	votesCounted  prometheus.Counter
	votesRejected *prometheus.CounterVec
}

func NewMetrics(namespace string, registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		pollsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_created_total",
			Help:      "Number of polls created",
		}),
		votesCounted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_counted_total",
			Help:      "Number of ballots applied to a tally",
		}),
		votesRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "votes_rejected_total",
				Help:      "Number of ballots rejected, by reason",
			},
			[]string{"reason"},
		),
	}
	for _, collector := range []prometheus.Collector{m.pollsCreated, m.votesCounted, m.votesRejected} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) PollCreated() {
	m.pollsCreated.Inc()
}

func (m *Metrics) VoteCounted() {
	m.votesCounted.Inc()
}

func (m *Metrics) VoteRejected(reason string) {
	m.votesRejected.WithLabelValues(reason).Inc()
}
