package prometheusadapter

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCountOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics, err := NewMetrics("ballotbox", registry)
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}

	metrics.PollCreated()
	metrics.VoteCounted()
	metrics.VoteCounted()
	metrics.VoteRejected("duplicate_vote")

	if got := testutil.ToFloat64(metrics.pollsCreated); got != 1 {
		t.Fatalf("expected 1 poll created, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.votesCounted); got != 2 {
		t.Fatalf("expected 2 votes counted, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.votesRejected.WithLabelValues("duplicate_vote")); got != 1 {
		t.Fatalf("expected 1 duplicate rejection, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.votesRejected.WithLabelValues("unknown_poll")); got != 0 {
		t.Fatalf("expected no unknown poll rejections, got %v", got)
	}
}

func TestNewMetricsRejectsDoubleRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	if _, err := NewMetrics("ballotbox", registry); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if _, err := NewMetrics("ballotbox", registry); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}
