package application

import (
	"log/slog"

	"ballotbox/contexts/polling/voting-service/ports"
)

// ModuleName is the value of the "module" attribute on every log line.
const ModuleName = "polling/voting-service"

// ResolveLogger guarantees a non-nil logger for application/worker code paths.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// ResolveMetrics swaps a nil recorder for one that drops observations.
func ResolveMetrics(metrics ports.VotingMetrics) ports.VotingMetrics {
	if metrics == nil {
		return discardMetrics{}
	}
	return metrics
}

type discardMetrics struct{}

func (discardMetrics) PollCreated()        {}
func (discardMetrics) VoteCounted()        {}
func (discardMetrics) VoteRejected(string) {}
