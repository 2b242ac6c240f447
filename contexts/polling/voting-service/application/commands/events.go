package commands

import (
	"context"
	"time"

	"ballotbox/contexts/polling/voting-service/ports"
	contractsv1 "ballotbox/contracts/gen/events/v1"
)

const sourceService = "voting-service"

// appendPollEvent writes an outbox event partitioned by poll key so consumers
// see creation before any vote on the same poll.
func appendPollEvent(
	ctx context.Context,
	outbox ports.OutboxWriter,
	idGen ports.IDGenerator,
	eventType string,
	pollKey string,
	occurredAt time.Time,
	data map[string]any,
) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if outbox == nil || idGen == nil {
		return nil
	}
	eventID, err := idGen.NewID(ctx)
	if err != nil {
		return err
	}
	data["poll_key"] = pollKey
	data["occurred_at"] = occurredAt.UTC().Format(time.RFC3339)
	envelope, err := contractsv1.NewEnvelope(
		eventID,
		eventType,
		sourceService,
		contractsv1.Partition{Path: "poll_key", Key: pollKey},
		occurredAt,
		data,
	)
	if err != nil {
		return err
	}
	return outbox.AppendOutbox(ctx, envelope)
}

func resolveNow(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}
