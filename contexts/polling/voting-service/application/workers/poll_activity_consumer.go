package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"

	application "ballotbox/contexts/polling/voting-service/application"
	"ballotbox/contexts/polling/voting-service/ports"
	contractsv1 "ballotbox/contracts/gen/events/v1"
)

const defaultActivityConsumerGroup = "polling-activity-cg"

// PollActivityConsumer turns relayed poll events into an activity log. Each
// event id is processed once; replays are skipped. Malformed events are
// rejected before the id is reserved, so they fail again on every redelivery.
type PollActivityConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	ConsumerGroup string
	Logger        *slog.Logger
}

type pollActivityPayload struct {
	PollKey   string   `json:"poll_key"`
	PollID    string   `json:"poll_id"`
	CreatorID string   `json:"creator_id"`
	VoterID   string   `json:"voter_id"`
	OptionIDs []string `json:"option_ids"`
}

func (c PollActivityConsumer) Start(ctx context.Context) error {
	group := c.ConsumerGroup
	if group == "" {
		group = defaultActivityConsumerGroup
	}
	if err := c.Subscriber.Subscribe(ctx, contractsv1.EventPollCreated, group, c.Handle); err != nil {
		return err
	}
	return c.Subscriber.Subscribe(ctx, contractsv1.EventVoteCast, group, c.Handle)
}

func (c PollActivityConsumer) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)

	var payload pollActivityPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return fmt.Errorf("decode poll activity payload: %w", err)
	}
	if payload.PollKey == "" {
		return fmt.Errorf("poll activity event %s missing poll_key", event.EventID)
	}

	if event.EventType != contractsv1.EventPollCreated && event.EventType != contractsv1.EventVoteCast {
		return fmt.Errorf("unsupported poll activity event type %q", event.EventType)
	}

	if c.Dedup != nil {
		alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data))
		if err != nil {
			logger.Error("poll activity dedupe failed",
				"event", "polling_activity_dedupe_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return err
		}
		if alreadyProcessed {
			logger.Debug("poll activity event already processed",
				"event", "polling_activity_event_replayed",
				"module", application.ModuleName,
				"layer", "worker",
				"event_id", event.EventID,
			)
			return nil
		}
	}

	switch event.EventType {
	case contractsv1.EventPollCreated:
		logger.Info("poll published",
			"event", "polling_activity_poll_published",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"poll_key", payload.PollKey,
			"poll_id", payload.PollID,
			"creator_id", payload.CreatorID,
			"option_count", len(payload.OptionIDs),
		)
	case contractsv1.EventVoteCast:
		logger.Info("ballot recorded",
			"event", "polling_activity_ballot_recorded",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"poll_key", payload.PollKey,
			"voter_id", payload.VoterID,
			"checked_count", len(payload.OptionIDs),
		)
	}
	return nil
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
