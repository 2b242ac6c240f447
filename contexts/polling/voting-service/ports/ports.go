package ports

import (
	"context"
	"time"

	"ballotbox/contexts/polling/voting-service/domain/entities"
	contractsv1 "ballotbox/contracts/gen/events/v1"
)

// PollDefinitionStore keeps immutable poll metadata keyed by external poll key.
// PutPoll overwrites; key uniqueness comes from id generation.
type PollDefinitionStore interface {
	PutPoll(ctx context.Context, pollKey string, poll entities.PollDefinition) error
	GetPoll(ctx context.Context, pollKey string) (entities.PollDefinition, error)
}

// TallyLedger keeps per-poll counts and voted identities. RecordVote must run
// its existence check, dedup check and mutation atomically per poll key.
type TallyLedger interface {
	InitializeTally(ctx context.Context, pollKey string) error
	HasVoted(ctx context.Context, pollKey string, identity string) (bool, error)
	RecordVote(ctx context.Context, pollKey string, identity string, selections map[string]bool) error
	GetTally(ctx context.Context, pollKey string) (entities.TallyRecord, error)
}

// PollCatalog publishes a poll: the definition and its empty tally are written
// together or not at all. ErrTallyAlreadyExists leaves both untouched.
type PollCatalog interface {
	CreatePollWithTally(ctx context.Context, pollKey string, poll entities.PollDefinition) error
}

// RandomSource supplies a fresh seed for every poll id.
type RandomSource interface {
	RandomSeed(ctx context.Context) ([]byte, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type VotingMetrics interface {
	PollCreated()
	VoteCounted()
	VoteRejected(reason string)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// EventSubscriber registers a topic consumer callback.
type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

// EventDedupStore reports whether an event id was already processed. A replay
// with a different payload hash is ErrConflict.
type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string) (bool, error)
}
