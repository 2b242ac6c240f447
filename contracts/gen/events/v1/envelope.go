package v1

import (
	"encoding/json"
	"time"
)

const (
	EventPollCreated = "poll.created"
	EventVoteCast    = "vote.cast"
)

// Envelope is the canonical, versioned event envelope for cross-runtime use.
// This package is generated-contract-only and must stay backward compatible.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

// Partition describes which payload field orders events on the bus.
type Partition struct {
	Path string
	Key  string
}

// NewEnvelope marshals data and stamps a schema version 1 envelope. The event
// id doubles as trace id until callers propagate request traces.
func NewEnvelope(
	eventID string,
	eventType string,
	sourceService string,
	partition Partition,
	occurredAt time.Time,
	data any,
) (Envelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: partition.Path,
		PartitionKey:     partition.Key,
		Data:             payload,
	}, nil
}
