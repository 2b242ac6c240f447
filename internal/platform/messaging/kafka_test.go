package messaging

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"ballotbox/contexts/polling/voting-service/ports"
)

func TestKafkaDeliversToTopicSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, err := NewKafka([]string{"localhost:9092"}, slog.Default())
	if err != nil {
		t.Fatalf("new kafka: %v", err)
	}
	received := make(chan ports.EventEnvelope, 1)
	if err := bus.Subscribe(ctx, "vote.cast", "test-cg", func(_ context.Context, event ports.EventEnvelope) error {
		received <- event
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := bus.Publish(ctx, "poll.created", ports.EventEnvelope{EventID: "evt-other"}); err != nil {
		t.Fatalf("publish other topic: %v", err)
	}
	if err := bus.Publish(ctx, "vote.cast", ports.EventEnvelope{EventID: "evt-1", EventType: "vote.cast"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case event := <-received:
		if event.EventID != "evt-1" {
			t.Fatalf("expected evt-1, got %s", event.EventID)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}
}

func TestKafkaPublishWithoutSubscribersSucceeds(t *testing.T) {
	bus, err := NewKafka(nil, nil)
	if err != nil {
		t.Fatalf("new kafka: %v", err)
	}
	if err := bus.Publish(context.Background(), "poll.created", ports.EventEnvelope{EventID: "evt-1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
}
