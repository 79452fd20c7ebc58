package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/easonnong/nft-marketplace/contexts/trading/marketplace/ports"
)

type fakeOutbox struct {
	pending []ports.OutboxMessage
	sent    map[string]time.Time
}

func (f *fakeOutbox) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit > len(f.pending) {
		limit = len(f.pending)
	}
	return append([]ports.OutboxMessage(nil), f.pending[:limit]...), nil
}

func (f *fakeOutbox) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	if f.sent == nil {
		f.sent = make(map[string]time.Time)
	}
	f.sent[outboxID] = sentAt
	remaining := f.pending[:0]
	for _, msg := range f.pending {
		if msg.OutboxID != outboxID {
			remaining = append(remaining, msg)
		}
	}
	f.pending = remaining
	return nil
}

type fakePublisher struct {
	topics []string
	events []ports.EventEnvelope
	fail   error
}

func (f *fakePublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	if f.fail != nil {
		return f.fail
	}
	f.topics = append(f.topics, topic)
	f.events = append(f.events, event)
	return nil
}

func outboxRow(t *testing.T, eventID, eventType string) ports.OutboxMessage {
	t.Helper()
	payload, err := json.Marshal(ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		SourceService: "nft-marketplace",
		SchemaVersion: 1,
		PartitionKey:  "0xabc:1",
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return ports.OutboxMessage{
		OutboxID:  eventID,
		EventType: eventType,
		Payload:   payload,
	}
}

func TestOutboxRelayPublishesPerEventTypeTopics(t *testing.T) {
	outbox := &fakeOutbox{pending: []ports.OutboxMessage{
		outboxRow(t, "evt-1", "market.item_listed"),
		outboxRow(t, "evt-2", "market.item_bought"),
	}}
	publisher := &fakePublisher{}
	relay := OutboxRelay{Outbox: outbox, Publisher: publisher}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(publisher.topics) != 2 || publisher.topics[0] != "market.item_listed" || publisher.topics[1] != "market.item_bought" {
		t.Fatalf("wrong topics: %v", publisher.topics)
	}
	if publisher.events[0].EventID != "evt-1" || publisher.events[1].EventID != "evt-2" {
		t.Fatalf("wrong envelopes relayed: %+v", publisher.events)
	}
	if len(outbox.sent) != 2 {
		t.Fatalf("all rows must be acknowledged, got %d", len(outbox.sent))
	}
	if len(outbox.pending) != 0 {
		t.Fatalf("pending rows must drain, got %d", len(outbox.pending))
	}
}

func TestOutboxRelayStopsOnPublishFailure(t *testing.T) {
	outbox := &fakeOutbox{pending: []ports.OutboxMessage{
		outboxRow(t, "evt-1", "market.item_listed"),
	}}
	publishErr := errors.New("broker unavailable")
	relay := OutboxRelay{Outbox: outbox, Publisher: &fakePublisher{fail: publishErr}}

	if err := relay.RunOnce(context.Background()); !errors.Is(err, publishErr) {
		t.Fatalf("expected publish failure to surface, got %v", err)
	}
	// Nothing acknowledged, the row is retried on the next cycle.
	if len(outbox.sent) != 0 {
		t.Fatalf("failed rows must stay pending, got %d acknowledged", len(outbox.sent))
	}
}
