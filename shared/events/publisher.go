package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultMaxLen bounds each stream; older entries are trimmed approximately.
const DefaultMaxLen = 100_000

// Publisher appends JSON-encoded events to Redis streams.
type Publisher struct {
	client *redis.Client
	maxLen int64
	now    func() time.Time
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client, maxLen: DefaultMaxLen, now: time.Now}
}

// Publish wraps data in an Event envelope stamped with the current UTC
// time and appends it to stream under the "event" field.
func (p *Publisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	encoded, err := json.Marshal(Event{
		Type:      eventType,
		Timestamp: p.now().UTC(),
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{"event": encoded},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish %s event to %s: %w", eventType, stream, err)
	}
	return nil
}
