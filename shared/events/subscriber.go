package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Handler func(ctx context.Context, event Event) error

// Subscriber consumes one stream as a member of a consumer group. It is
// driven by a single goroutine and is not safe for concurrent Poll calls.
type Subscriber struct {
	client        *redis.Client
	group         string
	consumer      string
	stream        string
	handler       Handler
	batchSize     int64
	blockDuration time.Duration
	retryInterval time.Duration
	lastRetry     time.Time
	now           func() time.Time
	logger        *zap.Logger
}

type SubscriberConfig struct {
	Group         string
	Consumer      string
	Stream        string
	Handler       Handler
	BatchSize     int64
	BlockDuration time.Duration
	// RetryInterval is how often this consumer's pending entries are redelivered.
	RetryInterval time.Duration
	Logger        *zap.Logger
}

func NewSubscriber(client *redis.Client, config SubscriberConfig) *Subscriber {
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}
	if config.BlockDuration == 0 {
		config.BlockDuration = 5 * time.Second
	}
	if config.RetryInterval == 0 {
		config.RetryInterval = 30 * time.Second
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return &Subscriber{
		client:        client,
		group:         config.Group,
		consumer:      config.Consumer,
		stream:        config.Stream,
		handler:       config.Handler,
		batchSize:     config.BatchSize,
		blockDuration: config.BlockDuration,
		retryInterval: config.RetryInterval,
		now:           time.Now,
		logger:        config.Logger.With(zap.String("stream", config.Stream), zap.String("group", config.Group)),
	}
}

// Start blocks until ctx is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	s.logger.Info("subscriber started", zap.String("consumer", s.consumer))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("subscriber stopping")
			return ctx.Err()
		default:
			if _, err := s.Poll(ctx); err != nil {
				if ctx.Err() != nil {
					continue
				}
				s.logger.Error("error reading messages", zap.Error(err))
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
			}
		}
	}
}

// Poll redelivers this consumer's pending entries when the retry interval
// has elapsed, then reads one batch of new messages. Messages are acked
// once handled; failed ones stay pending for the next retry.
func (s *Subscriber) Poll(ctx context.Context) (int, error) {
	handled := 0
	if now := s.now(); now.Sub(s.lastRetry) >= s.retryInterval {
		s.lastRetry = now
		n, err := s.redeliverPending(ctx)
		handled += n
		if err != nil {
			return handled, err
		}
	}

	messages, err := s.read(ctx, ">", s.blockDuration)
	if err != nil {
		return handled, err
	}
	return handled + s.handleAll(ctx, messages), nil
}

// redeliverPending walks the pending entries list of this consumer in batches.
func (s *Subscriber) redeliverPending(ctx context.Context) (int, error) {
	handled := 0
	cursor := "0"
	for {
		messages, err := s.read(ctx, cursor, -1)
		if err != nil {
			return handled, err
		}
		if len(messages) == 0 {
			return handled, nil
		}
		handled += s.handleAll(ctx, messages)
		if int64(len(messages)) < s.batchSize {
			return handled, nil
		}
		cursor = messages[len(messages)-1].ID
	}
}

// read fetches up to batchSize entries after id. A negative block returns
// without waiting.
func (s *Subscriber) read(ctx context.Context, id string, block time.Duration) ([]redis.XMessage, error) {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, id},
		Count:    s.batchSize,
		Block:    block,
	}).Result()

	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read from stream: %w", err)
	}

	var messages []redis.XMessage
	for _, stream := range streams {
		messages = append(messages, stream.Messages...)
	}
	return messages, nil
}

func (s *Subscriber) handleAll(ctx context.Context, messages []redis.XMessage) int {
	handled := 0
	for _, message := range messages {
		if err := s.processMessage(ctx, message); err != nil {
			s.logger.Error("failed to process message", zap.String("message_id", message.ID), zap.Error(err))
			if !errors.Is(err, errMalformed) {
				continue
			}
		}

		if err := s.client.XAck(ctx, s.stream, s.group, message.ID).Err(); err != nil {
			s.logger.Error("failed to ack message", zap.String("message_id", message.ID), zap.Error(err))
		}
		handled++
	}
	return handled
}

// errMalformed marks entries that can never be handled; they are acked and dropped.
var errMalformed = errors.New("malformed event")

func (s *Subscriber) processMessage(ctx context.Context, message redis.XMessage) error {
	eventData, ok := message.Values["event"].(string)
	if !ok {
		return fmt.Errorf("%w: missing event field", errMalformed)
	}

	var event Event
	if err := json.Unmarshal([]byte(eventData), &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}

	return s.handler(ctx, event)
}

// DecodeData re-decodes the generic Data payload of an event into dst.
func DecodeData(event Event, dst any) error {
	raw, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to re-encode %s payload: %w", event.Type, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", event.Type, err)
	}
	return nil
}
