package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/events"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const ConsumerGroup = "account-audit"

// Recorder persists account lifecycle events into account_audit.
type Recorder struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewRecorder(db *sql.DB, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{db: db, logger: logger}
}

// HandleUserEvent is the Redis stream subscriber handler for user.events.
func (r *Recorder) HandleUserEvent(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.UserRegistered, events.UserUpdated, events.UserDeleted:
	default:
		r.logger.Debug("ignoring event", zap.String("event", event.Type))
		return nil
	}

	var subject struct {
		UserID int64 `json:"userId"`
	}
	if err := events.DecodeData(event, &subject); err != nil {
		return err
	}
	if subject.UserID == 0 {
		return fmt.Errorf("%s event has no user id", event.Type)
	}

	payload, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", event.Type, err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO account_audit (event_type, user_id, payload, occurred_at) VALUES ($1, $2, $3, $4)`,
		event.Type, subject.UserID, string(payload), event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to record %s for user %d: %w", event.Type, subject.UserID, err)
	}

	r.logger.Info("account event recorded", zap.String("event", event.Type), zap.Int64("user_id", subject.UserID))
	return nil
}

// Subscriber wires the recorder to the user event stream.
func (r *Recorder) Subscriber(client *goredis.Client, consumer string) *events.Subscriber {
	return events.NewSubscriber(client, events.SubscriberConfig{
		Group:    ConsumerGroup,
		Consumer: consumer,
		Stream:   events.UserEventsStream,
		Handler:  r.HandleUserEvent,
		Logger:   r.logger,
	})
}
