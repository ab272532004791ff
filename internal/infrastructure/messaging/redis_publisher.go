package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	// DefaultStreamMaxLen is the approximate number of events kept per stream.
	DefaultStreamMaxLen = 100000

	defaultPublishAttempts = 3
	defaultPublishBackoff  = 100 * time.Millisecond
)

// StreamKey names the Redis stream that carries one event type.
func StreamKey(eventType string) string {
	return fmt.Sprintf("events:%s", eventType)
}

// RedisEventPublisher appends ledger events to one stream per event type.
// A failed XADD is retried with a doubling pause.
type RedisEventPublisher struct {
	client   *redis.Client
	logger   *zap.Logger
	maxLen   int64
	attempts int
	backoff  time.Duration
}

var _ domain.EventPublisher = (*RedisEventPublisher)(nil)

type PublisherOption func(*RedisEventPublisher)

func WithStreamMaxLen(n int64) PublisherOption {
	return func(p *RedisEventPublisher) {
		if n > 0 {
			p.maxLen = n
		}
	}
}

// WithRetry sets how many XADD attempts are made and the pause between
// them. The pause doubles after every failure.
func WithRetry(attempts int, backoff time.Duration) PublisherOption {
	return func(p *RedisEventPublisher) {
		if attempts > 0 {
			p.attempts = attempts
		}
		if backoff >= 0 {
			p.backoff = backoff
		}
	}
}

func NewRedisEventPublisher(client *redis.Client, logger *zap.Logger, opts ...PublisherOption) *RedisEventPublisher {
	p := &RedisEventPublisher{
		client:   client,
		logger:   logger,
		maxLen:   DefaultStreamMaxLen,
		attempts: defaultPublishAttempts,
		backoff:  defaultPublishBackoff,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// streamValues is the stream entry layout read back by the subscriber.
func streamValues(event domain.DomainEvent) (map[string]interface{}, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	return map[string]interface{}{
		"event_id":     event.GetEventID(),
		"event_type":   event.GetEventType(),
		"aggregate_id": event.GetAggregateID(),
		"occurred_at":  event.GetOccurredAt().UTC().Format(time.RFC3339Nano),
		"data":         string(data),
	}, nil
}

func (p *RedisEventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	values, err := streamValues(event)
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: StreamKey(event.GetEventType()),
		MaxLen: p.maxLen,
		Approx: true,
		Values: values,
	}

	backoff := p.backoff
	for attempt := 1; ; attempt++ {
		id, err := p.client.XAdd(ctx, args).Result()
		if err == nil {
			p.logger.Debug("event published",
				zap.String("event_type", event.GetEventType()),
				zap.String("event_id", event.GetEventID()),
				zap.String("customer_id", event.GetAggregateID()),
				zap.String("stream_id", id),
			)
			return nil
		}

		if attempt >= p.attempts {
			p.logger.Error("failed to publish event",
				zap.Error(err),
				zap.String("event_type", event.GetEventType()),
				zap.String("event_id", event.GetEventID()),
				zap.Int("attempts", attempt),
			)
			return fmt.Errorf("failed to publish event after %d attempts: %w", attempt, err)
		}

		p.logger.Warn("retrying event publish",
			zap.Error(err),
			zap.String("event_id", event.GetEventID()),
			zap.Int("attempt", attempt),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to publish event: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}
