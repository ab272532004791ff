package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const DefaultGroup = "ledger-reconcilers"

const (
	// DefaultReclaimIdle is how long a delivered but unacked message waits
	// before another pass retries it.
	DefaultReclaimIdle = time.Minute
	// DefaultMaxDeliveries bounds retries; a message delivered this many
	// times is logged and acked so it stops blocking the pending list.
	DefaultMaxDeliveries = 5

	reclaimBatch = 50
)

type RedisEventSubscriber struct {
	client        *redis.Client
	logger        *zap.Logger
	handlers      map[string][]domain.EventHandler
	order         []string
	consumerName  string
	groupName     string
	reclaimIdle   time.Duration
	maxDeliveries int64
	lastReclaim   time.Time
}

var _ domain.EventSubscriber = (*RedisEventSubscriber)(nil)

type SubscriberOption func(*RedisEventSubscriber)

// WithReclaim sets the idle time after which failed messages are retried
// and how many deliveries a message gets before it is dropped.
func WithReclaim(minIdle time.Duration, maxDeliveries int64) SubscriberOption {
	return func(s *RedisEventSubscriber) {
		if minIdle >= 0 {
			s.reclaimIdle = minIdle
		}
		if maxDeliveries > 0 {
			s.maxDeliveries = maxDeliveries
		}
	}
}

func NewRedisEventSubscriber(client *redis.Client, logger *zap.Logger, groupName, consumerName string, opts ...SubscriberOption) *RedisEventSubscriber {
	if groupName == "" {
		groupName = DefaultGroup
	}
	s := &RedisEventSubscriber{
		client:        client,
		logger:        logger,
		handlers:      make(map[string][]domain.EventHandler),
		consumerName:  consumerName,
		groupName:     groupName,
		reclaimIdle:   DefaultReclaimIdle,
		maxDeliveries: DefaultMaxDeliveries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers handler for eventType. Several handlers may share an
// event type; they run in registration order and the message is acked only
// when all of them succeed.
func (s *RedisEventSubscriber) Subscribe(ctx context.Context, eventType string, handler domain.EventHandler) error {
	streamKey := StreamKey(eventType)

	if _, seen := s.handlers[eventType]; !seen {
		err := s.client.XGroupCreateMkStream(ctx, streamKey, s.groupName, "0").Err()
		if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("failed to create consumer group: %w", err)
		}
		s.order = append(s.order, eventType)
	}
	s.handlers[eventType] = append(s.handlers[eventType], handler)

	s.logger.Info("subscribed to event",
		zap.String("event_type", eventType),
		zap.String("stream", streamKey),
		zap.String("group", s.groupName),
	)

	return nil
}

func (s *RedisEventSubscriber) Start(ctx context.Context) error {
	s.logger.Info("starting event subscriber",
		zap.String("consumer", s.consumerName),
		zap.String("group", s.groupName),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping event subscriber")
			return nil
		default:
			if time.Since(s.lastReclaim) >= s.reclaimIdle {
				if err := s.reclaimPending(ctx); err != nil && ctx.Err() == nil {
					s.logger.Warn("failed to reclaim pending messages", zap.Error(err))
				}
				s.lastReclaim = time.Now()
			}
			if err := s.processEvents(ctx); err != nil {
				if ctx.Err() != nil {
					continue
				}
				s.logger.Error("error processing events", zap.Error(err))
				time.Sleep(1 * time.Second)
			}
		}
	}
}

func (s *RedisEventSubscriber) processEvents(ctx context.Context) error {
	if len(s.order) == 0 {
		<-ctx.Done()
		return nil
	}

	streams := make([]string, 0, 2*len(s.order))
	for _, eventType := range s.order {
		streams = append(streams, StreamKey(eventType))
	}
	for range s.order {
		streams = append(streams, ">")
	}

	result, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.groupName,
		Consumer: s.consumerName,
		Streams:  streams,
		Count:    10,
		Block:    1 * time.Second,
	}).Result()

	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range result {
		for _, message := range stream.Messages {
			s.dispatch(ctx, stream.Stream, message)
		}
	}

	return nil
}

// reclaimPending retries messages that were delivered but never acked,
// either because a handler failed or because their consumer died.
func (s *RedisEventSubscriber) reclaimPending(ctx context.Context) error {
	for _, eventType := range s.order {
		streamKey := StreamKey(eventType)

		pending, err := s.client.XPendingExt(ctx, &redis.XPendingExtArgs{
			Stream: streamKey,
			Group:  s.groupName,
			Start:  "-",
			End:    "+",
			Count:  reclaimBatch,
		}).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return fmt.Errorf("failed to list pending messages: %w", err)
		}

		ids := make([]string, 0, len(pending))
		for _, p := range pending {
			if p.Idle < s.reclaimIdle {
				continue
			}
			if p.RetryCount >= s.maxDeliveries {
				s.logger.Error("dropping message after repeated failures",
					zap.String("message_id", p.ID),
					zap.String("stream", streamKey),
					zap.Int64("deliveries", p.RetryCount),
				)
				s.ack(ctx, streamKey, p.ID)
				continue
			}
			ids = append(ids, p.ID)
		}
		if len(ids) == 0 {
			continue
		}

		messages, err := s.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   streamKey,
			Group:    s.groupName,
			Consumer: s.consumerName,
			MinIdle:  s.reclaimIdle,
			Messages: ids,
		}).Result()
		if err != nil {
			return fmt.Errorf("failed to claim pending messages: %w", err)
		}

		for _, message := range messages {
			s.logger.Info("retrying pending message",
				zap.String("message_id", message.ID),
				zap.String("stream", streamKey),
			)
			s.dispatch(ctx, streamKey, message)
		}
	}
	return nil
}

// dispatch runs the handlers and acks only on success, leaving failures in
// the pending list for reclaimPending.
func (s *RedisEventSubscriber) dispatch(ctx context.Context, streamKey string, message redis.XMessage) {
	eventType := strings.TrimPrefix(streamKey, StreamKey(""))
	if err := s.handleMessage(ctx, eventType, message); err != nil {
		s.logger.Error("failed to handle message",
			zap.Error(err),
			zap.String("message_id", message.ID),
			zap.String("stream", streamKey),
		)
		return
	}
	s.ack(ctx, streamKey, message.ID)
}

func (s *RedisEventSubscriber) ack(ctx context.Context, streamKey, id string) {
	if err := s.client.XAck(ctx, streamKey, s.groupName, id).Err(); err != nil {
		s.logger.Warn("failed to ack message", zap.Error(err), zap.String("message_id", id))
	}
}

func (s *RedisEventSubscriber) handleMessage(ctx context.Context, eventType string, message redis.XMessage) error {
	handlers, exists := s.handlers[eventType]
	if !exists {
		return fmt.Errorf("no handler for event type: %s", eventType)
	}

	eventData, ok := message.Values["data"].(string)
	if !ok {
		return fmt.Errorf("invalid event data format")
	}

	event, err := DecodeEvent(eventType, []byte(eventData))
	if err != nil {
		return err
	}

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// DecodeEvent rebuilds the typed event carried in a stream message.
func DecodeEvent(eventType string, data []byte) (domain.DomainEvent, error) {
	var event domain.DomainEvent
	switch eventType {
	case domain.EventTypeCreditSaleIssued:
		event = &domain.CreditSaleIssuedEvent{}
	case domain.EventTypePaymentApplied:
		event = &domain.PaymentAppliedEvent{}
	case domain.EventTypeLedgerCorrected:
		event = &domain.LedgerCorrectedEvent{}
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return event, nil
}
