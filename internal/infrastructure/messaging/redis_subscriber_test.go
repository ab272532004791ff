package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDecodeEvent_PaymentApplied(t *testing.T) {
	published := domain.NewPaymentAppliedEvent("CUST001", domain.PaymentAppliedPayload{
		CustomerID:    "CUST001",
		Amount:        decimal.RequireFromString("150"),
		AdvanceAmount: decimal.RequireFromString("50"),
		SalesSettled:  1,
	})
	data, err := json.Marshal(published)
	require.NoError(t, err)

	event, err := DecodeEvent(domain.EventTypePaymentApplied, data)

	require.NoError(t, err)
	applied, ok := event.(*domain.PaymentAppliedEvent)
	require.True(t, ok)
	assert.Equal(t, published.EventID, applied.GetEventID())
	assert.Equal(t, "CUST001", applied.GetAggregateID())
	assert.True(t, applied.Payload.AdvanceAmount.Equal(decimal.RequireFromString("50")))
}

func TestDecodeEvent_UnknownType(t *testing.T) {
	_, err := DecodeEvent("payment.processed", []byte(`{}`))

	assert.Error(t, err)
}

func TestStreamKey(t *testing.T) {
	assert.Equal(t, "events:ledger.corrected", StreamKey(domain.EventTypeLedgerCorrected))
}

func TestStreamValues_CarriesEnvelope(t *testing.T) {
	event := domain.NewLedgerCorrectedEvent("CUST002", domain.LedgerCorrectedPayload{
		CustomerID:    "CUST002",
		PreviousDebt:  decimal.RequireFromString("180"),
		CorrectedDebt: decimal.RequireFromString("150"),
	})

	values, err := streamValues(event)

	require.NoError(t, err)
	assert.Equal(t, event.GetEventID(), values["event_id"])
	assert.Equal(t, domain.EventTypeLedgerCorrected, values["event_type"])
	assert.Equal(t, "CUST002", values["aggregate_id"])

	decoded, err := DecodeEvent(domain.EventTypeLedgerCorrected, []byte(values["data"].(string)))
	require.NoError(t, err)
	corrected := decoded.(*domain.LedgerCorrectedEvent)
	assert.True(t, corrected.Payload.CorrectedDebt.Equal(decimal.RequireFromString("150")))
}

func TestPublish_GivesUpAfterRetries(t *testing.T) {
	// Nothing listens on this port; every XADD fails fast.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	defer client.Close()
	publisher := NewRedisEventPublisher(client, zap.NewNop(), WithRetry(2, time.Millisecond))
	event := domain.NewPaymentAppliedEvent("CUST001", domain.PaymentAppliedPayload{CustomerID: "CUST001"})

	err := publisher.Publish(context.Background(), event)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func newStreamClient(t *testing.T) *redis.Client {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func addPaymentApplied(t *testing.T, client *redis.Client) {
	t.Helper()
	event := domain.NewPaymentAppliedEvent("CUST001", domain.PaymentAppliedPayload{CustomerID: "CUST001"})
	values, err := streamValues(event)
	require.NoError(t, err)
	require.NoError(t, client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: StreamKey(domain.EventTypePaymentApplied),
		Values: values,
	}).Err())
}

func pendingCount(t *testing.T, client *redis.Client) int64 {
	t.Helper()
	pending, err := client.XPending(context.Background(), StreamKey(domain.EventTypePaymentApplied), DefaultGroup).Result()
	require.NoError(t, err)
	return pending.Count
}

func TestSubscriber_RetriesFailedMessage(t *testing.T) {
	// Arrange
	ctx := context.Background()
	client := newStreamClient(t)
	sub := NewRedisEventSubscriber(client, zap.NewNop(), "", "worker-1", WithReclaim(0, 5))
	calls := 0
	require.NoError(t, sub.Subscribe(ctx, domain.EventTypePaymentApplied, func(ctx context.Context, event domain.DomainEvent) error {
		calls++
		if calls == 1 {
			return errors.New("customer store unavailable")
		}
		return nil
	}))
	addPaymentApplied(t, client)

	// Act
	require.NoError(t, sub.processEvents(ctx))
	afterFailure := pendingCount(t, client)
	require.NoError(t, sub.reclaimPending(ctx))

	// Assert
	assert.Equal(t, int64(1), afterFailure)
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(0), pendingCount(t, client))
}

func TestSubscriber_DropsMessageAfterMaxDeliveries(t *testing.T) {
	// Arrange
	ctx := context.Background()
	client := newStreamClient(t)
	core, logs := observer.New(zap.ErrorLevel)
	sub := NewRedisEventSubscriber(client, zap.New(core), "", "worker-1", WithReclaim(0, 1))
	calls := 0
	require.NoError(t, sub.Subscribe(ctx, domain.EventTypePaymentApplied, func(ctx context.Context, event domain.DomainEvent) error {
		calls++
		return errors.New("always fails")
	}))
	addPaymentApplied(t, client)

	// Act
	require.NoError(t, sub.processEvents(ctx))
	require.NoError(t, sub.reclaimPending(ctx))

	// Assert
	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(0), pendingCount(t, client))
	assert.Equal(t, 1, logs.FilterMessage("dropping message after repeated failures").Len())
}

func TestSubscriber_ReclaimSkipsRecentMessages(t *testing.T) {
	ctx := context.Background()
	client := newStreamClient(t)
	sub := NewRedisEventSubscriber(client, zap.NewNop(), "", "worker-1", WithReclaim(time.Hour, 5))
	calls := 0
	require.NoError(t, sub.Subscribe(ctx, domain.EventTypePaymentApplied, func(ctx context.Context, event domain.DomainEvent) error {
		calls++
		return errors.New("still failing")
	}))
	addPaymentApplied(t, client)

	require.NoError(t, sub.processEvents(ctx))
	require.NoError(t, sub.reclaimPending(ctx))

	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(1), pendingCount(t, client))
}
