package service

import (
	"context"
	"testing"
	"time"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/gigmile/receivables-service/internal/infrastructure/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// corruptDebt overwrites the stored debt outside any ledger operation.
func corruptDebt(t *testing.T, store *memory.Store, customerID, debt string) {
	t.Helper()
	ctx := context.Background()
	customer, err := store.Customers().FindByID(ctx, customerID)
	require.NoError(t, err)
	customer.CurrentDebt = dec(debt)
	require.NoError(t, store.Customers().Save(ctx, customer))
}

func TestReconcile_CorrectsDrift(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := newTestStore(t, "1000")
	sales := newUntaxedSaleService(store, time.Now())
	issueSale(t, sales, "100", 30)
	issueSale(t, sales, "50", 30)
	corruptDebt(t, store, testCustomerID, "180")

	publisher := new(MockEventPublisher)
	events := captureEvents(publisher, "*domain.LedgerCorrectedEvent")
	svc := NewReconcileService(store, publisher, zap.NewNop())

	// Act
	outcome, err := svc.Reconcile(ctx, testCustomerID)

	// Assert
	require.NoError(t, err)
	assert.True(t, outcome.Corrected)
	assert.True(t, outcome.PreviousDebt.Equal(dec("180")))
	assert.True(t, outcome.CorrectedDebt.Equal(dec("150")))
	assert.True(t, currentDebt(t, store).Equal(dec("150")))

	event := waitForEvent(t, events).(*domain.LedgerCorrectedEvent)
	assert.True(t, event.Payload.CorrectedDebt.Equal(dec("150")))

	again, err := svc.Reconcile(ctx, testCustomerID)
	require.NoError(t, err)
	assert.False(t, again.Corrected)
	assert.True(t, again.CorrectedDebt.Equal(dec("150")))
}

func TestReconcile_IgnoresDriftWithinTolerance(t *testing.T) {
	store := newTestStore(t, "1000")
	issueSale(t, newUntaxedSaleService(store, time.Now()), "100", 30)
	corruptDebt(t, store, testCustomerID, "100.008")
	publisher := new(MockEventPublisher)
	svc := NewReconcileService(store, publisher, zap.NewNop())

	outcome, err := svc.Reconcile(context.Background(), testCustomerID)

	require.NoError(t, err)
	assert.False(t, outcome.Corrected)
	assert.True(t, outcome.PreviousDebt.Equal(dec("100.008")))
	assert.True(t, outcome.CorrectedDebt.Equal(dec("100")))
	assert.True(t, currentDebt(t, store).Equal(dec("100.008")))
	publisher.AssertNotCalled(t, "Publish")
}

func TestReconcile_CustomerNotFound(t *testing.T) {
	svc := NewReconcileService(newTestStore(t, "1000"), nil, zap.NewNop())

	_, err := svc.Reconcile(context.Background(), "NOBODY")

	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestReconcileAll_SweepsEveryPage(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := newTestStore(t, "1000")
	for _, id := range []string{"CUST002", "CUST003"} {
		customer, err := domain.NewCustomer(id, id, dec("500"))
		require.NoError(t, err)
		require.NoError(t, store.Customers().Create(ctx, customer))
	}
	corruptDebt(t, store, "CUST003", "42")
	svc := NewReconcileService(store, nil, zap.NewNop())

	// Act
	summary, err := svc.ReconcileAll(ctx, 2)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Checked)
	assert.Equal(t, 1, summary.Corrected)
	assert.Equal(t, 0, summary.Failed)
	require.Len(t, summary.Corrections, 1)
	assert.Equal(t, "CUST003", summary.Corrections[0].CustomerID)
	assert.True(t, summary.Corrections[0].CorrectedDebt.IsZero())
}

func TestReconcileAll_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := NewReconcileService(newTestStore(t, "1000"), nil, zap.NewNop())

	summary, err := svc.ReconcileAll(ctx, 10)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, summary.Checked)
}

func TestHandleLedgerEvent_ReconcilesAggregate(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := newTestStore(t, "1000")
	sales := newUntaxedSaleService(store, time.Now())
	issueSale(t, sales, "75", 30)
	corruptDebt(t, store, testCustomerID, "10")
	svc := NewReconcileService(store, nil, zap.NewNop())
	event := domain.NewPaymentAppliedEvent(testCustomerID, domain.PaymentAppliedPayload{CustomerID: testCustomerID})

	// Act
	err := svc.HandleLedgerEvent(ctx, event)

	// Assert
	require.NoError(t, err)
	assert.True(t, currentDebt(t, store).Equal(dec("75")))
}

func TestHandleLedgerEvent_AcksUnknownCustomer(t *testing.T) {
	store := newTestStore(t, "1000")
	svc := NewReconcileService(store, nil, zap.NewNop())
	event := domain.NewPaymentAppliedEvent("GONE", domain.PaymentAppliedPayload{CustomerID: "GONE"})

	assert.NoError(t, svc.HandleLedgerEvent(context.Background(), event))
}
