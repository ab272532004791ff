package service

import (
	"context"
	"testing"
	"time"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/gigmile/receivables-service/internal/infrastructure/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockReferenceGuard is a mock implementation of ReferenceGuard
type MockReferenceGuard struct {
	mock.Mock
}

func (m *MockReferenceGuard) Claim(ctx context.Context, customerID, reference string) (bool, error) {
	args := m.Called(ctx, customerID, reference)
	return args.Bool(0), args.Error(1)
}

func (m *MockReferenceGuard) Release(ctx context.Context, customerID, reference string) error {
	args := m.Called(ctx, customerID, reference)
	return args.Error(0)
}

const testCustomerID = "CUST001"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// newTestStore returns a store holding one customer and two stocked products.
func newTestStore(t *testing.T, creditLimit string) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	customer, err := domain.NewCustomer(testCustomerID, "Abarrotes Lupita", dec(creditLimit))
	require.NoError(t, err)
	require.NoError(t, store.Customers().Create(ctx, customer))

	for _, id := range []string{"P1", "P2"} {
		require.NoError(t, store.Inventory().CreateProduct(ctx, &domain.Product{
			ID:    id,
			SKU:   "SKU-" + id,
			Name:  "Product " + id,
			Stock: dec("100"),
		}))
	}
	return store
}

// steppingClock returns a clock that advances one minute per reading, so
// invoices issued in a row have distinct creation times.
func steppingClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(time.Minute)
		return now
	}
}

// newUntaxedSaleService issues sales at a 0% tax rate so totals equal the line amounts.
func newUntaxedSaleService(store domain.Store, start time.Time) *SaleService {
	svc := NewSaleService(store, nil, decimal.Zero, 30, zap.NewNop())
	svc.now = steppingClock(start)
	return svc
}

func issueSale(t *testing.T, svc *SaleService, amount string, dueInDays int) *domain.Sale {
	t.Helper()
	resp, err := svc.IssueCreditSale(context.Background(), IssueCreditSaleRequest{
		CustomerID: testCustomerID,
		Items:      []domain.LineItem{{ProductID: "P1", Quantity: dec("1"), UnitPrice: dec(amount)}},
		DueInDays:  dueInDays,
	})
	require.NoError(t, err)
	return resp.Sale
}

func currentDebt(t *testing.T, store domain.Ledger) decimal.Decimal {
	t.Helper()
	customer, err := store.Customers().FindByID(context.Background(), testCustomerID)
	require.NoError(t, err)
	return customer.CurrentDebt
}

func captureEvents(publisher *MockEventPublisher, eventType string) <-chan domain.DomainEvent {
	events := make(chan domain.DomainEvent, 4)
	publisher.On("Publish", mock.Anything, mock.AnythingOfType(eventType)).
		Run(func(args mock.Arguments) {
			events <- args.Get(1).(domain.DomainEvent)
		}).
		Return(nil)
	return events
}

func waitForEvent(t *testing.T, events <-chan domain.DomainEvent) domain.DomainEvent {
	t.Helper()
	select {
	case event := <-events:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("event was not published")
		return nil
	}
}
