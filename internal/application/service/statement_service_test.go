package service

import (
	"context"
	"testing"
	"time"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetStatement(t *testing.T) {
	// Arrange
	ctx := context.Background()
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	store := newTestStore(t, "1000")
	sales := newUntaxedSaleService(store, start)
	payments := NewPaymentService(store, nil, nil, zap.NewNop())

	settled := issueSale(t, sales, "40", 1)
	pay(t, payments, "40")
	overdue := issueSale(t, sales, "100", 5)
	dueSoon := issueSale(t, sales, "60", 12)
	current := issueSale(t, sales, "10", 30)

	svc := NewStatementService(store, 7, 50, zap.NewNop())
	svc.now = func() time.Time { return start.AddDate(0, 0, 8) }

	// Act
	st, err := svc.GetStatement(ctx, testCustomerID)

	// Assert
	require.NoError(t, err)
	assert.True(t, st.AvailableCredit.Equal(dec("830")))
	assert.True(t, st.TotalOutstanding.Equal(dec("170")))
	assert.True(t, st.TotalOverdue.Equal(dec("100")))

	require.Len(t, st.OutstandingSales, 3)
	assert.Equal(t, overdue.ID, st.OutstandingSales[0].SaleID)
	assert.Equal(t, dueSoon.ID, st.OutstandingSales[1].SaleID)
	assert.Equal(t, current.ID, st.OutstandingSales[2].SaleID)

	require.Len(t, st.Overdue, 1)
	assert.Equal(t, domain.PaymentStatusOverdue, st.Overdue[0].PaymentStatus)
	require.Len(t, st.DueSoon, 1)
	assert.Equal(t, dueSoon.ID, st.DueSoon[0].SaleID)

	require.Len(t, st.Payments, 1)
	assert.Equal(t, settled.Folio, st.Payments[0].Folio)
}

func TestGetStatement_AdvancePaymentFolio(t *testing.T) {
	store := newTestStore(t, "1000")
	pay(t, NewPaymentService(store, nil, nil, zap.NewNop()), "15")
	svc := NewStatementService(store, 0, 0, zap.NewNop())

	st, err := svc.GetStatement(context.Background(), testCustomerID)

	require.NoError(t, err)
	assert.Empty(t, st.OutstandingSales)
	require.Len(t, st.Payments, 1)
	assert.Equal(t, domain.AdvanceFolio, st.Payments[0].Folio)
	assert.True(t, st.AvailableCredit.Equal(dec("1000")))
}

func TestGetStatement_CustomerNotFound(t *testing.T) {
	svc := NewStatementService(newTestStore(t, "1000"), 7, 50, zap.NewNop())

	_, err := svc.GetStatement(context.Background(), "NOBODY")

	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}
