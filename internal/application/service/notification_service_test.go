package service

import (
	"context"
	"testing"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNotificationService_RejectsWrongEventType(t *testing.T) {
	svc := NewNotificationService(newTestStore(t, "1000").Customers(), zap.NewNop())
	wrong := domain.NewLedgerCorrectedEvent(testCustomerID, domain.LedgerCorrectedPayload{CustomerID: testCustomerID})

	assert.Error(t, svc.HandlePaymentApplied(context.Background(), wrong))
	assert.Error(t, svc.HandleCreditSaleIssued(context.Background(), wrong))
	assert.NoError(t, svc.HandleLedgerCorrected(context.Background(), wrong))
}

func TestNotificationService_HandlePaymentApplied(t *testing.T) {
	svc := NewNotificationService(newTestStore(t, "1000").Customers(), zap.NewNop())
	event := domain.NewPaymentAppliedEvent(testCustomerID, domain.PaymentAppliedPayload{
		CustomerID:   testCustomerID,
		Amount:       dec("100"),
		Applied:      dec("100"),
		SalesSettled: 1,
	})

	assert.NoError(t, svc.HandlePaymentApplied(context.Background(), event))
}
