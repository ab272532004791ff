package service

import (
	"context"
	"fmt"

	"github.com/gigmile/receivables-service/internal/domain"
	"go.uber.org/zap"
)

// NotificationService handles side effects like SMS, emails, etc.
type NotificationService struct {
	customerRepo domain.CustomerRepository
	logger       *zap.Logger
}

func NewNotificationService(
	customerRepo domain.CustomerRepository,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		customerRepo: customerRepo,
		logger:       logger,
	}
}

// HandleCreditSaleIssued sends the invoice notice.
func (s *NotificationService) HandleCreditSaleIssued(ctx context.Context, event domain.DomainEvent) error {
	saleEvent, ok := event.(*domain.CreditSaleIssuedEvent)
	if !ok {
		return fmt.Errorf("invalid event type %T", event)
	}

	payload := saleEvent.Payload
	s.logger.Info("SMS notification sent",
		zap.String("event_id", event.GetEventID()),
		zap.String("customer_id", payload.CustomerID),
		zap.String("message", fmt.Sprintf("Invoice %s for %s due %s. Available credit: %s",
			payload.Folio,
			payload.Total.StringFixed(2),
			payload.DueDate.Format("2006-01-02"),
			payload.AvailableCredit.StringFixed(2))),
	)

	return nil
}

// HandlePaymentApplied sends the payment receipt.
func (s *NotificationService) HandlePaymentApplied(ctx context.Context, event domain.DomainEvent) error {
	paymentEvent, ok := event.(*domain.PaymentAppliedEvent)
	if !ok {
		return fmt.Errorf("invalid event type %T", event)
	}

	payload := paymentEvent.Payload

	name := payload.CustomerID
	if customer, err := s.customerRepo.FindByID(ctx, payload.CustomerID); err == nil && customer.Name != "" {
		name = customer.Name
	}

	message := fmt.Sprintf("%s, payment of %s received. Outstanding balance: %s",
		name, payload.Amount.StringFixed(2), payload.CurrentDebt.StringFixed(2))
	if payload.AdvanceAmount.IsPositive() {
		message += fmt.Sprintf(". Credit on account: %s", payload.AdvanceAmount.StringFixed(2))
	}

	s.logger.Info("SMS notification sent",
		zap.String("event_id", event.GetEventID()),
		zap.String("customer_id", payload.CustomerID),
		zap.Int("sales_settled", payload.SalesSettled),
		zap.String("message", message),
	)

	if payload.CurrentDebt.IsZero() && payload.SalesSettled > 0 {
		s.logger.Info("account settled SMS sent",
			zap.String("customer_id", payload.CustomerID),
			zap.String("message", "Thank you! Your account is fully paid."),
		)
	}

	return nil
}

// HandleLedgerCorrected alerts the back office about a drift correction.
func (s *NotificationService) HandleLedgerCorrected(ctx context.Context, event domain.DomainEvent) error {
	correctedEvent, ok := event.(*domain.LedgerCorrectedEvent)
	if !ok {
		return fmt.Errorf("invalid event type %T", event)
	}

	payload := correctedEvent.Payload
	s.logger.Warn("back office alert sent",
		zap.String("event_id", event.GetEventID()),
		zap.String("customer_id", payload.CustomerID),
		zap.Stringer("previous_debt", payload.PreviousDebt),
		zap.Stringer("corrected_debt", payload.CorrectedDebt),
	)

	return nil
}
