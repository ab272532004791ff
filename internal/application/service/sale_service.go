package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SaleService struct {
	store          domain.Store
	eventPublisher domain.EventPublisher // Optional - can be nil
	taxRate        decimal.Decimal
	defaultDueDays int
	now            func() time.Time
	logger         *zap.Logger
}

// NewSaleService creates the credit sale issuer
func NewSaleService(
	store domain.Store,
	eventPublisher domain.EventPublisher,
	taxRate decimal.Decimal,
	defaultDueDays int,
	logger *zap.Logger,
) *SaleService {
	if defaultDueDays <= 0 {
		defaultDueDays = domain.DefaultDueInDays
	}
	return &SaleService{
		store:          store,
		eventPublisher: eventPublisher,
		taxRate:        taxRate,
		defaultDueDays: defaultDueDays,
		now:            time.Now,
		logger:         logger,
	}
}

type IssueCreditSaleRequest struct {
	CustomerID string
	Items      []domain.LineItem
	DueInDays  int
}

type IssueCreditSaleResponse struct {
	Sale            *domain.Sale
	CurrentDebt     decimal.Decimal
	AvailableCredit decimal.Decimal
}

// IssueCreditSale books a credit invoice, raises the customer's debt and
// takes the items out of stock in one transaction.
func (s *SaleService) IssueCreditSale(ctx context.Context, req IssueCreditSaleRequest) (*IssueCreditSaleResponse, error) {
	dueInDays := req.DueInDays
	if dueInDays <= 0 {
		dueInDays = s.defaultDueDays
	}

	sale, err := domain.NewCreditSale(req.CustomerID, req.Items, s.taxRate, dueInDays, s.now())
	if err != nil {
		s.logger.Info("credit sale rejected",
			zap.Error(err),
			zap.String("customer_id", req.CustomerID),
		)
		return nil, err
	}

	var customer *domain.Customer
	err = s.store.WithinCustomerLock(ctx, req.CustomerID, func(ctx context.Context, tx domain.Ledger) error {
		customer, err = tx.Customers().FindByID(ctx, req.CustomerID)
		if err != nil {
			return err
		}

		if err := customer.ChargeSale(sale.Total); err != nil {
			return err
		}

		if err := tx.Sales().Create(ctx, sale); err != nil {
			return fmt.Errorf("failed to create sale: %w", err)
		}

		for _, item := range sale.Items {
			if err := tx.Inventory().DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, domain.ErrProductNotFound) {
					return &domain.ValidationError{Err: domain.ErrInvalidItems, Details: fmt.Sprintf("%s: %s", err, item.ProductID)}
				}
				return fmt.Errorf("failed to decrement stock: %w", err)
			}
			if err := tx.Inventory().RecordMovement(ctx, domain.SaleMovement(item, sale.CreatedAt)); err != nil {
				return fmt.Errorf("failed to record inventory movement: %w", err)
			}
		}

		return tx.Customers().Save(ctx, customer)
	})
	if err != nil {
		var limitErr *domain.CreditLimitExceededError
		switch {
		case errors.As(err, &limitErr):
			s.logger.Info("credit limit exceeded",
				zap.String("customer_id", req.CustomerID),
				zap.Stringer("requested", limitErr.Requested),
				zap.Stringer("available_credit", limitErr.AvailableCredit),
			)
			return nil, err
		case domain.IsValidation(err), domain.IsNotFound(err):
			return nil, err
		}
		s.logger.Error("failed to issue credit sale",
			zap.Error(err),
			zap.String("customer_id", req.CustomerID),
		)
		return nil, fmt.Errorf("failed to issue credit sale: %w", err)
	}

	s.logger.Info("credit sale issued",
		zap.String("customer_id", customer.ID),
		zap.String("sale_id", sale.ID),
		zap.String("folio", sale.Folio),
		zap.Stringer("total", sale.Total),
		zap.Stringer("current_debt", customer.CurrentDebt),
	)

	if s.eventPublisher != nil {
		go s.publishCreditSaleIssuedEvent(customer, sale)
	}

	return &IssueCreditSaleResponse{
		Sale:            sale,
		CurrentDebt:     customer.CurrentDebt,
		AvailableCredit: customer.AvailableCredit(),
	}, nil
}

func (s *SaleService) publishCreditSaleIssuedEvent(customer *domain.Customer, sale *domain.Sale) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := domain.NewCreditSaleIssuedEvent(customer.ID, domain.CreditSaleIssuedPayload{
		CustomerID:      customer.ID,
		SaleID:          sale.ID,
		Folio:           sale.Folio,
		Total:           sale.Total,
		DueDate:         sale.DueDate,
		CurrentDebt:     customer.CurrentDebt,
		AvailableCredit: customer.AvailableCredit(),
	})

	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish credit sale issued event",
			zap.Error(err),
			zap.String("customer_id", customer.ID),
			zap.String("event_id", event.GetEventID()),
		)
	}
}
