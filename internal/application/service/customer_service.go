package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CustomerService onboards credit customers and the catalog rows sales draw
// stock from.
type CustomerService struct {
	ledger domain.Ledger
	logger *zap.Logger
}

func NewCustomerService(ledger domain.Ledger, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		ledger: ledger,
		logger: logger,
	}
}

type OnboardCustomerRequest struct {
	ID          string
	Name        string
	CreditLimit decimal.Decimal
}

func (s *CustomerService) Onboard(ctx context.Context, req OnboardCustomerRequest) (*domain.Customer, error) {
	customer, err := domain.NewCustomer(req.ID, req.Name, req.CreditLimit)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.Customers().Create(ctx, customer); err != nil {
		if errors.Is(err, domain.ErrCustomerExists) {
			return nil, err
		}
		s.logger.Error("failed to onboard customer",
			zap.Error(err),
			zap.String("customer_id", customer.ID),
		)
		return nil, fmt.Errorf("failed to onboard customer: %w", err)
	}

	s.logger.Info("customer onboarded",
		zap.String("customer_id", customer.ID),
		zap.Stringer("credit_limit", customer.CreditLimit),
	)

	return customer, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	return s.ledger.Customers().FindByID(ctx, customerID)
}

type RegisterProductRequest struct {
	ID    string
	SKU   string
	Name  string
	Stock decimal.Decimal
}

func (s *CustomerService) RegisterProduct(ctx context.Context, req RegisterProductRequest) (*domain.Product, error) {
	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		return nil, &domain.ValidationError{Err: domain.ErrInvalidItems, Details: "sku is required"}
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.New().String()
	}

	product := &domain.Product{
		ID:        id,
		SKU:       sku,
		Name:      strings.TrimSpace(req.Name),
		Stock:     req.Stock,
		UpdatedAt: time.Now(),
	}

	if err := s.ledger.Inventory().CreateProduct(ctx, product); err != nil {
		s.logger.Error("failed to register product", zap.Error(err), zap.String("sku", sku))
		return nil, fmt.Errorf("failed to register product: %w", err)
	}

	return product, nil
}
