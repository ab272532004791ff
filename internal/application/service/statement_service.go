package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gigmile/receivables-service/internal/domain"
	"go.uber.org/zap"
)

type StatementService struct {
	ledger        domain.Ledger
	dueSoonDays   int
	paymentsLimit int
	now           func() time.Time
	logger        *zap.Logger
}

func NewStatementService(ledger domain.Ledger, dueSoonDays, paymentsLimit int, logger *zap.Logger) *StatementService {
	if dueSoonDays <= 0 {
		dueSoonDays = domain.DefaultDueSoonDays
	}
	if paymentsLimit <= 0 {
		paymentsLimit = domain.DefaultStatementPayments
	}
	return &StatementService{
		ledger:        ledger,
		dueSoonDays:   dueSoonDays,
		paymentsLimit: paymentsLimit,
		now:           time.Now,
		logger:        logger,
	}
}

// GetStatement is a read-only view of the account. It takes no lock.
func (s *StatementService) GetStatement(ctx context.Context, customerID string) (*domain.Statement, error) {
	customer, err := s.ledger.Customers().FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	sales, err := s.ledger.Sales().FindWithBalance(ctx, customerID)
	if err != nil {
		s.logger.Error("failed to load sales for statement", zap.Error(err), zap.String("customer_id", customerID))
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}

	payments, err := s.ledger.Payments().FindRecentByCustomer(ctx, customerID, s.paymentsLimit)
	if err != nil {
		s.logger.Error("failed to load payments for statement", zap.Error(err), zap.String("customer_id", customerID))
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}

	folios, err := s.folios(ctx, sales, payments)
	if err != nil {
		return nil, err
	}

	return domain.BuildStatement(customer, sales, payments, folios, s.now(), s.dueSoonDays), nil
}

// folios resolves the invoice folio of every payment, loading settled
// invoices that are not among the open ones.
func (s *StatementService) folios(ctx context.Context, open []*domain.Sale, payments []*domain.Payment) (map[string]string, error) {
	folios := make(map[string]string, len(open))
	for _, sale := range open {
		folios[sale.ID] = sale.Folio
	}

	var missing []string
	seen := make(map[string]bool)
	for _, p := range payments {
		if p.SaleID == nil {
			continue
		}
		id := *p.SaleID
		if _, ok := folios[id]; ok || seen[id] {
			continue
		}
		seen[id] = true
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return folios, nil
	}

	settled, err := s.ledger.Sales().FindByIDs(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice folios: %w", err)
	}
	for _, sale := range settled {
		folios[sale.ID] = sale.Folio
	}
	return folios, nil
}
