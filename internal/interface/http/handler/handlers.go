package handler

import (
	"github.com/gigmile/receivables-service/internal/application/service"
	"github.com/gigmile/receivables-service/internal/config"
	"github.com/gigmile/receivables-service/internal/domain"
	"go.uber.org/zap"
)

type Handlers struct {
	Customer *CustomerHandler
	Sale     *SaleHandler
	Payment  *PaymentHandler
	Ledger   *LedgerHandler
}

// NewHandlers wires the ledger services. guard and eventPublisher may be nil.
func NewHandlers(
	store domain.Store,
	guard domain.ReferenceGuard,
	eventPublisher domain.EventPublisher,
	cfg config.LedgerConfig,
	logger *zap.Logger,
) *Handlers {
	customerService := service.NewCustomerService(store, logger)
	saleService := service.NewSaleService(store, eventPublisher, cfg.TaxRate, cfg.DefaultDueDays, logger)
	paymentService := service.NewPaymentService(store, guard, eventPublisher, logger)
	reconcileService := service.NewReconcileService(store, eventPublisher, logger)
	statementService := service.NewStatementService(store, cfg.DueSoonDays, cfg.StatementPayments, logger)

	return &Handlers{
		Customer: NewCustomerHandler(customerService, logger),
		Sale:     NewSaleHandler(saleService, logger),
		Payment:  NewPaymentHandler(paymentService, logger),
		Ledger:   NewLedgerHandler(reconcileService, statementService, logger),
	}
}
