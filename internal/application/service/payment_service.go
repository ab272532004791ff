package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentService struct {
	store          domain.Store
	guard          domain.ReferenceGuard // Optional - can be nil
	eventPublisher domain.EventPublisher // Optional - can be nil
	now            func() time.Time
	logger         *zap.Logger
}

// NewPaymentService creates the payment allocator with event publishing
func NewPaymentService(
	store domain.Store,
	guard domain.ReferenceGuard,
	eventPublisher domain.EventPublisher,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		store:          store,
		guard:          guard,
		eventPublisher: eventPublisher,
		now:            time.Now,
		logger:         logger,
	}
}

type ApplyPaymentRequest struct {
	CustomerID  string
	Amount      decimal.Decimal
	Method      string
	Reference   string
	PaymentDate time.Time
	Notes       string
}

type AllocationResult struct {
	CustomerID       string
	Amount           decimal.Decimal
	Allocations      []domain.Allocation
	Applied          decimal.Decimal
	AdvanceAmount    decimal.Decimal
	AdvancePaymentID string
	CurrentDebt      decimal.Decimal
	AvailableCredit  decimal.Decimal
	Reallocated      bool
}

// SalesSettled counts the invoices this payment brought to PAID.
func (r *AllocationResult) SalesSettled() int {
	settled := 0
	for _, a := range r.Allocations {
		if a.Status == domain.PaymentStatusPaid {
			settled++
		}
	}
	return settled
}

// paymentSource carries the fields copied onto every payment row of one
// allocation.
type paymentSource struct {
	amount      decimal.Decimal
	method      domain.PaymentMethod
	reference   string
	paymentDate time.Time
	notes       string
}

// ApplyPayment distributes the amount over the customer's open invoices,
// oldest first. Whatever is left above the tolerance stays on account as an
// advance payment.
func (s *PaymentService) ApplyPayment(ctx context.Context, req ApplyPaymentRequest) (*AllocationResult, error) {
	if !req.Amount.IsPositive() {
		return nil, &domain.ValidationError{Err: domain.ErrInvalidAmount, Details: req.Amount.String()}
	}

	method, err := domain.ParsePaymentMethod(req.Method)
	if err != nil {
		return nil, err
	}

	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = s.now()
	}

	reference := strings.TrimSpace(req.Reference)
	claimed, err := s.claimReference(ctx, req.CustomerID, reference)
	if err != nil {
		return nil, err
	}

	src := paymentSource{
		amount:      req.Amount,
		method:      method,
		reference:   reference,
		paymentDate: paymentDate,
		notes:       req.Notes,
	}

	var result *AllocationResult
	err = s.store.WithinCustomerLock(ctx, req.CustomerID, func(ctx context.Context, tx domain.Ledger) error {
		customer, err := tx.Customers().FindByID(ctx, req.CustomerID)
		if err != nil {
			return err
		}

		sales, err := tx.Sales().FindAllocatable(ctx, req.CustomerID)
		if err != nil {
			return fmt.Errorf("failed to load open sales: %w", err)
		}

		result, err = s.allocate(ctx, tx, customer, sales, src)
		return err
	})
	if err != nil {
		if claimed {
			s.releaseReference(req.CustomerID, reference)
		}
		if domain.IsNotFound(err) || domain.IsValidation(err) {
			return nil, err
		}
		s.logger.Error("failed to apply payment",
			zap.Error(err),
			zap.String("customer_id", req.CustomerID),
			zap.Stringer("amount", req.Amount),
		)
		return nil, fmt.Errorf("failed to apply payment: %w", err)
	}

	s.logger.Info("payment applied",
		zap.String("customer_id", req.CustomerID),
		zap.Stringer("amount", req.Amount),
		zap.Stringer("applied", result.Applied),
		zap.Stringer("advance", result.AdvanceAmount),
		zap.Int("sales_touched", len(result.Allocations)),
		zap.String("reference", reference),
		zap.Stringer("new_debt", result.CurrentDebt),
	)

	if s.eventPublisher != nil {
		go s.publishPaymentAppliedEvent(result, reference)
	}

	return result, nil
}

// FixLastPayment re-runs allocation for the customer's most recent advance
// payment, for when invoices were booked after the money arrived.
func (s *PaymentService) FixLastPayment(ctx context.Context, customerID string) (*AllocationResult, error) {
	var result *AllocationResult
	err := s.store.WithinCustomerLock(ctx, customerID, func(ctx context.Context, tx domain.Ledger) error {
		payment, err := tx.Payments().FindLatestAdvance(ctx, customerID)
		if err != nil {
			return err
		}

		result, err = s.reallocate(ctx, tx, payment)
		return err
	})

	return s.finishReallocation(customerID, result, err)
}

// ReallocatePayment re-runs allocation for one advance payment.
func (s *PaymentService) ReallocatePayment(ctx context.Context, customerID, paymentID string) (*AllocationResult, error) {
	var result *AllocationResult
	err := s.store.WithinCustomerLock(ctx, customerID, func(ctx context.Context, tx domain.Ledger) error {
		payment, err := tx.Payments().FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment.CustomerID != customerID {
			return domain.ErrPaymentNotFound
		}
		if !payment.IsAdvance() {
			return domain.ErrPaymentAlreadyAllocated
		}

		result, err = s.reallocate(ctx, tx, payment)
		return err
	})

	return s.finishReallocation(customerID, result, err)
}

func (s *PaymentService) finishReallocation(customerID string, result *AllocationResult, err error) (*AllocationResult, error) {
	if err != nil {
		if domain.IsNotFound(err) ||
			errors.Is(err, domain.ErrNoAdvancePayment) ||
			errors.Is(err, domain.ErrPaymentAlreadyAllocated) {
			return nil, err
		}
		s.logger.Error("failed to reallocate payment",
			zap.Error(err),
			zap.String("customer_id", customerID),
		)
		return nil, fmt.Errorf("failed to reallocate payment: %w", err)
	}

	if !result.Reallocated {
		s.logger.Info("advance payment left on account, no open sales",
			zap.String("customer_id", customerID),
			zap.String("payment_id", result.AdvancePaymentID),
		)
		return result, nil
	}

	s.logger.Info("advance payment reallocated",
		zap.String("customer_id", customerID),
		zap.Stringer("applied", result.Applied),
		zap.Stringer("advance", result.AdvanceAmount),
		zap.Stringer("new_debt", result.CurrentDebt),
	)

	if s.eventPublisher != nil {
		go s.publishPaymentAppliedEvent(result, "")
	}

	return result, nil
}

// reallocate replaces an advance payment with a fresh FIFO allocation of the
// same money. With nothing to apply it to, the payment is left as is.
func (s *PaymentService) reallocate(ctx context.Context, tx domain.Ledger, payment *domain.Payment) (*AllocationResult, error) {
	customer, err := tx.Customers().FindByID(ctx, payment.CustomerID)
	if err != nil {
		return nil, err
	}

	sales, err := tx.Sales().FindAllocatable(ctx, payment.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load open sales: %w", err)
	}

	if len(sales) == 0 {
		return &AllocationResult{
			CustomerID:       customer.ID,
			Amount:           payment.Amount,
			Applied:          decimal.Zero,
			AdvanceAmount:    payment.Amount,
			AdvancePaymentID: payment.ID,
			CurrentDebt:      customer.CurrentDebt,
			AvailableCredit:  customer.AvailableCredit(),
		}, nil
	}

	if err := tx.Payments().Delete(ctx, payment.ID); err != nil {
		return nil, fmt.Errorf("failed to remove advance payment: %w", err)
	}

	notes := fmt.Sprintf("reallocated from %s", payment.ID)
	if payment.Notes != "" {
		notes = payment.Notes + "; " + notes
	}

	result, err := s.allocate(ctx, tx, customer, sales, paymentSource{
		amount:      payment.Amount,
		method:      payment.Method,
		reference:   payment.Reference,
		paymentDate: payment.PaymentDate,
		notes:       notes,
	})
	if err != nil {
		return nil, err
	}

	result.Reallocated = true
	return result, nil
}

// allocate runs FIFO over sales and writes one payment row per invoice
// touched, an advance row for a significant residue, and the new debt.
func (s *PaymentService) allocate(ctx context.Context, tx domain.Ledger, customer *domain.Customer, sales []*domain.Sale, src paymentSource) (*AllocationResult, error) {
	plan, err := domain.AllocateFIFO(src.amount, sales)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Sale, len(sales))
	for _, sale := range sales {
		byID[sale.ID] = sale
	}

	for _, allocation := range plan.Allocations {
		saleID := allocation.SaleID
		payment, err := domain.NewPayment(customer.ID, &saleID, allocation.Applied, src.method, src.reference, src.paymentDate, src.notes)
		if err != nil {
			return nil, fmt.Errorf("invalid payment data: %w", err)
		}
		if err := tx.Payments().Create(ctx, payment); err != nil {
			return nil, fmt.Errorf("failed to save payment: %w", err)
		}
		if err := tx.Sales().SavePayment(ctx, byID[saleID]); err != nil {
			return nil, fmt.Errorf("failed to update sale %s: %w", saleID, err)
		}
	}

	result := &AllocationResult{
		CustomerID:    customer.ID,
		Amount:        src.amount,
		Allocations:   plan.Allocations,
		Applied:       plan.Applied,
		AdvanceAmount: plan.Advance,
	}

	if plan.HasAdvance() {
		advance, err := domain.NewPayment(customer.ID, nil, plan.Advance, src.method, src.reference, src.paymentDate, src.notes)
		if err != nil {
			return nil, fmt.Errorf("invalid payment data: %w", err)
		}
		if err := tx.Payments().Create(ctx, advance); err != nil {
			return nil, fmt.Errorf("failed to save advance payment: %w", err)
		}
		result.AdvancePaymentID = advance.ID
	}

	if plan.Dust.IsPositive() {
		s.logger.Debug("payment residue below tolerance discarded",
			zap.String("customer_id", customer.ID),
			zap.Stringer("dust", plan.Dust),
		)
	}

	if plan.Applied.IsPositive() {
		customer.CreditPayment(plan.Applied)
		if err := tx.Customers().Save(ctx, customer); err != nil {
			return nil, fmt.Errorf("failed to save customer: %w", err)
		}
	}

	result.CurrentDebt = customer.CurrentDebt
	result.AvailableCredit = customer.AvailableCredit()
	return result, nil
}

// claimReference reports whether this call now owns the reference. An
// unreachable guard is logged and the payment goes through unguarded.
func (s *PaymentService) claimReference(ctx context.Context, customerID, reference string) (bool, error) {
	if s.guard == nil || reference == "" {
		return false, nil
	}

	claimed, err := s.guard.Claim(ctx, customerID, reference)
	if err != nil {
		s.logger.Warn("payment reference check failed, continuing without it",
			zap.Error(err),
			zap.String("customer_id", customerID),
			zap.String("reference", reference),
		)
		return false, nil
	}
	if !claimed {
		s.logger.Info("duplicate payment reference rejected",
			zap.String("customer_id", customerID),
			zap.String("reference", reference),
		)
		return false, domain.ErrDuplicatePayment
	}
	return true, nil
}

func (s *PaymentService) releaseReference(customerID, reference string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.guard.Release(ctx, customerID, reference); err != nil {
		s.logger.Warn("failed to release payment reference",
			zap.Error(err),
			zap.String("customer_id", customerID),
			zap.String("reference", reference),
		)
	}
}

func (s *PaymentService) publishPaymentAppliedEvent(result *AllocationResult, reference string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := domain.NewPaymentAppliedEvent(result.CustomerID, domain.PaymentAppliedPayload{
		CustomerID:    result.CustomerID,
		Reference:     reference,
		Amount:        result.Amount,
		Applied:       result.Applied,
		AdvanceAmount: result.AdvanceAmount,
		SalesTouched:  len(result.Allocations),
		SalesSettled:  result.SalesSettled(),
		CurrentDebt:   result.CurrentDebt,
		Reallocation:  result.Reallocated,
		ProcessedAt:   time.Now(),
	})

	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish payment applied event",
			zap.Error(err),
			zap.String("customer_id", result.CustomerID),
			zap.String("event_id", event.GetEventID()),
		)
	} else {
		s.logger.Debug("payment applied event published",
			zap.String("event_id", event.GetEventID()),
			zap.String("customer_id", result.CustomerID),
		)
	}
}

type PaginationParams struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func (p PaginationParams) normalize() PaginationParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

type PaginatedPayments struct {
	Payments   []*domain.Payment
	Page       int
	PageSize   int
	TotalCount int64
	TotalPages int
}

func (s *PaymentService) GetCustomerPaymentsPaginated(ctx context.Context, customerID string, params PaginationParams) (*PaginatedPayments, error) {
	params = params.normalize()

	if _, err := s.store.Customers().FindByID(ctx, customerID); err != nil {
		return nil, err
	}

	total, err := s.store.Payments().CountByCustomerID(ctx, customerID)
	if err != nil {
		s.logger.Error("failed to count customer payments",
			zap.Error(err),
			zap.String("customer_id", customerID),
		)
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	payments, err := s.store.Payments().FindByCustomerIDWithPagination(ctx, customerID, params.PageSize, offset)
	if err != nil {
		s.logger.Error("failed to get customer payments",
			zap.Error(err),
			zap.String("customer_id", customerID),
		)
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}

	totalPages := int((total + int64(params.PageSize) - 1) / int64(params.PageSize))

	return &PaginatedPayments{
		Payments:   payments,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}, nil
}
