package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPartial PaymentStatus = "PARTIAL"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusOverdue PaymentStatus = "OVERDUE"
)

// AllocatableStatuses are the stored statuses a payment can be applied to.
var AllocatableStatuses = []PaymentStatus{PaymentStatusPending, PaymentStatusPartial}

// DefaultDueInDays applies when a credit sale does not specify a due date.
const DefaultDueInDays = 30

// LineItem is one requested line of a credit sale.
type LineItem struct {
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// SaleItem is a persisted invoice line.
type SaleItem struct {
	ID        string
	SaleID    string
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Sale is a credit invoice.
type Sale struct {
	ID               string
	Folio            string
	CustomerID       string
	Items            []SaleItem
	Subtotal         decimal.Decimal
	Tax              decimal.Decimal
	Total            decimal.Decimal
	AmountPaid       decimal.Decimal
	RemainingBalance decimal.Decimal
	PaymentStatus    PaymentStatus
	DueDate          time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewCreditSale prices the items and opens a pending invoice for the full total.
func NewCreditSale(customerID string, items []LineItem, taxRate decimal.Decimal, dueInDays int, now time.Time) (*Sale, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, ErrInvalidCustomerID
	}
	if len(items) == 0 {
		return nil, invalidItems("at least one item is required")
	}
	if taxRate.IsNegative() {
		return nil, fmt.Errorf("tax rate must not be negative: %s", taxRate)
	}
	if dueInDays <= 0 {
		dueInDays = DefaultDueInDays
	}

	saleID := uuid.New().String()
	lines := make([]SaleItem, 0, len(items))
	subtotal := decimal.Zero

	for i, item := range items {
		if strings.TrimSpace(item.ProductID) == "" {
			return nil, invalidItems("item %d: product_id is required", i)
		}
		if !item.Quantity.IsPositive() {
			return nil, invalidItems("item %d: quantity must be positive", i)
		}
		if item.UnitPrice.IsNegative() {
			return nil, invalidItems("item %d: unit price must not be negative", i)
		}

		lineTotal := item.Quantity.Mul(item.UnitPrice).Round(2)
		subtotal = subtotal.Add(lineTotal)
		lines = append(lines, SaleItem{
			ID:        uuid.New().String(),
			SaleID:    saleID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: lineTotal,
		})
	}

	tax := subtotal.Mul(taxRate).Round(2)
	total := subtotal.Add(tax)
	if !total.IsPositive() {
		return nil, invalidItems("sale total must be positive")
	}

	return &Sale{
		ID:               saleID,
		Folio:            newFolio(now, saleID),
		CustomerID:       customerID,
		Items:            lines,
		Subtotal:         subtotal,
		Tax:              tax,
		Total:            total,
		AmountPaid:       decimal.Zero,
		RemainingBalance: total,
		PaymentStatus:    PaymentStatusPending,
		DueDate:          now.AddDate(0, 0, dueInDays),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func newFolio(now time.Time, saleID string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(saleID, "-", "")[:8])
	return fmt.Sprintf("CR-%s-%s", now.Format("20060102"), suffix)
}

// ApplyPayment applies up to amount to the invoice and returns what was used.
func (s *Sale) ApplyPayment(amount decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() || !s.RemainingBalance.IsPositive() {
		return decimal.Zero
	}

	applied := decimal.Min(amount, s.RemainingBalance)
	s.AmountPaid = s.AmountPaid.Add(applied)
	s.RemainingBalance = nonNegative(s.Total.Sub(s.AmountPaid))
	s.PaymentStatus = StatusFor(s.AmountPaid, s.RemainingBalance)
	return applied
}

// StatusFor derives the stored payment status from the paid amount and balance.
func StatusFor(amountPaid, remaining decimal.Decimal) PaymentStatus {
	switch {
	case IsSettled(remaining):
		return PaymentStatusPaid
	case amountPaid.IsZero():
		return PaymentStatusPending
	default:
		return PaymentStatusPartial
	}
}

// IsOutstanding reports whether the invoice still carries a meaningful balance.
func (s *Sale) IsOutstanding() bool {
	return s.PaymentStatus != PaymentStatusPaid && IsSignificant(s.RemainingBalance)
}

// IsAllocatable reports whether a payment can be applied to the invoice.
func (s *Sale) IsAllocatable() bool {
	if !s.RemainingBalance.IsPositive() {
		return false
	}
	for _, status := range AllocatableStatuses {
		if s.PaymentStatus == status {
			return true
		}
	}
	return false
}
