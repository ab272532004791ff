package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodCard     PaymentMethod = "CARD"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodCheck    PaymentMethod = "CHECK"
	PaymentMethodVoucher  PaymentMethod = "VOUCHER"
)

// ParsePaymentMethod normalizes user input. Empty input means cash.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	method := PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	switch method {
	case "":
		return PaymentMethodCash, nil
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer, PaymentMethodCheck, PaymentMethodVoucher:
		return method, nil
	default:
		return "", &ValidationError{Err: ErrInvalidPaymentMethod, Details: s}
	}
}

// Payment is one append-only row of the payment trail. A nil SaleID marks
// an advance payment not yet applied to any invoice.
type Payment struct {
	ID          string
	CustomerID  string
	SaleID      *string
	Amount      decimal.Decimal
	Method      PaymentMethod
	Reference   string
	PaymentDate time.Time
	Notes       string
	CreatedAt   time.Time
}

func NewPayment(customerID string, saleID *string, amount decimal.Decimal, method PaymentMethod, reference string, paymentDate time.Time, notes string) (*Payment, error) {
	if customerID == "" {
		return nil, ErrInvalidCustomerID
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if method == "" {
		method = PaymentMethodCash
	}

	return &Payment{
		ID:          uuid.New().String(),
		CustomerID:  customerID,
		SaleID:      saleID,
		Amount:      amount,
		Method:      method,
		Reference:   reference,
		PaymentDate: paymentDate,
		Notes:       notes,
		CreatedAt:   time.Now(),
	}, nil
}

// IsAdvance reports whether the payment is unallocated credit on account.
func (p *Payment) IsAdvance() bool {
	return p.SaleID == nil
}
