package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Domain errors
var (
	ErrInvalidCustomerID    = errors.New("invalid customer ID")
	ErrInvalidCreditLimit   = errors.New("credit limit must not be negative")
	ErrInvalidAmount        = errors.New("invalid payment amount")
	ErrInvalidItems         = errors.New("invalid sale items")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrCreditLimitExceeded  = errors.New("customer credit limit exceeded")
	ErrDuplicatePayment     = errors.New("payment reference already applied")

	ErrCustomerNotFound = errors.New("customer not found")
	ErrCustomerExists   = errors.New("customer already exists")
	ErrSaleNotFound     = errors.New("sale not found")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrProductNotFound  = errors.New("product not found")

	ErrNoAdvancePayment        = errors.New("customer has no unallocated payment")
	ErrPaymentAlreadyAllocated = errors.New("payment is already allocated to a sale")
	ErrOptimisticLock          = errors.New("version mismatch - optimistic lock failed")
)

// ValidationError carries the offending detail next to its sentinel.
type ValidationError struct {
	Err     error
	Details string
}

func (e *ValidationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalidItems(format string, args ...interface{}) error {
	return &ValidationError{Err: ErrInvalidItems, Details: fmt.Sprintf(format, args...)}
}

// CreditLimitExceededError reports how much credit the customer had left
// when a sale was rejected.
type CreditLimitExceededError struct {
	CustomerID      string
	CreditLimit     decimal.Decimal
	CurrentDebt     decimal.Decimal
	Requested       decimal.Decimal
	AvailableCredit decimal.Decimal
}

func (e *CreditLimitExceededError) Error() string {
	return fmt.Sprintf("%s: customer %s requested %s, available credit %s",
		ErrCreditLimitExceeded.Error(),
		e.CustomerID,
		e.Requested.StringFixed(2),
		e.AvailableCredit.StringFixed(2),
	)
}

func (e *CreditLimitExceededError) Unwrap() error {
	return ErrCreditLimitExceeded
}

// IsValidation reports whether err is a caller input error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidItems) ||
		errors.Is(err, ErrInvalidCustomerID) ||
		errors.Is(err, ErrInvalidCreditLimit) ||
		errors.Is(err, ErrInvalidPaymentMethod)
}

// IsNotFound reports whether err is one of the not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrSaleNotFound) ||
		errors.Is(err, ErrPaymentNotFound)
}
