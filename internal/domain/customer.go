package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Customer is the aggregate that owns a credit account.
type Customer struct {
	ID          string
	Name        string
	CreditLimit decimal.Decimal
	CurrentDebt decimal.Decimal // derived from open sale balances, persisted for fast reads
	Version     int64           // for optimistic locking
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewCustomer onboards a customer with no debt.
func NewCustomer(id, name string, creditLimit decimal.Decimal) (*Customer, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidCustomerID
	}
	if creditLimit.IsNegative() {
		return nil, ErrInvalidCreditLimit
	}

	now := time.Now()
	return &Customer{
		ID:          id,
		Name:        strings.TrimSpace(name),
		CreditLimit: creditLimit,
		CurrentDebt: decimal.Zero,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// AvailableCredit returns how much more the customer can buy on credit.
func (c *Customer) AvailableCredit() decimal.Decimal {
	return nonNegative(c.CreditLimit.Sub(c.CurrentDebt))
}

// CheckCredit fails when a sale of total would push debt past the limit.
func (c *Customer) CheckCredit(total decimal.Decimal) error {
	if c.CurrentDebt.Add(total).GreaterThan(c.CreditLimit) {
		return &CreditLimitExceededError{
			CustomerID:      c.ID,
			CreditLimit:     c.CreditLimit,
			CurrentDebt:     c.CurrentDebt,
			Requested:       total,
			AvailableCredit: c.AvailableCredit(),
		}
	}
	return nil
}

// ChargeSale books a new credit sale against the account.
func (c *Customer) ChargeSale(total decimal.Decimal) error {
	if err := c.CheckCredit(total); err != nil {
		return err
	}
	c.CurrentDebt = c.CurrentDebt.Add(total)
	return nil
}

// CreditPayment lowers debt by the amount that reached invoices.
// Advance residue is not included by callers.
func (c *Customer) CreditPayment(applied decimal.Decimal) {
	c.CurrentDebt = c.CurrentDebt.Sub(applied)
}

// OverrideDebt replaces the stored debt with a recomputed value.
func (c *Customer) OverrideDebt(debt decimal.Decimal) {
	c.CurrentDebt = debt
}
