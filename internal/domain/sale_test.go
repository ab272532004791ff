package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreditSale_ComputesTotals(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	items := []LineItem{
		{ProductID: "P1", Quantity: dec("2"), UnitPrice: dec("50")},
		{ProductID: "P2", Quantity: dec("1.5"), UnitPrice: dec("10")},
	}

	sale, err := NewCreditSale("CUST001", items, dec("0.16"), 0, now)

	require.NoError(t, err)
	assert.True(t, sale.Subtotal.Equal(dec("115")))
	assert.True(t, sale.Tax.Equal(dec("18.4")))
	assert.True(t, sale.Total.Equal(dec("133.4")))
	assert.True(t, sale.RemainingBalance.Equal(sale.Total))
	assert.True(t, sale.AmountPaid.IsZero())
	assert.Equal(t, PaymentStatusPending, sale.PaymentStatus)
	assert.Equal(t, now.AddDate(0, 0, DefaultDueInDays), sale.DueDate)
	assert.Len(t, sale.Items, 2)
	assert.Equal(t, sale.ID, sale.Items[0].SaleID)
	assert.Contains(t, sale.Folio, "CR-20260310-")
}

func TestNewCreditSale_RoundsFractionalLines(t *testing.T) {
	// Arrange
	items := []LineItem{
		{ProductID: "P1", Quantity: dec("0.333"), UnitPrice: dec("1.17")},
		{ProductID: "P2", Quantity: dec("1.005"), UnitPrice: dec("3")},
	}

	// Act
	sale, err := NewCreditSale("CUST001", items, dec("0.16"), 30, time.Now())

	// Assert
	require.NoError(t, err)
	assert.True(t, sale.Items[0].LineTotal.Equal(dec("0.39")), sale.Items[0].LineTotal.String())
	assert.True(t, sale.Items[1].LineTotal.Equal(dec("3.02")), sale.Items[1].LineTotal.String())
	assert.True(t, sale.Subtotal.Equal(dec("3.41")), sale.Subtotal.String())
	assert.True(t, sale.Tax.Equal(dec("0.55")), sale.Tax.String())
	assert.True(t, sale.Total.Equal(dec("3.96")), sale.Total.String())
	assert.True(t, sale.Total.Equal(sale.Total.Round(2)))
	assert.True(t, sale.RemainingBalance.Equal(sale.Total))
}

func TestNewCreditSale_InvalidItems(t *testing.T) {
	tests := []struct {
		name  string
		items []LineItem
	}{
		{name: "no items", items: nil},
		{name: "missing product", items: []LineItem{{Quantity: dec("1"), UnitPrice: dec("1")}}},
		{name: "zero quantity", items: []LineItem{{ProductID: "P1", Quantity: dec("0"), UnitPrice: dec("1")}}},
		{name: "negative price", items: []LineItem{{ProductID: "P1", Quantity: dec("1"), UnitPrice: dec("-1")}}},
		{name: "zero total", items: []LineItem{{ProductID: "P1", Quantity: dec("1"), UnitPrice: dec("0")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCreditSale("CUST001", tt.items, dec("0.16"), 30, time.Now())

			assert.ErrorIs(t, err, ErrInvalidItems)
			var vErr *ValidationError
			assert.True(t, errors.As(err, &vErr))
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, PaymentStatusPending, StatusFor(dec("0"), dec("100")))
	assert.Equal(t, PaymentStatusPartial, StatusFor(dec("10"), dec("90")))
	assert.Equal(t, PaymentStatusPaid, StatusFor(dec("99.99"), dec("0.01")))
	assert.Equal(t, PaymentStatusPartial, StatusFor(dec("99.98"), dec("0.02")))
}

func TestCustomer_CheckCredit(t *testing.T) {
	customer, err := NewCustomer("CUST001", "Abarrotes Lupita", dec("1000"))
	require.NoError(t, err)
	customer.CurrentDebt = dec("900")

	err = customer.ChargeSale(dec("150"))

	var limitErr *CreditLimitExceededError
	require.True(t, errors.As(err, &limitErr))
	assert.ErrorIs(t, err, ErrCreditLimitExceeded)
	assert.True(t, limitErr.AvailableCredit.Equal(dec("100")))
	assert.True(t, customer.CurrentDebt.Equal(dec("900")))

	require.NoError(t, customer.ChargeSale(dec("100")))
	assert.True(t, customer.CurrentDebt.Equal(dec("1000")))
	assert.True(t, customer.AvailableCredit().IsZero())
}

func TestCustomer_AvailableCreditNeverNegative(t *testing.T) {
	customer := &Customer{ID: "C", CreditLimit: dec("500"), CurrentDebt: dec("800")}

	assert.True(t, customer.AvailableCredit().IsZero())
}

func TestNewCustomer_Validation(t *testing.T) {
	_, err := NewCustomer("  ", "x", dec("10"))
	assert.ErrorIs(t, err, ErrInvalidCustomerID)

	_, err = NewCustomer("C1", "x", dec("-1"))
	assert.ErrorIs(t, err, ErrInvalidCreditLimit)
}

func TestParsePaymentMethod(t *testing.T) {
	method, err := ParsePaymentMethod("")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodCash, method)

	method, err = ParsePaymentMethod(" transfer ")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodTransfer, method)

	_, err = ParsePaymentMethod("bitcoin")
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}
