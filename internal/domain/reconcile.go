package domain

import "github.com/shopspring/decimal"

// ReconcileOutcome carries the stored debt and the debt computed from the
// invoices. Corrected is set only when they differ by more than Tolerance.
type ReconcileOutcome struct {
	CustomerID    string
	PreviousDebt  decimal.Decimal
	CorrectedDebt decimal.Decimal
	Corrected     bool
}

// Drift is how far the stored debt is from the invoice balances.
func (o ReconcileOutcome) Drift() decimal.Decimal {
	return o.PreviousDebt.Sub(o.CorrectedDebt)
}

// OutstandingDebt sums the balances still carried by the invoices.
func OutstandingDebt(sales []*Sale) decimal.Decimal {
	total := decimal.Zero
	for _, sale := range sales {
		if sale.RemainingBalance.IsPositive() {
			total = total.Add(sale.RemainingBalance)
		}
	}
	return total
}

// ReconcileDebt compares the stored debt with the invoice balances. It does
// not mutate the customer.
func ReconcileDebt(customer *Customer, sales []*Sale) ReconcileOutcome {
	computed := OutstandingDebt(sales)
	outcome := ReconcileOutcome{
		CustomerID:    customer.ID,
		PreviousDebt:  customer.CurrentDebt,
		CorrectedDebt: computed,
		Corrected:     Drifted(customer.CurrentDebt, computed),
	}
	return outcome
}
