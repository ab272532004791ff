package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Allocation is the share of a payment applied to one invoice.
type Allocation struct {
	SaleID        string
	Folio         string
	Applied       decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Status        PaymentStatus
}

// AllocationPlan is the outcome of distributing a payment over open invoices.
type AllocationPlan struct {
	Allocations []Allocation
	Applied     decimal.Decimal // reaches invoices and lowers debt
	Advance     decimal.Decimal // left on account, zero when none
	Dust        decimal.Decimal // residue too small to record
}

// HasAdvance reports whether the plan leaves credit on account.
func (p AllocationPlan) HasAdvance() bool {
	return p.Advance.IsPositive()
}

// SortOldestFirst orders invoices by creation time, ties broken by id.
func SortOldestFirst(sales []*Sale) {
	sort.SliceStable(sales, func(i, j int) bool {
		if !sales[i].CreatedAt.Equal(sales[j].CreatedAt) {
			return sales[i].CreatedAt.Before(sales[j].CreatedAt)
		}
		return sales[i].ID < sales[j].ID
	})
}

// AllocateFIFO applies amount to the oldest invoices first. The sales are
// updated in place; only those that received money show up in the plan.
func AllocateFIFO(amount decimal.Decimal, sales []*Sale) (AllocationPlan, error) {
	if !amount.IsPositive() {
		return AllocationPlan{}, ErrInvalidAmount
	}

	open := make([]*Sale, 0, len(sales))
	for _, sale := range sales {
		if sale.IsAllocatable() {
			open = append(open, sale)
		}
	}
	SortOldestFirst(open)

	plan := AllocationPlan{Applied: decimal.Zero, Advance: decimal.Zero, Dust: decimal.Zero}
	remaining := amount

	for _, sale := range open {
		if !remaining.IsPositive() {
			break
		}

		before := sale.RemainingBalance
		applied := sale.ApplyPayment(remaining)
		if applied.IsZero() {
			continue
		}

		plan.Allocations = append(plan.Allocations, Allocation{
			SaleID:        sale.ID,
			Folio:         sale.Folio,
			Applied:       applied,
			BalanceBefore: before,
			BalanceAfter:  sale.RemainingBalance,
			Status:        sale.PaymentStatus,
		})
		plan.Applied = plan.Applied.Add(applied)
		remaining = remaining.Sub(applied)
	}

	// With nothing to pay down, the whole amount is kept as an advance so the
	// payment always leaves a row behind.
	if len(plan.Allocations) == 0 || IsSignificant(remaining) {
		plan.Advance = remaining
	} else if remaining.IsPositive() {
		plan.Dust = remaining
	}

	return plan, nil
}
