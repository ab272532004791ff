package domain

import "github.com/shopspring/decimal"

// Tolerance absorbs rounding left over from tax and discount computation.
// Every balance comparison in the ledger goes through it.
var Tolerance = decimal.New(1, -2)

// IsSettled reports whether a remaining balance counts as fully paid.
func IsSettled(balance decimal.Decimal) bool {
	return balance.LessThanOrEqual(Tolerance)
}

// IsSignificant reports whether an amount is larger than rounding dust.
func IsSignificant(amount decimal.Decimal) bool {
	return amount.GreaterThan(Tolerance)
}

// Drifted reports whether two balances differ by more than the tolerance.
func Drifted(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().GreaterThan(Tolerance)
}

// nonNegative clamps d at zero.
func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
