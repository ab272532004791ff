package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type DueClass string

const (
	DueClassCurrent DueClass = "CURRENT"
	DueClassDueSoon DueClass = "DUE_SOON"
	DueClassOverdue DueClass = "OVERDUE"
)

const (
	DefaultDueSoonDays       = 7
	DefaultStatementPayments = 50
	AdvanceFolio             = "advance"
	hoursPerDay              = 24
)

// StatementSale is an outstanding invoice as shown on a statement.
type StatementSale struct {
	SaleID           string
	Folio            string
	Total            decimal.Decimal
	AmountPaid       decimal.Decimal
	RemainingBalance decimal.Decimal
	PaymentStatus    PaymentStatus
	DueDate          time.Time
	CreatedAt        time.Time
	DaysUntilDue     int
	Class            DueClass
}

// StatementPayment is a payment annotated with what it paid.
type StatementPayment struct {
	PaymentID   string
	SaleID      *string
	Folio       string
	Amount      decimal.Decimal
	Method      PaymentMethod
	Reference   string
	PaymentDate time.Time
	Notes       string
}

// Statement is the read-only account summary of one customer.
type Statement struct {
	CustomerID       string
	CustomerName     string
	CreditLimit      decimal.Decimal
	CurrentDebt      decimal.Decimal
	AvailableCredit  decimal.Decimal
	TotalOutstanding decimal.Decimal
	TotalOverdue     decimal.Decimal
	OutstandingSales []StatementSale
	Overdue          []StatementSale
	DueSoon          []StatementSale
	Payments         []StatementPayment
	GeneratedAt      time.Time
}

// DaysUntilDue rounds the time left up to whole days. Past due dates are negative or zero.
func DaysUntilDue(due, now time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / hoursPerDay))
}

// ClassifyDue buckets an invoice by its due date.
func ClassifyDue(due, now time.Time, dueSoonDays int) (DueClass, int) {
	days := DaysUntilDue(due, now)
	switch {
	case due.Before(now):
		return DueClassOverdue, days
	case days > 0 && days <= dueSoonDays:
		return DueClassDueSoon, days
	default:
		return DueClassCurrent, days
	}
}

// BuildStatement assembles a statement. folios maps sale ids referenced by
// payments to their invoice folio.
func BuildStatement(customer *Customer, sales []*Sale, payments []*Payment, folios map[string]string, now time.Time, dueSoonDays int) *Statement {
	if dueSoonDays <= 0 {
		dueSoonDays = DefaultDueSoonDays
	}

	st := &Statement{
		CustomerID:       customer.ID,
		CustomerName:     customer.Name,
		CreditLimit:      customer.CreditLimit,
		CurrentDebt:      customer.CurrentDebt,
		AvailableCredit:  customer.AvailableCredit(),
		TotalOutstanding: decimal.Zero,
		TotalOverdue:     decimal.Zero,
		OutstandingSales: []StatementSale{},
		Overdue:          []StatementSale{},
		DueSoon:          []StatementSale{},
		Payments:         make([]StatementPayment, 0, len(payments)),
		GeneratedAt:      now,
	}

	open := make([]*Sale, 0, len(sales))
	for _, sale := range sales {
		if sale.IsOutstanding() {
			open = append(open, sale)
		}
	}
	SortOldestFirst(open)

	for _, sale := range open {
		class, days := ClassifyDue(sale.DueDate, now, dueSoonDays)
		line := StatementSale{
			SaleID:           sale.ID,
			Folio:            sale.Folio,
			Total:            sale.Total,
			AmountPaid:       sale.AmountPaid,
			RemainingBalance: sale.RemainingBalance,
			PaymentStatus:    sale.PaymentStatus,
			DueDate:          sale.DueDate,
			CreatedAt:        sale.CreatedAt,
			DaysUntilDue:     days,
			Class:            class,
		}
		if class == DueClassOverdue {
			line.PaymentStatus = PaymentStatusOverdue
		}

		st.OutstandingSales = append(st.OutstandingSales, line)
		st.TotalOutstanding = st.TotalOutstanding.Add(sale.RemainingBalance)

		switch class {
		case DueClassOverdue:
			st.Overdue = append(st.Overdue, line)
			st.TotalOverdue = st.TotalOverdue.Add(sale.RemainingBalance)
		case DueClassDueSoon:
			st.DueSoon = append(st.DueSoon, line)
		}
	}

	for _, p := range payments {
		folio := AdvanceFolio
		if p.SaleID != nil {
			folio = folios[*p.SaleID]
		}
		st.Payments = append(st.Payments, StatementPayment{
			PaymentID:   p.ID,
			SaleID:      p.SaleID,
			Folio:       folio,
			Amount:      p.Amount,
			Method:      p.Method,
			Reference:   p.Reference,
			PaymentDate: p.PaymentDate,
			Notes:       p.Notes,
		})
	}

	return st
}
