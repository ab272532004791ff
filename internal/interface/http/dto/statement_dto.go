package dto

import (
	"time"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/shopspring/decimal"
)

type StatementSaleResponse struct {
	SaleID           string          `json:"sale_id"`
	Folio            string          `json:"folio"`
	Total            decimal.Decimal `json:"total"`
	AmountPaid       decimal.Decimal `json:"amount_paid"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	PaymentStatus    string          `json:"payment_status"`
	DueDate          string          `json:"due_date"`
	DaysUntilDue     int             `json:"days_until_due"`
}

type StatementPaymentResponse struct {
	PaymentID   string          `json:"payment_id"`
	Folio       string          `json:"folio"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Reference   string          `json:"reference,omitempty"`
	PaymentDate string          `json:"payment_date"`
}

type StatementResponse struct {
	CustomerID       string                     `json:"customer_id"`
	CustomerName     string                     `json:"customer_name"`
	CreditLimit      decimal.Decimal            `json:"credit_limit"`
	CurrentDebt      decimal.Decimal            `json:"current_debt"`
	AvailableCredit  decimal.Decimal            `json:"available_credit"`
	TotalOutstanding decimal.Decimal            `json:"total_outstanding"`
	TotalOverdue     decimal.Decimal            `json:"total_overdue"`
	OutstandingSales []StatementSaleResponse    `json:"outstanding_sales"`
	Overdue          []StatementSaleResponse    `json:"overdue"`
	DueSoon          []StatementSaleResponse    `json:"due_soon"`
	Payments         []StatementPaymentResponse `json:"payments"`
	GeneratedAt      string                     `json:"generated_at"`
}

func statementSales(lines []domain.StatementSale) []StatementSaleResponse {
	out := make([]StatementSaleResponse, len(lines))
	for i, line := range lines {
		out[i] = StatementSaleResponse{
			SaleID:           line.SaleID,
			Folio:            line.Folio,
			Total:            line.Total,
			AmountPaid:       line.AmountPaid,
			RemainingBalance: line.RemainingBalance,
			PaymentStatus:    string(line.PaymentStatus),
			DueDate:          line.DueDate.Format(time.RFC3339),
			DaysUntilDue:     line.DaysUntilDue,
		}
	}
	return out
}

func NewStatementResponse(st *domain.Statement) StatementResponse {
	payments := make([]StatementPaymentResponse, len(st.Payments))
	for i, p := range st.Payments {
		payments[i] = StatementPaymentResponse{
			PaymentID:   p.PaymentID,
			Folio:       p.Folio,
			Amount:      p.Amount,
			Method:      string(p.Method),
			Reference:   p.Reference,
			PaymentDate: p.PaymentDate.Format(time.RFC3339),
		}
	}

	return StatementResponse{
		CustomerID:       st.CustomerID,
		CustomerName:     st.CustomerName,
		CreditLimit:      st.CreditLimit,
		CurrentDebt:      st.CurrentDebt,
		AvailableCredit:  st.AvailableCredit,
		TotalOutstanding: st.TotalOutstanding,
		TotalOverdue:     st.TotalOverdue,
		OutstandingSales: statementSales(st.OutstandingSales),
		Overdue:          statementSales(st.Overdue),
		DueSoon:          statementSales(st.DueSoon),
		Payments:         payments,
		GeneratedAt:      st.GeneratedAt.Format(time.RFC3339),
	}
}
