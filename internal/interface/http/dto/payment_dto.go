package dto

import (
	"errors"
	"strings"
	"time"

	"github.com/gigmile/receivables-service/internal/application/service"
	"github.com/shopspring/decimal"
)

// Accepted payment_date layouts.
var paymentDateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

type PaymentRequest struct {
	Amount      string `json:"amount"`
	Method      string `json:"method"`
	Reference   string `json:"reference"`
	PaymentDate string `json:"payment_date"`
	Notes       string `json:"notes"`
}

func (r *PaymentRequest) Validate() error {
	if strings.TrimSpace(r.Amount) == "" {
		return errors.New("amount is required")
	}
	if _, err := r.GetAmount(); err != nil {
		return errors.New("amount must be a valid decimal number")
	}
	if _, err := r.GetPaymentDate(); err != nil {
		return errors.New("payment_date must be RFC3339 or 'YYYY-MM-DD HH:MM:SS'")
	}
	return nil
}

func (r *PaymentRequest) GetAmount() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(r.Amount))
}

// GetPaymentDate returns the zero time when no date was sent.
func (r *PaymentRequest) GetPaymentDate() (time.Time, error) {
	value := strings.TrimSpace(r.PaymentDate)
	if value == "" {
		return time.Time{}, nil
	}

	var lastErr error
	for _, layout := range paymentDateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

type AllocationResponse struct {
	SaleID        string          `json:"sale_id"`
	Folio         string          `json:"folio"`
	Applied       decimal.Decimal `json:"applied"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Status        string          `json:"status"`
}

type PaymentResponse struct {
	Success          bool                 `json:"success"`
	Message          string               `json:"message"`
	CustomerID       string               `json:"customer_id"`
	Amount           decimal.Decimal      `json:"amount"`
	Applied          decimal.Decimal      `json:"applied"`
	Allocations      []AllocationResponse `json:"allocations"`
	AdvanceAmount    decimal.Decimal      `json:"advance_amount"`
	AdvancePaymentID string               `json:"advance_payment_id,omitempty"`
	CurrentDebt      decimal.Decimal      `json:"current_debt"`
	AvailableCredit  decimal.Decimal      `json:"available_credit"`
	Reallocated      bool                 `json:"reallocated,omitempty"`
}

type PaymentRecordResponse struct {
	ID          string          `json:"id"`
	CustomerID  string          `json:"customer_id"`
	SaleID      *string         `json:"sale_id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Reference   string          `json:"reference,omitempty"`
	PaymentDate string          `json:"payment_date"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

type PaginationResponse struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

type PaymentListResponse struct {
	CustomerID string                  `json:"customer_id"`
	Payments   []PaymentRecordResponse `json:"payments"`
	Pagination PaginationResponse      `json:"pagination"`
}

type ErrorResponse struct {
	Error           string           `json:"error"`
	Message         string           `json:"message,omitempty"`
	AvailableCredit *decimal.Decimal `json:"available_credit,omitempty"`
}

func NewPaymentResponse(message string, result *service.AllocationResult) PaymentResponse {
	allocations := make([]AllocationResponse, len(result.Allocations))
	for i, a := range result.Allocations {
		allocations[i] = AllocationResponse{
			SaleID:        a.SaleID,
			Folio:         a.Folio,
			Applied:       a.Applied,
			BalanceBefore: a.BalanceBefore,
			BalanceAfter:  a.BalanceAfter,
			Status:        string(a.Status),
		}
	}

	return PaymentResponse{
		Success:          true,
		Message:          message,
		CustomerID:       result.CustomerID,
		Amount:           result.Amount,
		Applied:          result.Applied,
		Allocations:      allocations,
		AdvanceAmount:    result.AdvanceAmount,
		AdvancePaymentID: result.AdvancePaymentID,
		CurrentDebt:      result.CurrentDebt,
		AvailableCredit:  result.AvailableCredit,
		Reallocated:      result.Reallocated,
	}
}
