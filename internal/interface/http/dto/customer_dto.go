package dto

import (
	"errors"
	"strings"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateCustomerRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CreditLimit string `json:"credit_limit"`
}

func (r *CreateCustomerRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("id is required")
	}
	if _, err := r.GetCreditLimit(); err != nil {
		return errors.New("credit_limit must be a valid decimal number")
	}
	return nil
}

func (r *CreateCustomerRequest) GetCreditLimit() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(r.CreditLimit))
}

type CustomerResponse struct {
	CustomerID      string          `json:"customer_id"`
	Name            string          `json:"name"`
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	CurrentDebt     decimal.Decimal `json:"current_debt"`
	AvailableCredit decimal.Decimal `json:"available_credit"`
	Version         int64           `json:"version"`
}

func NewCustomerResponse(c *domain.Customer) CustomerResponse {
	return CustomerResponse{
		CustomerID:      c.ID,
		Name:            c.Name,
		CreditLimit:     c.CreditLimit,
		CurrentDebt:     c.CurrentDebt,
		AvailableCredit: c.AvailableCredit(),
		Version:         c.Version,
	}
}

type CreateProductRequest struct {
	ID    string `json:"id"`
	SKU   string `json:"sku"`
	Name  string `json:"name"`
	Stock string `json:"stock"`
}

// GetStock treats a missing stock as zero.
func (r *CreateProductRequest) GetStock() (decimal.Decimal, error) {
	value := strings.TrimSpace(r.Stock)
	if value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}

type ProductResponse struct {
	ID    string          `json:"id"`
	SKU   string          `json:"sku"`
	Name  string          `json:"name"`
	Stock decimal.Decimal `json:"stock"`
}

type ReconcileResponse struct {
	CustomerID    string          `json:"customer_id"`
	PreviousDebt  decimal.Decimal `json:"previous_debt"`
	CorrectedDebt decimal.Decimal `json:"corrected_debt"`
	Drift         decimal.Decimal `json:"drift"`
	Corrected     bool            `json:"corrected"`
}

func NewReconcileResponse(o *domain.ReconcileOutcome) ReconcileResponse {
	return ReconcileResponse{
		CustomerID:    o.CustomerID,
		PreviousDebt:  o.PreviousDebt,
		CorrectedDebt: o.CorrectedDebt,
		Drift:         o.Drift(),
		Corrected:     o.Corrected,
	}
}
