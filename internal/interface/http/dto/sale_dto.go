package dto

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/shopspring/decimal"
)

type SaleItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type CreditSaleRequest struct {
	Items     []SaleItemRequest `json:"items"`
	DueInDays int               `json:"due_in_days"`
}

// LineItems parses the request lines. Business checks such as positive
// quantities are left to the domain.
func (r *CreditSaleRequest) LineItems() ([]domain.LineItem, error) {
	if len(r.Items) == 0 {
		return nil, errors.New("items is required")
	}
	if r.DueInDays < 0 {
		return nil, errors.New("due_in_days must not be negative")
	}

	items := make([]domain.LineItem, 0, len(r.Items))
	for i, item := range r.Items {
		qty, err := decimal.NewFromString(strings.TrimSpace(item.Quantity))
		if err != nil {
			return nil, fmt.Errorf("items[%d].quantity must be a valid decimal number", i)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(item.UnitPrice))
		if err != nil {
			return nil, fmt.Errorf("items[%d].unit_price must be a valid decimal number", i)
		}
		items = append(items, domain.LineItem{
			ProductID: strings.TrimSpace(item.ProductID),
			Quantity:  qty,
			UnitPrice: price,
		})
	}
	return items, nil
}

type SaleItemResponse struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type SaleResponse struct {
	ID               string             `json:"id"`
	Folio            string             `json:"folio"`
	CustomerID       string             `json:"customer_id"`
	Items            []SaleItemResponse `json:"items"`
	Subtotal         decimal.Decimal    `json:"subtotal"`
	Tax              decimal.Decimal    `json:"tax"`
	Total            decimal.Decimal    `json:"total"`
	RemainingBalance decimal.Decimal    `json:"remaining_balance"`
	PaymentStatus    string             `json:"payment_status"`
	DueDate          string             `json:"due_date"`
	CreatedAt        string             `json:"created_at"`
	CurrentDebt      decimal.Decimal    `json:"current_debt"`
	AvailableCredit  decimal.Decimal    `json:"available_credit"`
}

func NewSaleResponse(sale *domain.Sale, currentDebt, availableCredit decimal.Decimal) SaleResponse {
	items := make([]SaleItemResponse, len(sale.Items))
	for i, item := range sale.Items {
		items[i] = SaleItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		}
	}

	return SaleResponse{
		ID:               sale.ID,
		Folio:            sale.Folio,
		CustomerID:       sale.CustomerID,
		Items:            items,
		Subtotal:         sale.Subtotal,
		Tax:              sale.Tax,
		Total:            sale.Total,
		RemainingBalance: sale.RemainingBalance,
		PaymentStatus:    string(sale.PaymentStatus),
		DueDate:          sale.DueDate.Format(time.RFC3339),
		CreatedAt:        sale.CreatedAt.Format(time.RFC3339),
		CurrentDebt:      currentDebt,
		AvailableCredit:  availableCredit,
	}
}
