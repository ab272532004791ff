package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the slice of the catalog the ledger touches: its stock level.
type Product struct {
	ID        string
	SKU       string
	Name      string
	Stock     decimal.Decimal
	UpdatedAt time.Time
}

const MovementReasonCreditSale = "CREDIT_SALE"

// InventoryMovement audits a stock change. Quantity is negative for outflows.
type InventoryMovement struct {
	ID        string
	ProductID string
	SaleID    string
	Quantity  decimal.Decimal
	Reason    string
	CreatedAt time.Time
}

// SaleMovement records the stock leaving with one invoice line.
func SaleMovement(item SaleItem, at time.Time) *InventoryMovement {
	return &InventoryMovement{
		ID:        uuid.New().String(),
		ProductID: item.ProductID,
		SaleID:    item.SaleID,
		Quantity:  item.Quantity.Neg(),
		Reason:    MovementReasonCreditSale,
		CreatedAt: at,
	}
}
