package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type CustomerRepository interface {
	FindByID(ctx context.Context, customerID string) (*Customer, error)
	Create(ctx context.Context, customer *Customer) error
	Save(ctx context.Context, customer *Customer) error
	ListIDs(ctx context.Context, limit, offset int) ([]string, error)
}

type SaleRepository interface {
	Create(ctx context.Context, sale *Sale) error
	// SavePayment persists amount paid, balance and status.
	SavePayment(ctx context.Context, sale *Sale) error
	FindByID(ctx context.Context, saleID string) (*Sale, error)
	FindByIDs(ctx context.Context, saleIDs []string) ([]*Sale, error)
	// FindAllocatable returns PENDING/PARTIAL sales with a balance, oldest first.
	FindAllocatable(ctx context.Context, customerID string) ([]*Sale, error)
	// FindWithBalance returns every sale of the customer whose balance is above zero.
	FindWithBalance(ctx context.Context, customerID string) ([]*Sale, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	Delete(ctx context.Context, paymentID string) error
	FindByID(ctx context.Context, paymentID string) (*Payment, error)
	FindLatestAdvance(ctx context.Context, customerID string) (*Payment, error)
	// FindRecentByCustomer returns up to limit payments, newest first.
	FindRecentByCustomer(ctx context.Context, customerID string, limit int) ([]*Payment, error)
	FindByCustomerIDWithPagination(ctx context.Context, customerID string, limit, offset int) ([]*Payment, error)
	CountByCustomerID(ctx context.Context, customerID string) (int64, error)
}

type InventoryRepository interface {
	FindProduct(ctx context.Context, productID string) (*Product, error)
	CreateProduct(ctx context.Context, product *Product) error
	DecrementStock(ctx context.Context, productID string, quantity decimal.Decimal) error
	RecordMovement(ctx context.Context, movement *InventoryMovement) error
}

// Ledger groups the repositories one unit of work operates on.
type Ledger interface {
	Customers() CustomerRepository
	Sales() SaleRepository
	Payments() PaymentRepository
	Inventory() InventoryRepository
}

// Store is a Ledger that can also run serialized per-customer transactions.
// fn runs with the customer locked; any error it returns rolls back every
// write made through tx. A missing customer yields ErrCustomerNotFound.
type Store interface {
	Ledger
	WithinCustomerLock(ctx context.Context, customerID string, fn func(ctx context.Context, tx Ledger) error) error
}

// ReferenceGuard rejects a payment reference that was already applied.
type ReferenceGuard interface {
	Claim(ctx context.Context, customerID, reference string) (bool, error)
	Release(ctx context.Context, customerID, reference string) error
}
