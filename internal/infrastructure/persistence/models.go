package persistence

import (
	"time"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/shopspring/decimal"
)

// CustomerModel represents the database schema for customers
type CustomerModel struct {
	ID          string          `gorm:"primaryKey;type:varchar(50)"`
	Name        string          `gorm:"type:varchar(200);not null;default:''"`
	CreditLimit decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CurrentDebt decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Version     int64           `gorm:"not null;default:1"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"`
}

func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts database model to domain entity
func (m *CustomerModel) ToDomain() *domain.Customer {
	return &domain.Customer{
		ID:          m.ID,
		Name:        m.Name,
		CreditLimit: m.CreditLimit,
		CurrentDebt: m.CurrentDebt,
		Version:     m.Version,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// CustomerModelFromDomain converts domain entity to database model
func CustomerModelFromDomain(customer *domain.Customer) *CustomerModel {
	return &CustomerModel{
		ID:          customer.ID,
		Name:        customer.Name,
		CreditLimit: customer.CreditLimit,
		CurrentDebt: customer.CurrentDebt,
		Version:     customer.Version,
		CreatedAt:   customer.CreatedAt,
		UpdatedAt:   customer.UpdatedAt,
	}
}

// SaleModel represents the database schema for credit invoices
type SaleModel struct {
	ID               string          `gorm:"primaryKey;type:varchar(50)"`
	Folio            string          `gorm:"type:varchar(40);uniqueIndex;not null"`
	CustomerID       string          `gorm:"type:varchar(50);not null;index:idx_sales_customer_created,priority:1"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Tax              decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Total            decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AmountPaid       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RemainingBalance decimal.Decimal `gorm:"type:decimal(18,4);not null;index"`
	PaymentStatus    string          `gorm:"type:varchar(20);not null;index"`
	DueDate          time.Time       `gorm:"not null;index"`
	CreatedAt        time.Time       `gorm:"not null;index:idx_sales_customer_created,priority:2"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime"`
	Items            []SaleItemModel `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

func (SaleModel) TableName() string {
	return "sales"
}

// SaleItemModel represents one invoice line
type SaleItemModel struct {
	ID        string          `gorm:"primaryKey;type:varchar(50)"`
	SaleID    string          `gorm:"type:varchar(50);not null;index"`
	ProductID string          `gorm:"type:varchar(50);not null;index"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineTotal decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

func (SaleItemModel) TableName() string {
	return "sale_items"
}

// ToDomain converts database model to domain entity
func (m *SaleModel) ToDomain() *domain.Sale {
	sale := &domain.Sale{
		ID:               m.ID,
		Folio:            m.Folio,
		CustomerID:       m.CustomerID,
		Subtotal:         m.Subtotal,
		Tax:              m.Tax,
		Total:            m.Total,
		AmountPaid:       m.AmountPaid,
		RemainingBalance: m.RemainingBalance,
		PaymentStatus:    domain.PaymentStatus(m.PaymentStatus),
		DueDate:          m.DueDate,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	for _, item := range m.Items {
		sale.Items = append(sale.Items, domain.SaleItem{
			ID:        item.ID,
			SaleID:    item.SaleID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	return sale
}

// SaleModelFromDomain converts domain entity to database model
func SaleModelFromDomain(sale *domain.Sale) *SaleModel {
	model := &SaleModel{
		ID:               sale.ID,
		Folio:            sale.Folio,
		CustomerID:       sale.CustomerID,
		Subtotal:         sale.Subtotal,
		Tax:              sale.Tax,
		Total:            sale.Total,
		AmountPaid:       sale.AmountPaid,
		RemainingBalance: sale.RemainingBalance,
		PaymentStatus:    string(sale.PaymentStatus),
		DueDate:          sale.DueDate,
		CreatedAt:        sale.CreatedAt,
		UpdatedAt:        sale.UpdatedAt,
	}
	for _, item := range sale.Items {
		model.Items = append(model.Items, SaleItemModel{
			ID:        item.ID,
			SaleID:    sale.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	return model
}

// PaymentModel represents the database schema for payments.
// A NULL sale_id row is an advance payment.
type PaymentModel struct {
	ID          string          `gorm:"primaryKey;type:varchar(50)"`
	CustomerID  string          `gorm:"type:varchar(50);not null;index:idx_payments_customer_date,priority:1"`
	SaleID      *string         `gorm:"type:varchar(50);index"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Method      string          `gorm:"type:varchar(20);not null"`
	Reference   string          `gorm:"type:varchar(100);index"`
	PaymentDate time.Time       `gorm:"not null;index:idx_payments_customer_date,priority:2"`
	Notes       string          `gorm:"type:text"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
}

func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts database model to domain entity
func (m *PaymentModel) ToDomain() *domain.Payment {
	return &domain.Payment{
		ID:          m.ID,
		CustomerID:  m.CustomerID,
		SaleID:      m.SaleID,
		Amount:      m.Amount,
		Method:      domain.PaymentMethod(m.Method),
		Reference:   m.Reference,
		PaymentDate: m.PaymentDate,
		Notes:       m.Notes,
		CreatedAt:   m.CreatedAt,
	}
}

// PaymentModelFromDomain converts domain entity to database model
func PaymentModelFromDomain(payment *domain.Payment) *PaymentModel {
	return &PaymentModel{
		ID:          payment.ID,
		CustomerID:  payment.CustomerID,
		SaleID:      payment.SaleID,
		Amount:      payment.Amount,
		Method:      string(payment.Method),
		Reference:   payment.Reference,
		PaymentDate: payment.PaymentDate,
		Notes:       payment.Notes,
		CreatedAt:   payment.CreatedAt,
	}
}

// ProductModel holds the stock column the ledger decrements
type ProductModel struct {
	ID        string          `gorm:"primaryKey;type:varchar(50)"`
	SKU       string          `gorm:"type:varchar(50);uniqueIndex;not null"`
	Name      string          `gorm:"type:varchar(200);not null"`
	Stock     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"`
}

func (ProductModel) TableName() string {
	return "products"
}

func (m *ProductModel) ToDomain() *domain.Product {
	return &domain.Product{
		ID:        m.ID,
		SKU:       m.SKU,
		Name:      m.Name,
		Stock:     m.Stock,
		UpdatedAt: m.UpdatedAt,
	}
}

func ProductModelFromDomain(product *domain.Product) *ProductModel {
	return &ProductModel{
		ID:        product.ID,
		SKU:       product.SKU,
		Name:      product.Name,
		Stock:     product.Stock,
		UpdatedAt: product.UpdatedAt,
	}
}

// InventoryMovementModel is the stock audit trail
type InventoryMovementModel struct {
	ID        string          `gorm:"primaryKey;type:varchar(50)"`
	ProductID string          `gorm:"type:varchar(50);not null;index"`
	SaleID    string          `gorm:"type:varchar(50);index"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Reason    string          `gorm:"type:varchar(30);not null"`
	CreatedAt time.Time       `gorm:"not null"`
}

func (InventoryMovementModel) TableName() string {
	return "inventory_movements"
}

func InventoryMovementModelFromDomain(m *domain.InventoryMovement) *InventoryMovementModel {
	return &InventoryMovementModel{
		ID:        m.ID,
		ProductID: m.ProductID,
		SaleID:    m.SaleID,
		Quantity:  m.Quantity,
		Reason:    m.Reason,
		CreatedAt: m.CreatedAt,
	}
}

// AllModels lists every table for AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&CustomerModel{},
		&SaleModel{},
		&SaleItemModel{},
		&PaymentModel{},
		&ProductModel{},
		&InventoryMovementModel{},
	}
}
