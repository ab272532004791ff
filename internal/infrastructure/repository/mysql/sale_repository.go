package sqlrepository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/gigmile/receivables-service/internal/infrastructure/persistence"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type GORMSaleRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func (r *GORMSaleRepository) Create(ctx context.Context, sale *domain.Sale) error {
	model := persistence.SaleModelFromDomain(sale)

	if result := r.db.WithContext(ctx).Create(model); result.Error != nil {
		r.logger.Error("failed to insert sale", zap.Error(result.Error), zap.String("sale_id", sale.ID))
		return fmt.Errorf("failed to insert sale: %w", result.Error)
	}

	return nil
}

func (r *GORMSaleRepository) SavePayment(ctx context.Context, sale *domain.Sale) error {
	result := r.db.WithContext(ctx).
		Model(&persistence.SaleModel{}).
		Where("id = ?", sale.ID).
		Updates(map[string]interface{}{
			"amount_paid":       sale.AmountPaid,
			"remaining_balance": sale.RemainingBalance,
			"payment_status":    string(sale.PaymentStatus),
			"updated_at":        time.Now(),
		})

	if result.Error != nil {
		r.logger.Error("failed to update sale balance", zap.Error(result.Error), zap.String("sale_id", sale.ID))
		return fmt.Errorf("database error: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrSaleNotFound
	}

	return nil
}

func (r *GORMSaleRepository) FindByID(ctx context.Context, saleID string) (*domain.Sale, error) {
	var model persistence.SaleModel

	result := r.db.WithContext(ctx).Preload("Items").First(&model, "id = ?", saleID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSaleNotFound
		}
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	return model.ToDomain(), nil
}

func (r *GORMSaleRepository) FindByIDs(ctx context.Context, saleIDs []string) ([]*domain.Sale, error) {
	if len(saleIDs) == 0 {
		return nil, nil
	}

	var models []persistence.SaleModel
	result := r.db.WithContext(ctx).Where("id IN ?", saleIDs).Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	return toDomainSales(models), nil
}

func (r *GORMSaleRepository) FindAllocatable(ctx context.Context, customerID string) ([]*domain.Sale, error) {
	statuses := make([]string, len(domain.AllocatableStatuses))
	for i, status := range domain.AllocatableStatuses {
		statuses[i] = string(status)
	}

	var models []persistence.SaleModel
	result := r.db.WithContext(ctx).
		Where("customer_id = ? AND payment_status IN ? AND remaining_balance > 0", customerID, statuses).
		Order("created_at ASC, id ASC").
		Find(&models)

	if result.Error != nil {
		r.logger.Error("failed to fetch allocatable sales",
			zap.Error(result.Error),
			zap.String("customer_id", customerID),
		)
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	return toDomainSales(models), nil
}

func (r *GORMSaleRepository) FindWithBalance(ctx context.Context, customerID string) ([]*domain.Sale, error) {
	var models []persistence.SaleModel
	result := r.db.WithContext(ctx).
		Where("customer_id = ? AND remaining_balance > 0", customerID).
		Order("created_at ASC, id ASC").
		Find(&models)

	if result.Error != nil {
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	return toDomainSales(models), nil
}

func toDomainSales(models []persistence.SaleModel) []*domain.Sale {
	sales := make([]*domain.Sale, len(models))
	for i := range models {
		sales[i] = models[i].ToDomain()
	}
	return sales
}
