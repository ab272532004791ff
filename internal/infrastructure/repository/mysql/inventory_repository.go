package sqlrepository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/gigmile/receivables-service/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type GORMInventoryRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func (r *GORMInventoryRepository) FindProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var model persistence.ProductModel

	result := r.db.WithContext(ctx).First(&model, "id = ?", productID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	return model.ToDomain(), nil
}

func (r *GORMInventoryRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	result := r.db.WithContext(ctx).Create(persistence.ProductModelFromDomain(product))
	if result.Error != nil {
		return fmt.Errorf("failed to create product: %w", result.Error)
	}
	return nil
}

// DecrementStock lowers stock in place. Stock is allowed to go negative.
func (r *GORMInventoryRepository) DecrementStock(ctx context.Context, productID string, quantity decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&persistence.ProductModel{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", quantity),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		r.logger.Error("failed to decrement stock", zap.Error(result.Error), zap.String("product_id", productID))
		return fmt.Errorf("database error: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

func (r *GORMInventoryRepository) RecordMovement(ctx context.Context, movement *domain.InventoryMovement) error {
	result := r.db.WithContext(ctx).Create(persistence.InventoryMovementModelFromDomain(movement))
	if result.Error != nil {
		return fmt.Errorf("failed to record inventory movement: %w", result.Error)
	}
	return nil
}
