package sqlrepository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/gigmile/receivables-service/internal/infrastructure/persistence"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const newestFirst = "payment_date DESC, created_at DESC, id DESC"

type GORMPaymentRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func (r *GORMPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	model := persistence.PaymentModelFromDomain(payment)

	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		r.logger.Error("failed to save payment", zap.Error(result.Error))
		return fmt.Errorf("database error: %w", result.Error)
	}

	r.logger.Debug("payment saved to MySQL",
		zap.String("payment_id", payment.ID),
		zap.String("reference", payment.Reference),
	)

	return nil
}

func (r *GORMPaymentRepository) Delete(ctx context.Context, paymentID string) error {
	result := r.db.WithContext(ctx).Delete(&persistence.PaymentModel{}, "id = ?", paymentID)
	if result.Error != nil {
		return fmt.Errorf("database error: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

func (r *GORMPaymentRepository) FindByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	var model persistence.PaymentModel

	result := r.db.WithContext(ctx).First(&model, "id = ?", paymentID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	return model.ToDomain(), nil
}

func (r *GORMPaymentRepository) FindLatestAdvance(ctx context.Context, customerID string) (*domain.Payment, error) {
	var model persistence.PaymentModel

	result := r.db.WithContext(ctx).
		Where("customer_id = ? AND sale_id IS NULL", customerID).
		Order(newestFirst).
		First(&model)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNoAdvancePayment
		}
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	return model.ToDomain(), nil
}

func (r *GORMPaymentRepository) FindRecentByCustomer(ctx context.Context, customerID string, limit int) ([]*domain.Payment, error) {
	return r.FindByCustomerIDWithPagination(ctx, customerID, limit, 0)
}

func (r *GORMPaymentRepository) FindByCustomerIDWithPagination(ctx context.Context, customerID string, limit, offset int) ([]*domain.Payment, error) {
	var models []persistence.PaymentModel

	result := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order(newestFirst).
		Limit(limit).
		Offset(offset).
		Find(&models)

	if result.Error != nil {
		r.logger.Error("failed to fetch payments by customer ID with pagination",
			zap.Error(result.Error),
			zap.String("customer_id", customerID),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	payments := make([]*domain.Payment, len(models))
	for i, model := range models {
		payments[i] = model.ToDomain()
	}

	r.logger.Debug("fetched payments by customer ID with pagination",
		zap.String("customer_id", customerID),
		zap.Int("count", len(payments)),
		zap.Int("limit", limit),
		zap.Int("offset", offset),
	)

	return payments, nil
}

func (r *GORMPaymentRepository) CountByCustomerID(ctx context.Context, customerID string) (int64, error) {
	var count int64

	result := r.db.WithContext(ctx).
		Model(&persistence.PaymentModel{}).
		Where("customer_id = ?", customerID).
		Count(&count)

	if result.Error != nil {
		r.logger.Error("failed to count payments by customer ID",
			zap.Error(result.Error),
			zap.String("customer_id", customerID),
		)
		return 0, fmt.Errorf("database error: %w", result.Error)
	}

	return count, nil
}
