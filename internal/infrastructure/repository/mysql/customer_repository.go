package sqlrepository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/gigmile/receivables-service/internal/infrastructure/persistence"
	redisrepository "github.com/gigmile/receivables-service/internal/infrastructure/repository/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CustomerCache holds customer snapshots in front of MySQL. Fill must refuse
// the write when the customer was invalidated after generation was read.
type CustomerCache interface {
	FindByID(ctx context.Context, customerID string) (*domain.Customer, error)
	Generation(ctx context.Context, customerID string) (string, error)
	Fill(ctx context.Context, customer *domain.Customer, generation string) (bool, error)
	Delete(ctx context.Context, customerID string) error
}

var _ CustomerCache = (*redisrepository.RedisCustomerRepository)(nil)

const cacheFillTimeout = 500 * time.Millisecond

type GORMCustomerRepository struct {
	db     *gorm.DB
	cache  CustomerCache
	logger *zap.Logger
}

func (r *GORMCustomerRepository) FindByID(ctx context.Context, id string) (*domain.Customer, error) {
	generation := ""
	if r.cache != nil {
		cached, err := r.cache.FindByID(ctx, id)
		if err == nil {
			r.logger.Debug("customer cache hit", zap.String("customer_id", id))
			return cached, nil
		}
		if !errors.Is(err, redisrepository.ErrCacheMiss) {
			r.logger.Warn("customer cache read failed", zap.Error(err), zap.String("customer_id", id))
		}
		// The generation must be read before the row so a commit landing in
		// between turns the fill below into a no-op.
		if generation, err = r.cache.Generation(ctx, id); err != nil {
			r.logger.Warn("customer cache generation read failed", zap.Error(err), zap.String("customer_id", id))
		}
	}

	var model persistence.CustomerModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCustomerNotFound
		}
		r.logger.Error("failed to query customer", zap.Error(result.Error))
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	customer := model.ToDomain()

	if r.cache != nil && generation != "" {
		r.fill(ctx, customer, generation)
	}

	return customer, nil
}

func (r *GORMCustomerRepository) fill(ctx context.Context, customer *domain.Customer, generation string) {
	ctx, cancel := context.WithTimeout(ctx, cacheFillTimeout)
	defer cancel()

	written, err := r.cache.Fill(ctx, customer, generation)
	if err != nil {
		r.logger.Debug("failed to populate customer cache", zap.Error(err))
		return
	}
	if !written {
		r.logger.Debug("customer cache fill skipped after invalidation",
			zap.String("customer_id", customer.ID),
		)
	}
}

func (r *GORMCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	model := persistence.CustomerModelFromDomain(customer)

	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		if isDuplicateError(result.Error) {
			return domain.ErrCustomerExists
		}
		r.logger.Error("failed to create customer", zap.Error(result.Error))
		return fmt.Errorf("failed to create customer: %w", result.Error)
	}

	r.logger.Info("customer created",
		zap.String("customer_id", customer.ID),
	)

	return nil
}

func (r *GORMCustomerRepository) Save(ctx context.Context, customer *domain.Customer) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&persistence.CustomerModel{}).
		Where("id = ? AND version = ?", customer.ID, customer.Version).
		Updates(map[string]interface{}{
			"name":         customer.Name,
			"credit_limit": customer.CreditLimit,
			"current_debt": customer.CurrentDebt,
			"version":      gorm.Expr("version + 1"),
			"updated_at":   now,
		})

	if result.Error != nil {
		r.logger.Error("failed to update customer", zap.Error(result.Error))
		return fmt.Errorf("database error: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.ErrOptimisticLock
	}

	customer.Version++
	customer.UpdatedAt = now

	if r.cache != nil {
		if err := r.cache.Delete(ctx, customer.ID); err != nil {
			r.logger.Warn("failed to invalidate customer cache after save",
				zap.Error(err),
				zap.String("customer_id", customer.ID))
		}
	}

	r.logger.Debug("customer saved to MySQL",
		zap.String("customer_id", customer.ID),
		zap.Int64("version", customer.Version),
		zap.Stringer("current_debt", customer.CurrentDebt),
	)

	return nil
}

func (r *GORMCustomerRepository) ListIDs(ctx context.Context, limit, offset int) ([]string, error) {
	var ids []string

	result := r.db.WithContext(ctx).
		Model(&persistence.CustomerModel{}).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Pluck("id", &ids)

	if result.Error != nil {
		return nil, fmt.Errorf("failed to list customers: %w", result.Error)
	}

	return ids, nil
}
