package sqlrepository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/gigmile/receivables-service/internal/infrastructure/persistence"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the MySQL ledger. Every ledger transaction starts by locking the
// customer row, so all writes for one customer are serialized.
type Store struct {
	db     *gorm.DB
	cache  CustomerCache
	logger *zap.Logger
}

var _ domain.Store = (*Store)(nil)

// NewStore builds the store. cache may be nil.
func NewStore(db *gorm.DB, cache CustomerCache, logger *zap.Logger) *Store {
	return &Store{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

func (s *Store) Customers() domain.CustomerRepository {
	return &GORMCustomerRepository{db: s.db, cache: s.cache, logger: s.logger}
}

func (s *Store) Sales() domain.SaleRepository {
	return &GORMSaleRepository{db: s.db, logger: s.logger}
}

func (s *Store) Payments() domain.PaymentRepository {
	return &GORMPaymentRepository{db: s.db, logger: s.logger}
}

func (s *Store) Inventory() domain.InventoryRepository {
	return &GORMInventoryRepository{db: s.db, logger: s.logger}
}

func (s *Store) WithinCustomerLock(ctx context.Context, customerID string, fn func(ctx context.Context, tx domain.Ledger) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked persistence.CustomerModel
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&locked, "id = ?", customerID)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return domain.ErrCustomerNotFound
			}
			return fmt.Errorf("failed to lock customer: %w", result.Error)
		}

		return fn(ctx, &txLedger{tx: tx, logger: s.logger})
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, customerID)
	return nil
}

// invalidate drops the cached snapshot once the new state is committed.
func (s *Store) invalidate(ctx context.Context, customerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, customerID); err != nil {
		s.logger.Warn("failed to invalidate customer cache after commit",
			zap.Error(err),
			zap.String("customer_id", customerID),
		)
	}
}

// AutoMigrate creates or updates every ledger table.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(persistence.AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate ledger schema: %w", err)
	}
	return nil
}

// txLedger binds the repositories to one open transaction. The cache is
// bypassed inside transactions.
type txLedger struct {
	tx     *gorm.DB
	logger *zap.Logger
}

func (l *txLedger) Customers() domain.CustomerRepository {
	return &GORMCustomerRepository{db: l.tx, logger: l.logger}
}

func (l *txLedger) Sales() domain.SaleRepository {
	return &GORMSaleRepository{db: l.tx, logger: l.logger}
}

func (l *txLedger) Payments() domain.PaymentRepository {
	return &GORMPaymentRepository{db: l.tx, logger: l.logger}
}

func (l *txLedger) Inventory() domain.InventoryRepository {
	return &GORMInventoryRepository{db: l.tx, logger: l.logger}
}
