package sqlrepository

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gigmile/receivables-service/internal/domain"
	redisrepository "github.com/gigmile/receivables-service/internal/infrastructure/repository/redis"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	lockQuery   = "SELECT .* FROM `customers` WHERE id = \\?.*FOR UPDATE"
	selectQuery = "SELECT \\* FROM `customers` WHERE id = \\?"
	updateExec  = "UPDATE `customers` SET"
)

func newMockStore(t *testing.T, cache CustomerCache) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return NewStore(db, cache, zap.NewNop()), mock
}

// fakeCache mirrors the generation rule of the Redis cache and records the
// order of calls against the SQL expectations.
type fakeCache struct {
	mu         sync.Mutex
	mock       sqlmock.Sqlmock
	generation int
	snapshots  map[string]*domain.Customer
	calls      []string

	// bumpOnRead simulates a writer committing right after the reader
	// observed the generation.
	bumpOnRead bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{snapshots: make(map[string]*domain.Customer)}
}

func (c *fakeCache) record(call string) {
	if c.mock != nil && c.mock.ExpectationsWereMet() == nil {
		call += " after sql"
	}
	c.calls = append(c.calls, call)
}

func (c *fakeCache) FindByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("find")
	if snap, ok := c.snapshots[customerID]; ok {
		return snap, nil
	}
	return nil, redisrepository.ErrCacheMiss
}

func (c *fakeCache) Generation(ctx context.Context, customerID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("generation")
	observed := c.generation
	if c.bumpOnRead {
		c.generation++
		delete(c.snapshots, customerID)
	}
	return strconv.Itoa(observed), nil
}

func (c *fakeCache) Fill(ctx context.Context, customer *domain.Customer, generation string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("fill " + generation)
	if generation != strconv.Itoa(c.generation) {
		return false, nil
	}
	c.snapshots[customer.ID] = customer
	return true, nil
}

func (c *fakeCache) Delete(ctx context.Context, customerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("delete")
	c.generation++
	delete(c.snapshots, customerID)
	return nil
}

func customerRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "credit_limit", "current_debt", "version"}).
		AddRow("CUST001", "Ada", "1000.0000", "150.0000", 3)
}

func TestWithinCustomerLock_RollsBackWhenCallbackFails(t *testing.T) {
	// Arrange
	cache := newFakeCache()
	store, mock := newMockStore(t, cache)
	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("CUST001"))
	mock.ExpectRollback()
	failure := errors.New("allocation failed")

	// Act
	err := store.WithinCustomerLock(context.Background(), "CUST001", func(ctx context.Context, tx domain.Ledger) error {
		return failure
	})

	// Assert
	assert.ErrorIs(t, err, failure)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, cache.calls, "cache must stay untouched on rollback")
}

func TestWithinCustomerLock_UnknownCustomer(t *testing.T) {
	// Arrange
	store, mock := newMockStore(t, nil)
	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()
	called := false

	// Act
	err := store.WithinCustomerLock(context.Background(), "NOBODY", func(ctx context.Context, tx domain.Ledger) error {
		called = true
		return nil
	})

	// Assert
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinCustomerLock_CommitsThenInvalidates(t *testing.T) {
	// Arrange
	cache := newFakeCache()
	store, mock := newMockStore(t, cache)
	cache.mock = mock
	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("CUST001"))
	mock.ExpectExec(updateExec).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	customer := &domain.Customer{
		ID:          "CUST001",
		CreditLimit: decimal.RequireFromString("1000"),
		CurrentDebt: decimal.RequireFromString("50"),
		Version:     3,
	}

	// Act
	err := store.WithinCustomerLock(context.Background(), "CUST001", func(ctx context.Context, tx domain.Ledger) error {
		return tx.Customers().Save(ctx, customer)
	})

	// Assert
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, int64(4), customer.Version)
	assert.Equal(t, []string{"delete after sql"}, cache.calls)
}

func TestWithinCustomerLock_OptimisticConflictRollsBack(t *testing.T) {
	// Arrange
	store, mock := newMockStore(t, nil)
	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("CUST001"))
	mock.ExpectExec(updateExec).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
	customer := &domain.Customer{ID: "CUST001", Version: 2}

	// Act
	err := store.WithinCustomerLock(context.Background(), "CUST001", func(ctx context.Context, tx domain.Ledger) error {
		return tx.Customers().Save(ctx, customer)
	})

	// Assert
	assert.ErrorIs(t, err, domain.ErrOptimisticLock)
	assert.Equal(t, int64(2), customer.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerSave_InvalidatesOnlyAfterUpdate(t *testing.T) {
	// Arrange
	cache := newFakeCache()
	store, mock := newMockStore(t, cache)
	cache.mock = mock
	mock.ExpectBegin()
	mock.ExpectExec(updateExec).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	customer := &domain.Customer{ID: "CUST001", Version: 1}

	// Act
	err := store.Customers().Save(context.Background(), customer)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"delete after sql"}, cache.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerSave_StaleVersionLeavesCacheAlone(t *testing.T) {
	cache := newFakeCache()
	store, mock := newMockStore(t, cache)
	mock.ExpectBegin()
	mock.ExpectExec(updateExec).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := store.Customers().Save(context.Background(), &domain.Customer{ID: "CUST001", Version: 1})

	assert.ErrorIs(t, err, domain.ErrOptimisticLock)
	assert.Empty(t, cache.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerFindByID_ReadsGenerationBeforeRow(t *testing.T) {
	// Arrange
	cache := newFakeCache()
	store, mock := newMockStore(t, cache)
	cache.mock = mock
	mock.ExpectQuery(selectQuery).WillReturnRows(customerRows())

	// Act
	customer, err := store.Customers().FindByID(context.Background(), "CUST001")

	// Assert
	require.NoError(t, err)
	assert.True(t, customer.CurrentDebt.Equal(decimal.RequireFromString("150")))
	assert.Equal(t, []string{"find", "generation", "fill 0 after sql"}, cache.calls)
	assert.Contains(t, cache.snapshots, "CUST001")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerFindByID_StaleFillLosesToInvalidation(t *testing.T) {
	// Arrange
	cache := newFakeCache()
	cache.bumpOnRead = true
	store, mock := newMockStore(t, cache)
	mock.ExpectQuery(selectQuery).WillReturnRows(customerRows())

	// Act
	customer, err := store.Customers().FindByID(context.Background(), "CUST001")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "CUST001", customer.ID)
	assert.NotContains(t, cache.snapshots, "CUST001", "snapshot read before the commit must not be cached")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerFindByID_CacheHitSkipsDatabase(t *testing.T) {
	cache := newFakeCache()
	cache.snapshots["CUST001"] = &domain.Customer{ID: "CUST001", Version: 7}
	store, mock := newMockStore(t, cache)

	customer, err := store.Customers().FindByID(context.Background(), "CUST001")

	require.NoError(t, err)
	assert.Equal(t, int64(7), customer.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}
