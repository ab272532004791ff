// Package memory is an in-process ledger store. Transactions stage their
// writes in an overlay and publish them in one step on commit, so readers
// never see a half-applied allocation.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/shopspring/decimal"
)

type Store struct {
	mu        sync.RWMutex
	customers map[string]domain.Customer
	sales     map[string]domain.Sale
	payments  map[string]domain.Payment
	products  map[string]domain.Product
	movements []domain.InventoryMovement

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		customers: make(map[string]domain.Customer),
		sales:     make(map[string]domain.Sale),
		payments:  make(map[string]domain.Payment),
		products:  make(map[string]domain.Product),
		locks:     make(map[string]*sync.Mutex),
	}
}

var _ domain.Store = (*Store)(nil)

func (s *Store) Customers() domain.CustomerRepository  { return &customerRepo{s: s} }
func (s *Store) Sales() domain.SaleRepository          { return &saleRepo{s: s} }
func (s *Store) Payments() domain.PaymentRepository    { return &paymentRepo{s: s} }
func (s *Store) Inventory() domain.InventoryRepository { return &inventoryRepo{s: s} }

// Movements returns a copy of the inventory audit trail.
func (s *Store) Movements() []domain.InventoryMovement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.InventoryMovement(nil), s.movements...)
}

func (s *Store) customerLock(customerID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[customerID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[customerID] = lock
	}
	return lock
}

func (s *Store) WithinCustomerLock(ctx context.Context, customerID string, fn func(ctx context.Context, tx domain.Ledger) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lock := s.customerLock(customerID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	_, exists := s.customers[customerID]
	s.mu.RUnlock()
	if !exists {
		return domain.ErrCustomerNotFound
	}

	tx := newTxn(s)
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx.commit()
	return nil
}

// txn is the write overlay of one transaction.
type txn struct {
	s               *Store
	customers       map[string]domain.Customer
	sales           map[string]domain.Sale
	payments        map[string]domain.Payment
	deletedPayments map[string]bool
	products        map[string]domain.Product
	stockDeltas     map[string]decimal.Decimal
	movements       []domain.InventoryMovement
}

func newTxn(s *Store) *txn {
	return &txn{
		s:               s,
		customers:       make(map[string]domain.Customer),
		sales:           make(map[string]domain.Sale),
		payments:        make(map[string]domain.Payment),
		deletedPayments: make(map[string]bool),
		products:        make(map[string]domain.Product),
		stockDeltas:     make(map[string]decimal.Decimal),
	}
}

func (t *txn) Customers() domain.CustomerRepository  { return &customerRepo{s: t.s, tx: t} }
func (t *txn) Sales() domain.SaleRepository          { return &saleRepo{s: t.s, tx: t} }
func (t *txn) Payments() domain.PaymentRepository    { return &paymentRepo{s: t.s, tx: t} }
func (t *txn) Inventory() domain.InventoryRepository { return &inventoryRepo{s: t.s, tx: t} }

func (t *txn) commit() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for id, c := range t.customers {
		t.s.customers[id] = c
	}
	for id, sale := range t.sales {
		t.s.sales[id] = sale
	}
	for id := range t.deletedPayments {
		delete(t.s.payments, id)
	}
	for id, p := range t.payments {
		t.s.payments[id] = p
	}
	for id, p := range t.products {
		t.s.products[id] = p
	}
	now := time.Now()
	for id, delta := range t.stockDeltas {
		p, ok := t.s.products[id]
		if !ok {
			continue
		}
		p.Stock = p.Stock.Add(delta)
		p.UpdatedAt = now
		t.s.products[id] = p
	}
	t.s.movements = append(t.s.movements, t.movements...)
}

type customerRepo struct {
	s  *Store
	tx *txn
}

func (r *customerRepo) FindByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	if r.tx != nil {
		if c, ok := r.tx.customers[customerID]; ok {
			return &c, nil
		}
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.customers[customerID]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return &c, nil
}

func (r *customerRepo) Create(ctx context.Context, customer *domain.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.customers[customer.ID]; exists {
		return domain.ErrCustomerExists
	}
	r.s.customers[customer.ID] = *customer
	return nil
}

func (r *customerRepo) Save(ctx context.Context, customer *domain.Customer) error {
	current, err := r.FindByID(ctx, customer.ID)
	if err != nil {
		return err
	}
	if current.Version != customer.Version {
		return domain.ErrOptimisticLock
	}

	customer.Version++
	customer.UpdatedAt = time.Now()
	if r.tx != nil {
		r.tx.customers[customer.ID] = *customer
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.customers[customer.ID] = *customer
	return nil
}

func (r *customerRepo) ListIDs(ctx context.Context, limit, offset int) ([]string, error) {
	r.s.mu.RLock()
	ids := make([]string, 0, len(r.s.customers))
	for id := range r.s.customers {
		ids = append(ids, id)
	}
	r.s.mu.RUnlock()

	sort.Strings(ids)
	return page(ids, limit, offset), nil
}

type saleRepo struct {
	s  *Store
	tx *txn
}

func cloneSale(sale domain.Sale) *domain.Sale {
	sale.Items = append([]domain.SaleItem(nil), sale.Items...)
	return &sale
}

func (r *saleRepo) Create(ctx context.Context, sale *domain.Sale) error {
	stored := *cloneSale(*sale)
	if r.tx != nil {
		r.tx.sales[sale.ID] = stored
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sales[sale.ID] = stored
	return nil
}

func (r *saleRepo) SavePayment(ctx context.Context, sale *domain.Sale) error {
	current, err := r.FindByID(ctx, sale.ID)
	if err != nil {
		return err
	}

	current.AmountPaid = sale.AmountPaid
	current.RemainingBalance = sale.RemainingBalance
	current.PaymentStatus = sale.PaymentStatus
	current.UpdatedAt = time.Now()

	if r.tx != nil {
		r.tx.sales[sale.ID] = *current
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sales[sale.ID] = *current
	return nil
}

func (r *saleRepo) FindByID(ctx context.Context, saleID string) (*domain.Sale, error) {
	if r.tx != nil {
		if sale, ok := r.tx.sales[saleID]; ok {
			return cloneSale(sale), nil
		}
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sale, ok := r.s.sales[saleID]
	if !ok {
		return nil, domain.ErrSaleNotFound
	}
	return cloneSale(sale), nil
}

func (r *saleRepo) FindByIDs(ctx context.Context, saleIDs []string) ([]*domain.Sale, error) {
	sales := make([]*domain.Sale, 0, len(saleIDs))
	for _, id := range saleIDs {
		sale, err := r.FindByID(ctx, id)
		if errors.Is(err, domain.ErrSaleNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, nil
}

func (r *saleRepo) customerSales(customerID string) []*domain.Sale {
	merged := make(map[string]domain.Sale)

	r.s.mu.RLock()
	for id, sale := range r.s.sales {
		if sale.CustomerID == customerID {
			merged[id] = sale
		}
	}
	r.s.mu.RUnlock()

	if r.tx != nil {
		for id, sale := range r.tx.sales {
			if sale.CustomerID == customerID {
				merged[id] = sale
			}
		}
	}

	sales := make([]*domain.Sale, 0, len(merged))
	for _, sale := range merged {
		sales = append(sales, cloneSale(sale))
	}
	domain.SortOldestFirst(sales)
	return sales
}

func (r *saleRepo) FindAllocatable(ctx context.Context, customerID string) ([]*domain.Sale, error) {
	var open []*domain.Sale
	for _, sale := range r.customerSales(customerID) {
		if sale.IsAllocatable() {
			open = append(open, sale)
		}
	}
	return open, nil
}

func (r *saleRepo) FindWithBalance(ctx context.Context, customerID string) ([]*domain.Sale, error) {
	var withBalance []*domain.Sale
	for _, sale := range r.customerSales(customerID) {
		if sale.RemainingBalance.IsPositive() {
			withBalance = append(withBalance, sale)
		}
	}
	return withBalance, nil
}

type paymentRepo struct {
	s  *Store
	tx *txn
}

func (r *paymentRepo) Create(ctx context.Context, payment *domain.Payment) error {
	if r.tx != nil {
		r.tx.payments[payment.ID] = *payment
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.payments[payment.ID] = *payment
	return nil
}

func (r *paymentRepo) Delete(ctx context.Context, paymentID string) error {
	if _, err := r.FindByID(ctx, paymentID); err != nil {
		return err
	}

	if r.tx != nil {
		delete(r.tx.payments, paymentID)
		r.tx.deletedPayments[paymentID] = true
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.payments, paymentID)
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if r.tx != nil {
		if p, ok := r.tx.payments[paymentID]; ok {
			return &p, nil
		}
		if r.tx.deletedPayments[paymentID] {
			return nil, domain.ErrPaymentNotFound
		}
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.payments[paymentID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	return &p, nil
}

// customerPayments returns the customer's payments newest first.
func (r *paymentRepo) customerPayments(customerID string) []*domain.Payment {
	merged := make(map[string]domain.Payment)

	r.s.mu.RLock()
	for id, p := range r.s.payments {
		if p.CustomerID == customerID {
			merged[id] = p
		}
	}
	r.s.mu.RUnlock()

	if r.tx != nil {
		for id := range r.tx.deletedPayments {
			delete(merged, id)
		}
		for id, p := range r.tx.payments {
			if p.CustomerID == customerID {
				merged[id] = p
			}
		}
	}

	payments := make([]*domain.Payment, 0, len(merged))
	for _, p := range merged {
		p := p
		payments = append(payments, &p)
	}
	sort.SliceStable(payments, func(i, j int) bool {
		a, b := payments[i], payments[j]
		if !a.PaymentDate.Equal(b.PaymentDate) {
			return a.PaymentDate.After(b.PaymentDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return payments
}

func (r *paymentRepo) FindLatestAdvance(ctx context.Context, customerID string) (*domain.Payment, error) {
	for _, p := range r.customerPayments(customerID) {
		if p.IsAdvance() {
			return p, nil
		}
	}
	return nil, domain.ErrNoAdvancePayment
}

func (r *paymentRepo) FindRecentByCustomer(ctx context.Context, customerID string, limit int) ([]*domain.Payment, error) {
	return page(r.customerPayments(customerID), limit, 0), nil
}

func (r *paymentRepo) FindByCustomerIDWithPagination(ctx context.Context, customerID string, limit, offset int) ([]*domain.Payment, error) {
	return page(r.customerPayments(customerID), limit, offset), nil
}

func (r *paymentRepo) CountByCustomerID(ctx context.Context, customerID string) (int64, error) {
	return int64(len(r.customerPayments(customerID))), nil
}

type inventoryRepo struct {
	s  *Store
	tx *txn
}

func (r *inventoryRepo) FindProduct(ctx context.Context, productID string) (*domain.Product, error) {
	if r.tx != nil {
		if p, ok := r.tx.products[productID]; ok {
			p.Stock = p.Stock.Add(r.tx.stockDeltas[productID])
			return &p, nil
		}
	}

	r.s.mu.RLock()
	p, ok := r.s.products[productID]
	r.s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	if r.tx != nil {
		p.Stock = p.Stock.Add(r.tx.stockDeltas[productID])
	}
	return &p, nil
}

func (r *inventoryRepo) CreateProduct(ctx context.Context, product *domain.Product) error {
	if r.tx != nil {
		r.tx.products[product.ID] = *product
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.products[product.ID] = *product
	return nil
}

func (r *inventoryRepo) DecrementStock(ctx context.Context, productID string, quantity decimal.Decimal) error {
	if _, err := r.FindProduct(ctx, productID); err != nil {
		return err
	}

	if r.tx != nil {
		r.tx.stockDeltas[productID] = r.tx.stockDeltas[productID].Sub(quantity)
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.s.products[productID]
	p.Stock = p.Stock.Sub(quantity)
	p.UpdatedAt = time.Now()
	r.s.products[productID] = p
	return nil
}

func (r *inventoryRepo) RecordMovement(ctx context.Context, movement *domain.InventoryMovement) error {
	if r.tx != nil {
		r.tx.movements = append(r.tx.movements, *movement)
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.movements = append(r.s.movements, *movement)
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
