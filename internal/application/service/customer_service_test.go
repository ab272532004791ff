package service

import (
	"context"
	"testing"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/gigmile/receivables-service/internal/infrastructure/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOnboard(t *testing.T) {
	ctx := context.Background()
	svc := NewCustomerService(memory.NewStore(), zap.NewNop())

	customer, err := svc.Onboard(ctx, OnboardCustomerRequest{ID: " CUST010 ", Name: "Tlapaleria Luz", CreditLimit: dec("2500")})
	require.NoError(t, err)
	assert.Equal(t, "CUST010", customer.ID)
	assert.True(t, customer.CurrentDebt.IsZero())

	_, err = svc.Onboard(ctx, OnboardCustomerRequest{ID: "CUST010", CreditLimit: dec("1")})
	assert.ErrorIs(t, err, domain.ErrCustomerExists)

	_, err = svc.Onboard(ctx, OnboardCustomerRequest{ID: "CUST011", CreditLimit: dec("-1")})
	assert.ErrorIs(t, err, domain.ErrInvalidCreditLimit)

	found, err := svc.GetCustomer(ctx, "CUST010")
	require.NoError(t, err)
	assert.Equal(t, "Tlapaleria Luz", found.Name)
}

func TestRegisterProduct(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewCustomerService(store, zap.NewNop())

	product, err := svc.RegisterProduct(ctx, RegisterProductRequest{SKU: "CEM-50", Name: "Cemento 50kg", Stock: dec("12")})
	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)

	stored, err := store.Inventory().FindProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, stored.Stock.Equal(dec("12")))

	_, err = svc.RegisterProduct(ctx, RegisterProductRequest{Name: "no sku"})
	assert.ErrorIs(t, err, domain.ErrInvalidItems)
}
