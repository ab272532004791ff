package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gigmile/receivables-service/internal/config"
	"github.com/gigmile/receivables-service/internal/infrastructure/repository/memory"
	"github.com/gigmile/receivables-service/internal/interface/http/dto"
	"github.com/gigmile/receivables-service/internal/interface/http/handler"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	cfg := config.LedgerConfig{
		TaxRate:           decimal.Zero,
		DefaultDueDays:    30,
		DueSoonDays:       7,
		StatementPayments: 10,
	}
	handlers := handler.NewHandlers(memory.NewStore(), nil, nil, cfg, logger)
	return NewRouter(handlers, logger)
}

func do(t *testing.T, srv http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func seedAccount(t *testing.T, srv http.Handler) {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/v1/products", map[string]string{
		"id": "P1", "sku": "SKU-1", "name": "Rice 1kg", "stock": "50",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/v1/customers", map[string]string{
		"id": "C1", "name": "Corner Shop", "credit_limit": "1000",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func saleBody(qty, price string) map[string]interface{} {
	return map[string]interface{}{
		"items": []map[string]string{
			{"product_id": "P1", "quantity": qty, "unit_price": price},
		},
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestCreditSaleThenPaymentThenStatement(t *testing.T) {
	// Arrange
	srv := newTestServer(t)
	seedAccount(t, srv)

	// Act
	saleRec := do(t, srv, http.MethodPost, "/api/v1/customers/C1/sales", saleBody("2", "100"))
	payRec := do(t, srv, http.MethodPost, "/api/v1/customers/C1/payments", map[string]string{
		"amount": "150", "method": "cash", "reference": "R-1",
	})
	stRec := do(t, srv, http.MethodGet, "/api/v1/customers/C1/statement", nil)

	// Assert
	require.Equal(t, http.StatusCreated, saleRec.Code, saleRec.Body.String())
	sale := decode[dto.SaleResponse](t, saleRec)
	assert.True(t, sale.Total.Equal(decimal.NewFromInt(200)))
	assert.True(t, sale.CurrentDebt.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, "PENDING", sale.PaymentStatus)

	require.Equal(t, http.StatusOK, payRec.Code, payRec.Body.String())
	payment := decode[dto.PaymentResponse](t, payRec)
	assert.True(t, payment.Success)
	require.Len(t, payment.Allocations, 1)
	assert.Equal(t, sale.ID, payment.Allocations[0].SaleID)
	assert.Equal(t, "PARTIAL", payment.Allocations[0].Status)
	assert.True(t, payment.CurrentDebt.Equal(decimal.NewFromInt(50)))
	assert.True(t, payment.AdvanceAmount.IsZero())

	require.Equal(t, http.StatusOK, stRec.Code, stRec.Body.String())
	statement := decode[dto.StatementResponse](t, stRec)
	assert.Equal(t, "Corner Shop", statement.CustomerName)
	require.Len(t, statement.OutstandingSales, 1)
	assert.True(t, statement.OutstandingSales[0].RemainingBalance.Equal(decimal.NewFromInt(50)))
	assert.True(t, statement.TotalOutstanding.Equal(decimal.NewFromInt(50)))
	require.Len(t, statement.Payments, 1)
	assert.Equal(t, sale.Folio, statement.Payments[0].Folio)
}

func TestCreditSale_OverLimitReturnsAvailableCredit(t *testing.T) {
	// Arrange
	srv := newTestServer(t)
	seedAccount(t, srv)
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/v1/customers/C1/sales", saleBody("1", "400")).Code)

	// Act
	rec := do(t, srv, http.MethodPost, "/api/v1/customers/C1/sales", saleBody("1", "700"))

	// Assert
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errResp := decode[dto.ErrorResponse](t, rec)
	require.NotNil(t, errResp.AvailableCredit)
	assert.True(t, errResp.AvailableCredit.Equal(decimal.NewFromInt(600)))
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	seedAccount(t, srv)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"unknown customer", http.MethodGet, "/api/v1/customers/NOPE", nil, http.StatusNotFound},
		{"statement for unknown customer", http.MethodGet, "/api/v1/customers/NOPE/statement", nil, http.StatusNotFound},
		{"malformed amount", http.MethodPost, "/api/v1/customers/C1/payments", map[string]string{"amount": "abc"}, http.StatusBadRequest},
		{"non positive amount", http.MethodPost, "/api/v1/customers/C1/payments", map[string]string{"amount": "0"}, http.StatusBadRequest},
		{"unknown method", http.MethodPost, "/api/v1/customers/C1/payments", map[string]string{"amount": "10", "method": "barter"}, http.StatusBadRequest},
		{"empty sale", http.MethodPost, "/api/v1/customers/C1/sales", map[string]interface{}{"items": []interface{}{}}, http.StatusBadRequest},
		{"unknown product", http.MethodPost, "/api/v1/customers/C1/sales", map[string]interface{}{
			"items": []map[string]string{{"product_id": "GHOST", "quantity": "1", "unit_price": "5"}},
		}, http.StatusBadRequest},
		{"duplicate customer", http.MethodPost, "/api/v1/customers", map[string]string{"id": "C1", "name": "Again", "credit_limit": "10"}, http.StatusConflict},
		{"fix last without advance", http.MethodPost, "/api/v1/customers/C1/payments/fix-last", nil, http.StatusConflict},
		{"reallocate unknown payment", http.MethodPost, "/api/v1/customers/C1/payments/missing/reallocate", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestAdvanceIsReallocatedByFixLast(t *testing.T) {
	// Arrange
	srv := newTestServer(t)
	seedAccount(t, srv)
	advRec := do(t, srv, http.MethodPost, "/api/v1/customers/C1/payments", map[string]string{"amount": "80"})
	require.Equal(t, http.StatusOK, advRec.Code, advRec.Body.String())
	advance := decode[dto.PaymentResponse](t, advRec)
	require.True(t, advance.AdvanceAmount.Equal(decimal.NewFromInt(80)))
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/v1/customers/C1/sales", saleBody("1", "50")).Code)

	// Act
	rec := do(t, srv, http.MethodPost, "/api/v1/customers/C1/payments/fix-last", nil)
	listRec := do(t, srv, http.MethodGet, "/api/v1/customers/C1/payments?page=1&page_size=10", nil)

	// Assert
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fixed := decode[dto.PaymentResponse](t, rec)
	assert.True(t, fixed.Reallocated)
	assert.True(t, fixed.Applied.Equal(decimal.NewFromInt(50)))
	assert.True(t, fixed.AdvanceAmount.Equal(decimal.NewFromInt(30)))
	assert.True(t, fixed.CurrentDebt.IsZero())

	require.Equal(t, http.StatusOK, listRec.Code)
	list := decode[dto.PaymentListResponse](t, listRec)
	assert.EqualValues(t, 2, list.Pagination.TotalCount)
	assert.Len(t, list.Payments, 2)
}
