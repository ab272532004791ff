package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gigmile/receivables-service/internal/application/service"
	"github.com/gigmile/receivables-service/internal/interface/http/dto"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CustomerHandler struct {
	customerService *service.CustomerService
	logger          *zap.Logger
}

func NewCustomerHandler(customerService *service.CustomerService, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		logger:          logger,
	}
}

// CreateCustomer onboards a credit customer
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCustomerRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "validation failed", err)
		return
	}

	creditLimit, _ := req.GetCreditLimit()
	customer, err := h.customerService.Onboard(r.Context(), service.OnboardCustomerRequest{
		ID:          req.ID,
		Name:        req.Name,
		CreditLimit: creditLimit,
	})
	if err != nil {
		respondServiceError(w, h.logger, "failed to create customer", err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewCustomerResponse(customer))
}

// GetCustomer retrieves customer information
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")

	customer, err := h.customerService.GetCustomer(r.Context(), customerID)
	if err != nil {
		respondServiceError(w, h.logger, "failed to get customer", err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(customer))
}

// CreateProduct registers a catalog product credit sales can draw from
func (h *CustomerHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProductRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	stock, err := req.GetStock()
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation failed", err)
		return
	}

	product, err := h.customerService.RegisterProduct(r.Context(), service.RegisterProductRequest{
		ID:    req.ID,
		SKU:   req.SKU,
		Name:  req.Name,
		Stock: stock,
	})
	if err != nil {
		respondServiceError(w, h.logger, "failed to create product", err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ProductResponse{
		ID:    product.ID,
		SKU:   product.SKU,
		Name:  product.Name,
		Stock: product.Stock,
	})
}
