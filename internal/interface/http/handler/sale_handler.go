package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gigmile/receivables-service/internal/application/service"
	"github.com/gigmile/receivables-service/internal/interface/http/dto"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type SaleHandler struct {
	saleService *service.SaleService
	logger      *zap.Logger
}

func NewSaleHandler(saleService *service.SaleService, logger *zap.Logger) *SaleHandler {
	return &SaleHandler{
		saleService: saleService,
		logger:      logger,
	}
}

// IssueCreditSale books a credit invoice for the customer
func (h *SaleHandler) IssueCreditSale(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")

	var req dto.CreditSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	items, err := req.LineItems()
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation failed", err)
		return
	}

	result, err := h.saleService.IssueCreditSale(r.Context(), service.IssueCreditSaleRequest{
		CustomerID: customerID,
		Items:      items,
		DueInDays:  req.DueInDays,
	})
	if err != nil {
		respondServiceError(w, h.logger, "failed to issue credit sale", err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewSaleResponse(result.Sale, result.CurrentDebt, result.AvailableCredit))
}
