package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gigmile/receivables-service/internal/application/service"
	"github.com/gigmile/receivables-service/internal/interface/http/dto"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
	logger         *zap.Logger
}

func NewPaymentHandler(paymentService *service.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// ApplyPayment allocates a customer payment over open invoices
func (h *PaymentHandler) ApplyPayment(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")

	var req dto.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "validation failed", err)
		return
	}

	amount, _ := req.GetAmount()
	paymentDate, _ := req.GetPaymentDate()

	result, err := h.paymentService.ApplyPayment(r.Context(), service.ApplyPaymentRequest{
		CustomerID:  customerID,
		Amount:      amount,
		Method:      req.Method,
		Reference:   req.Reference,
		PaymentDate: paymentDate,
		Notes:       req.Notes,
	})
	if err != nil {
		respondServiceError(w, h.logger, "failed to apply payment", err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewPaymentResponse("payment applied successfully", result))
}

// FixLastPayment reallocates the most recent advance payment
func (h *PaymentHandler) FixLastPayment(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")

	result, err := h.paymentService.FixLastPayment(r.Context(), customerID)
	if err != nil {
		respondServiceError(w, h.logger, "failed to fix last payment", err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewPaymentResponse(reallocationMessage(result), result))
}

// ReallocatePayment reallocates one advance payment
func (h *PaymentHandler) ReallocatePayment(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")
	paymentID := chi.URLParam(r, "payment_id")

	result, err := h.paymentService.ReallocatePayment(r.Context(), customerID, paymentID)
	if err != nil {
		respondServiceError(w, h.logger, "failed to reallocate payment", err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewPaymentResponse(reallocationMessage(result), result))
}

func reallocationMessage(result *service.AllocationResult) string {
	if result.Reallocated {
		return "payment reallocated successfully"
	}
	return "no open sales, payment left on account"
}

// GetCustomerPayments lists a customer's payments, newest first
func (h *PaymentHandler) GetCustomerPayments(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")

	params := service.PaginationParams{Page: 1, PageSize: service.DefaultPageSize}
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		params.Page = p
	}
	if ps, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && ps > 0 {
		params.PageSize = ps
	}

	result, err := h.paymentService.GetCustomerPaymentsPaginated(r.Context(), customerID, params)
	if err != nil {
		respondServiceError(w, h.logger, "failed to get customer payments", err)
		return
	}

	response := make([]dto.PaymentRecordResponse, len(result.Payments))
	for i, payment := range result.Payments {
		response[i] = dto.PaymentRecordResponse{
			ID:          payment.ID,
			CustomerID:  payment.CustomerID,
			SaleID:      payment.SaleID,
			Amount:      payment.Amount,
			Method:      string(payment.Method),
			Reference:   payment.Reference,
			PaymentDate: payment.PaymentDate.Format(time.RFC3339),
			Notes:       payment.Notes,
			CreatedAt:   payment.CreatedAt.Format(time.RFC3339),
		}
	}

	h.logger.Debug("customer payments retrieved successfully with pagination",
		zap.String("customer_id", customerID),
		zap.Int("count", len(response)),
		zap.Int("page", result.Page),
		zap.Int("page_size", result.PageSize),
		zap.Int64("total_count", result.TotalCount),
	)

	respondJSON(w, http.StatusOK, dto.PaymentListResponse{
		CustomerID: customerID,
		Payments:   response,
		Pagination: dto.PaginationResponse{
			Page:       result.Page,
			PageSize:   result.PageSize,
			TotalCount: result.TotalCount,
			TotalPages: result.TotalPages,
		},
	})
}
