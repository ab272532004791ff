package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/gigmile/receivables-service/internal/interface/http/dto"
	"go.uber.org/zap"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error: message,
	}

	if err != nil {
		response.Message = err.Error()
	}

	respondJSON(w, status, response)
}

// respondServiceError maps ledger errors to status codes. Only unexpected
// failures are logged at error level.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, message string, err error) {
	var limitErr *domain.CreditLimitExceededError
	switch {
	case errors.As(err, &limitErr):
		available := limitErr.AvailableCredit
		respondJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:           "credit limit exceeded",
			Message:         err.Error(),
			AvailableCredit: &available,
		})
	case domain.IsValidation(err):
		respondError(w, http.StatusBadRequest, "validation failed", err)
	case domain.IsNotFound(err):
		respondError(w, http.StatusNotFound, "not found", err)
	case errors.Is(err, domain.ErrDuplicatePayment),
		errors.Is(err, domain.ErrNoAdvancePayment),
		errors.Is(err, domain.ErrPaymentAlreadyAllocated),
		errors.Is(err, domain.ErrCustomerExists),
		errors.Is(err, domain.ErrOptimisticLock):
		respondError(w, http.StatusConflict, message, err)
	default:
		logger.Error(message, zap.Error(err))
		respondError(w, http.StatusInternalServerError, message, err)
	}
}

// HealthCheck handles health check endpoint
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
