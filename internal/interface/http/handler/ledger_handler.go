package handler

import (
	"net/http"

	"github.com/gigmile/receivables-service/internal/application/service"
	"github.com/gigmile/receivables-service/internal/interface/http/dto"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LedgerHandler serves the reconciliation and statement endpoints.
type LedgerHandler struct {
	reconcileService *service.ReconcileService
	statementService *service.StatementService
	logger           *zap.Logger
}

func NewLedgerHandler(reconcileService *service.ReconcileService, statementService *service.StatementService, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{
		reconcileService: reconcileService,
		statementService: statementService,
		logger:           logger,
	}
}

func (h *LedgerHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")

	outcome, err := h.reconcileService.Reconcile(r.Context(), customerID)
	if err != nil {
		respondServiceError(w, h.logger, "failed to reconcile customer", err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewReconcileResponse(outcome))
}

func (h *LedgerHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")

	statement, err := h.statementService.GetStatement(r.Context(), customerID)
	if err != nil {
		respondServiceError(w, h.logger, "failed to build statement", err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewStatementResponse(statement))
}
