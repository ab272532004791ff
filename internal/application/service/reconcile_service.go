package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gigmile/receivables-service/internal/domain"
	"go.uber.org/zap"
)

// DefaultReconcileBatch is the page size of a full sweep.
const DefaultReconcileBatch = 100

type ReconcileService struct {
	store          domain.Store
	eventPublisher domain.EventPublisher // Optional - can be nil
	logger         *zap.Logger
}

func NewReconcileService(store domain.Store, eventPublisher domain.EventPublisher, logger *zap.Logger) *ReconcileService {
	return &ReconcileService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// Reconcile recomputes the customer's debt from invoice balances and
// overwrites the stored value when it drifted past the tolerance.
func (s *ReconcileService) Reconcile(ctx context.Context, customerID string) (*domain.ReconcileOutcome, error) {
	var outcome domain.ReconcileOutcome
	err := s.store.WithinCustomerLock(ctx, customerID, func(ctx context.Context, tx domain.Ledger) error {
		customer, err := tx.Customers().FindByID(ctx, customerID)
		if err != nil {
			return err
		}

		sales, err := tx.Sales().FindWithBalance(ctx, customerID)
		if err != nil {
			return fmt.Errorf("failed to load sales: %w", err)
		}

		outcome = domain.ReconcileDebt(customer, sales)
		if !outcome.Corrected {
			return nil
		}

		customer.OverrideDebt(outcome.CorrectedDebt)
		return tx.Customers().Save(ctx, customer)
	})
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, err
		}
		s.logger.Error("failed to reconcile customer",
			zap.Error(err),
			zap.String("customer_id", customerID),
		)
		return nil, fmt.Errorf("failed to reconcile customer: %w", err)
	}

	if outcome.Corrected {
		s.logger.Warn("customer debt drift corrected",
			zap.String("customer_id", customerID),
			zap.Stringer("previous_debt", outcome.PreviousDebt),
			zap.Stringer("corrected_debt", outcome.CorrectedDebt),
			zap.Stringer("drift", outcome.Drift()),
		)
		if s.eventPublisher != nil {
			go s.publishLedgerCorrectedEvent(outcome)
		}
	}

	return &outcome, nil
}

// ReconcileSummary reports one sweep over every customer.
type ReconcileSummary struct {
	Checked     int
	Corrected   int
	Failed      int
	Corrections []domain.ReconcileOutcome
}

// ReconcileAll walks every customer page by page. A failed customer does
// not stop the sweep; all failures come back joined.
func (s *ReconcileService) ReconcileAll(ctx context.Context, batchSize int) (*ReconcileSummary, error) {
	if batchSize <= 0 {
		batchSize = DefaultReconcileBatch
	}

	summary := &ReconcileSummary{}
	var errs []error
	started := time.Now()

	for offset := 0; ; offset += batchSize {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		ids, err := s.store.Customers().ListIDs(ctx, batchSize, offset)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to list customers at offset %d: %w", offset, err))
			break
		}

		for _, id := range ids {
			outcome, err := s.Reconcile(ctx, id)
			summary.Checked++
			if err != nil {
				summary.Failed++
				errs = append(errs, fmt.Errorf("customer %s: %w", id, err))
				continue
			}
			if outcome.Corrected {
				summary.Corrected++
				summary.Corrections = append(summary.Corrections, *outcome)
			}
		}

		if len(ids) < batchSize {
			break
		}
	}

	s.logger.Info("reconciliation sweep finished",
		zap.Int("checked", summary.Checked),
		zap.Int("corrected", summary.Corrected),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", time.Since(started)),
	)

	return summary, errors.Join(errs...)
}

// HandleLedgerEvent re-checks the account an event touched. Events for
// customers that no longer exist are acknowledged.
func (s *ReconcileService) HandleLedgerEvent(ctx context.Context, event domain.DomainEvent) error {
	_, err := s.Reconcile(ctx, event.GetAggregateID())
	if domain.IsNotFound(err) {
		s.logger.Warn("skipping reconcile for unknown customer",
			zap.String("customer_id", event.GetAggregateID()),
			zap.String("event_id", event.GetEventID()),
		)
		return nil
	}
	return err
}

func (s *ReconcileService) publishLedgerCorrectedEvent(outcome domain.ReconcileOutcome) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := domain.NewLedgerCorrectedEvent(outcome.CustomerID, domain.LedgerCorrectedPayload{
		CustomerID:    outcome.CustomerID,
		PreviousDebt:  outcome.PreviousDebt,
		CorrectedDebt: outcome.CorrectedDebt,
		CorrectedAt:   time.Now(),
	})

	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish ledger corrected event",
			zap.Error(err),
			zap.String("customer_id", outcome.CustomerID),
			zap.String("event_id", event.GetEventID()),
		)
	}
}
