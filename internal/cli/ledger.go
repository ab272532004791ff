package cli

import (
	"errors"
	"fmt"

	"github.com/gigmile/receivables-service/internal/application/service"
	"github.com/gigmile/receivables-service/internal/interface/http/dto"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type sweepResult struct {
	Checked     int                     `json:"checked"`
	Corrected   int                     `json:"corrected"`
	Failed      int                     `json:"failed"`
	Corrections []dto.ReconcileResponse `json:"corrections"`
}

func newReconcileCommand(opts *rootOptions) *cobra.Command {
	var all bool
	var batchSize int

	cmd := &cobra.Command{
		Use:   "reconcile [customer-id]",
		Short: "Recompute stored debt from invoice balances",
		Example: `  ledgerctl reconcile CUST001
  ledgerctl reconcile --all --batch-size 500`,
		Args: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return errors.New("pass a customer id or --all, not both")
			}
			if !all && len(args) != 1 {
				return errors.New("a customer id is required unless --all is set")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session(cmd.Context())
			if err != nil {
				return err
			}
			defer s.res.Close()

			svc := service.NewReconcileService(s.res.Store, s.publisher(), s.logger)

			if !all {
				outcome, err := svc.Reconcile(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), dto.NewReconcileResponse(outcome))
			}

			if batchSize <= 0 && s.cfg != nil {
				batchSize = s.cfg.Ledger.ReconcileBatch
			}
			summary, sweepErr := svc.ReconcileAll(cmd.Context(), batchSize)
			if sweepErr != nil {
				s.logger.Warn("some customers failed to reconcile", zap.Error(sweepErr))
			}

			out := sweepResult{
				Checked:     summary.Checked,
				Corrected:   summary.Corrected,
				Failed:      summary.Failed,
				Corrections: make([]dto.ReconcileResponse, 0, len(summary.Corrections)),
			}
			for i := range summary.Corrections {
				out.Corrections = append(out.Corrections, dto.NewReconcileResponse(&summary.Corrections[i]))
			}
			if err := printJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d customers failed to reconcile", summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Sweep every customer")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Customers per page when sweeping (default: LEDGER_RECONCILE_BATCH)")
	return cmd
}

func newStatementCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "statement <customer-id>",
		Short: "Print the customer's account statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session(cmd.Context())
			if err != nil {
				return err
			}
			defer s.res.Close()

			dueSoon, limit := 0, 0
			if s.cfg != nil {
				dueSoon, limit = s.cfg.Ledger.DueSoonDays, s.cfg.Ledger.StatementPayments
			}
			statement, err := service.NewStatementService(s.res.Store, dueSoon, limit, s.logger).GetStatement(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.NewStatementResponse(statement))
		},
	}
}
