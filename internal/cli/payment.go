package cli

import (
	"fmt"
	"time"

	"github.com/gigmile/receivables-service/internal/application/service"
	"github.com/gigmile/receivables-service/internal/interface/http/dto"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newApplyPaymentCommand(opts *rootOptions) *cobra.Command {
	var amount, method, reference, date, notes string

	cmd := &cobra.Command{
		Use:   "apply-payment <customer-id>",
		Short: "Apply a payment over the customer's open invoices, oldest first",
		Example: `  ledgerctl apply-payment CUST001 --amount 250 --method transfer --reference TRX-881
  ledgerctl apply-payment CUST001 --amount 100 --date 2026-03-01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid --amount: %w", err)
			}

			var paymentDate time.Time
			if date != "" {
				paymentDate, err = time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date, use YYYY-MM-DD: %w", err)
				}
			}

			s, err := opts.session(cmd.Context())
			if err != nil {
				return err
			}
			defer s.res.Close()

			svc := service.NewPaymentService(s.res.Store, s.res.Guard(), s.publisher(), s.logger)
			result, err := svc.ApplyPayment(cmd.Context(), service.ApplyPaymentRequest{
				CustomerID:  args[0],
				Amount:      value,
				Method:      method,
				Reference:   reference,
				PaymentDate: paymentDate,
				Notes:       notes,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.NewPaymentResponse("payment applied successfully", result))
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "Payment amount")
	cmd.Flags().StringVar(&method, "method", "CASH", "CASH, CARD, TRANSFER, CHECK or VOUCHER")
	cmd.Flags().StringVar(&reference, "reference", "", "External payment reference")
	cmd.Flags().StringVar(&date, "date", "", "Payment date (YYYY-MM-DD, default: now)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free text stored on every payment row")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newFixLastPaymentCommand(opts *rootOptions) *cobra.Command {
	var paymentID string

	cmd := &cobra.Command{
		Use:   "fix-last-payment <customer-id>",
		Short: "Reallocate the customer's latest advance payment over open invoices",
		Long: `fix-last-payment takes the most recent payment left on account and
allocates it over the invoices issued since. Use --payment to pick a
specific advance instead of the latest one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session(cmd.Context())
			if err != nil {
				return err
			}
			defer s.res.Close()

			svc := service.NewPaymentService(s.res.Store, s.res.Guard(), s.publisher(), s.logger)

			var result *service.AllocationResult
			if paymentID != "" {
				result, err = svc.ReallocatePayment(cmd.Context(), args[0], paymentID)
			} else {
				result, err = svc.FixLastPayment(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			message := "payment reallocated successfully"
			if !result.Reallocated {
				message = "no open sales, payment left on account"
			}
			return printJSON(cmd.OutOrStdout(), dto.NewPaymentResponse(message, result))
		},
	}

	cmd.Flags().StringVar(&paymentID, "payment", "", "Advance payment ID to reallocate")
	return cmd
}
