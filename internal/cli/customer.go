package cli

import (
	"fmt"

	"github.com/gigmile/receivables-service/internal/application/service"
	"github.com/gigmile/receivables-service/internal/interface/http/dto"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newOnboardCommand(opts *rootOptions) *cobra.Command {
	var name, creditLimit string

	cmd := &cobra.Command{
		Use:     "onboard <customer-id>",
		Short:   "Create a credit customer",
		Example: `  ledgerctl onboard CUST001 --name "Corner Shop" --credit-limit 5000`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := decimal.NewFromString(creditLimit)
			if err != nil {
				return fmt.Errorf("invalid --credit-limit: %w", err)
			}

			s, err := opts.session(cmd.Context())
			if err != nil {
				return err
			}
			defer s.res.Close()

			customer, err := service.NewCustomerService(s.res.Store, s.logger).Onboard(cmd.Context(), service.OnboardCustomerRequest{
				ID:          args[0],
				Name:        name,
				CreditLimit: limit,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.NewCustomerResponse(customer))
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Customer display name")
	cmd.Flags().StringVar(&creditLimit, "credit-limit", "0", "Maximum outstanding debt")
	return cmd
}
