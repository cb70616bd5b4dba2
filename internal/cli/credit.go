package cli

import (
	"fmt"
	"strconv"

	"github.com/phambaophuc/imgres/internal/services/credit"
	"github.com/spf13/cobra"
)

func newGrantCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "grant <identity> <units>",
		Short: "Add credits to an identity",
		Example: `  # Give user-42 ten upscale credits
  imgres-admin grant user-42 10`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			units, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || units <= 0 {
				return fmt.Errorf("units must be a positive integer, got %q", args[1])
			}

			return withLedger(cmd, deps, func(ledger credit.Ledger) error {
				balance, err := ledger.Grant(cmd.Context(), args[0], units)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d credits\n", args[0], balance)
				return nil
			})
		},
	}
}

func newBalanceCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <identity>",
		Short: "Print the credit balance of an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, deps, func(ledger credit.Ledger) error {
				balance, err := ledger.Balance(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d credits\n", args[0], balance)
				return nil
			})
		},
	}
}
