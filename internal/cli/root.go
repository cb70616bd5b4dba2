package cli

import (
	"context"

	"github.com/phambaophuc/imgres/internal/config"
	"github.com/phambaophuc/imgres/internal/services/credit"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Deps are the collaborators the operator commands need. Tests replace
// them with in-memory versions.
type Deps struct {
	LoadConfig func() (*config.Config, error)
	OpenLedger func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (credit.Ledger, func() error, error)
	Logger     *zap.Logger
}

func DefaultDeps(logger *zap.Logger) Deps {
	return Deps{
		LoadConfig: config.Load,
		OpenLedger: credit.OpenLedger,
		Logger:     logger,
	}
}

func NewRootCmd(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imgres-admin",
		Short: "Operator tasks for the image resize service",
		Long: `imgres-admin manages credit balances and issues bearer tokens.

It reads the same environment and .env file as the server.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newGrantCmd(deps))
	cmd.AddCommand(newBalanceCmd(deps))
	cmd.AddCommand(newTokenCmd(deps))

	return cmd
}

func withLedger(cmd *cobra.Command, deps Deps, fn func(ledger credit.Ledger) error) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return err
	}

	ledger, closeLedger, err := deps.OpenLedger(cmd.Context(), cfg, deps.Logger)
	if err != nil {
		return err
	}
	defer closeLedger()

	return fn(ledger)
}
