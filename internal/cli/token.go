package cli

import (
	"fmt"

	"github.com/phambaophuc/imgres/internal/auth"
	"github.com/spf13/cobra"
)

func newTokenCmd(deps Deps) *cobra.Command {
	var email, username string

	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Issue a bearer token for /api/v1/images/resize",
		Long: `Signs a token with TOKEN_SECRET. It expires after TOKEN_TTL.
Credits for upscaled variants are charged to the subject.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.LoadConfig()
			if err != nil {
				return err
			}

			token, err := auth.NewTokenService(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL).Issue(args[0], email, username)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().StringVar(&username, "username", "", "Username claim")

	return cmd
}
