package cli

import (
	"fmt"
	"time"

	"lsablog/internal/identity"
	"lsablog/internal/models"

	"github.com/spf13/cobra"
)

// NewTokenCommand creates the token command, which mints bearer tokens for local testing.
func NewTokenCommand(opts *RootOptions) *cobra.Command {
	var (
		name   string
		avatar string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint a development bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolveConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to mint tokens in %s", cfg.Env)
			}
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive")
			}

			verifier := identity.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
			token, err := verifier.Issue(models.ActingUser{
				ID:          args[0],
				DisplayName: name,
				AvatarURL:   avatar,
			}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "display name claim")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar URL claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	return cmd
}
