// Package token implements the token command, which signs bearer tokens for
// local development and integration tests.
package token

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/estatehub/listingguard/internal/auth"
	"github.com/estatehub/listingguard/internal/conf"
)

// Command creates the token command.
func Command(ctx *conf.Context) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token with the configured secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := auth.Role(role)
			if !r.Valid() {
				return fmt.Errorf("unknown role %q, use agent or moderator", role)
			}
			if subject == "" {
				return fmt.Errorf("--sub is required")
			}

			resolver, err := auth.NewResolver(ctx.Settings.Security.JWTSecret, ctx.Settings.Security.JWTIssuer)
			if err != nil {
				return err
			}
			signed, err := resolver.Issue(auth.Principal{ID: subject, Role: r}, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), signed)
			return err
		},
	}

	cmd.Flags().StringVar(&subject, "sub", "", "Principal id")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleAgent), "agent or moderator")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}
