// Package cmd holds the command line interface of the listing guard.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/estatehub/listingguard/cmd/check"
	"github.com/estatehub/listingguard/cmd/serve"
	"github.com/estatehub/listingguard/cmd/token"
	"github.com/estatehub/listingguard/internal/buildinfo"
	"github.com/estatehub/listingguard/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(ctx *conf.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "listingguard",
		Short:         "Verified project duplicate guard and listing moderation service",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       buildinfo.Get().String(),
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.ConfigFile, "config", "c", "", "Path to config.yaml (default: search ., ~/.config/listingguard, /etc/listingguard)")
	rootCmd.PersistentFlags().BoolVarP(&ctx.Debug, "debug", "d", false, "Enable debug output")

	rootCmd.AddCommand(
		serve.Command(ctx),
		check.Command(ctx),
		token.Command(ctx),
	)

	// settings are loaded after flag parsing so --config takes effect
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return ctx.Load()
	}

	return rootCmd
}
