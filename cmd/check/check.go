// Package check implements the one-off duplicate check command.
package check

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/estatehub/listingguard/internal/app"
	"github.com/estatehub/listingguard/internal/conf"
	"github.com/estatehub/listingguard/internal/logger"
	"github.com/estatehub/listingguard/internal/matching"
)

// Output formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type options struct {
	query     matching.Query
	latitude  float64
	longitude float64
	price     float64
	format    string
}

// Command creates the check command.
func Command(ctx *conf.Context) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a listing against the verified project catalog",
		Long: "Run one duplicate check against the catalog and print the best match.\n" +
			"Every field is optional; coordinates are used only when both are given.",
		Example: `  listingguard check --title "Marina Gate" --community "Dubai Marina" --lat 25.08 --lng 55.14
  listingguard check --title "Creek Vista" --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("lat") {
				opts.query.Latitude = &opts.latitude
			}
			if cmd.Flags().Changed("lng") {
				opts.query.Longitude = &opts.longitude
			}
			if cmd.Flags().Changed("price") {
				opts.query.Price = &opts.price
			}
			return run(cmd, ctx.Settings, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.query.Title, "title", "", "Listing title")
	f.StringVar(&opts.query.Community, "community", "", "Community or district")
	f.StringVar(&opts.query.City, "city", "", "City")
	f.StringVar(&opts.query.DeveloperName, "developer", "", "Developer name")
	f.Float64Var(&opts.latitude, "lat", 0, "Latitude")
	f.Float64Var(&opts.longitude, "lng", 0, "Longitude")
	f.Float64Var(&opts.price, "price", 0, "Asking price")
	f.StringVarP(&opts.format, "format", "f", FormatJSON, "Output format: json or yaml")

	return cmd
}

func run(cmd *cobra.Command, settings *conf.Settings, opts *options) error {
	format := strings.ToLower(opts.format)
	if format != FormatJSON && format != FormatYAML {
		return fmt.Errorf("unsupported format %q, use json or yaml", opts.format)
	}
	if settings.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.baseurl is required")
	}

	// the result goes to stdout, diagnostics to stderr
	level := logger.LogLevelWarn
	if settings.Debug {
		level = logger.LogLevelDebug
	}
	log := logger.NewSlogLogger(cmd.ErrOrStderr(), level, nil)

	cat, err := app.NewCatalog(settings, log, nil)
	if err != nil {
		return err
	}

	result, err := cat.Matcher.Check(cmd.Context(), opts.query)
	if err != nil {
		return err
	}
	return Write(cmd.OutOrStdout(), result, format)
}

// Write renders a check result in the given format.
func Write(w io.Writer, result *matching.Result, format string) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		return nil
	}
}
