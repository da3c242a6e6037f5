// Package serve implements the serve command.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"

	"github.com/estatehub/listingguard/internal/api"
	v1 "github.com/estatehub/listingguard/internal/api/v1"
	"github.com/estatehub/listingguard/internal/app"
	"github.com/estatehub/listingguard/internal/auth"
	"github.com/estatehub/listingguard/internal/buildinfo"
	"github.com/estatehub/listingguard/internal/conf"
	"github.com/estatehub/listingguard/internal/datastore"
	"github.com/estatehub/listingguard/internal/errors"
	"github.com/estatehub/listingguard/internal/logger"
	"github.com/estatehub/listingguard/internal/observability"
)

const (
	warmTimeout        = 2 * time.Minute
	sentryFlushTimeout = 2 * time.Second
)

// Command creates the serve command.
func Command(ctx *conf.Context) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Serve the duplicate check and listing lifecycle API until SIGINT or SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				ctx.Settings.Server.Listen = listen
			}
			return Run(cmd.Context(), ctx.Settings)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Override server.listen (host:port)")
	return cmd
}

// Run wires every component from settings and serves until ctx is cancelled
// or a shutdown signal arrives.
func Run(ctx context.Context, settings *conf.Settings) error {
	if settings.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.baseurl is required to serve")
	}
	if settings.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwtsecret is required to serve")
	}

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() {
		if err := central.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close logger: %v\n", err)
		}
	}()
	log := central.Module("main")
	log.Info("starting listingguard", logger.String("version", buildinfo.Get().Version))

	if settings.Sentry.Enabled {
		if err := initSentry(&settings.Sentry); err != nil {
			return err
		}
		defer sentry.Flush(sentryFlushTimeout)
		log.Info("sentry error reporting enabled", logger.String("environment", settings.Sentry.Environment))
	}

	m, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	cat, err := app.NewCatalog(settings, central, m)
	if err != nil {
		return err
	}

	db, err := app.OpenStore(&settings.Database, central)
	if err != nil {
		return err
	}
	defer func() {
		if err := datastore.Close(db); err != nil {
			log.Warn("failed to close database", logger.Error(err))
		}
	}()

	resolver, err := auth.NewResolver(settings.Security.JWTSecret, settings.Security.JWTIssuer)
	if err != nil {
		return err
	}

	listings := app.NewListingService(db, cat.Matcher, central, m)
	apiLog := central.Module("api")
	controller := v1.New(listings, cat.Matcher, resolver, apiLog)

	server, err := api.New(&settings.Server,
		api.WithLogger(apiLog),
		api.WithMetrics(m),
		api.WithRoutes(controller),
		api.WithCacheStats("markers", cat.Markers.Stats),
		api.WithCacheStats("project_details", cat.Gateway.DetailCacheStats),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if settings.Markers.WarmOnStart {
		cat.WarmMarkers(ctx, warmTimeout, log)
	}

	return server.Run(ctx)
}

func initSentry(s *conf.SentrySettings) error {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              s.DSN,
		Environment:      s.Environment,
		Release:          buildinfo.Get().Release(),
		SampleRate:       s.SampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}
	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	return nil
}
