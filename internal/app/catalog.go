// Package app wires the catalog, matching and listing components from settings.
package app

import (
	"context"
	"time"

	"github.com/estatehub/listingguard/internal/cache"
	"github.com/estatehub/listingguard/internal/catalog"
	"github.com/estatehub/listingguard/internal/conf"
	"github.com/estatehub/listingguard/internal/logger"
	"github.com/estatehub/listingguard/internal/matching"
	"github.com/estatehub/listingguard/internal/observability"
	"github.com/estatehub/listingguard/internal/observability/metrics"
)

// Loggers hands out module loggers. *logger.CentralLogger and logger.Logger both satisfy it.
type Loggers interface {
	Module(name string) logger.Logger
}

// Catalog bundles the catalog gateway, the marker index and the matcher built on them.
type Catalog struct {
	Gateway *catalog.Gateway
	Markers *catalog.MarkerIndex
	Matcher *matching.Service
}

// NewCatalog builds the catalog stack. m may be nil for one-off commands.
func NewCatalog(settings *conf.Settings, log Loggers, m *observability.Metrics) (*Catalog, error) {
	var (
		catalogMetrics  *metrics.CatalogMetrics
		matchingMetrics *metrics.MatchingMetrics
		recorder        cache.Recorder
	)
	if m != nil {
		catalogMetrics = m.Catalog
		matchingMetrics = m.Matching
		recorder = m.Cache
	}

	client, err := catalog.NewClient(CatalogConfig(&settings.Catalog), log.Module("catalog"), catalogMetrics)
	if err != nil {
		return nil, err
	}

	gateway, err := catalog.NewGateway(client, catalog.GatewayOptions{
		DetailTTL:      settings.Catalog.DetailTTL,
		StaleRetention: settings.Catalog.StaleRetention,
		CacheMetrics:   recorder,
		Logger:         log.Module("catalog"),
	})
	if err != nil {
		return nil, err
	}

	markers, err := catalog.NewMarkerIndex(gateway, catalog.MarkerIndexOptions{
		Limit:          settings.Markers.Limit,
		TTL:            settings.Markers.TTL,
		StaleRetention: settings.Catalog.StaleRetention,
		CacheMetrics:   recorder,
		Logger:         log.Module("catalog"),
	})
	if err != nil {
		return nil, err
	}

	matcher := matching.NewService(markers, gateway, matching.Options{
		CandidateLimit:      settings.Matching.CandidateLimit,
		Workers:             settings.Matching.Workers,
		DetailNameThreshold: settings.Matching.DetailNameThreshold,
		DetailGeoThreshold:  settings.Matching.DetailGeoThreshold,
		ProjectURL:          settings.Catalog.ProjectURL,
		Metrics:             matchingMetrics,
		Logger:              log.Module("matching"),
	})

	return &Catalog{Gateway: gateway, Markers: markers, Matcher: matcher}, nil
}

// CatalogConfig maps settings onto the client configuration. Zero values are
// replaced by client defaults in catalog.NewClient, except RateLimit where zero
// disables limiting.
func CatalogConfig(s *conf.CatalogSettings) catalog.Config {
	cfg := catalog.DefaultConfig()
	cfg.BaseURL = s.BaseURL
	cfg.APIKey = s.APIKey
	cfg.SaleStatus = s.SaleStatus
	cfg.Timeout = s.Timeout
	cfg.RateLimit = s.RateLimit
	cfg.Burst = s.Burst
	cfg.MaxRetries = s.MaxRetries
	cfg.PageSize = s.PageSize
	cfg.MaxPages = s.MaxPages
	return cfg
}

// WarmMarkers builds the marker index in the background. A failure is only
// logged; the first duplicate check retries the build.
func (c *Catalog) WarmMarkers(ctx context.Context, timeout time.Duration, log logger.Logger) {
	go func() {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := c.Markers.Warm(ctx); err != nil {
			log.Warn("marker index warm-up failed", logger.Error(err))
		}
	}()
}
