package catalog

import (
	"context"
	"time"

	"github.com/estatehub/listingguard/internal/cache"
	"github.com/estatehub/listingguard/internal/errors"
	"github.com/estatehub/listingguard/internal/logger"
	"github.com/estatehub/listingguard/internal/observability/metrics"
)

// GatewayOptions configures the detail cache of a Gateway.
type GatewayOptions struct {
	DetailTTL      time.Duration
	StaleRetention time.Duration
	CacheMetrics   cache.Recorder
	Logger         logger.Logger
}

// Gateway fetches catalog data page by page and caches project details per id.
type Gateway struct {
	client  *Client
	details *cache.Cache[*Project]
	metrics *metrics.CatalogMetrics
	log     logger.Logger
}

// NewGateway wraps client with pagination and a detail cache.
func NewGateway(client *Client, opts GatewayOptions) (*Gateway, error) {
	if opts.DetailTTL <= 0 {
		opts.DetailTTL = 10 * time.Minute
	}
	log := opts.Logger
	if log == nil {
		log = client.log
	}

	g := &Gateway{
		client:  client,
		metrics: client.metrics,
		log:     log,
	}

	details, err := cache.New(cache.Options{
		Name:           metrics.CacheProjectDetail,
		TTL:            opts.DetailTTL,
		StaleRetention: opts.StaleRetention,
		Metrics:        opts.CacheMetrics,
		Logger:         log,
	}, g.client.GetProject)
	if err != nil {
		return nil, err
	}
	g.details = details
	return g, nil
}

// ListMarkersUpTo walks the project listing until limitTotal markers are collected,
// a page comes back empty, the catalog reports no more pages, or the page cap is hit.
//
// A failure after at least one page returns what was collected without an error.
// A failure before anything was collected is an upstream-unavailable error.
func (g *Gateway) ListMarkersUpTo(ctx context.Context, limitTotal int) ([]Marker, error) {
	if limitTotal <= 0 {
		return nil, nil
	}

	cfg := g.client.Config()
	markers := make([]Marker, 0, min(limitTotal, cfg.PageSize*cfg.MaxPages))
	pages := 0

	for page := 1; page <= cfg.MaxPages && len(markers) < limitTotal; page++ {
		result, err := g.client.ListProjects(ctx, page, cfg.PageSize)
		if err != nil {
			if len(markers) == 0 {
				return nil, errors.New(err).
					Category(errors.CategoryUpstreamUnavailable).
					Component(componentName).
					Context("operation", "list_markers").
					Context("page", page).
					Build()
			}
			g.log.Warn("marker listing stopped early, returning partial result",
				logger.Int("page", page),
				logger.Int("collected", len(markers)),
				logger.Error(err))
			break
		}
		pages++

		batch := result.Markers()
		if len(result.Items) == 0 {
			break
		}
		if remaining := limitTotal - len(markers); len(batch) > remaining {
			batch = batch[:remaining]
		}
		markers = append(markers, batch...)

		if !result.HasMore {
			break
		}
	}

	g.metrics.RecordMarkerRebuild(len(markers), pages)
	g.log.Debug("marker listing complete",
		logger.Int("markers", len(markers)),
		logger.Int("pages", pages))

	return markers, nil
}

// GetProjectDetail returns the project with the given id from the detail cache,
// fetching it on a miss. Concurrent misses for one id share one request.
//
// Expired details are served when the catalog fails: a slightly old project
// still scores better than the name and geo only fallback.
func (g *Gateway) GetProjectDetail(ctx context.Context, id string) (*Project, error) {
	project, stale, err := g.details.Get(ctx, id, cache.AllowStale)
	if err != nil {
		return nil, err
	}
	if stale {
		g.log.Debug("using stale project detail", logger.String("project_id", id))
	}
	return project, nil
}

// DetailCacheStats returns statistics of the detail cache.
func (g *Gateway) DetailCacheStats() cache.Stats {
	return g.details.Stats()
}
