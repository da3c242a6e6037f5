package catalog

import (
	"context"
	"strconv"
	"time"

	"github.com/estatehub/listingguard/internal/cache"
	"github.com/estatehub/listingguard/internal/logger"
	"github.com/estatehub/listingguard/internal/observability/metrics"
)

// Marker index defaults
const (
	DefaultMarkerLimit = 500
	DefaultMarkerTTL   = 10 * time.Minute
)

// MarkerLister is satisfied by *Gateway.
type MarkerLister interface {
	ListMarkersUpTo(ctx context.Context, limitTotal int) ([]Marker, error)
}

// MarkerIndexOptions configures a MarkerIndex.
type MarkerIndexOptions struct {
	Limit          int
	TTL            time.Duration
	StaleRetention time.Duration
	CacheMetrics   cache.Recorder
	Logger         logger.Logger
}

// MarkerIndex caches the first Limit markers of the catalog and rebuilds the
// whole list when it expires. There is no partial invalidation.
type MarkerIndex struct {
	lister MarkerLister
	limit  int
	key    string
	cache  *cache.Cache[[]Marker]
	log    logger.Logger
}

// NewMarkerIndex creates an index over lister.
func NewMarkerIndex(lister MarkerLister, opts MarkerIndexOptions) (*MarkerIndex, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultMarkerLimit
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultMarkerTTL
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelWarn, nil)
	}

	idx := &MarkerIndex{
		lister: lister,
		limit:  opts.Limit,
		key:    "markers:" + strconv.Itoa(opts.Limit),
		log:    log,
	}

	c, err := cache.New(cache.Options{
		Name:           metrics.CacheMarkers,
		TTL:            opts.TTL,
		StaleRetention: opts.StaleRetention,
		Metrics:        opts.CacheMetrics,
		Logger:         log,
	}, func(ctx context.Context, _ string) ([]Marker, error) {
		return idx.lister.ListMarkersUpTo(ctx, idx.limit)
	})
	if err != nil {
		return nil, err
	}
	idx.cache = c
	return idx, nil
}

// Markers returns the cached marker list, rebuilding it when expired.
// The returned slice is shared and must not be modified.
//
// A failed rebuild serves the previous list: duplicate checks against a slightly
// old catalog beat failing every check while the catalog is down.
func (idx *MarkerIndex) Markers(ctx context.Context) ([]Marker, error) {
	markers, stale, err := idx.cache.Get(ctx, idx.key, cache.AllowStale)
	if err != nil {
		return nil, err
	}
	if stale {
		idx.log.Warn("marker index rebuild failed, serving previous index",
			logger.Int("markers", len(markers)))
	}
	return markers, nil
}

// Warm builds the index ahead of the first request.
func (idx *MarkerIndex) Warm(ctx context.Context) error {
	start := time.Now()
	markers, err := idx.Markers(ctx)
	if err != nil {
		return err
	}
	idx.log.Info("marker index warmed",
		logger.Int("markers", len(markers)),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}

// Stats returns statistics of the marker cache.
func (idx *MarkerIndex) Stats() cache.Stats {
	return idx.cache.Stats()
}
