// Package cache provides a typed, loading TTL cache with single-flight population
// and an optional stale fallback.
//
// Values live in two go-cache tiers: a fresh tier with the configured TTL and a
// stale tier that keeps the last good value for StaleRetention. A miss in the
// fresh tier runs the loader once per key no matter how many callers are waiting;
// every waiter receives the same value or the same error. When the loader fails,
// callers that passed AllowStale get the retained value flagged as stale.
//
// The cache is best effort and eventually consistent. It is never a source of truth.
package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/estatehub/listingguard/internal/errors"
	"github.com/estatehub/listingguard/internal/logger"
)

// StalePolicy selects what a caller accepts when a load fails.
type StalePolicy int

const (
	// FreshOnly returns the load error when no fresh value exists.
	FreshOnly StalePolicy = iota
	// AllowStale returns the last good value, flagged stale, when a load fails.
	AllowStale
)

func (p StalePolicy) String() string {
	if p == AllowStale {
		return "allow-stale"
	}
	return "fresh-only"
}

// Loader produces the value for key. It runs detached from the caller's
// cancellation since its result is shared by every waiter.
type Loader[V any] func(ctx context.Context, key string) (V, error)

// Recorder receives cache metrics. *metrics.CacheMetrics implements it.
type Recorder interface {
	RecordHit(cache string)
	RecordMiss(cache string)
	RecordLoad(cache string, seconds float64, err error)
	RecordStale(cache string)
}

// Options configures a Cache.
type Options struct {
	Name            string        // metric label and log field
	TTL             time.Duration // freshness
	StaleRetention  time.Duration // how long the last good value survives for fallback; 0 disables the stale tier
	CleanupInterval time.Duration // janitor interval, defaults to TTL
	Metrics         Recorder
	Logger          logger.Logger
}

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	Name         string `json:"name" yaml:"name"`
	Entries      int    `json:"entries" yaml:"entries"`
	StaleEntries int    `json:"staleEntries" yaml:"staleEntries"`
	Hits         int64  `json:"hits" yaml:"hits"`
	Misses       int64  `json:"misses" yaml:"misses"`
	Loads        int64  `json:"loads" yaml:"loads"`
	LoadErrors   int64  `json:"loadErrors" yaml:"loadErrors"`
	StaleServed  int64  `json:"staleServed" yaml:"staleServed"`
}

// Cache is a loading cache keyed by string. It is safe for concurrent use.
type Cache[V any] struct {
	name    string
	fresh   *gocache.Cache
	stale   *gocache.Cache
	group   singleflight.Group
	load    Loader[V]
	metrics Recorder
	log     logger.Logger

	hits, misses, loads, loadErrors, staleServed atomic.Int64
}

// New creates a cache that populates itself with load.
func New[V any](opts Options, load Loader[V]) (*Cache[V], error) {
	if load == nil {
		return nil, errors.Newf("cache %q: loader is required", opts.Name).
			Component("cache").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if opts.TTL <= 0 {
		return nil, errors.Newf("cache %q: TTL must be positive, got %s", opts.Name, opts.TTL).
			Component("cache").
			Category(errors.CategoryConfiguration).
			Build()
	}

	cleanup := opts.CleanupInterval
	if cleanup <= 0 {
		cleanup = opts.TTL
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelWarn, nil)
	}

	c := &Cache[V]{
		name:    opts.Name,
		fresh:   gocache.New(opts.TTL, cleanup),
		load:    load,
		metrics: opts.Metrics,
		log:     log.With(logger.String("cache", opts.Name)),
	}
	if opts.StaleRetention > 0 {
		c.stale = gocache.New(opts.StaleRetention, max(cleanup, opts.StaleRetention/2))
	}
	return c, nil
}

// Get returns the value for key, loading it if no fresh value is cached.
// stale reports whether the value is a retained fallback after a failed load.
func (c *Cache[V]) Get(ctx context.Context, key string, policy StalePolicy) (value V, stale bool, err error) {
	if v, ok := c.fresh.Get(key); ok {
		c.hits.Add(1)
		c.recordHit()
		return v.(V), false, nil
	}
	c.misses.Add(1)
	c.recordMiss()

	ch := c.group.DoChan(key, func() (any, error) {
		return c.runLoader(context.WithoutCancel(ctx), key)
	})

	select {
	case <-ctx.Done():
		var zero V
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err == nil {
			return res.Val.(V), false, nil
		}
		if policy == AllowStale {
			if v, ok := c.staleValue(key); ok {
				c.staleServed.Add(1)
				if c.metrics != nil {
					c.metrics.RecordStale(c.name)
				}
				c.log.Warn("serving stale value after failed load",
					logger.String("key", key),
					logger.Error(res.Err))
				return v, true, nil
			}
		}
		var zero V
		return zero, false, res.Err
	}
}

func (c *Cache[V]) runLoader(ctx context.Context, key string) (any, error) {
	// a concurrent flight may have finished between the miss and this call
	if v, ok := c.fresh.Get(key); ok {
		return v, nil
	}

	start := time.Now()
	v, err := c.load(ctx, key)
	elapsed := time.Since(start)

	c.loads.Add(1)
	if c.metrics != nil {
		c.metrics.RecordLoad(c.name, elapsed.Seconds(), err)
	}
	if err != nil {
		c.loadErrors.Add(1)
		c.log.Debug("load failed",
			logger.String("key", key),
			logger.Duration("elapsed", elapsed),
			logger.Error(err))
		return nil, err
	}

	c.Set(key, v)
	return v, nil
}

// Set stores value as fresh and as the stale fallback.
func (c *Cache[V]) Set(key string, value V) {
	c.fresh.Set(key, value, gocache.DefaultExpiration)
	if c.stale != nil {
		c.stale.Set(key, value, gocache.DefaultExpiration)
	}
}

func (c *Cache[V]) staleValue(key string) (V, bool) {
	var zero V
	if c.stale == nil {
		return zero, false
	}
	v, ok := c.stale.Get(key)
	if !ok {
		return zero, false
	}
	return v.(V), true
}

// Flush drops every entry from both tiers.
func (c *Cache[V]) Flush() {
	c.fresh.Flush()
	if c.stale != nil {
		c.stale.Flush()
	}
}

// Stats returns activity counters and entry counts. Entry counts may include
// expired items not yet removed by the janitor.
func (c *Cache[V]) Stats() Stats {
	s := Stats{
		Name:        c.name,
		Entries:     c.fresh.ItemCount(),
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Loads:       c.loads.Load(),
		LoadErrors:  c.loadErrors.Load(),
		StaleServed: c.staleServed.Load(),
	}
	if c.stale != nil {
		s.StaleEntries = c.stale.ItemCount()
	}
	return s
}

func (c *Cache[V]) String() string {
	return fmt.Sprintf("cache(%s)", c.name)
}

func (c *Cache[V]) recordHit() {
	if c.metrics != nil {
		c.metrics.RecordHit(c.name)
	}
}

func (c *Cache[V]) recordMiss() {
	if c.metrics != nil {
		c.metrics.RecordMiss(c.name)
	}
}
