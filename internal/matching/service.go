package matching

import (
	"context"
	"time"

	"github.com/estatehub/listingguard/internal/catalog"
	"github.com/estatehub/listingguard/internal/errors"
	"github.com/estatehub/listingguard/internal/logger"
	"github.com/estatehub/listingguard/internal/observability/metrics"
	"github.com/estatehub/listingguard/internal/similarity"
)

const componentName = "matching"

// Defaults used when Options leaves a field zero.
const (
	DefaultCandidateLimit      = 40
	DefaultWorkers             = 10
	DefaultDetailNameThreshold = 45
	DefaultDetailGeoThreshold  = 70
)

// MarkerSource provides the candidate universe. *catalog.MarkerIndex implements it.
type MarkerSource interface {
	Markers(ctx context.Context) ([]catalog.Marker, error)
}

// DetailSource provides full project detail. *catalog.Gateway implements it.
type DetailSource interface {
	GetProjectDetail(ctx context.Context, id string) (*catalog.Project, error)
}

// Options configures a Service.
type Options struct {
	CandidateLimit      int
	Workers             int
	DetailNameThreshold int
	DetailGeoThreshold  int
	ProjectURL          func(projectID string) string
	Metrics             *metrics.MatchingMetrics
	Logger              logger.Logger
}

// Service runs duplicate checks. It holds no mutable state of its own and is
// safe for concurrent use.
type Service struct {
	markers MarkerSource
	details DetailSource
	opts    Options
	log     logger.Logger
}

// NewService creates a Service over the given sources.
func NewService(markers MarkerSource, details DetailSource, opts Options) *Service {
	if opts.CandidateLimit <= 0 {
		opts.CandidateLimit = DefaultCandidateLimit
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.DetailNameThreshold <= 0 {
		opts.DetailNameThreshold = DefaultDetailNameThreshold
	}
	if opts.DetailGeoThreshold <= 0 {
		opts.DetailGeoThreshold = DefaultDetailGeoThreshold
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelWarn, nil)
	}
	return &Service{markers: markers, details: details, opts: opts, log: log}
}

// scored is the outcome for one candidate; ok is false for candidates skipped by the detail threshold
type scored struct {
	ok       bool
	score    int
	degraded bool
	project  *catalog.Project
}

// Check scores q against the catalog and returns the best match.
//
// The only error is an unusable marker index (or a cancelled ctx). Detail
// failures degrade the affected candidate and set Result.Degraded.
func (s *Service) Check(ctx context.Context, q Query) (*Result, error) {
	start := time.Now()

	markers, err := s.markers.Markers(ctx)
	if err != nil {
		s.opts.Metrics.RecordCheckError(time.Since(start).Seconds())
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, errors.New(err).
			Category(errors.CategoryUpstreamUnavailable).
			Component(componentName).
			Context("operation", "load_markers").
			Build()
	}

	candidates := selectCandidates(markers, &q, s.opts.CandidateLimit)

	pending := make([]int, 0, len(candidates))
	for i := range candidates {
		if candidates[i].needsDetail(s.opts.DetailNameThreshold, s.opts.DetailGeoThreshold) {
			pending = append(pending, i)
		} else {
			s.opts.Metrics.RecordDetailFetch(metrics.StatusSkipped)
		}
	}

	// each worker writes only its own slot
	results := make([]scored, len(candidates))
	err = runPool(ctx, s.opts.Workers, len(pending), func(ctx context.Context, n int) error {
		i := pending[n]
		results[i] = s.scoreCandidate(ctx, &q, &candidates[i])
		return nil
	})
	if err != nil {
		s.opts.Metrics.RecordCheckError(time.Since(start).Seconds())
		return nil, errors.New(err).
			Category(errors.CategoryTimeout).
			Component(componentName).
			Context("operation", "score_candidates").
			Build()
	}

	result := s.best(candidates, results)
	s.opts.Metrics.RecordCheck(string(result.Level), result.Score, time.Since(start).Seconds())
	s.log.Debug("duplicate check complete",
		logger.Int("markers", len(markers)),
		logger.Int("candidates", len(candidates)),
		logger.Int("detail_fetches", len(pending)),
		logger.Int("score", result.Score),
		logger.String("level", string(result.Level)),
		logger.Bool("degraded", result.Degraded),
		logger.Duration("elapsed", time.Since(start)))

	return result, nil
}

func (s *Service) scoreCandidate(ctx context.Context, q *Query, c *candidate) scored {
	project, err := s.details.GetProjectDetail(ctx, c.marker.ID)
	if err != nil || project == nil {
		s.opts.Metrics.RecordDetailFetch(metrics.StatusError)
		s.log.Debug("project detail unavailable, using degraded score",
			logger.String("project_id", c.marker.ID),
			logger.Error(err))
		return scored{
			ok:       true,
			score:    similarity.DegradedScore(c.nameSim, c.geoRaw),
			degraded: true,
		}
	}
	s.opts.Metrics.RecordDetailFetch(metrics.StatusSuccess)

	name := c.nameSim
	if q.HasTitle() && project.Name != "" {
		name = similarity.NameSimilarity(q.Title, project.Name)
	}
	area := similarity.AreaSimilarity(q.Community, q.City,
		project.Location.District, project.Location.Sector, project.Location.Region)
	developer := similarity.NameSimilarity(q.DeveloperName, project.DeveloperName)
	price := similarity.PriceScore(q.price(), project.PriceMin)

	return scored{
		ok:      true,
		score:   similarity.CompositeScore(name, area, developer, c.geoRaw, price),
		project: project,
	}
}

// best keeps the highest score; on a tie the earlier candidate wins
func (s *Service) best(candidates []candidate, results []scored) *Result {
	bestIdx := -1
	degraded := false
	for i, r := range results {
		if !r.ok {
			continue
		}
		degraded = degraded || r.degraded
		if bestIdx < 0 || r.score > results[bestIdx].score {
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return NoMatch()
	}

	c := candidates[bestIdx]
	r := results[bestIdx]
	m := &Match{
		ProjectID:      c.marker.ID,
		Score:          r.score,
		Name:           c.marker.Name,
		DistanceMeters: c.distance,
	}
	if r.project != nil {
		if r.project.Name != "" {
			m.Name = r.project.Name
		}
		m.DeveloperName = r.project.DeveloperName
	}
	if s.opts.ProjectURL != nil {
		m.URL = s.opts.ProjectURL(c.marker.ID)
	}

	return &Result{
		Score:    r.score,
		Level:    similarity.LevelFor(r.score),
		Match:    m,
		Degraded: degraded,
	}
}
