package app

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatehub/listingguard/internal/auth"
	"github.com/estatehub/listingguard/internal/catalog"
	"github.com/estatehub/listingguard/internal/conf"
	"github.com/estatehub/listingguard/internal/listing"
	"github.com/estatehub/listingguard/internal/logger"
	"github.com/estatehub/listingguard/internal/matching"
	"github.com/estatehub/listingguard/internal/observability"
	"github.com/estatehub/listingguard/internal/testutil"
)

const testBaseURL = "https://catalog.test/api"

func testSettings() *conf.Settings {
	return &conf.Settings{
		Catalog: conf.CatalogSettings{
			BaseURL:            testBaseURL,
			Timeout:            time.Second,
			MaxRetries:         1,
			PageSize:           50,
			MaxPages:           4,
			DetailTTL:          time.Minute,
			StaleRetention:     time.Hour,
			ProjectURLTemplate: "https://catalog.test/projects/%s",
		},
		Markers:  conf.MarkerSettings{Limit: 100, TTL: time.Minute},
		Matching: conf.MatchingSettings{CandidateLimit: 10, Workers: 2},
		Database: conf.DatabaseSettings{Type: "sqlite", SQLite: conf.SQLiteSettings{Path: ":memory:"}},
	}
}

func ptr[T any](v T) *T { return &v }

func TestCatalogConfig(t *testing.T) {
	t.Parallel()

	cfg := CatalogConfig(&conf.CatalogSettings{BaseURL: testBaseURL, PageSize: 25, RateLimit: 5, SaleStatus: "offplan"})
	assert.Equal(t, testBaseURL, cfg.BaseURL)
	assert.Equal(t, 25, cfg.PageSize)
	assert.InDelta(t, 5, cfg.RateLimit, 0)
	assert.Equal(t, "offplan", cfg.SaleStatus)
	assert.Equal(t, catalog.DefaultConfig().RetryBackoff, cfg.RetryBackoff)
}

// TestEndToEndSubmit runs a duplicate check against a mocked catalog and
// submits a listing through the sqlite-backed lifecycle service.
func TestEndToEndSubmit(t *testing.T) {
	settings := testSettings()
	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
	m, err := observability.NewMetrics()
	require.NoError(t, err)

	cat, err := NewCatalog(settings, log, m)
	require.NoError(t, err)

	// the client uses http.DefaultTransport, so this test must not run in parallel
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/projects",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"items": []map[string]any{
				{"id": "p-1", "name": "Marina Gate", "geo": map[string]any{"lat": 25.08, "lng": 55.14}},
			},
			"hasMore": false,
		}))
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/projects/p-1",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"id":            "p-1",
			"name":          "Marina Gate",
			"developerName": "Select Group",
			"location":      map[string]any{"district": "Dubai Marina", "region": "Dubai"},
			"priceMin":      1_400_000,
			"geo":           map[string]any{"lat": 25.08, "lng": 55.14},
		}))

	result, err := cat.Matcher.Check(t.Context(), matching.Query{
		Title:     "Marina Gate",
		Community: "Dubai Marina",
		City:      "Dubai",
		Latitude:  ptr(25.081),
		Longitude: ptr(55.14),
		Price:     ptr(1_450_000.0),
	})
	require.NoError(t, err)
	require.NotNil(t, result.Match)
	assert.Equal(t, "p-1", result.Match.ProjectID)
	assert.Equal(t, "https://catalog.test/projects/p-1", result.Match.URL)
	assert.Equal(t, 85, result.Score)

	db, err := OpenStore(&settings.Database, log)
	require.NoError(t, err)

	svc := NewListingService(db, cat.Matcher, log, m)
	agent := auth.Principal{ID: "agent-1", Role: auth.RoleAgent}

	l, err := svc.Create(t.Context(), agent, listing.Draft{
		Title:              "Marina Gate Residence",
		PropertyType:       "apartment",
		Intent:             listing.IntentSale,
		Price:              1_450_000,
		ConstructionStatus: "ready",
		ShortDescription:   "Two bedroom apartment on a high floor with views over the marina.",
		City:               "Dubai",
		Community:          "Dubai Marina",
		Latitude:           ptr(25.081),
		Longitude:          ptr(55.14),
		AuthorizedToMarket: true,
	})
	require.NoError(t, err)
	_, err = svc.AddMedia(t.Context(), agent, l.ID, listing.MediaCover, "https://cdn.test/cover.jpg")
	require.NoError(t, err)

	_, err = svc.Submit(t.Context(), agent, l.ID, false)
	require.Error(t, err, "a strong duplicate needs confirmation")

	submitted, err := svc.Submit(t.Context(), agent, l.ID, true)
	require.NoError(t, err)
	assert.Equal(t, listing.StatusPendingReview, submitted.Status)

	overrides, err := svc.Overrides(t.Context(), agent, l.ID)
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Equal(t, "p-1", overrides[0].ProjectID)
}

func TestWarmMarkers(t *testing.T) {
	settings := testSettings()
	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)

	cat, err := NewCatalog(settings, log, nil)
	require.NoError(t, err)

	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/projects",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"items": []map[string]any{
				{"id": "p-1", "name": "Marina Gate"},
				{"id": "p-2", "name": "Creek Vista"},
			},
			"hasMore": false,
		}))

	cat.WarmMarkers(t.Context(), time.Second, log)

	testutil.Eventually(t, testutil.DefaultTimeout, func() bool {
		return cat.Markers.Stats().Loads == 1
	}, "marker index built")
	assert.Zero(t, cat.Markers.Stats().LoadErrors)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}
