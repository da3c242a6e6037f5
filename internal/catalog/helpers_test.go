package catalog

import (
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://catalog.test/api"

// newTestClient returns a client whose transport is a private httpmock transport
func newTestClient(t *testing.T, mutate ...func(*Config)) (*Client, *httpmock.MockTransport) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.BaseURL = testBaseURL
	cfg.APIKey = "test-key"
	cfg.RateLimit = 0
	cfg.RetryBackoff = time.Millisecond
	cfg.Timeout = 2 * time.Second
	for _, m := range mutate {
		m(&cfg)
	}

	client, err := NewClient(cfg, nil, nil)
	require.NoError(t, err)

	transport := httpmock.NewMockTransport()
	client.httpClient.Transport = transport
	return client, transport
}

// pageResponder serves totalItems projects in pages of the requested size
func pageResponder(totalItems int) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		page, _ := strconv.Atoi(req.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
		start := (page - 1) * limit
		end := min(start+limit, totalItems)

		items := make([]map[string]any, 0, max(end-start, 0))
		for i := start; i < end; i++ {
			items = append(items, map[string]any{
				"id":   fmt.Sprintf("p-%04d", i),
				"name": fmt.Sprintf("Project %d", i),
				"geo":  map[string]float64{"lat": 25 + float64(i)/1000, "lng": 55},
			})
		}
		return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
			"items":   items,
			"page":    page,
			"hasMore": end < totalItems,
		})
	}
}

func projectJSON(id, name string) map[string]any {
	return map[string]any{
		"id":            id,
		"name":          name,
		"developerName": "Emaar",
		"location":      map[string]string{"district": "Dubai Marina", "region": "Dubai", "sector": "Marina"},
		"priceMin":      1_500_000,
		"geo":           map[string]float64{"lat": 25.08, "lng": 55.14},
	}
}
