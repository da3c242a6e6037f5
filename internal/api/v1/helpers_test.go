package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/estatehub/listingguard/internal/audit"
	"github.com/estatehub/listingguard/internal/auth"
	"github.com/estatehub/listingguard/internal/listing"
	"github.com/estatehub/listingguard/internal/logger"
	"github.com/estatehub/listingguard/internal/matching"
	"github.com/estatehub/listingguard/internal/similarity"
)

const testSecret = "test-secret-with-enough-entropy"

var (
	anonymous = auth.Principal{}
	agentA    = auth.Principal{ID: "agent-1", Role: auth.RoleAgent}
	agentB    = auth.Principal{ID: "agent-2", Role: auth.RoleAgent}
	moderator = auth.Principal{ID: "mod-1", Role: auth.RoleModerator}
)

type stubChecker struct {
	mu     sync.Mutex
	result *matching.Result
	err    error
}

func (c *stubChecker) Check(context.Context, matching.Query) (*matching.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if c.result == nil {
		return matching.NoMatch(), nil
	}
	r := *c.result
	return &r, nil
}

func (c *stubChecker) set(r *matching.Result, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result, c.err = r, err
}

func strongMatch(score int, projectID, name string) *matching.Result {
	return &matching.Result{
		Score: score,
		Level: similarity.LevelFor(score),
		Match: &matching.Match{ProjectID: projectID, Score: score, Name: name},
	}
}

type testAPI struct {
	echo     *echo.Echo
	resolver *auth.Resolver
	checker  *stubChecker
	sink     *audit.MemorySink
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	resolver, err := auth.NewResolver(testSecret, "")
	require.NoError(t, err)

	var seq atomic.Int64
	checker := &stubChecker{}
	sink := audit.NewMemorySink()
	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
	svc := listing.NewService(listing.NewMemoryRepository(), listing.ServiceOptions{
		Checker: checker,
		Audit:   sink,
		Logger:  log,
		NewID:   func() string { return fmt.Sprintf("id-%03d", seq.Add(1)) },
	})

	e := echo.New()
	New(svc, checker, resolver, log).RegisterRoutes(e)

	return &testAPI{echo: e, resolver: resolver, checker: checker, sink: sink}
}

// do performs a request as p. A zero principal sends no token.
func (a *testAPI) do(t *testing.T, p auth.Principal, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if p.ID != "" {
		token, err := a.resolver.Issue(p, time.Minute)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func property(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	p, ok := body["property"].(map[string]any)
	require.True(t, ok, "response has no property: %v", body)
	return p
}

func completeDraft() map[string]any {
	return map[string]any{
		"title":              "Sea View Apartment in the Marina",
		"propertyType":       "apartment",
		"intent":             "sale",
		"price":              1450000,
		"constructionStatus": "ready",
		"shortDescription":   "Bright two bedroom apartment with full sea views and a large balcony.",
		"city":               "Dubai",
		"community":          "Dubai Marina",
		"latitude":           25.08,
		"longitude":          55.14,
		"authorizedToMarket": true,
	}
}

// createReady creates a complete draft with a cover image and returns its id.
func (a *testAPI) createReady(t *testing.T) string {
	t.Helper()
	code, body := a.do(t, agentA, http.MethodPost, "/api/v1/listings", completeDraft())
	require.Equal(t, http.StatusCreated, code, body)
	id := property(t, body)["id"].(string)

	code, body = a.do(t, agentA, http.MethodPost, "/api/v1/listings/"+id+"/media",
		MediaRequest{Category: listing.MediaCover, URL: "https://cdn.example/cover.jpg"})
	require.Equal(t, http.StatusCreated, code, body)
	return id
}
