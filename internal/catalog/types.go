// Package catalog reads verified developer projects from the external catalog service.
//
// The Client speaks the catalog's REST API with rate limiting, timeouts and retries.
// The Gateway adds pagination and a per-project detail cache, and MarkerIndex keeps a
// cached lightweight projection of the first N projects for candidate selection.
package catalog

import (
	"math"
	"time"
)

// Geo is a WGS84 coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both coordinates are finite and within range.
func (g *Geo) Valid() bool {
	if g == nil {
		return false
	}
	for _, v := range []float64{g.Lat, g.Lng} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return g.Lat >= -90 && g.Lat <= 90 && g.Lng >= -180 && g.Lng <= 180
}

// Location describes where a project sits administratively.
type Location struct {
	District string `json:"district"`
	Region   string `json:"region"`
	Sector   string `json:"sector"`
}

// Project is a verified developer project. Read-only from this service's perspective.
type Project struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	DeveloperName string   `json:"developerName"`
	Location      Location `json:"location"`
	PriceMin      float64  `json:"priceMin"`
	Geo           *Geo     `json:"geo,omitempty"`
}

// Marker is the lightweight projection of a Project used for candidate selection.
// HasGeo is false for projects published without coordinates.
type Marker struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	HasGeo bool    `json:"hasGeo"`
}

// projectSummary is one item of a list page
type projectSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Geo  *Geo   `json:"geo,omitempty"`
}

// ProjectPage is one page of the project listing endpoint.
type ProjectPage struct {
	Items   []projectSummary `json:"items"`
	Page    int              `json:"page"`
	HasMore bool             `json:"hasMore"`
}

// Markers converts the page items, skipping items without an id.
func (p *ProjectPage) Markers() []Marker {
	out := make([]Marker, 0, len(p.Items))
	for _, item := range p.Items {
		if item.ID == "" {
			continue
		}
		m := Marker{ID: item.ID, Name: item.Name}
		if item.Geo.Valid() {
			m.Lat, m.Lng, m.HasGeo = item.Geo.Lat, item.Geo.Lng, true
		}
		out = append(out, m)
	}
	return out
}

// APIError is the catalog's error response body.
type APIError struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func (e *APIError) Error() string {
	return e.Detail
}

// Config holds configuration for the catalog client and gateway.
type Config struct {
	BaseURL      string        // API root, without trailing slash
	APIKey       string        // sent as X-Api-Key when set
	SaleStatus   string        // optional saleStatus filter for listing
	Timeout      time.Duration // per attempt
	RateLimit    float64       // requests per second, 0 disables limiting
	Burst        int           // limiter burst
	MaxRetries   int           // attempts for retryable failures
	RetryBackoff time.Duration // linear backoff step between attempts
	PageSize     int           // items per list page
	MaxPages     int           // page cap per marker rebuild
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:      10 * time.Second,
		RateLimit:    20,
		Burst:        10,
		MaxRetries:   3,
		RetryBackoff: 500 * time.Millisecond,
		PageSize:     50,
		MaxPages:     200,
	}
}
