// Package matching finds the verified catalog project a manual listing most
// likely duplicates.
//
// A check narrows the marker index to a bounded candidate set, fetches project
// detail only for promising candidates through a bounded worker pool, and keeps
// the single best composite score. Failed detail lookups degrade that candidate
// to a name and geo score instead of failing the check.
package matching

import (
	"math"
	"strings"

	"github.com/estatehub/listingguard/internal/similarity"
)

// Query is what is known about a listing. Every field is optional.
type Query struct {
	Title         string   `json:"title,omitempty" yaml:"title,omitempty"`
	Community     string   `json:"community,omitempty" yaml:"community,omitempty"`
	City          string   `json:"city,omitempty" yaml:"city,omitempty"`
	DeveloperName string   `json:"developerName,omitempty" yaml:"developerName,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	Price         *float64 `json:"price,omitempty" yaml:"price,omitempty"`
}

// HasGeo reports whether both coordinates are present and finite.
func (q *Query) HasGeo() bool {
	return finite(q.Latitude) && finite(q.Longitude)
}

// HasTitle reports whether the title carries any searchable text.
func (q *Query) HasTitle() bool {
	return strings.TrimSpace(q.Title) != ""
}

func (q *Query) price() float64 {
	if !finite(q.Price) {
		return 0
	}
	return *q.Price
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// Match describes the best matching catalog project.
type Match struct {
	ProjectID      string   `json:"projectId" yaml:"projectId"`
	Score          int      `json:"score" yaml:"score"`
	Name           string   `json:"name" yaml:"name"`
	DeveloperName  string   `json:"developer,omitempty" yaml:"developer,omitempty"`
	DistanceMeters *float64 `json:"distanceMeters,omitempty" yaml:"distanceMeters,omitempty"`
	URL            string   `json:"url,omitempty" yaml:"url,omitempty"`
}

// Result is the outcome of a duplicate check. Match is nil when no candidate
// was promising enough to score.
type Result struct {
	Score    int              `json:"score" yaml:"score"`
	Level    similarity.Level `json:"level" yaml:"level"`
	Match    *Match           `json:"match" yaml:"match"`
	Degraded bool             `json:"degraded" yaml:"degraded"`
}

// NoMatch is the result of a check that found nothing worth scoring.
func NoMatch() *Result {
	return &Result{Level: similarity.LevelNone}
}

// MatchedProjectID returns the id of the matched project or "".
func (r *Result) MatchedProjectID() string {
	if r == nil || r.Match == nil {
		return ""
	}
	return r.Match.ProjectID
}
