package matching

import (
	"cmp"
	"math"
	"slices"

	"github.com/estatehub/listingguard/internal/catalog"
	"github.com/estatehub/listingguard/internal/similarity"
)

// candidate is a marker selected for scoring together with its cheap pre-scores
type candidate struct {
	marker   catalog.Marker
	nameSim  int
	geoRaw   int
	distance *float64
}

// selectCandidates picks at most limit markers, in a deterministic order:
// nearest first when the query has coordinates, most similar name first when it
// only has a title, catalog order otherwise. Ties are broken by marker id.
// markers is never modified.
func selectCandidates(markers []catalog.Marker, q *Query, limit int) []candidate {
	all := make([]candidate, len(markers))
	for i, m := range markers {
		all[i] = preScore(m, q)
	}

	switch {
	case q.HasGeo():
		slices.SortStableFunc(all, func(a, b candidate) int {
			return cmp.Or(
				cmp.Compare(sortDistance(a), sortDistance(b)),
				cmp.Compare(a.marker.ID, b.marker.ID),
			)
		})
	case q.HasTitle():
		slices.SortStableFunc(all, func(a, b candidate) int {
			return cmp.Or(
				cmp.Compare(b.nameSim, a.nameSim),
				cmp.Compare(a.marker.ID, b.marker.ID),
			)
		})
	}

	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

func preScore(m catalog.Marker, q *Query) candidate {
	c := candidate{marker: m}
	if q.HasTitle() {
		c.nameSim = similarity.NameSimilarity(q.Title, m.Name)
	}
	if q.HasGeo() && m.HasGeo {
		d := similarity.GeoDistanceMeters(*q.Latitude, *q.Longitude, m.Lat, m.Lng)
		c.distance = &d
		c.geoRaw = similarity.GeoScore(d)
	}
	return c
}

// sortDistance puts markers without coordinates after every located marker
func sortDistance(c candidate) float64 {
	if c.distance == nil {
		return math.Inf(1)
	}
	return *c.distance
}

// needsDetail reports whether a candidate is promising enough to pay for a detail fetch
func (c *candidate) needsDetail(nameThreshold, geoThreshold int) bool {
	return c.nameSim >= nameThreshold || c.geoRaw >= geoThreshold
}
