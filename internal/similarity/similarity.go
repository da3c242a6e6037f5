// Package similarity scores how alike a manual listing and a verified catalog project are.
//
// Every function is pure. Sub-scores are integers in 0..100 and the composite uses
// fixed weights so moderation decisions are reproducible.
package similarity

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Composite weights. They sum to 1.0.
const (
	WeightName      = 0.40
	WeightArea      = 0.25
	WeightDeveloper = 0.15
	WeightGeo       = 0.15
	WeightPrice     = 0.05
)

// Degraded weights, used when project detail is unavailable.
const (
	DegradedWeightName = 0.6
	DegradedWeightGeo  = 0.4
)

// Level thresholds.
const (
	StrongThreshold = 75
	SoftThreshold   = 50
)

// EarthRadiusMeters is the mean Earth radius used by the haversine distance.
const EarthRadiusMeters = 6_371_000.0

// Level buckets a duplicate score.
type Level string

const (
	LevelNone   Level = "none"
	LevelSoft   Level = "soft"
	LevelStrong Level = "strong"
)

// LevelFor returns strong for scores >= 75, soft for >= 50, none otherwise.
func LevelFor(score int) Level {
	switch {
	case score >= StrongThreshold:
		return LevelStrong
	case score >= SoftThreshold:
		return LevelSoft
	default:
		return LevelNone
	}
}

var foldCaser = cases.Fold()

// NormalizeName case-folds s, strips diacritics, drops every rune that is
// neither alphanumeric nor whitespace, collapses whitespace runs to a single
// space and trims the result. Punctuation never splits a word.
//
//	NormalizeName("  Résidence  O'Neil-Tower ") == "residence oneiltower"
func NormalizeName(s string) string {
	if s == "" {
		return ""
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	folded := foldCaser.String(stripped)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			pendingSpace = true
		}
	}
	return b.String()
}

func tokenSet(normalized string) map[string]struct{} {
	fields := strings.Fields(normalized)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// NameSimilarity is a Dice coefficient over the whitespace token sets of the
// normalized names, scaled to 0..100. Equal non-empty names score 100.
func NameSimilarity(a, b string) int {
	na, nb := NormalizeName(a), NormalizeName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}

	setA, setB := tokenSet(na), tokenSet(nb)
	common := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			common++
		}
	}
	return int(math.Round(200 * float64(common) / float64(len(setA)+len(setB))))
}

// AreaSimilarity compares the listing's community with the project's district and
// sector and keeps the better score. Without a community the city is compared
// with the project's region.
func AreaSimilarity(community, city, district, sector, region string) int {
	if strings.TrimSpace(community) == "" {
		return NameSimilarity(city, region)
	}
	return max(NameSimilarity(community, district), NameSimilarity(community, sector))
}

// GeoDistanceMeters returns the haversine great-circle distance in meters.
func GeoDistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// GeoScore maps a distance to a step score: 100 up to 300 m, 70 up to 1 km,
// 40 up to 3 km, 0 beyond. Non-finite or non-positive distances score 0.
func GeoScore(distanceMeters float64) int {
	if math.IsNaN(distanceMeters) || math.IsInf(distanceMeters, 0) || distanceMeters <= 0 {
		return 0
	}
	switch {
	case distanceMeters <= 300:
		return 100
	case distanceMeters <= 1000:
		return 70
	case distanceMeters <= 3000:
		return 40
	default:
		return 0
	}
}

// PriceScore compares two prices by min/max ratio: 100 from 0.9, 70 from 0.8,
// 40 from 0.7, else 0. A missing, non-positive or non-finite price scores 0.
func PriceScore(a, b float64) int {
	if !validPrice(a) || !validPrice(b) {
		return 0
	}
	ratio := math.Min(a, b) / math.Max(a, b)
	switch {
	case ratio >= 0.9:
		return 100
	case ratio >= 0.8:
		return 70
	case ratio >= 0.7:
		return 40
	default:
		return 0
	}
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}

// CompositeScore combines the five sub-scores with the fixed weights.
func CompositeScore(name, area, developer, geo, price int) int {
	return int(math.Round(
		WeightName*float64(name) +
			WeightArea*float64(area) +
			WeightDeveloper*float64(developer) +
			WeightGeo*float64(geo) +
			WeightPrice*float64(price)))
}

// DegradedScore scores a candidate from name and geo alone.
func DegradedScore(name, geo int) int {
	return int(math.Round(DegradedWeightName*float64(name) + DegradedWeightGeo*float64(geo)))
}
