// Package listing implements the moderation lifecycle of manually entered listings.
//
// A listing is created as a DRAFT by an agent, edited while DRAFT or REJECTED,
// submitted for review through the submission validator and duplicate policy,
// then approved or rejected by a moderator. Approved listings are immutable:
// they can only be archived, or cloned into a new DRAFT for editing.
package listing

import (
	"math"
	"slices"
	"time"

	"github.com/estatehub/listingguard/internal/matching"
)

// Status is the lifecycle state of a listing.
type Status string

const (
	StatusDraft         Status = "DRAFT"
	StatusPendingReview Status = "PENDING_REVIEW"
	StatusApproved      Status = "APPROVED"
	StatusRejected      Status = "REJECTED"
	StatusArchived      Status = "ARCHIVED"
)

// Editable reports whether content, media and duplicate fields may change in s.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusRejected
}

// Intent is whether a property is offered for sale or for rent.
type Intent string

const (
	IntentSale Intent = "sale"
	IntentRent Intent = "rent"
)

// Valid reports whether i is a known intent.
func (i Intent) Valid() bool {
	return i == IntentSale || i == IntentRent
}

// MediaCategory classifies a media item.
type MediaCategory string

const (
	MediaCover      MediaCategory = "COVER"
	MediaExterior   MediaCategory = "EXTERIOR"
	MediaInterior   MediaCategory = "INTERIOR"
	MediaFloorPlans MediaCategory = "FLOOR_PLANS"
	MediaAmenities  MediaCategory = "AMENITIES"
	MediaBrochure   MediaCategory = "BROCHURE"
	MediaVideo      MediaCategory = "VIDEO"
)

var mediaCategories = []MediaCategory{
	MediaCover, MediaExterior, MediaInterior, MediaFloorPlans, MediaAmenities, MediaBrochure, MediaVideo,
}

// Valid reports whether c is a known category.
func (c MediaCategory) Valid() bool {
	return slices.Contains(mediaCategories, c)
}

// Media is an image, document or video attached to a listing.
type Media struct {
	ID        string        `json:"id"`
	ListingID string        `json:"listingId"`
	Category  MediaCategory `json:"category"`
	URL       string        `json:"url"`
	Position  int           `json:"position"`
}

// Listing is a property entered by an agent.
type Listing struct {
	ID                 string   `json:"id"`
	AgentID            string   `json:"agentId"`
	Status             Status   `json:"status"`
	Title              string   `json:"title"`
	PropertyType       string   `json:"propertyType"`
	Intent             Intent   `json:"intent"`
	Price              float64  `json:"price"`
	ConstructionStatus string   `json:"constructionStatus"`
	ShortDescription   string   `json:"shortDescription"`
	City               string   `json:"city"`
	Community          string   `json:"community"`
	Latitude           *float64 `json:"latitude,omitempty"`
	Longitude          *float64 `json:"longitude,omitempty"`
	DeveloperName      string   `json:"developerName,omitempty"`
	AuthorizedToMarket bool     `json:"authorizedToMarket"`
	Media              []Media  `json:"media"`

	// duplicate annotation, cached from the last check
	DuplicateScore              *int   `json:"duplicateScore,omitempty"`
	DuplicateMatchedProjectID   string `json:"duplicateMatchedProjectId,omitempty"`
	DuplicateMatchedProjectName string `json:"duplicateMatchedProjectName,omitempty"`
	DuplicateOverrideConfirmed  bool   `json:"duplicateOverrideConfirmed"`

	RejectionReason string     `json:"rejectionReason,omitempty"`
	SubmittedAt     *time.Time `json:"submittedAt,omitempty"`
	ReviewedAt      *time.Time `json:"reviewedAt,omitempty"`
	ReviewedBy      string     `json:"reviewedBy,omitempty"`
	ArchivedAt      *time.Time `json:"archivedAt,omitempty"`
	ArchivedBy      string     `json:"archivedBy,omitempty"`
	ClonedFromID    string     `json:"clonedFromId,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Copy returns a deep copy of l.
func (l *Listing) Copy() *Listing {
	c := *l
	c.Media = slices.Clone(l.Media)
	c.Latitude = clonePtr(l.Latitude)
	c.Longitude = clonePtr(l.Longitude)
	c.DuplicateScore = clonePtr(l.DuplicateScore)
	c.SubmittedAt = clonePtr(l.SubmittedAt)
	c.ReviewedAt = clonePtr(l.ReviewedAt)
	c.ArchivedAt = clonePtr(l.ArchivedAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// HasCoordinates reports whether both coordinates are set and finite.
func (l *Listing) HasCoordinates() bool {
	return finite(l.Latitude) && finite(l.Longitude)
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// Cover returns the cover media item, or nil.
func (l *Listing) Cover() *Media {
	for i := range l.Media {
		if l.Media[i].Category == MediaCover {
			return &l.Media[i]
		}
	}
	return nil
}

// MatchQuery converts the listing into a duplicate check query.
func (l *Listing) MatchQuery() matching.Query {
	q := matching.Query{
		Title:         l.Title,
		Community:     l.Community,
		City:          l.City,
		DeveloperName: l.DeveloperName,
		Latitude:      clonePtr(l.Latitude),
		Longitude:     clonePtr(l.Longitude),
	}
	if l.Price > 0 {
		q.Price = &l.Price
	}
	return q
}

// annotate stores a duplicate check result. A confirmed override survives only
// while the matched project stays the same.
func (l *Listing) annotate(r *matching.Result) {
	score := r.Score
	matchedID := r.MatchedProjectID()
	if matchedID != l.DuplicateMatchedProjectID {
		l.DuplicateOverrideConfirmed = false
	}
	l.DuplicateScore = &score
	l.DuplicateMatchedProjectID = matchedID
	l.DuplicateMatchedProjectName = ""
	if r.Match != nil {
		l.DuplicateMatchedProjectName = r.Match.Name
	}
}

// clearDuplicate drops the cached duplicate annotation and any override.
func (l *Listing) clearDuplicate() {
	l.DuplicateScore = nil
	l.DuplicateMatchedProjectID = ""
	l.DuplicateMatchedProjectName = ""
	l.DuplicateOverrideConfirmed = false
}

// DuplicateOverride records an agent confirming a strong duplicate warning.
type DuplicateOverride struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listingId"`
	AgentID   string    `json:"agentId"`
	ProjectID string    `json:"projectId"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}
