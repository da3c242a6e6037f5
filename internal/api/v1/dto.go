package v1

import (
	"github.com/estatehub/listingguard/internal/listing"
	"github.com/estatehub/listingguard/internal/matching"
)

// DuplicateCheckResponse carries an advisory duplicate check result.
type DuplicateCheckResponse struct {
	Success  bool             `json:"success"`
	Result   *matching.Result `json:"result"`
	Property *listing.Listing `json:"property,omitempty"`
}

// ListingResponse wraps a single listing.
type ListingResponse struct {
	Success  bool             `json:"success"`
	Property *listing.Listing `json:"property"`
}

// MediaRequest attaches a media item to a listing.
type MediaRequest struct {
	Category listing.MediaCategory `json:"category"`
	URL      string                `json:"url"`
}

// SubmitRequest is the optional body of a submission.
type SubmitRequest struct {
	DuplicateOverrideConfirmed bool `json:"duplicateOverrideConfirmed"`
}

// StatusSummary is the compact listing form returned by transitions.
type StatusSummary struct {
	ID     string         `json:"id"`
	Status listing.Status `json:"status"`
}

// TransitionResponse is returned by submit, approve, reject and archive.
type TransitionResponse struct {
	Success  bool          `json:"success"`
	Property StatusSummary `json:"property"`
}

// RejectRequest carries the moderator's reason.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// QueueResponse is the moderation queue.
type QueueResponse struct {
	Success bool               `json:"success"`
	Items   []*listing.Listing `json:"items"`
	Count   int                `json:"count"`
}

// OverridesResponse lists duplicate override confirmations of a listing.
type OverridesResponse struct {
	Success   bool                        `json:"success"`
	Overrides []listing.DuplicateOverride `json:"overrides"`
}

func transitioned(l *listing.Listing) TransitionResponse {
	return TransitionResponse{
		Success:  true,
		Property: StatusSummary{ID: l.ID, Status: l.Status},
	}
}
