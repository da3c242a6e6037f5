package datastore

import "github.com/estatehub/listingguard/internal/listing"

func toEntity(l *listing.Listing) ListingEntity {
	e := ListingEntity{
		ID:                          l.ID,
		AgentID:                     l.AgentID,
		Status:                      string(l.Status),
		Title:                       l.Title,
		PropertyType:                l.PropertyType,
		Intent:                      string(l.Intent),
		Price:                       l.Price,
		ConstructionStatus:          l.ConstructionStatus,
		ShortDescription:            l.ShortDescription,
		City:                        l.City,
		Community:                   l.Community,
		Latitude:                    l.Latitude,
		Longitude:                   l.Longitude,
		DeveloperName:               l.DeveloperName,
		AuthorizedToMarket:          l.AuthorizedToMarket,
		DuplicateScore:              l.DuplicateScore,
		DuplicateMatchedProjectID:   l.DuplicateMatchedProjectID,
		DuplicateMatchedProjectName: l.DuplicateMatchedProjectName,
		DuplicateOverrideConfirmed:  l.DuplicateOverrideConfirmed,
		RejectionReason:             l.RejectionReason,
		SubmittedAt:                 l.SubmittedAt,
		ReviewedAt:                  l.ReviewedAt,
		ReviewedBy:                  l.ReviewedBy,
		ArchivedAt:                  l.ArchivedAt,
		ArchivedBy:                  l.ArchivedBy,
		ClonedFromID:                l.ClonedFromID,
		Version:                     l.Version,
		CreatedAt:                   l.CreatedAt,
		UpdatedAt:                   l.UpdatedAt,
	}
	for _, m := range l.Media {
		e.Media = append(e.Media, MediaEntity{
			ID:        m.ID,
			ListingID: l.ID,
			Category:  string(m.Category),
			URL:       m.URL,
			Position:  m.Position,
		})
	}
	return e
}

func fromEntity(e *ListingEntity) *listing.Listing {
	l := &listing.Listing{
		ID:                          e.ID,
		AgentID:                     e.AgentID,
		Status:                      listing.Status(e.Status),
		Title:                       e.Title,
		PropertyType:                e.PropertyType,
		Intent:                      listing.Intent(e.Intent),
		Price:                       e.Price,
		ConstructionStatus:          e.ConstructionStatus,
		ShortDescription:            e.ShortDescription,
		City:                        e.City,
		Community:                   e.Community,
		Latitude:                    e.Latitude,
		Longitude:                   e.Longitude,
		DeveloperName:               e.DeveloperName,
		AuthorizedToMarket:          e.AuthorizedToMarket,
		DuplicateScore:              e.DuplicateScore,
		DuplicateMatchedProjectID:   e.DuplicateMatchedProjectID,
		DuplicateMatchedProjectName: e.DuplicateMatchedProjectName,
		DuplicateOverrideConfirmed:  e.DuplicateOverrideConfirmed,
		RejectionReason:             e.RejectionReason,
		SubmittedAt:                 e.SubmittedAt,
		ReviewedAt:                  e.ReviewedAt,
		ReviewedBy:                  e.ReviewedBy,
		ArchivedAt:                  e.ArchivedAt,
		ArchivedBy:                  e.ArchivedBy,
		ClonedFromID:                e.ClonedFromID,
		Version:                     e.Version,
		CreatedAt:                   e.CreatedAt,
		UpdatedAt:                   e.UpdatedAt,
		Media:                       make([]listing.Media, 0, len(e.Media)),
	}
	for _, m := range e.Media {
		l.Media = append(l.Media, listing.Media{
			ID:        m.ID,
			ListingID: m.ListingID,
			Category:  listing.MediaCategory(m.Category),
			URL:       m.URL,
			Position:  m.Position,
		})
	}
	return l
}

func overrideToEntity(o *listing.DuplicateOverride) DuplicateOverrideEntity {
	return DuplicateOverrideEntity{
		ID:        o.ID,
		ListingID: o.ListingID,
		AgentID:   o.AgentID,
		ProjectID: o.ProjectID,
		Score:     o.Score,
		CreatedAt: o.CreatedAt,
	}
}
