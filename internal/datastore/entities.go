package datastore

import "time"

// ListingEntity is the listings table.
type ListingEntity struct {
	ID                          string `gorm:"primaryKey;size:36"`
	AgentID                     string `gorm:"index;size:64;not null"`
	Status                      string `gorm:"index:idx_listings_status_submitted,priority:1;size:20;not null"`
	Title                       string `gorm:"size:200"`
	PropertyType                string `gorm:"size:50"`
	Intent                      string `gorm:"size:10"`
	Price                       float64
	ConstructionStatus          string `gorm:"size:50"`
	ShortDescription            string `gorm:"type:text"`
	City                        string `gorm:"size:100"`
	Community                   string `gorm:"size:100"`
	Latitude                    *float64
	Longitude                   *float64
	DeveloperName               string `gorm:"size:200"`
	AuthorizedToMarket          bool   `gorm:"not null;default:false"`
	DuplicateScore              *int
	DuplicateMatchedProjectID   string     `gorm:"size:64"`
	DuplicateMatchedProjectName string     `gorm:"size:200"`
	DuplicateOverrideConfirmed  bool       `gorm:"not null;default:false"`
	RejectionReason             string     `gorm:"type:text"`
	SubmittedAt                 *time.Time `gorm:"index:idx_listings_status_submitted,priority:2"`
	ReviewedAt                  *time.Time
	ReviewedBy                  string `gorm:"size:64"`
	ArchivedAt                  *time.Time
	ArchivedBy                  string        `gorm:"size:64"`
	ClonedFromID                string        `gorm:"index;size:36"`
	Version                     int64         `gorm:"not null;default:1"`
	CreatedAt                   time.Time     `gorm:"autoCreateTime"`
	UpdatedAt                   time.Time     `gorm:"not null"`
	Media                       []MediaEntity `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (ListingEntity) TableName() string {
	return "listings"
}

// MediaEntity is one media item of a listing.
type MediaEntity struct {
	ID        string `gorm:"primaryKey;size:36"`
	ListingID string `gorm:"index;size:36;not null"`
	Category  string `gorm:"size:20;not null"`
	URL       string `gorm:"size:1024;not null"`
	Position  int    `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (MediaEntity) TableName() string {
	return "listing_media"
}

// DuplicateOverrideEntity is the override log.
type DuplicateOverrideEntity struct {
	ID        string    `gorm:"primaryKey;size:36"`
	ListingID string    `gorm:"index;size:36;not null"`
	AgentID   string    `gorm:"index;size:64;not null"`
	ProjectID string    `gorm:"index;size:64;not null"`
	Score     int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (DuplicateOverrideEntity) TableName() string {
	return "duplicate_overrides"
}

// allEntities lists the tables managed by AutoMigrate, parents first
func allEntities() []any {
	return []any{&ListingEntity{}, &MediaEntity{}, &DuplicateOverrideEntity{}}
}
