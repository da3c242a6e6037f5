package datastore

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/estatehub/listingguard/internal/errors"
	"github.com/estatehub/listingguard/internal/listing"
)

// ListingRepository implements listing.Repository on GORM.
type ListingRepository struct {
	db *gorm.DB
}

var _ listing.Repository = (*ListingRepository)(nil)

// NewListingRepository creates a repository over a migrated database.
func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// Create inserts l and its media with version 1.
func (r *ListingRepository) Create(ctx context.Context, l *listing.Listing) error {
	e := toEntity(l)
	e.Version = 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&e).Error; err != nil {
			return err
		}
		if len(e.Media) > 0 {
			return tx.Create(&e.Media).Error
		}
		return nil
	})
	if err != nil {
		return dbError(err, "create_listing").Context("listing_id", l.ID).Build()
	}
	l.Version = 1
	return nil
}

// Get loads a listing with its media.
func (r *ListingRepository) Get(ctx context.Context, id string) (*listing.Listing, error) {
	e, err := r.load(r.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return fromEntity(e), nil
}

func (r *ListingRepository) load(db *gorm.DB, id string) (*ListingEntity, error) {
	var e ListingEntity
	err := db.Preload("Media", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&e, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, listing.NotFound(id)
		}
		return nil, dbError(err, "get_listing").Context("listing_id", id).Build()
	}
	return &e, nil
}

// Update reads the listing, applies fn, and writes the result only if the
// stored version is still the one that was read. Media rows are replaced and
// the override log entry, if any, is inserted in the same transaction.
func (r *ListingRepository) Update(ctx context.Context, id string, fn listing.Mutation) (*listing.Listing, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	readVersion := current.Version

	effects, err := fn(current)
	if err != nil {
		return nil, err
	}

	current.Version = readVersion + 1
	e := toEntity(current)

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&ListingEntity{}).
			Where("id = ? AND version = ?", id, readVersion).
			Select("*").
			Omit("ID", "CreatedAt", clause.Associations).
			Updates(&e)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return listing.ConcurrentModification(id)
		}

		if err := tx.Where("listing_id = ?", id).Delete(&MediaEntity{}).Error; err != nil {
			return err
		}
		if len(e.Media) > 0 {
			if err := tx.Create(&e.Media).Error; err != nil {
				return err
			}
		}

		if effects != nil && effects.Override != nil {
			o := overrideToEntity(effects.Override)
			if err := tx.Create(&o).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.IsConflict(err) {
			return nil, err
		}
		return nil, dbError(err, "update_listing").Context("listing_id", id).Build()
	}
	return current, nil
}

// ListByStatus returns listings in status, oldest submission first.
func (r *ListingRepository) ListByStatus(ctx context.Context, status listing.Status, limit int) ([]*listing.Listing, error) {
	q := r.db.WithContext(ctx).
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("status = ?", string(status)).
		// NULL submissions last on both dialects
		Order("CASE WHEN submitted_at IS NULL THEN 1 ELSE 0 END").
		Order("submitted_at ASC").
		Order("created_at ASC").
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []ListingEntity
	if err := q.Find(&rows).Error; err != nil {
		return nil, dbError(err, "list_listings").Context("status", string(status)).Build()
	}

	out := make([]*listing.Listing, len(rows))
	for i := range rows {
		out[i] = fromEntity(&rows[i])
	}
	return out, nil
}

// Overrides returns the override log of a listing, oldest first.
func (r *ListingRepository) Overrides(ctx context.Context, listingID string) ([]listing.DuplicateOverride, error) {
	var rows []DuplicateOverrideEntity
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, dbError(err, "list_overrides").Context("listing_id", listingID).Build()
	}

	out := make([]listing.DuplicateOverride, len(rows))
	for i, o := range rows {
		out[i] = listing.DuplicateOverride{
			ID:        o.ID,
			ListingID: o.ListingID,
			AgentID:   o.AgentID,
			ProjectID: o.ProjectID,
			Score:     o.Score,
			CreatedAt: o.CreatedAt,
		}
	}
	return out, nil
}
