package listing

import (
	"context"

	"github.com/estatehub/listingguard/internal/errors"
)

// Effects are records written in the same transaction as a listing update.
type Effects struct {
	Override *DuplicateOverride
}

// Mutation changes a copy of the stored listing. Returning an error aborts the
// update and nothing is written.
type Mutation func(l *Listing) (*Effects, error)

// Repository stores listings. Update is an atomic read-modify-write guarded by
// the listing version: if the stored version changed while the mutation ran the
// update fails with ErrConcurrentModification and nothing is written.
type Repository interface {
	Create(ctx context.Context, l *Listing) error
	Get(ctx context.Context, id string) (*Listing, error)
	Update(ctx context.Context, id string, fn Mutation) (*Listing, error)
	ListByStatus(ctx context.Context, status Status, limit int) ([]*Listing, error)
	Overrides(ctx context.Context, listingID string) ([]DuplicateOverride, error)
}

const componentName = "listing"

// ErrConcurrentModification is returned when an update lost a race with another writer.
var ErrConcurrentModification = errors.NewStd("listing was modified concurrently")

// ConcurrentModification wraps ErrConcurrentModification as a conflict error.
func ConcurrentModification(id string) error {
	return errors.New(ErrConcurrentModification).
		Category(errors.CategoryConflict).
		Component(componentName).
		Context("listing_id", id).
		Build()
}

// NotFound is the error for a missing listing, or one the caller may not see.
func NotFound(id string) error {
	return errors.Newf("listing %s not found", id).
		Category(errors.CategoryNotFound).
		Component(componentName).
		Context("listing_id", id).
		Build()
}
