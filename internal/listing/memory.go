package listing

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryRepository keeps listings in memory. It is used by tests and by the
// check command, and applies the same version check as the database store.
type MemoryRepository struct {
	mu        sync.RWMutex
	listings  map[string]*Listing
	overrides []DuplicateOverride

	// beforeCommit, when set, runs between the mutation and the version check
	beforeCommit func()
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		listings: make(map[string]*Listing),
	}
}

// Create stores a copy of l with version 1.
func (r *MemoryRepository) Create(_ context.Context, l *Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := l.Copy()
	c.Version = 1
	r.listings[c.ID] = c
	l.Version = 1
	return nil
}

// Get returns a copy of the listing.
func (r *MemoryRepository) Get(_ context.Context, id string) (*Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.listings[id]
	if !ok {
		return nil, NotFound(id)
	}
	return l.Copy(), nil
}

// Update applies fn to a copy of the listing and stores the result if no other
// update committed in between.
func (r *MemoryRepository) Update(ctx context.Context, id string, fn Mutation) (*Listing, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	readVersion := current.Version

	effects, err := fn(current)
	if err != nil {
		return nil, err
	}
	if r.beforeCommit != nil {
		r.beforeCommit()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.listings[id]
	if !ok {
		return nil, NotFound(id)
	}
	if stored.Version != readVersion {
		return nil, ConcurrentModification(id)
	}

	current.Version = readVersion + 1
	r.listings[id] = current.Copy()
	if effects != nil && effects.Override != nil {
		r.overrides = append(r.overrides, *effects.Override)
	}
	return current, nil
}

// ListByStatus returns listings in status, oldest submission first.
func (r *MemoryRepository) ListByStatus(_ context.Context, status Status, limit int) ([]*Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Listing
	for _, l := range r.listings {
		if l.Status == status {
			out = append(out, l.Copy())
		}
	}
	slices.SortFunc(out, func(a, b *Listing) int {
		return cmp.Or(
			compareTimes(a.SubmittedAt, b.SubmittedAt),
			a.CreatedAt.Compare(b.CreatedAt),
			cmp.Compare(a.ID, b.ID),
		)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// compareTimes orders nil after every set time
func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}

// Overrides returns the override log of a listing.
func (r *MemoryRepository) Overrides(_ context.Context, listingID string) ([]DuplicateOverride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []DuplicateOverride
	for _, o := range r.overrides {
		if o.ListingID == listingID {
			out = append(out, o)
		}
	}
	return out, nil
}
