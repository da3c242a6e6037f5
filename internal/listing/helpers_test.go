package listing

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/estatehub/listingguard/internal/audit"
	"github.com/estatehub/listingguard/internal/auth"
	"github.com/estatehub/listingguard/internal/matching"
	"github.com/estatehub/listingguard/internal/similarity"
)

var (
	agent      = auth.Principal{ID: "agent-1", Role: auth.RoleAgent}
	otherAgent = auth.Principal{ID: "agent-2", Role: auth.RoleAgent}
	moderator  = auth.Principal{ID: "mod-1", Role: auth.RoleModerator}
)

type stubChecker struct {
	mu     sync.Mutex
	result *matching.Result
	err    error
	calls  atomic.Int32

	// onCheck, when set, runs once at the start of the next Check
	onCheck func()
}

func (c *stubChecker) Check(context.Context, matching.Query) (*matching.Result, error) {
	c.calls.Add(1)
	c.mu.Lock()
	hook := c.onCheck
	c.onCheck = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if c.result == nil {
		return matching.NoMatch(), nil
	}
	r := *c.result
	return &r, nil
}

func (c *stubChecker) set(r *matching.Result, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result, c.err = r, err
}

func (c *stubChecker) beforeNextCheck(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCheck = fn
}

func strongMatch(score int, projectID, name string) *matching.Result {
	return &matching.Result{
		Score: score,
		Level: similarity.LevelFor(score),
		Match: &matching.Match{ProjectID: projectID, Score: score, Name: name},
	}
}

type fixture struct {
	svc     *Service
	repo    *MemoryRepository
	sink    *audit.MemorySink
	checker *stubChecker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	var seq atomic.Int64
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var clockMu sync.Mutex

	f := &fixture{
		repo:    NewMemoryRepository(),
		sink:    audit.NewMemorySink(),
		checker: &stubChecker{},
	}
	f.svc = NewService(f.repo, ServiceOptions{
		Checker: f.checker,
		Audit:   f.sink,
		Now: func() time.Time {
			clockMu.Lock()
			defer clockMu.Unlock()
			clock = clock.Add(time.Second)
			return clock
		},
		NewID: func() string { return fmt.Sprintf("id-%03d", seq.Add(1)) },
	})
	return f
}

func ptr[T any](v T) *T { return &v }

func completeDraft() Draft {
	return Draft{
		Title:              "Sea View Apartment in the Marina",
		PropertyType:       "apartment",
		Intent:             IntentSale,
		Price:              1_450_000,
		ConstructionStatus: "ready",
		ShortDescription:   "Bright two bedroom apartment with full sea views and a large balcony.",
		City:               "Dubai",
		Community:          "Dubai Marina",
		Latitude:           ptr(25.08),
		Longitude:          ptr(55.14),
		AuthorizedToMarket: true,
	}
}

// newReadyDraft creates a complete draft with a cover image
func (f *fixture) newReadyDraft(t *testing.T) *Listing {
	t.Helper()
	l, err := f.svc.Create(t.Context(), agent, completeDraft())
	require.NoError(t, err)
	l, err = f.svc.AddMedia(t.Context(), agent, l.ID, MediaCover, "https://cdn.example/cover.jpg")
	require.NoError(t, err)
	return l
}

// newApproved drives a ready draft through submission and approval
func (f *fixture) newApproved(t *testing.T) *Listing {
	t.Helper()
	l := f.newReadyDraft(t)
	_, err := f.svc.Submit(t.Context(), agent, l.ID, false)
	require.NoError(t, err)
	l, err = f.svc.Approve(t.Context(), moderator, l.ID)
	require.NoError(t, err)
	return l
}
