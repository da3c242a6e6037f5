package matching

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/estatehub/listingguard/internal/catalog"
	"github.com/estatehub/listingguard/internal/errors"
	"github.com/estatehub/listingguard/internal/similarity"
)

type staticMarkers struct {
	markers []catalog.Marker
	err     error
}

func (s staticMarkers) Markers(context.Context) ([]catalog.Marker, error) {
	return s.markers, s.err
}

type mockDetails struct {
	mock.Mock
}

func (m *mockDetails) GetProjectDetail(ctx context.Context, id string) (*catalog.Project, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*catalog.Project)
	return p, args.Error(1)
}

var marinaHeights = &catalog.Project{
	ID:            "p-1",
	Name:          "Marina Heights Tower",
	DeveloperName: "Emaar",
	Location:      catalog.Location{District: "Dubai Marina", Region: "Dubai", Sector: "Marina"},
	PriceMin:      1_500_000,
	Geo:           &catalog.Geo{Lat: 25.081, Lng: 55.14},
}

func marinaMarkers() []catalog.Marker {
	return []catalog.Marker{
		{ID: "p-1", Name: "Marina Heights Tower", Lat: 25.081, Lng: 55.14, HasGeo: true},
		{ID: "p-2", Name: "Desert Palms Villas", Lat: 24.50, Lng: 54.40, HasGeo: true},
	}
}

func TestCheck_StrongMatch(t *testing.T) {
	t.Parallel()

	details := &mockDetails{}
	details.On("GetProjectDetail", mock.Anything, "p-1").Return(marinaHeights, nil).Once()

	svc := NewService(staticMarkers{markers: marinaMarkers()}, details, Options{
		ProjectURL: func(id string) string { return "https://catalog.example/projects/" + id },
	})

	res, err := svc.Check(t.Context(), Query{
		Title:         "Marina Heights Tower",
		Community:     "Dubai Marina",
		DeveloperName: "Emaar",
		Latitude:      ptr(25.08),
		Longitude:     ptr(55.14),
		Price:         ptr(1_450_000),
	})
	require.NoError(t, err)

	assert.Equal(t, 100, res.Score)
	assert.Equal(t, similarity.LevelStrong, res.Level)
	assert.False(t, res.Degraded)
	require.NotNil(t, res.Match)
	assert.Equal(t, "p-1", res.Match.ProjectID)
	assert.Equal(t, "Emaar", res.Match.DeveloperName)
	assert.Equal(t, "https://catalog.example/projects/p-1", res.Match.URL)
	require.NotNil(t, res.Match.DistanceMeters)
	assert.InDelta(t, 111, *res.Match.DistanceMeters, 2)
	details.AssertExpectations(t)
}

func TestCheck_DistanceOmittedWithoutQueryGeo(t *testing.T) {
	t.Parallel()

	details := &mockDetails{}
	details.On("GetProjectDetail", mock.Anything, "p-1").Return(marinaHeights, nil)

	svc := NewService(staticMarkers{markers: marinaMarkers()}, details, Options{})
	res, err := svc.Check(t.Context(), Query{Title: "Marina Heights Tower"})
	require.NoError(t, err)

	require.NotNil(t, res.Match)
	assert.Nil(t, res.Match.DistanceMeters)
	assert.Empty(t, res.Match.URL)
	// name 100, area 0, developer 0, geo 0, price 0
	assert.Equal(t, 40, res.Score)
	assert.Equal(t, similarity.LevelNone, res.Level)
}

func TestCheck_DegradesWhenDetailFails(t *testing.T) {
	t.Parallel()

	details := &mockDetails{}
	details.On("GetProjectDetail", mock.Anything, "p-1").
		Return(nil, errors.NewStd("catalog timeout"))

	svc := NewService(staticMarkers{markers: marinaMarkers()}, details, Options{})
	res, err := svc.Check(t.Context(), Query{
		Title:     "Marina Heights",
		Latitude:  ptr(25.08),
		Longitude: ptr(55.14),
	})
	require.NoError(t, err)

	// round(0.6*80 + 0.4*100)
	assert.Equal(t, 88, res.Score)
	assert.Equal(t, similarity.LevelStrong, res.Level)
	assert.True(t, res.Degraded)
	require.NotNil(t, res.Match)
	assert.Equal(t, "Marina Heights Tower", res.Match.Name)
	assert.Empty(t, res.Match.DeveloperName)
}

func TestCheck_SkipsUnpromisingCandidates(t *testing.T) {
	t.Parallel()

	details := &mockDetails{}
	svc := NewService(staticMarkers{markers: marinaMarkers()}, details, Options{})

	res, err := svc.Check(t.Context(), Query{
		Title:     "Sunset Lofts",
		Latitude:  ptr(26.5),
		Longitude: ptr(56.0),
	})
	require.NoError(t, err)

	assert.Equal(t, NoMatch(), res)
	details.AssertNotCalled(t, "GetProjectDetail", mock.Anything, mock.Anything)
}

func TestCheck_EmptyQuery(t *testing.T) {
	t.Parallel()

	details := &mockDetails{}
	svc := NewService(staticMarkers{markers: marinaMarkers()}, details, Options{})

	res, err := svc.Check(t.Context(), Query{})
	require.NoError(t, err)
	assert.Equal(t, similarity.LevelNone, res.Level)
	assert.Nil(t, res.Match)
	assert.Empty(t, res.MatchedProjectID())
}

func TestCheck_TieKeepsEarlierCandidate(t *testing.T) {
	t.Parallel()

	markers := []catalog.Marker{
		{ID: "b", Name: "Harbour View"},
		{ID: "a", Name: "Harbour View"},
	}
	details := &mockDetails{}
	details.On("GetProjectDetail", mock.Anything, mock.Anything).Return(nil, errors.NewStd("down"))

	svc := NewService(staticMarkers{markers: markers}, details, Options{})
	res, err := svc.Check(t.Context(), Query{Title: "Harbour View"})
	require.NoError(t, err)

	require.NotNil(t, res.Match)
	assert.Equal(t, "a", res.Match.ProjectID)
	assert.Equal(t, 60, res.Score)
}

func TestCheck_MarkerFailure(t *testing.T) {
	t.Parallel()

	svc := NewService(staticMarkers{err: errors.NewStd("catalog down")}, &mockDetails{}, Options{})

	_, err := svc.Check(t.Context(), Query{Title: "Anything"})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryUpstreamUnavailable))
}

type countingDetails struct {
	mu     sync.Mutex
	calls  map[string]int
	active int
	peak   int
}

func (c *countingDetails) GetProjectDetail(_ context.Context, id string) (*catalog.Project, error) {
	c.mu.Lock()
	c.calls[id]++
	c.active++
	c.peak = max(c.peak, c.active)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.active--
		c.mu.Unlock()
	}()
	return &catalog.Project{ID: id, Name: "Creek Residences"}, nil
}

func TestCheck_BoundsCandidatesAndWorkers(t *testing.T) {
	t.Parallel()

	markers := make([]catalog.Marker, 200)
	for i := range markers {
		markers[i] = catalog.Marker{ID: fmt.Sprintf("m-%03d", i), Name: "Creek Residences"}
	}
	details := &countingDetails{calls: make(map[string]int)}

	svc := NewService(staticMarkers{markers: markers}, details, Options{Workers: 3})
	res, err := svc.Check(t.Context(), Query{Title: "Creek Residences"})
	require.NoError(t, err)

	assert.Len(t, details.calls, DefaultCandidateLimit)
	assert.LessOrEqual(t, details.peak, 3)
	require.NotNil(t, res.Match)
	assert.Equal(t, "m-000", res.Match.ProjectID)
}
