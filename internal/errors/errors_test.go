package errors

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDefaults(t *testing.T) {
	t.Parallel()

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.False(t, ee.Timestamp.IsZero())
}

func TestBuildInheritsWrappedCategory(t *testing.T) {
	t.Parallel()

	inner := NotFoundf("listing", "listing %s not found", "abc")
	outer := Wrap(fmt.Errorf("load failed: %w", inner)).Component("api").Build()

	assert.Equal(t, CategoryNotFound, outer.Category)
	assert.True(t, IsNotFound(outer))
	assert.False(t, IsConflict(outer))
}

func TestDetectCategoryFromDeadline(t *testing.T) {
	t.Parallel()

	ee := Wrap(context.DeadlineExceeded).Build()
	assert.Equal(t, CategoryTimeout, ee.Category)
}

func TestCategoryHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"validation", Validationf("listing", "title is required"), IsValidation},
		{"not found", NotFoundf("listing", "missing"), IsNotFound},
		{"conflict", Conflictf("listing", "wrong state"), IsConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(fmt.Errorf("wrapped: %w", tt.err)), "helpers must see through wrapping")
		})
	}
}

func TestEnhancedErrorIsMatchesCategory(t *testing.T) {
	t.Parallel()

	a := Conflictf("listing", "first")
	b := Conflictf("listing", "second")
	c := Validationf("listing", "third")

	assert.ErrorIs(t, a, b)
	assert.NotErrorIs(t, a, c)
}

func TestContextIsCopied(t *testing.T) {
	t.Parallel()

	ee := Newf("boom").Context("listing_id", "L1").Build()
	ctx := ee.GetContext()
	require.Contains(t, ctx, "listing_id")

	ctx["listing_id"] = "mutated"
	assert.Equal(t, "L1", ee.GetContext()["listing_id"])
}

type recordingReporter struct {
	reported []*EnhancedError
}

func (r *recordingReporter) ReportError(ee *EnhancedError) { r.reported = append(r.reported, ee) }
func (r *recordingReporter) IsEnabled() bool               { return true }

func TestTelemetryReporterReceivesErrors(t *testing.T) {
	reporter := &recordingReporter{}
	SetTelemetryReporter(reporter)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	_ = Newf("catalog down").Category(CategoryUpstreamUnavailable).Build()

	require.Len(t, reporter.reported, 1)
	assert.Equal(t, CategoryUpstreamUnavailable, reporter.reported[0].Category)
}

func TestIsReportable(t *testing.T) {
	t.Parallel()

	assert.False(t, isReportable(CategoryValidation))
	assert.False(t, isReportable(CategoryConflict))
	assert.True(t, isReportable(CategoryDatabase))
	assert.True(t, isReportable(CategoryUpstreamUnavailable))
}

func TestScrubMessageForPrivacy(t *testing.T) {
	t.Parallel()

	scrubbed := scrubMessageForPrivacy("GET https://catalog.example.com/projects?api_key=secret123 failed for agent@example.com")
	assert.Equal(t, "GET https://catalog.example.com/projects?[REDACTED] failed for [EMAIL_REDACTED]", scrubbed)

	scrubbed = scrubMessageForPrivacy("auth failed with token=abc123 agent_id=42")
	assert.False(t, strings.Contains(scrubbed, "abc123"))
	assert.False(t, strings.Contains(scrubbed, "42"))
}

func TestGenerateErrorTitle(t *testing.T) {
	t.Parallel()

	ee := Newf("timeout").
		Category(CategoryNetwork).
		Component("catalog").
		Context("operation", "list_markers").
		Build()

	assert.Equal(t, "Catalog Network Error List Markers", generateErrorTitle(ee))
}
