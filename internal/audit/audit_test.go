package audit

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatehub/listingguard/internal/errors"
	"github.com/estatehub/listingguard/internal/logger"
)

func TestLogSink(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink := NewLogSink(logger.NewSlogLogger(&buf, logger.LogLevelInfo, time.UTC))

	err := sink.Record(t.Context(), Entry{
		EntityType:  "listing",
		EntityID:    "l-1",
		Action:      "submit",
		ActorID:     "agent-1",
		BeforeState: "DRAFT",
		AfterState:  "PENDING_REVIEW",
		Meta:        map[string]any{"override": true},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "audit")
	assert.Contains(t, out, "entity_id=l-1")
	assert.Contains(t, out, "after=PENDING_REVIEW")
	assert.Contains(t, out, "meta=")
}

func TestMemorySink(t *testing.T) {
	t.Parallel()

	sink := NewMemorySink()
	require.NoError(t, sink.Record(t.Context(), Entry{Action: "create"}))
	require.NoError(t, sink.Record(t.Context(), Entry{Action: "submit"}))

	assert.Equal(t, []string{"create", "submit"}, sink.Actions())
	assert.Len(t, sink.Entries(), 2)

	sink.FailWith(errors.NewStd("sink offline"))
	require.Error(t, sink.Record(t.Context(), Entry{Action: "approve"}))
	assert.Len(t, sink.Entries(), 2)
}
