package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatehub/listingguard/internal/errors"
)

func TestTransition(t *testing.T) {
	t.Parallel()

	all := []Status{StatusDraft, StatusPendingReview, StatusApproved, StatusRejected, StatusArchived}
	legal := map[Event]map[Status]Status{
		EventSubmit:  {StatusDraft: StatusPendingReview, StatusRejected: StatusPendingReview},
		EventApprove: {StatusPendingReview: StatusApproved},
		EventReject:  {StatusPendingReview: StatusRejected},
		EventArchive: {StatusApproved: StatusArchived},
		EventClone:   {StatusApproved: StatusDraft},
		EventEdit:    {StatusDraft: StatusDraft, StatusRejected: StatusRejected},
	}

	for event, allowed := range legal {
		for _, from := range all {
			t.Run(string(event)+"/"+string(from), func(t *testing.T) {
				t.Parallel()
				got, err := Transition(from, event)
				want, ok := allowed[from]
				if ok {
					require.NoError(t, err)
					assert.Equal(t, want, got)
					return
				}
				require.Error(t, err)
				assert.True(t, errors.IsConflict(err))
				assert.Equal(t, from, got)
			})
		}
	}
}

func TestArchivedIsTerminal(t *testing.T) {
	t.Parallel()
	assert.Empty(t, AllowedEvents(StatusArchived))
	assert.Equal(t, []Event{EventEdit, EventSubmit}, AllowedEvents(StatusRejected))
	assert.Equal(t, []Event{EventArchive, EventClone}, AllowedEvents(StatusApproved))
}

func TestTransitionErrorMessage(t *testing.T) {
	t.Parallel()
	_, err := Transition(StatusDraft, EventApprove)
	assert.EqualError(t, err, "cannot approve a listing in status DRAFT")
}
