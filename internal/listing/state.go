package listing

import "github.com/estatehub/listingguard/internal/errors"

// Event is a lifecycle action applied to a listing.
type Event string

const (
	EventSubmit  Event = "submit"
	EventApprove Event = "approve"
	EventReject  Event = "reject"
	EventArchive Event = "archive"
	EventClone   Event = "clone"
	EventEdit    Event = "edit"
)

// transitions is the complete lifecycle. A missing entry is an illegal transition.
// clone yields the status of the new record; the source is left as it is.
var transitions = map[Event]map[Status]Status{
	EventSubmit: {
		StatusDraft:    StatusPendingReview,
		StatusRejected: StatusPendingReview,
	},
	EventApprove: {
		StatusPendingReview: StatusApproved,
	},
	EventReject: {
		StatusPendingReview: StatusRejected,
	},
	EventArchive: {
		StatusApproved: StatusArchived,
	},
	EventClone: {
		StatusApproved: StatusDraft,
	},
	EventEdit: {
		StatusDraft:    StatusDraft,
		StatusRejected: StatusRejected,
	},
}

// Transition returns the status reached by applying event in current, or a
// conflict error when the event is not allowed there.
func Transition(current Status, event Event) (Status, error) {
	next, ok := transitions[event][current]
	if !ok {
		return current, errors.Newf("cannot %s a listing in status %s", event, current).
			Category(errors.CategoryConflict).
			Component(componentName).
			Context("status", string(current)).
			Context("event", string(event)).
			Build()
	}
	return next, nil
}

// AllowedEvents lists the events legal in status, in a fixed order.
func AllowedEvents(status Status) []Event {
	var out []Event
	for _, e := range []Event{EventEdit, EventSubmit, EventApprove, EventReject, EventArchive, EventClone} {
		if _, ok := transitions[e][status]; ok {
			out = append(out, e)
		}
	}
	return out
}

func (e Event) String() string { return string(e) }
