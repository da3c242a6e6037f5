package v1

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatehub/listingguard/internal/errors"
	"github.com/estatehub/listingguard/internal/listing"
)

func TestAuthentication(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	code, body := api.do(t, anonymous, http.MethodGet, "/api/v1/listings/x", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, false, body["success"])

	code, _ = api.do(t, agentA, http.MethodGet, "/api/v1/moderation/queue", nil)
	assert.Equal(t, http.StatusForbidden, code, "agents cannot read the moderation queue")

	code, _ = api.do(t, moderator, http.MethodPost, "/api/v1/listings", completeDraft())
	assert.Equal(t, http.StatusForbidden, code, "moderators cannot create listings")
}

func TestCheckDuplicates(t *testing.T) {
	t.Parallel()

	t.Run("returns the best match", func(t *testing.T) {
		t.Parallel()
		api := newTestAPI(t)
		api.checker.set(strongMatch(82, "p-1", "Marina Heights"), nil)

		code, body := api.do(t, agentA, http.MethodPost, "/api/v1/duplicates/check",
			map[string]any{"title": "Marina Heights", "latitude": 25.08, "longitude": 55.14})
		require.Equal(t, http.StatusOK, code, body)

		result := body["result"].(map[string]any)
		assert.InDelta(t, 82, result["score"], 0)
		assert.Equal(t, "strong", result["level"])
		match := result["match"].(map[string]any)
		assert.Equal(t, "p-1", match["projectId"])
		assert.Equal(t, "Marina Heights", match["name"])
	})

	t.Run("no match serializes null", func(t *testing.T) {
		t.Parallel()
		api := newTestAPI(t)

		code, body := api.do(t, moderator, http.MethodPost, "/api/v1/duplicates/check", map[string]any{})
		require.Equal(t, http.StatusOK, code)
		result := body["result"].(map[string]any)
		assert.Nil(t, result["match"])
		assert.InDelta(t, 0, result["score"], 0)
	})

	t.Run("catalog down is 503", func(t *testing.T) {
		t.Parallel()
		api := newTestAPI(t)
		api.checker.set(nil, errors.Newf("catalog down").Category(errors.CategoryUpstreamUnavailable).Build())

		code, body := api.do(t, agentA, http.MethodPost, "/api/v1/duplicates/check", map[string]any{"title": "x"})
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, upstreamMessage, body["message"])
		assert.InDelta(t, http.StatusServiceUnavailable, body["code"], 0)
		assert.NotEmpty(t, body["correlation_id"])
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		t.Parallel()
		api := newTestAPI(t)

		code, body := api.do(t, agentA, http.MethodPost, "/api/v1/duplicates/check", "not an object")
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "invalid request body", body["message"])
	})
}

func TestSubmitWithoutCover(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	code, body := api.do(t, agentA, http.MethodPost, "/api/v1/listings", completeDraft())
	require.Equal(t, http.StatusCreated, code)
	id := property(t, body)["id"].(string)

	code, body = api.do(t, agentA, http.MethodPost, "/api/v1/listings/"+id+"/submit", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["message"], "cover image")

	code, body = api.do(t, agentA, http.MethodGet, "/api/v1/listings/"+id, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, string(listing.StatusDraft), property(t, body)["status"])
}

func TestSubmitOverrideAndApprove(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)
	api.checker.set(strongMatch(80, "p-9", "Marina Gate"), nil)
	id := api.createReady(t)

	code, body := api.do(t, agentA, http.MethodPost, "/api/v1/listings/"+id+"/submit", nil)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["message"], "requires confirmation")

	code, body = api.do(t, agentA, http.MethodPost, "/api/v1/listings/"+id+"/submit",
		SubmitRequest{DuplicateOverrideConfirmed: true})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, id, property(t, body)["id"])
	assert.Equal(t, string(listing.StatusPendingReview), property(t, body)["status"])

	code, body = api.do(t, moderator, http.MethodGet, "/api/v1/listings/"+id+"/overrides", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["overrides"], 1)

	code, body = api.do(t, moderator, http.MethodGet, "/api/v1/moderation/queue", nil)
	require.Equal(t, http.StatusOK, code)
	assert.InDelta(t, 1, body["count"], 0)

	code, body = api.do(t, moderator, http.MethodPost, "/api/v1/listings/"+id+"/approve", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, string(listing.StatusApproved), property(t, body)["status"])

	code, body = api.do(t, moderator, http.MethodPost, "/api/v1/listings/"+id+"/approve", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, false, body["success"])

	assert.Contains(t, api.sink.Actions(), "approve")
}

func TestDeveloperNameBlocksSubmit(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)
	api.checker.set(strongMatch(90, "p-2", "Emaar Beachfront"), nil)
	id := api.createReady(t)

	code, _ := api.do(t, agentA, http.MethodPatch, "/api/v1/listings/"+id,
		map[string]any{"developerName": "Emaar"})
	require.Equal(t, http.StatusOK, code)

	code, body := api.do(t, agentA, http.MethodPost, "/api/v1/listings/"+id+"/submit",
		SubmitRequest{DuplicateOverrideConfirmed: true})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["message"], "remove developer name")
}

func TestRejectAndResubmit(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)
	id := api.createReady(t)

	code, _ := api.do(t, agentA, http.MethodPost, "/api/v1/listings/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = api.do(t, moderator, http.MethodPost, "/api/v1/listings/"+id+"/reject", RejectRequest{Reason: ""})
	assert.Equal(t, http.StatusBadRequest, code, "a reason is required")

	code, body := api.do(t, moderator, http.MethodPost, "/api/v1/listings/"+id+"/reject",
		RejectRequest{Reason: "blurry photos"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, string(listing.StatusRejected), property(t, body)["status"])

	code, body = api.do(t, agentA, http.MethodGet, "/api/v1/listings/"+id, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "blurry photos", property(t, body)["rejectionReason"])

	code, body = api.do(t, agentA, http.MethodPost, "/api/v1/listings/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, string(listing.StatusPendingReview), property(t, body)["status"])
}

func TestOwnership(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)
	id := api.createReady(t)

	code, _ := api.do(t, agentB, http.MethodGet, "/api/v1/listings/"+id, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = api.do(t, agentB, http.MethodPost, "/api/v1/listings/"+id+"/submit", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = api.do(t, moderator, http.MethodGet, "/api/v1/listings/"+id, nil)
	assert.Equal(t, http.StatusOK, code, "moderators see every listing")
}

func TestMediaArchiveAndClone(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)
	id := api.createReady(t)

	code, body := api.do(t, agentA, http.MethodPost, "/api/v1/listings/"+id+"/media",
		MediaRequest{Category: listing.MediaInterior, URL: "https://cdn.example/living.jpg"})
	require.Equal(t, http.StatusCreated, code)
	media := property(t, body)["media"].([]any)
	require.Len(t, media, 2)
	mediaID := media[1].(map[string]any)["id"].(string)

	code, body = api.do(t, agentA, http.MethodDelete, "/api/v1/listings/"+id+"/media/"+mediaID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, property(t, body)["media"], 1)

	code, _ = api.do(t, agentA, http.MethodPost, "/api/v1/listings/"+id+"/clone", nil)
	assert.Equal(t, http.StatusConflict, code, "only approved listings can be cloned")

	code, _ = api.do(t, agentA, http.MethodPost, "/api/v1/listings/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = api.do(t, moderator, http.MethodPost, "/api/v1/listings/"+id+"/approve", nil)
	require.Equal(t, http.StatusOK, code)

	code, body = api.do(t, agentA, http.MethodPost, "/api/v1/listings/"+id+"/clone", nil)
	require.Equal(t, http.StatusCreated, code, body)
	clone := property(t, body)
	assert.NotEqual(t, id, clone["id"])
	assert.Equal(t, string(listing.StatusDraft), clone["status"])
	assert.Equal(t, id, clone["clonedFromId"])
	assert.Len(t, clone["media"], 1)

	code, body = api.do(t, agentA, http.MethodPost, "/api/v1/listings/"+id+"/archive", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, string(listing.StatusArchived), property(t, body)["status"])

	code, _ = api.do(t, agentA, http.MethodPatch, "/api/v1/listings/"+id, map[string]any{"title": "Changed title"})
	assert.Equal(t, http.StatusConflict, code, "archived listings are read-only")
}

func TestListingDuplicateCheckStoresAnnotation(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)
	api.checker.set(strongMatch(64, "p-3", "Marina Promenade"), nil)
	id := api.createReady(t)

	code, body := api.do(t, agentA, http.MethodPost, "/api/v1/listings/"+id+"/duplicate-check", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "soft", body["result"].(map[string]any)["level"])
	assert.InDelta(t, 64, property(t, body)["duplicateScore"], 0)
	assert.Equal(t, "p-3", property(t, body)["duplicateMatchedProjectId"])
}

func TestModerationQueueLimit(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	code, _ := api.do(t, moderator, http.MethodGet, "/api/v1/moderation/queue?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(t, moderator, http.MethodGet, "/api/v1/moderation/queue?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := api.do(t, moderator, http.MethodGet, "/api/v1/moderation/queue?limit=5", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["items"])
	assert.InDelta(t, 0, body["count"], 0)
}
