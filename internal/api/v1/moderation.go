package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/estatehub/listingguard/internal/errors"
	"github.com/estatehub/listingguard/internal/listing"
)

const (
	defaultQueueLimit = 50
	maxQueueLimit     = 200
)

// ApproveListing handles POST /api/v1/listings/:id/approve.
func (c *Controller) ApproveListing(ctx echo.Context) error {
	p, err := c.principal(ctx)
	if err != nil {
		return c.handleServiceError(ctx, err)
	}

	l, err := c.listings.Approve(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return c.handleServiceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, transitioned(l))
}

// RejectListing handles POST /api/v1/listings/:id/reject.
func (c *Controller) RejectListing(ctx echo.Context) error {
	p, err := c.principal(ctx)
	if err != nil {
		return c.handleServiceError(ctx, err)
	}
	var req RejectRequest
	if err := bind(ctx, &req); err != nil {
		return c.handleServiceError(ctx, err)
	}

	l, err := c.listings.Reject(ctx.Request().Context(), p, ctx.Param("id"), req.Reason)
	if err != nil {
		return c.handleServiceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, transitioned(l))
}

// ModerationQueue handles GET /api/v1/moderation/queue?limit=N.
func (c *Controller) ModerationQueue(ctx echo.Context) error {
	p, err := c.principal(ctx)
	if err != nil {
		return c.handleServiceError(ctx, err)
	}

	limit := defaultQueueLimit
	if err := echo.QueryParamsBinder(ctx).Int("limit", &limit).BindError(); err != nil {
		return c.handleServiceError(ctx, errors.Validationf("api", "limit must be an integer"))
	}
	if limit < 1 || limit > maxQueueLimit {
		return c.handleServiceError(ctx, errors.Validationf("api", "limit must be between 1 and %d", maxQueueLimit))
	}

	items, err := c.listings.ListPending(ctx.Request().Context(), p, limit)
	if err != nil {
		return c.handleServiceError(ctx, err)
	}
	if items == nil {
		items = []*listing.Listing{}
	}
	return ctx.JSON(http.StatusOK, QueueResponse{Success: true, Items: items, Count: len(items)})
}
