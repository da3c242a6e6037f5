package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/estatehub/listingguard/internal/listing"
)

// CreateListing handles POST /api/v1/listings.
func (c *Controller) CreateListing(ctx echo.Context) error {
	p, err := c.principal(ctx)
	if err != nil {
		return c.handleServiceError(ctx, err)
	}
	var d listing.Draft
	if err := bind(ctx, &d); err != nil {
		return c.handleServiceError(ctx, err)
	}

	l, err := c.listings.Create(ctx.Request().Context(), p, d)
	if err != nil {
		return c.handleServiceError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, ListingResponse{Success: true, Property: l})
}

// GetListing handles GET /api/v1/listings/:id.
func (c *Controller) GetListing(ctx echo.Context) error {
	p, err := c.principal(ctx)
	if err != nil {
		return c.handleServiceError(ctx, err)
	}

	l, err := c.listings.Get(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return c.handleServiceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, ListingResponse{Success: true, Property: l})
}

// UpdateListing handles PATCH /api/v1/listings/:id.
func (c *Controller) UpdateListing(ctx echo.Context) error {
	p, err := c.principal(ctx)
	if err != nil {
		return c.handleServiceError(ctx, err)
	}
	var patch listing.Patch
	if err := bind(ctx, &patch); err != nil {
		return c.handleServiceError(ctx, err)
	}

	l, err := c.listings.Update(ctx.Request().Context(), p, ctx.Param("id"), patch)
	if err != nil {
		return c.handleServiceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, ListingResponse{Success: true, Property: l})
}

// AddMedia handles POST /api/v1/listings/:id/media.
func (c *Controller) AddMedia(ctx echo.Context) error {
	p, err := c.principal(ctx)
	if err != nil {
		return c.handleServiceError(ctx, err)
	}
	var req MediaRequest
	if err := bind(ctx, &req); err != nil {
		return c.handleServiceError(ctx, err)
	}

	l, err := c.listings.AddMedia(ctx.Request().Context(), p, ctx.Param("id"), req.Category, req.URL)
	if err != nil {
		return c.handleServiceError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, ListingResponse{Success: true, Property: l})
}

// RemoveMedia handles DELETE /api/v1/listings/:id/media/:mediaId.
func (c *Controller) RemoveMedia(ctx echo.Context) error {
	p, err := c.principal(ctx)
	if err != nil {
		return c.handleServiceError(ctx, err)
	}

	l, err := c.listings.RemoveMedia(ctx.Request().Context(), p, ctx.Param("id"), ctx.Param("mediaId"))
	if err != nil {
		return c.handleServiceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, ListingResponse{Success: true, Property: l})
}

// SubmitListing handles POST /api/v1/listings/:id/submit. The body is optional.
func (c *Controller) SubmitListing(ctx echo.Context) error {
	p, err := c.principal(ctx)
	if err != nil {
		return c.handleServiceError(ctx, err)
	}
	var req SubmitRequest
	if err := bind(ctx, &req); err != nil {
		return c.handleServiceError(ctx, err)
	}

	l, err := c.listings.Submit(ctx.Request().Context(), p, ctx.Param("id"), req.DuplicateOverrideConfirmed)
	if err != nil {
		return c.handleServiceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, transitioned(l))
}

// ArchiveListing handles POST /api/v1/listings/:id/archive.
func (c *Controller) ArchiveListing(ctx echo.Context) error {
	p, err := c.principal(ctx)
	if err != nil {
		return c.handleServiceError(ctx, err)
	}

	l, err := c.listings.Archive(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return c.handleServiceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, transitioned(l))
}

// CloneListing handles POST /api/v1/listings/:id/clone.
func (c *Controller) CloneListing(ctx echo.Context) error {
	p, err := c.principal(ctx)
	if err != nil {
		return c.handleServiceError(ctx, err)
	}

	l, err := c.listings.Clone(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return c.handleServiceError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, ListingResponse{Success: true, Property: l})
}

// ListOverrides handles GET /api/v1/listings/:id/overrides.
func (c *Controller) ListOverrides(ctx echo.Context) error {
	p, err := c.principal(ctx)
	if err != nil {
		return c.handleServiceError(ctx, err)
	}

	overrides, err := c.listings.Overrides(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return c.handleServiceError(ctx, err)
	}
	if overrides == nil {
		overrides = []listing.DuplicateOverride{}
	}
	return ctx.JSON(http.StatusOK, OverridesResponse{Success: true, Overrides: overrides})
}
