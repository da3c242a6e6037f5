package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/estatehub/listingguard/internal/errors"
	"github.com/estatehub/listingguard/internal/matching"
)

// CheckDuplicates handles POST /api/v1/duplicates/check. The check is advisory
// and stores nothing.
func (c *Controller) CheckDuplicates(ctx echo.Context) error {
	var q matching.Query
	if err := bind(ctx, &q); err != nil {
		return c.handleServiceError(ctx, err)
	}
	if c.checker == nil {
		return c.handleServiceError(ctx, errors.Newf("duplicate checking is not configured").
			Category(errors.CategoryUpstreamUnavailable).
			Component("api").
			Build())
	}

	result, err := c.checker.Check(ctx.Request().Context(), q)
	if err != nil {
		return c.handleServiceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, DuplicateCheckResponse{Success: true, Result: result})
}

// CheckListingDuplicates handles POST /api/v1/listings/:id/duplicate-check.
func (c *Controller) CheckListingDuplicates(ctx echo.Context) error {
	p, err := c.principal(ctx)
	if err != nil {
		return c.handleServiceError(ctx, err)
	}

	result, l, err := c.listings.CheckDuplicates(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return c.handleServiceError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, DuplicateCheckResponse{Success: true, Result: result, Property: l})
}
