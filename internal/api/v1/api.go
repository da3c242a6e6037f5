// Package v1 implements the /api/v1 HTTP endpoints of the listing guard.
package v1

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/estatehub/listingguard/internal/auth"
	"github.com/estatehub/listingguard/internal/errors"
	"github.com/estatehub/listingguard/internal/listing"
	"github.com/estatehub/listingguard/internal/logger"
)

const (
	// Prefix is the path prefix of every endpoint in this package.
	Prefix = "/api/v1"

	correlationIDLength = 8
	upstreamMessage     = "verified project catalog is unavailable, try again later"
	internalMessage     = "internal server error"
)

// Controller manages the API routes and handlers.
type Controller struct {
	listings *listing.Service
	checker  listing.DuplicateChecker
	resolver *auth.Resolver
	log      logger.Logger
}

// New creates a controller. checker serves the standalone duplicate check and
// may be nil, in which case that endpoint reports the catalog as unavailable.
func New(listings *listing.Service, checker listing.DuplicateChecker, resolver *auth.Resolver, log logger.Logger) *Controller {
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelWarn, nil)
	}
	return &Controller{
		listings: listings,
		checker:  checker,
		resolver: resolver,
		log:      log,
	}
}

// RegisterRoutes mounts every endpoint under Prefix behind bearer authentication.
func (c *Controller) RegisterRoutes(e *echo.Echo) {
	api := e.Group(Prefix, auth.Middleware(c.resolver))

	anyRole := auth.RequireRole(auth.RoleAgent, auth.RoleModerator)
	agent := auth.RequireRole(auth.RoleAgent)
	moderator := auth.RequireRole(auth.RoleModerator)

	api.POST("/duplicates/check", c.CheckDuplicates, anyRole)

	api.POST("/listings", c.CreateListing, agent)
	api.GET("/listings/:id", c.GetListing, anyRole)
	api.PATCH("/listings/:id", c.UpdateListing, agent)
	api.POST("/listings/:id/media", c.AddMedia, agent)
	api.DELETE("/listings/:id/media/:mediaId", c.RemoveMedia, agent)
	api.POST("/listings/:id/duplicate-check", c.CheckListingDuplicates, agent)
	api.GET("/listings/:id/overrides", c.ListOverrides, anyRole)
	api.POST("/listings/:id/submit", c.SubmitListing, agent)
	api.POST("/listings/:id/archive", c.ArchiveListing, agent)
	api.POST("/listings/:id/clone", c.CloneListing, agent)

	api.POST("/listings/:id/approve", c.ApproveListing, moderator)
	api.POST("/listings/:id/reject", c.RejectListing, moderator)
	api.GET("/moderation/queue", c.ModerationQueue, moderator)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	Error         string `json:"error"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// HandleError writes an error response and logs it with the correlation id.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	resp := ErrorResponse{
		Success:       false,
		Message:       message,
		Code:          code,
		CorrelationID: correlationID(ctx),
	}
	switch {
	case err == nil:
		resp.Error = http.StatusText(code)
	case code >= http.StatusInternalServerError:
		resp.Error = http.StatusText(code)
	default:
		resp.Error = err.Error()
	}

	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("method", ctx.Request().Method),
		logger.String("path", ctx.Path()),
		logger.Int("status", code),
		logger.Error(err),
	}
	log := c.log.WithContext(ctx.Request().Context())
	if code >= http.StatusInternalServerError {
		log.Error(message, fields...)
	} else {
		log.Debug(message, fields...)
	}

	return ctx.JSON(code, resp)
}

// handleServiceError maps an error category to its status and user-facing message.
func (c *Controller) handleServiceError(ctx echo.Context, err error) error {
	var ee *errors.EnhancedError
	if !errors.As(err, &ee) {
		return c.HandleError(ctx, err, internalMessage, http.StatusInternalServerError)
	}

	switch ee.Category {
	case errors.CategoryValidation:
		return c.HandleError(ctx, err, err.Error(), http.StatusBadRequest)
	case errors.CategoryNotFound:
		return c.HandleError(ctx, err, err.Error(), http.StatusNotFound)
	case errors.CategoryConflict:
		return c.HandleError(ctx, err, err.Error(), http.StatusConflict)
	case errors.CategoryUnauthorized:
		return c.HandleError(ctx, err, err.Error(), http.StatusUnauthorized)
	case errors.CategoryForbidden:
		return c.HandleError(ctx, err, err.Error(), http.StatusForbidden)
	case errors.CategoryUpstreamUnavailable:
		return c.HandleError(ctx, err, upstreamMessage, http.StatusServiceUnavailable)
	default:
		return c.HandleError(ctx, err, internalMessage, http.StatusInternalServerError)
	}
}

func (c *Controller) principal(ctx echo.Context) (auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(ctx.Request().Context())
	if !ok {
		return auth.Principal{}, errors.Newf("authentication required").
			Category(errors.CategoryUnauthorized).
			Component("api").
			Build()
	}
	return p, nil
}

// bind decodes the request body into v, reporting malformed input as a validation error.
func bind(ctx echo.Context, v any) error {
	if err := ctx.Bind(v); err != nil {
		return errors.Newf("invalid request body").
			Category(errors.CategoryValidation).
			Component("api").
			Context("cause", err.Error()).
			Build()
	}
	return nil
}

// correlationID reuses the request id set by the RequestID middleware when present.
func correlationID(ctx echo.Context) string {
	if id := ctx.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:correlationIDLength]
}
