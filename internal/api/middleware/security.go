package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	// HSTSMaxAge is one year in seconds.
	HSTSMaxAge = 31536000

	// DefaultBodyLimit caps request bodies. Listing payloads are small JSON documents
	// and media is referenced by URL, never uploaded inline.
	DefaultBodyLimit = "1M"

	// preflightMaxAge lets browsers reuse a CORS preflight for ten minutes.
	preflightMaxAge = 600

	// apiContentPolicy forbids every fetch; responses are JSON and never rendered.
	apiContentPolicy = "default-src 'none'; frame-ancestors 'none'"
)

// SecurityConfig holds the browser-facing policy of the API.
type SecurityConfig struct {
	AllowedOrigins []string
	HSTSMaxAge     int
}

// NewCORS admits the listing portal origins. Agents edit drafts with PATCH and remove
// media with DELETE, so both are allowed alongside the read and action verbs.
func NewCORS(cfg SecurityConfig) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
		// the portal shows the correlation id next to error messages
		ExposeHeaders: []string{echo.HeaderXRequestID},
		MaxAge:        preflightMaxAge,
	})
}

// NewSecureHeaders sets the response headers of a JSON-only API and marks every
// response as uncacheable, since listing state changes with each moderation action.
func NewSecureHeaders(cfg SecurityConfig) echo.MiddlewareFunc {
	secure := middleware.SecureWithConfig(middleware.SecureConfig{
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            cfg.HSTSMaxAge,
		ContentSecurityPolicy: apiContentPolicy,
		ReferrerPolicy:        "no-referrer",
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return secure(func(c echo.Context) error {
			c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
			return next(c)
		})
	}
}

// NewBodyLimit rejects oversized request bodies with 413.
func NewBodyLimit(limit string) echo.MiddlewareFunc {
	return middleware.BodyLimit(limit)
}
