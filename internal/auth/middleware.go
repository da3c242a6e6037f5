package auth

import (
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
)

const bearerPrefix = "Bearer "

// Middleware resolves the bearer token of every request and stores the
// principal on the request context. Requests without a valid token get 401.
func Middleware(r *Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, bearerPrefix) {
				return c.JSON(http.StatusUnauthorized, denied("missing bearer token"))
			}

			p, err := r.Resolve(strings.TrimSpace(header[len(bearerPrefix):]))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, denied("invalid or expired token"))
			}

			req := c.Request()
			c.SetRequest(req.WithContext(WithPrincipal(req.Context(), p)))
			return next(c)
		}
	}
}

// RequireRole rejects principals whose role is not one of roles with 403.
// It must run after Middleware.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFromContext(c.Request().Context())
			if !ok {
				return c.JSON(http.StatusUnauthorized, denied("authentication required"))
			}
			if !slices.Contains(roles, p.Role) {
				return c.JSON(http.StatusForbidden, denied("insufficient role"))
			}
			return next(c)
		}
	}
}

type deniedResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func denied(msg string) deniedResponse {
	return deniedResponse{Success: false, Message: msg}
}
