package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/estatehub/listingguard/internal/observability/metrics"
)

// unmatchedRoute labels requests that matched no route, keeping label cardinality bounded
const unmatchedRoute = "unmatched"

// NewMetrics records request counts, latencies and the in-flight gauge by route pattern.
func NewMetrics(m *metrics.HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			m.RequestStarted()
			start := time.Now()

			// a panic still counts as a failed request; Recover further out turns it into a 500
			status := http.StatusInternalServerError
			defer func() {
				path := c.Path()
				if path == "" {
					path = unmatchedRoute
				}
				m.RecordRequest(c.Request().Method, path, status, time.Since(start).Seconds())
			}()

			err = next(c)

			status = c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				switch {
				case errors.As(err, &he):
					status = he.Code
				case !c.Response().Committed:
					status = http.StatusInternalServerError
				}
			}
			return err
		}
	}
}
