package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"coverletter-service/internal/metrics"
)

// Metrics records every request under "<METHOD> <route>". Only 5xx counts as an error.
func Metrics(collector *metrics.Collector) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			collector.Record(c.Request().Method+" "+route, time.Since(start), status >= http.StatusInternalServerError)
			return err
		}
	}
}
