package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"coverletter-service/pkg/models"
)

// TimeoutConfig puts a deadline on the request context. Handlers that
// return context.DeadlineExceeded get a 503 instead of a generic 500.
func TimeoutConfig(timeout time.Duration) echo.MiddlewareFunc {
	return middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
		Timeout: timeout,
		ErrorHandler: func(err error, c echo.Context) error {
			if errors.Is(err, context.DeadlineExceeded) {
				return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
					Error: "Request timed out",
					Type:  "timeout",
				})
			}
			return err
		},
	})
}
