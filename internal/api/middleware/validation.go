package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"coverletter-service/pkg/models"
	"coverletter-service/pkg/utils"
)

// RequestIDKey is the echo context key holding the request ID
const RequestIDKey = "request_id"

// RequestValidation assigns a request ID and caps POST bodies at maxBodyBytes
func RequestValidation(maxBodyBytes int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := utils.GenerateRequestID()
			c.Set(RequestIDKey, requestID)
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			req := c.Request()
			if req.Method == http.MethodPost && maxBodyBytes > 0 {
				if req.ContentLength > maxBodyBytes {
					return c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
						Error: "Request body too large",
					})
				}
				// chunked bodies have no Content-Length
				req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBodyBytes)
			}

			return next(c)
		}
	}
}

// GetRequestID returns the ID assigned by RequestValidation, or a fresh one
func GetRequestID(c echo.Context) string {
	if id, ok := c.Get(RequestIDKey).(string); ok && id != "" {
		return id
	}
	return utils.GenerateRequestID()
}
