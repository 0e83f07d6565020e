package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// CORSConfig allows GET and POST from the configured origins with only a Content-Type header
func CORSConfig(allowedOrigins []string) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{echo.GET, echo.POST},
		AllowHeaders:     []string{echo.HeaderContentType},
		AllowCredentials: false,
		MaxAge:           86400, // 24 hours
	})
}
