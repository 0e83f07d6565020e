package routes

import (
	"coverletter-service/internal/api/handlers"
	"coverletter-service/internal/api/middleware"
	"coverletter-service/internal/config"
	"coverletter-service/internal/metrics"
	"coverletter-service/internal/upload"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// Dependencies are the services the HTTP routes are wired to
type Dependencies struct {
	Generator   handlers.CoverLetterGenerator
	Store       *upload.Store
	Provider    handlers.ProviderStatus
	Metrics     *metrics.Collector
	RateLimiter middleware.Limiter // nil disables rate limiting
}

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, deps Dependencies) {
	// room for the form fields on top of the file itself
	maxBody := cfg.Upload.MaxBytes
	if maxBody > 0 {
		maxBody += 1 << 20
	}

	// Global middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig(cfg.CORS.AllowedOrigins))
	e.Use(middleware.RequestValidation(maxBody))
	e.Use(middleware.Metrics(deps.Metrics))

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/ready", handlers.ReadinessHandler(deps.Provider))
		health.GET("/live", handlers.LivenessHandler)
	}

	// Status route
	e.GET("/status", handlers.StatusHandler(deps.Provider, deps.Metrics))

	api := e.Group("/api")
	{
		api.GET("/test", handlers.TestHandler)

		var generate []echo.MiddlewareFunc
		if cfg.Server.RequestTimeout > 0 {
			generate = append(generate, middleware.TimeoutConfig(cfg.Server.RequestTimeout))
		}
		if deps.RateLimiter != nil {
			generate = append(generate, middleware.RateLimit(deps.RateLimiter))
		}
		api.POST("/generate", handlers.GenerateHandler(deps.Generator, deps.Store), generate...)
	}

	// Root route
	e.GET("/", handlers.RootHandler)
}
