package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"coverletter-service/internal/api/middleware"
	"coverletter-service/internal/logging"
	"coverletter-service/internal/metrics"
	"coverletter-service/pkg/models"
	"coverletter-service/pkg/utils"
)

// Version is reported by the health endpoints
var Version = "1.0.0"

var startTime = time.Now()

// ProviderStatus reports whether a completion provider is ready
type ProviderStatus interface {
	IsHealthy() bool
	GetProviderName() string
}

// TestHandler handles GET /api/test, the connectivity probe used by the form
func TestHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, models.MessageResponse{Message: "Backend server is running!"})
}

// HealthHandler handles health check requests
func HealthHandler(c echo.Context) error {
	logging.GetGlobalLogger().Debug("Health check requested", map[string]interface{}{
		"request_id": middleware.GetRequestID(c),
	})

	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    utils.FormatDuration(time.Since(startTime)),
		Checks: map[string]string{
			"api": "ok",
		},
	})
}

// LivenessHandler handles liveness probe requests
func LivenessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    utils.FormatDuration(time.Since(startTime)),
	})
}

// ReadinessHandler reports "degraded" while no provider is configured. The
// process still serves traffic in that state, so the status code stays 200.
func ReadinessHandler(provider ProviderStatus) echo.HandlerFunc {
	return func(c echo.Context) error {
		logging.GetGlobalLogger().Debug("Readiness check requested", map[string]interface{}{
			"request_id": middleware.GetRequestID(c),
		})

		status := "ready"
		llmCheck := "ok"
		if !provider.IsHealthy() {
			status = "degraded"
			llmCheck = "not_configured"
		}

		return c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   Version,
			Uptime:    utils.FormatDuration(time.Since(startTime)),
			Checks: map[string]string{
				"api": "ok",
				"llm": llmCheck,
			},
		})
	}
}

// StatusHandler provides detailed service status
func StatusHandler(provider ProviderStatus, collector *metrics.Collector) echo.HandlerFunc {
	return func(c echo.Context) error {
		llmCheck := "operational"
		if !provider.IsHealthy() {
			llmCheck = "not_configured"
		}

		return c.JSON(http.StatusOK, models.StatusResponse{
			HealthResponse: models.HealthResponse{
				Status:    "operational",
				Timestamp: time.Now(),
				Version:   Version,
				Uptime:    utils.FormatDuration(time.Since(startTime)),
				Checks: map[string]string{
					"api": "operational",
					"llm": llmCheck,
				},
			},
			Provider:  provider.GetProviderName(),
			Endpoints: collector.Snapshot(),
		})
	}
}

// RootHandler serves the service banner
func RootHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"service": "Cover Letter Generator",
		"version": Version,
		"status":  "running",
	})
}
