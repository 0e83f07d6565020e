package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coverletter-service/internal/api/middleware"
	"coverletter-service/internal/api/routes"
	"coverletter-service/internal/config"
	"coverletter-service/internal/coverletter"
	"coverletter-service/internal/extractor"
	"coverletter-service/internal/grpc/server"
	"coverletter-service/internal/llm"
	"coverletter-service/internal/llm/providers"
	"coverletter-service/internal/logging"
	"coverletter-service/internal/metrics"
	"coverletter-service/internal/mux"
	"coverletter-service/internal/upload"

	"github.com/labstack/echo/v4"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the yaml config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logging
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting Cover Letter Generator", map[string]interface{}{
		"address":      cfg.Address(),
		"llm_provider": cfg.LLM.Provider,
		"grpc_enabled": cfg.GRPC.Enabled,
	})

	// Initialize LLM manager
	llmManager := llm.NewManager(cfg, providers.NewFactory(cfg, logger), logger)
	if err := llmManager.Start(); err != nil {
		logger.Fatal("Failed to start LLM manager", map[string]interface{}{"error": err.Error()})
	}

	store := upload.NewStore(cfg.Upload.Dir, cfg.Upload.MaxBytes)
	if err := store.EnsureDir(); err != nil {
		logger.Fatal("Failed to prepare upload directory", map[string]interface{}{"error": err.Error()})
	}

	generator := coverletter.NewGenerator(llmManager, extractor.NewPDFExtractor(), logger, cfg.LLM.MaxTokens)
	collector := metrics.NewCollector()

	limiter, closeLimiter := newRateLimiter(cfg, logger)
	defer closeLimiter()

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true
	routes.SetupRoutes(e, cfg, routes.Dependencies{
		Generator:   generator,
		Store:       store,
		Provider:    llmManager,
		Metrics:     collector,
		RateLimiter: limiter,
	})

	var grpcServer *server.Server
	if cfg.GRPC.Enabled {
		grpcServer = server.NewServer(cfg, generator, store, llmManager, collector)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	collector.StartReporting(ctx, 15*time.Minute, logger)

	multiplexer := mux.NewMultiplexer(cfg, e, grpcServer)
	if err := multiplexer.Start(cfg.Address()); err != nil {
		logger.Fatal("Server failed to start", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("Server is running", map[string]interface{}{
		"address":     multiplexer.GetAddress(),
		"credentials": credentialStatus(cfg),
		"cors":        cfg.CORS.AllowedOrigins,
	})

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")

	if err := multiplexer.Stop(); err != nil {
		logger.Error("Error shutting down server", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("Stopping LLM manager...")
	if err := llmManager.Stop(); err != nil {
		logger.Error("Error stopping LLM manager", map[string]interface{}{"error": err.Error()})
	}

	collector.LogSummary(logger)
	logger.Info("Server shutdown complete")
}

func credentialStatus(cfg *config.Config) string {
	if cfg.HasLLMCredentials() {
		return "configured"
	}
	return "missing"
}

// newRateLimiter picks the Redis-backed limiter when a URL is configured,
// the in-process token buckets otherwise. A nil Limiter disables limiting.
func newRateLimiter(cfg *config.Config, logger logging.Logger) (middleware.Limiter, func()) {
	if cfg.RateLimit.RequestsPerMinute <= 0 {
		return nil, func() {}
	}

	if cfg.RateLimit.RedisURL != "" {
		rl, err := middleware.NewRedisRateLimiter(cfg.RateLimit.RedisURL, cfg.RateLimit.RequestsPerMinute, logger)
		if err != nil {
			logger.Fatal("Failed to configure rate limiter", map[string]interface{}{"error": err.Error()})
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rl.Ping(ctx); err != nil {
			logger.Warn("Redis rate limit store unreachable, requests will be allowed until it recovers", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return rl, func() { rl.Close() }
	}

	rl := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	return rl, rl.Stop
}
