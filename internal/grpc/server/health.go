package server

import (
	"context"
	"time"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"coverletter-service/internal/grpc/interceptors"
)

// HealthCheck implements the HealthCheck gRPC method
func (s *Server) HealthCheck(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s.logger.Debug("gRPC health check request received", map[string]interface{}{
		"request_id": interceptors.RequestIDFromContext(ctx),
		"method":     "HealthCheck",
	})

	llmStatus := "ok"
	if !s.provider.IsHealthy() {
		llmStatus = "not_configured"
	}

	return structpb.NewStruct(map[string]interface{}{
		"status":        "healthy",
		"timestamp":     time.Now().Format(time.RFC3339),
		"version":       "1.0.0",
		"uptimeSeconds": int64(time.Since(s.startTime).Seconds()),
		"provider":      s.provider.GetProviderName(),
		"llm":           llmStatus,
	})
}
