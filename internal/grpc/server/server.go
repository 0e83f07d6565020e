package server

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"

	"coverletter-service/internal/config"
	"coverletter-service/internal/coverletter"
	"coverletter-service/internal/grpc/interceptors"
	"coverletter-service/internal/logging"
	"coverletter-service/internal/metrics"
	"coverletter-service/internal/upload"
)

// Generator is the generation core as seen by the gRPC transport
type Generator interface {
	Generate(ctx context.Context, req *coverletter.Request) (*coverletter.Result, error)
}

// ProviderStatus reports whether a completion provider is ready
type ProviderStatus interface {
	IsHealthy() bool
	GetProviderName() string
}

type Server struct {
	cfg       *config.Config
	generator Generator
	store     *upload.Store
	provider  ProviderStatus
	collector *metrics.Collector
	logger    logging.Logger

	grpcServer *grpc.Server
	health     *health.Server
	startTime  time.Time
}

func NewServer(cfg *config.Config, generator Generator, store *upload.Store, provider ProviderStatus, collector *metrics.Collector) *Server {
	s := &Server{
		cfg:       cfg,
		generator: generator,
		store:     store,
		provider:  provider,
		collector: collector,
		logger:    logging.GetGlobalLogger().WithField("component", "grpc_server"),
		health:    health.NewServer(),
		startTime: time.Now(),
	}

	maxMsg := cfg.GRPC.MaxRecvMsgSize
	if maxMsg <= 0 {
		maxMsg = 16 * 1024 * 1024
	}

	s.grpcServer = grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.MaxRecvMsgSize(maxMsg),
		grpc.ChainUnaryInterceptor(
			interceptors.RecoveryInterceptor(),
			interceptors.LoggingInterceptor(),
			interceptors.MetricsInterceptor(collector),
		),
		grpc.ChainStreamInterceptor(
			interceptors.StreamRecoveryInterceptor(),
			interceptors.StreamLoggingInterceptor(),
			interceptors.StreamMetricsInterceptor(collector),
		),
	)

	RegisterCoverLetterServiceServer(s.grpcServer, s)
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return s
}

// Start serves on lis until Stop is called
func (s *Server) Start(lis net.Listener) error {
	s.logger.Info("Starting gRPC server", map[string]interface{}{"address": lis.Addr().String()})
	return s.grpcServer.Serve(lis)
}

// Stop drains in-flight calls and stops the server
func (s *Server) Stop() {
	s.logger.Info("Shutting down gRPC server...")
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
