package mux

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"coverletter-service/internal/config"
	"coverletter-service/internal/grpc/server"
	"coverletter-service/internal/metrics"
	"coverletter-service/internal/upload"
)

type readyProvider struct{}

func (readyProvider) IsHealthy() bool         { return true }
func (readyProvider) GetProviderName() string { return "mock" }

func TestMultiplexer_ServesHTTPAndGRPCOnOnePort(t *testing.T) {
	cfg := config.Default()
	cfg.Server.ShutdownTimeout = 5 * time.Second

	e := echo.New()
	e.GET("/api/test", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Backend server is running!"})
	})

	grpcServer := server.NewServer(cfg, nil, upload.NewStore(t.TempDir(), 0), readyProvider{}, metrics.NewCollector())
	m := NewMultiplexer(cfg, e, grpcServer)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	m.Serve(lis)
	defer m.Stop()

	address := m.GetAddress()
	if !m.IsHealthy() {
		t.Error("IsHealthy() = false while serving")
	}

	resp, err := http.Get("http://" + address + "/api/test")
	if err != nil {
		t.Fatalf("HTTP request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "{\"message\":\"Backend server is running!\"}\n" {
		t.Errorf("HTTP response = %d %q", resp.StatusCode, body)
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	check, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("gRPC health check failed: %v", err)
	}
	if check.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v", check.GetStatus())
	}
}
