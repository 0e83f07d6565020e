package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"coverletter-service/internal/metrics"
)

// MetricsInterceptor records every unary call under its full method name
func MetricsInterceptor(collector *metrics.Collector) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		startTime := time.Now()
		resp, err := handler(ctx, req)
		collector.Record(info.FullMethod, time.Since(startTime), err != nil)
		return resp, err
	}
}

// StreamMetricsInterceptor returns a gRPC streaming interceptor that collects metrics
func StreamMetricsInterceptor(collector *metrics.Collector) grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		startTime := time.Now()
		err := handler(srv, ss)
		collector.Record(info.FullMethod, time.Since(startTime), err != nil)
		return err
	}
}
