package mux

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/soheilhy/cmux"

	"coverletter-service/internal/config"
	"coverletter-service/internal/grpc/server"
	"coverletter-service/internal/logging"
)

// Multiplexer serves HTTP/1 and gRPC on one listener
type Multiplexer struct {
	cfg    *config.Config
	logger logging.Logger

	grpcServer *server.Server // nil when gRPC is disabled
	httpServer *http.Server

	mux      cmux.CMux
	listener net.Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMultiplexer creates a new protocol multiplexer. grpcServer may be nil.
func NewMultiplexer(cfg *config.Config, httpHandler http.Handler, grpcServer *server.Server) *Multiplexer {
	ctx, cancel := context.WithCancel(context.Background())

	return &Multiplexer{
		cfg:        cfg,
		logger:     logging.GetGlobalLogger().WithField("component", "multiplexer"),
		grpcServer: grpcServer,
		ctx:        ctx,
		cancel:     cancel,
		httpServer: &http.Server{
			Handler:           httpHandler,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       cfg.Server.IdleTimeout,
		},
	}
}

// Start listens on address and serves until Stop
func (m *Multiplexer) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	m.Serve(listener)
	return nil
}

// Serve splits listener between the gRPC and HTTP servers in the background
func (m *Multiplexer) Serve(listener net.Listener) {
	m.listener = listener
	m.mux = cmux.New(listener)
	address := listener.Addr().String()

	// grpc-go clients wait for the server SETTINGS frame before sending headers
	if m.grpcServer != nil {
		grpcListener := m.mux.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))

		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			if err := m.grpcServer.Start(grpcListener); err != nil && !isClosedErr(err) {
				m.logger.Error("gRPC server failed", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	httpListener := m.mux.Match(cmux.HTTP1Fast())

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.logger.Info("Starting HTTP server", map[string]interface{}{"address": address})
		if err := m.httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) && !isClosedErr(err) {
			m.logger.Error("HTTP server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.mux.Serve(); err != nil && !isClosedErr(err) {
			m.logger.Error("Multiplexer failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	m.logger.Info("Multiplexer started successfully", map[string]interface{}{
		"address":      address,
		"grpc_enabled": m.grpcServer != nil,
	})
}

// Stop gracefully shuts down the multiplexer and both servers
func (m *Multiplexer) Stop() error {
	m.logger.Info("Stopping multiplexer...")
	m.cancel()

	timeout := m.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := m.httpServer.Shutdown(shutdownCtx); err != nil {
		m.logger.Error("HTTP server shutdown failed", map[string]interface{}{"error": err.Error()})
	}

	if m.grpcServer != nil {
		m.grpcServer.Stop()
	}

	if m.listener != nil {
		if err := m.listener.Close(); err != nil && !isClosedErr(err) {
			m.logger.Error("Failed to close listener", map[string]interface{}{"error": err.Error()})
		}
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("Multiplexer stopped gracefully")
	case <-shutdownCtx.Done():
		m.logger.Warn("Multiplexer shutdown timed out")
	}

	return nil
}

// Wait waits for the multiplexer to finish
func (m *Multiplexer) Wait() {
	m.wg.Wait()
}

// IsHealthy reports whether the multiplexer is still serving
func (m *Multiplexer) IsHealthy() bool {
	return m.ctx.Err() == nil && m.listener != nil
}

// GetAddress returns the address the multiplexer is listening on
func (m *Multiplexer) GetAddress() string {
	if m.listener != nil {
		return m.listener.Addr().String()
	}
	return ""
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, cmux.ErrListenerClosed) || errors.Is(err, cmux.ErrServerClosed)
}
