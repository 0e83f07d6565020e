package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"coverletter-service/internal/config"
	"coverletter-service/internal/logging"
)

// Manager owns the configured provider and bounds every call with a deadline
type Manager struct {
	config   *config.Config
	factory  ProviderFactory
	provider Provider
	logger   logging.Logger
	mu       sync.RWMutex
	healthy  bool
}

// NewManager creates a new LLM manager instance
func NewManager(cfg *config.Config, factory ProviderFactory, logger logging.Logger) *Manager {
	return &Manager{
		config:  cfg,
		factory: factory,
		logger:  logger.WithField("component", "llm_manager"),
	}
}

// Start creates the provider. A missing API key is not fatal: the server
// still starts and every completion fails with an authentication error.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Starting LLM manager", map[string]interface{}{
		"provider":    m.config.LLM.Provider,
		"credentials": credentialStatus(m.config),
	})

	if !m.config.HasLLMCredentials() {
		m.logger.Warn("LLM API key not configured - generation requests will fail until it is set")
		m.healthy = false
		return nil
	}

	provider, err := m.factory.CreateProvider()
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}
	m.provider = provider

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := provider.IsHealthy(ctx); err != nil {
		m.logger.Warn("LLM provider health check failed", map[string]interface{}{"error": err.Error()})
		m.healthy = false
		return nil
	}

	m.healthy = true
	m.logger.Info("LLM manager started successfully", map[string]interface{}{
		"provider": provider.GetProviderName(),
		"model":    provider.GetModel(),
	})
	return nil
}

// Stop shuts down the LLM manager
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Stopping LLM manager")
	m.provider = nil
	m.healthy = false
	return nil
}

// Complete forwards to the provider under the configured timeout
func (m *Manager) Complete(ctx context.Context, req *CompletionRequest) (*Completion, error) {
	m.mu.RLock()
	provider := m.provider
	healthy := m.healthy
	m.mu.RUnlock()

	if provider == nil || !healthy {
		return nil, &UpstreamError{
			Provider: m.config.LLM.Provider,
			Type:     TypeAuthentication,
			Message:  "LLM provider is not available - check API key configuration",
			Err:      ErrProviderUnavailable,
		}
	}

	if m.config.LLM.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.LLM.Timeout)
		defer cancel()
	}

	return provider.Complete(ctx, req)
}

// IsHealthy checks if the LLM manager and provider are healthy
func (m *Manager) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthy && m.provider != nil
}

// GetProviderName returns the name of the current LLM provider
func (m *Manager) GetProviderName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.provider != nil {
		return m.provider.GetProviderName()
	}
	return "none"
}

func credentialStatus(cfg *config.Config) string {
	if cfg.HasLLMCredentials() {
		return "configured"
	}
	return "missing"
}
