package logging

import (
	"fmt"
	"sync"

	"coverletter-service/internal/config"
	"coverletter-service/internal/logging/adapters"
)

// Manager owns the adapter factory and the root logger
type Manager struct {
	factory *AdapterFactory
	logger  *MultiLogger
}

// NewManager creates a new logging manager
func NewManager() *Manager {
	return &Manager{
		factory: NewAdapterFactory(),
		logger:  NewMultiLogger(),
	}
}

// Initialize configures level and adapters from the application config.
// Explicit adapters win; otherwise logging.output picks stdout or a file path.
func (m *Manager) Initialize(cfg *config.Config) error {
	m.logger.SetLevel(ParseLogLevel(cfg.Logging.Level))

	if len(cfg.Logging.Adapters) > 0 {
		for _, ac := range cfg.Logging.Adapters {
			if !ac.Enabled {
				continue
			}
			if err := m.add(AdapterConfig{Name: ac.Name, Type: ac.Type, Enabled: true, Options: ac.Options}); err != nil {
				return err
			}
		}
		return nil
	}

	output := cfg.Logging.Output
	if output == "" || output == "stdout" {
		return m.logger.AddAdapter(adapters.NewStdoutAdapter("stdout", adapters.StdoutConfig{Format: cfg.Logging.Format}))
	}

	return m.add(AdapterConfig{
		Name:    "file",
		Type:    "file",
		Enabled: true,
		Options: map[string]interface{}{"file_path": output, "format": cfg.Logging.Format},
	})
}

func (m *Manager) add(ac AdapterConfig) error {
	adapter, err := m.factory.CreateAdapter(ac)
	if err != nil {
		return fmt.Errorf("failed to create adapter %s: %w", ac.Name, err)
	}
	if err := m.logger.AddAdapter(adapter); err != nil {
		return fmt.Errorf("failed to add adapter %s: %w", ac.Name, err)
	}
	return nil
}

// GetLogger returns the root logger
func (m *Manager) GetLogger() Logger {
	return m.logger
}

// Close closes the logging system
func (m *Manager) Close() error {
	if m.logger != nil {
		return m.logger.Close()
	}
	return nil
}

var (
	globalManager *Manager
	globalMu      sync.Mutex
)

// InitializeLogging initializes the global logging system
func InitializeLogging(cfg *config.Config) error {
	manager := NewManager()
	if err := manager.Initialize(cfg); err != nil {
		return err
	}

	globalMu.Lock()
	globalManager = manager
	globalMu.Unlock()
	return nil
}

// GetGlobalLogger returns the global logger, falling back to json on stdout
func GetGlobalLogger() Logger {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		manager := NewManager()
		manager.logger.AddAdapter(adapters.NewStdoutAdapter("fallback_stdout", adapters.StdoutConfig{Format: "json"}))
		globalManager = manager
	}
	return globalManager.GetLogger()
}

// SetGlobalLogger replaces the root logger, mainly for tests
func SetGlobalLogger(logger *MultiLogger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalManager = &Manager{factory: NewAdapterFactory(), logger: logger}
}

// CloseLogging closes the global logging system
func CloseLogging() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager != nil {
		return globalManager.Close()
	}
	return nil
}

// LogWithRequestID returns the global logger scoped to a request
func LogWithRequestID(requestID string) Logger {
	return GetGlobalLogger().WithField("request_id", requestID)
}
