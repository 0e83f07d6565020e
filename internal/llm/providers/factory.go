package providers

import (
	"fmt"

	"coverletter-service/internal/config"
	"coverletter-service/internal/llm"
	"coverletter-service/internal/logging"
)

// Factory creates LLM provider instances
type Factory struct {
	config *config.Config
	logger logging.Logger
}

// NewFactory creates a new provider factory
func NewFactory(cfg *config.Config, logger logging.Logger) *Factory {
	return &Factory{config: cfg, logger: logger}
}

// CreateProvider creates an LLM provider based on the configuration
func (f *Factory) CreateProvider() (llm.Provider, error) {
	switch f.config.LLM.Provider {
	case "openai", "":
		return NewOpenAIProvider(f.config, f.logger), nil
	case "claude", "anthropic":
		return NewClaudeProvider(f.config, f.logger), nil
	case "gemini":
		provider, err := NewGeminiProvider(f.config, f.logger)
		if err != nil {
			return nil, err
		}
		return provider, nil
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", f.config.LLM.Provider)
	}
}

// GetSupportedProviders returns a list of supported LLM providers
func (f *Factory) GetSupportedProviders() []string {
	return []string{"openai", "claude", "gemini", "mock"}
}
