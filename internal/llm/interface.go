package llm

import "context"

// CompletionRequest is everything a provider needs for one chat completion
type CompletionRequest struct {
	System          string
	Prompt          string
	Temperature     float64
	PresencePenalty float64
	MaxTokens       int
}

// Completion is a provider's generated text plus metadata
type Completion struct {
	Text         string
	Model        string
	FinishReason string
}

// Completer is the capability the generation service depends on
type Completer interface {
	Complete(ctx context.Context, req *CompletionRequest) (*Completion, error)
}

// Provider is a Completer backed by a concrete vendor SDK
type Provider interface {
	Completer

	// IsHealthy reports whether the provider is usable (credentials present)
	IsHealthy(ctx context.Context) error

	// GetProviderName returns the name of the LLM provider
	GetProviderName() string

	// GetModel returns the model identifier requests are sent to
	GetModel() string
}

// ProviderFactory builds the configured provider
type ProviderFactory interface {
	CreateProvider() (Provider, error)
	GetSupportedProviders() []string
}
