package providers

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"coverletter-service/internal/config"
	"coverletter-service/internal/llm"
	"coverletter-service/internal/logging"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider implements llm.Provider on the Gemini API
type GeminiProvider struct {
	client    *genai.Client
	modelName string
	logger    logging.Logger
}

// NewGeminiProvider creates the genai client; it fails without an API key
func NewGeminiProvider(cfg *config.Config, logger logging.Logger) (*GeminiProvider, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.LLM.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.LLM.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.LLM.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := cfg.LLM.Model
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiProvider{
		client:    client,
		modelName: model,
		logger:    logger.WithField("provider", "gemini"),
	}, nil
}

// Complete runs GenerateContent with the system persona as system instruction
func (g *GeminiProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
	temperature := float32(req.Temperature)
	presencePenalty := float32(req.PresencePenalty)

	generateConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       &temperature,
		PresencePenalty:   &presencePenalty,
	}
	if req.MaxTokens > 0 {
		generateConfig.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(req.Prompt), generateConfig)
	if err != nil {
		return nil, g.classifyError(err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: gemini returned no candidates", llm.ErrInvalidResponse)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: no text content in gemini response", llm.ErrInvalidResponse)
	}

	return &llm.Completion{
		Text:         text,
		Model:        g.modelName,
		FinishReason: string(resp.Candidates[0].FinishReason),
	}, nil
}

func (g *GeminiProvider) classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = err.Error()
		}
		return &llm.UpstreamError{
			Provider:   "gemini",
			Type:       llm.TypeForStatus(apiErr.Code),
			StatusCode: apiErr.Code,
			Message:    message,
			Err:        err,
		}
	}
	return llm.ClassifyTransportError("gemini", err)
}

// IsHealthy succeeds once the client exists, since construction already required a key
func (g *GeminiProvider) IsHealthy(ctx context.Context) error {
	if g.client == nil {
		return fmt.Errorf("gemini client not initialised")
	}
	return nil
}

func (g *GeminiProvider) GetProviderName() string { return "gemini" }

func (g *GeminiProvider) GetModel() string { return g.modelName }
