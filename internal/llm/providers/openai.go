package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"coverletter-service/internal/config"
	"coverletter-service/internal/llm"
	"coverletter-service/internal/logging"
)

const defaultOpenAIModel = "gpt-3.5-turbo"

// OpenAIProvider implements llm.Provider with chat completions
type OpenAIProvider struct {
	client openai.Client
	model  string
	apiKey string
	logger logging.Logger
}

// NewOpenAIProvider creates a new OpenAI provider instance
func NewOpenAIProvider(cfg *config.Config, logger logging.Logger) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.LLM.APIKey),
		// failures are terminal for the request
		option.WithMaxRetries(0),
	}
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.LLM.BaseURL))
	}

	model := cfg.LLM.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
		apiKey: cfg.LLM.APIKey,
		logger: logger.WithField("provider", "openai"),
	}
}

// Complete sends one system + user message pair to the chat completions API
func (p *OpenAIProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
	startTime := time.Now()

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.Prompt),
		},
		Temperature:     openai.Float(req.Temperature),
		PresencePenalty: openai.Float(req.PresencePenalty),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	p.logger.Debug("Sending chat completion request", map[string]interface{}{
		"model":            p.model,
		"temperature":      req.Temperature,
		"presence_penalty": req.PresencePenalty,
		"prompt_length":    len(req.Prompt),
	})

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, p.classifyError(err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: openai returned no choices", llm.ErrInvalidResponse)
	}
	choice := resp.Choices[0]
	if !choice.JSON.Message.Valid() {
		return nil, fmt.Errorf("%w: openai choice has no message", llm.ErrInvalidResponse)
	}

	p.logger.Debug("Chat completion received", map[string]interface{}{
		"model":           resp.Model,
		"finish_reason":   choice.FinishReason,
		"processing_time": time.Since(startTime).String(),
	})

	return &llm.Completion{
		Text:         choice.Message.Content,
		Model:        resp.Model,
		FinishReason: choice.FinishReason,
	}, nil
}

func (p *OpenAIProvider) classifyError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		category := apiErr.Type
		if category == "" {
			category = llm.TypeForStatus(apiErr.StatusCode)
		}
		message := apiErr.Message
		if message == "" {
			message = err.Error()
		}
		return &llm.UpstreamError{
			Provider:   "openai",
			Type:       category,
			StatusCode: apiErr.StatusCode,
			Message:    message,
			Err:        err,
		}
	}
	return llm.ClassifyTransportError("openai", err)
}

// IsHealthy only checks configuration; a live probe would spend tokens
func (p *OpenAIProvider) IsHealthy(ctx context.Context) error {
	if p.apiKey == "" {
		return fmt.Errorf("OpenAI API key not configured - set OPENAI_API_KEY environment variable")
	}
	return nil
}

func (p *OpenAIProvider) GetProviderName() string { return "openai" }

func (p *OpenAIProvider) GetModel() string { return p.model }
