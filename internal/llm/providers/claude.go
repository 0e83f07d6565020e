package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"coverletter-service/internal/config"
	"coverletter-service/internal/llm"
	"coverletter-service/internal/logging"
)

// ClaudeProvider implements the LLM provider interface using Anthropic's Claude
type ClaudeProvider struct {
	client anthropic.Client
	model  anthropic.Model
	apiKey string
	logger logging.Logger
}

// NewClaudeProvider creates a new Claude provider instance
func NewClaudeProvider(cfg *config.Config, logger logging.Logger) *ClaudeProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.LLM.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.LLM.BaseURL))
	}

	model := anthropic.ModelClaude3_7SonnetLatest
	if cfg.LLM.Model != "" {
		model = anthropic.Model(cfg.LLM.Model)
	}

	return &ClaudeProvider{
		client: anthropic.NewClient(opts...),
		model:  model,
		apiKey: cfg.LLM.APIKey,
		logger: logger.WithField("provider", "claude"),
	}
}

// Complete generates text with the Messages API. Claude has no presence
// penalty, so that parameter is dropped.
func (cp *ClaudeProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
	startTime := time.Now()

	if req.PresencePenalty > 0 {
		cp.logger.Debug("Presence penalty not supported by Claude, ignoring", map[string]interface{}{
			"presence_penalty": req.PresencePenalty,
		})
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1000
	}

	response, err := cp.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       cp.model,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(req.Temperature),
		System:      []anthropic.TextBlockParam{{Text: req.System}},
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: req.Prompt},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
	})
	if err != nil {
		return nil, cp.classifyError(err)
	}

	if response == nil || len(response.Content) == 0 {
		return nil, fmt.Errorf("%w: empty response from Claude", llm.ErrInvalidResponse)
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("%w: no text content in Claude response", llm.ErrInvalidResponse)
	}

	cp.logger.Debug("Claude completion received", map[string]interface{}{
		"model":           string(response.Model),
		"stop_reason":     string(response.StopReason),
		"processing_time": time.Since(startTime).String(),
	})

	return &llm.Completion{
		Text:         text.String(),
		Model:        string(response.Model),
		FinishReason: string(response.StopReason),
	}, nil
}

func (cp *ClaudeProvider) classifyError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &llm.UpstreamError{
			Provider:   "claude",
			Type:       llm.TypeForStatus(apiErr.StatusCode),
			StatusCode: apiErr.StatusCode,
			Message:    err.Error(),
			Err:        err,
		}
	}
	return llm.ClassifyTransportError("claude", err)
}

// IsHealthy checks that an API key is configured
func (cp *ClaudeProvider) IsHealthy(ctx context.Context) error {
	if cp.apiKey == "" {
		return fmt.Errorf("Claude API key not configured - set ANTHROPIC_API_KEY environment variable")
	}
	return nil
}

func (cp *ClaudeProvider) GetProviderName() string { return "claude" }

func (cp *ClaudeProvider) GetModel() string { return string(cp.model) }
