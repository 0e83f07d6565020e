package coverletter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coverletter-service/internal/llm"
	"coverletter-service/internal/logging"
)

const defaultMaxTokens = 1000

// TextExtractor turns a staged document into plain text
type TextExtractor interface {
	ExtractText(ctx context.Context, filePath string) (string, error)
}

// Generator runs validate, extract, prompt and complete for one request
type Generator struct {
	completer llm.Completer
	extractor TextExtractor
	logger    logging.Logger
	maxTokens int
}

// NewGenerator creates a generator. maxTokens <= 0 selects the default budget of 1000.
func NewGenerator(completer llm.Completer, extractor TextExtractor, logger logging.Logger, maxTokens int) *Generator {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Generator{
		completer: completer,
		extractor: extractor,
		logger:    logger.WithField("component", "cover_letter_generator"),
		maxTokens: maxTokens,
	}
}

// Generate returns a *MissingFieldsError before any external call when required
// fields are blank, and a *GenerationError for every completion failure.
// Extraction failures are logged and the letter is written without CV text.
func (g *Generator) Generate(ctx context.Context, req *Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	logger := g.logger.WithFields(map[string]interface{}{
		"job_title": req.JobTitle,
		"company":   req.Company,
	})

	cvText := ""
	if req.CVPath != "" {
		text, err := g.extractor.ExtractText(ctx, req.CVPath)
		if err != nil {
			logger.Warn("CV text extraction failed", map[string]interface{}{"error": err.Error()})
		} else {
			cvText = text
		}
	}
	extractDuration := time.Since(startTime)

	params := DeriveParams(req.Inventiveness, req.Humor)
	completion, err := g.completer.Complete(ctx, &llm.CompletionRequest{
		System:          SystemPrompt,
		Prompt:          BuildPrompt(req, cvText),
		Temperature:     params.Temperature,
		PresencePenalty: params.PresencePenalty,
		MaxTokens:       g.maxTokens,
	})
	if err == nil && (completion == nil || completion.Text == "") {
		err = fmt.Errorf("%w: empty completion", llm.ErrInvalidResponse)
	}
	if err != nil {
		genErr := newGenerationError(err)

		fields := map[string]interface{}{
			"error":   err.Error(),
			"message": genErr.Message,
			"type":    genErr.Type,
		}
		var upstream *llm.UpstreamError
		if errors.As(err, &upstream) && upstream.StatusCode > 0 {
			fields["status"] = upstream.StatusCode
		}
		logger.Error("Cover letter generation failed", fields)
		return nil, genErr
	}

	result := &Result{
		CoverLetter:     completion.Text,
		Provider:        providerName(g.completer),
		Model:           completion.Model,
		Temperature:     params.Temperature,
		PresencePenalty: params.PresencePenalty,
		UsedCV:          cvText != "",
	}

	logger.Info("Cover letter generated", map[string]interface{}{
		"provider":      result.Provider,
		"model":         result.Model,
		"used_cv":       result.UsedCV,
		"extract_time":  extractDuration.String(),
		"total_time":    time.Since(startTime).String(),
		"letter_length": len(result.CoverLetter),
	})

	return result, nil
}

func newGenerationError(err error) *GenerationError {
	if errors.Is(err, llm.ErrInvalidResponse) {
		return &GenerationError{
			Message: "Invalid response from completion service",
			Type:    llm.TypeInvalidResponse,
			Err:     err,
		}
	}
	return &GenerationError{
		Message: llm.ErrorMessage(err),
		Type:    llm.ErrorType(err),
		Err:     err,
	}
}

func providerName(c llm.Completer) string {
	if named, ok := c.(interface{ GetProviderName() string }); ok {
		return named.GetProviderName()
	}
	return ""
}
