package providers

import (
	"context"
	"fmt"
	"strings"

	"coverletter-service/internal/llm"
)

// MockProvider returns a canned letter without calling any external service.
// Useful for local development of the form and for smoke tests.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, llm.ClassifyTransportError("mock", err)
	}

	first, _, _ := strings.Cut(req.Prompt, "\n")
	subject := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(first), "Write a professional cover letter for a "), ".")
	if subject == "" {
		subject = "the role"
	}

	var sb strings.Builder
	sb.WriteString("Dear Hiring Manager,\n\n")
	fmt.Fprintf(&sb, "I am excited to apply for %s.\n\n", subject)
	sb.WriteString("My background has prepared me to contribute from day one.\n\n")
	sb.WriteString("Thank you for your time and consideration.\n\n")
	sb.WriteString("Best regards\n")

	return &llm.Completion{Text: sb.String(), Model: "mock", FinishReason: "stop"}, nil
}

func (m *MockProvider) IsHealthy(ctx context.Context) error { return nil }

func (m *MockProvider) GetProviderName() string { return "mock" }

func (m *MockProvider) GetModel() string { return "mock" }
