package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coverletter-service/internal/config"
	"coverletter-service/internal/llm"
	"coverletter-service/internal/logging"
)

const claudeMessageBody = `{
  "id": "msg_01",
  "type": "message",
  "role": "assistant",
  "model": "claude-3-7-sonnet-latest",
  "content": [{"type": "text", "text": "Dear Hiring Manager,\n\nFirst.\n\nBest regards"}],
  "stop_reason": "end_turn",
  "stop_sequence": null,
  "usage": {"input_tokens": 10, "output_tokens": 20}
}`

func newTestClaudeProvider(t *testing.T, handler http.HandlerFunc) *ClaudeProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.LLM.Provider = "claude"
	cfg.LLM.APIKey = "test-key"
	cfg.LLM.BaseURL = server.URL + "/"
	return NewClaudeProvider(cfg, logging.NewMultiLogger())
}

func TestClaudeProvider_SendsSamplingParameters(t *testing.T) {
	var body map[string]interface{}
	provider := newTestClaudeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("X-Api-Key = %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("request body is not json: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, claudeMessageBody)
	})

	completion, err := provider.Complete(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if completion.Text != "Dear Hiring Manager,\n\nFirst.\n\nBest regards" {
		t.Errorf("Text = %q", completion.Text)
	}
	if completion.FinishReason != "end_turn" {
		t.Errorf("FinishReason = %q", completion.FinishReason)
	}

	if body["temperature"] != 0.65 {
		t.Errorf("temperature = %v", body["temperature"])
	}
	if body["max_tokens"] != float64(1000) {
		t.Errorf("max_tokens = %v", body["max_tokens"])
	}
	if _, ok := body["presence_penalty"]; ok {
		t.Error("presence_penalty sent to the Messages API")
	}

	system, ok := body["system"].([]interface{})
	if !ok || len(system) != 1 {
		t.Fatalf("system = %v", body["system"])
	}
	if text := system[0].(map[string]interface{})["text"]; text != "You are a professional cover letter writer." {
		t.Errorf("system text = %v", text)
	}

	messages, ok := body["messages"].([]interface{})
	if !ok || len(messages) != 1 {
		t.Fatalf("messages = %v", body["messages"])
	}
	if role := messages[0].(map[string]interface{})["role"]; role != "user" {
		t.Errorf("message role = %v, want user", role)
	}
}

func TestClaudeProvider_EmptyContentIsInvalidResponse(t *testing.T) {
	provider := newTestClaudeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"msg_02","type":"message","role":"assistant","model":"claude-3-7-sonnet-latest","content":[],"stop_reason":"end_turn","stop_sequence":null,"usage":{"input_tokens":1,"output_tokens":0}}`)
	})

	_, err := provider.Complete(context.Background(), testRequest())
	if !errors.Is(err, llm.ErrInvalidResponse) {
		t.Fatalf("Complete() error = %v, want ErrInvalidResponse", err)
	}
	if got := llm.ErrorType(err); got != llm.TypeInvalidResponse {
		t.Errorf("ErrorType() = %q", got)
	}
}

func TestClaudeProvider_APIErrorIsClassified(t *testing.T) {
	calls := 0
	provider := newTestClaudeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	})

	_, err := provider.Complete(context.Background(), testRequest())

	var upstream *llm.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("Complete() error = %v, want *llm.UpstreamError", err)
	}
	if upstream.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d", upstream.StatusCode)
	}
	if got := llm.ErrorType(err); got != llm.TypeAuthentication {
		t.Errorf("ErrorType() = %q, want %q", got, llm.TypeAuthentication)
	}
	if calls != 1 {
		t.Errorf("upstream called %d times, want exactly 1 (no retries)", calls)
	}
}
