package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"coverletter-service/internal/api/handlers"
	"coverletter-service/internal/api/middleware"
	"coverletter-service/internal/config"
	"coverletter-service/internal/coverletter"
	"coverletter-service/internal/llm"
	"coverletter-service/internal/logging"
	"coverletter-service/internal/metrics"
	"coverletter-service/internal/upload"
)

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, req *coverletter.Request) (*coverletter.Result, error) {
	return &coverletter.Result{CoverLetter: "Dear Hiring Manager,\n\nBest regards"}, nil
}

type stubProvider struct{}

func (stubProvider) IsHealthy() bool         { return false }
func (stubProvider) GetProviderName() string { return "none" }

func newTestEcho(t *testing.T, limiter middleware.Limiter) (*echo.Echo, *metrics.Collector) {
	t.Helper()
	return setupTestRoutes(t, config.Default(), stubGenerator{}, limiter)
}

func setupTestRoutes(t *testing.T, cfg *config.Config, generator handlers.CoverLetterGenerator, limiter middleware.Limiter) (*echo.Echo, *metrics.Collector) {
	t.Helper()

	collector := metrics.NewCollector()
	e := echo.New()
	SetupRoutes(e, cfg, Dependencies{
		Generator:   generator,
		Store:       upload.NewStore(t.TempDir(), cfg.Upload.MaxBytes),
		Provider:    stubProvider{},
		Metrics:     collector,
		RateLimiter: limiter,
	})
	return e, collector
}

// hangingCompleter blocks until the request context is done
type hangingCompleter struct{}

func (hangingCompleter) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
	<-ctx.Done()
	return nil, llm.ClassifyTransportError("test", ctx.Err())
}

func generateForm() *http.Request {
	form := url.Values{"jobTitle": {"Software Engineer"}, "company": {"Acme Corp"}}
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func TestSetupRoutes_Endpoints(t *testing.T) {
	e, collector := newTestEcho(t, nil)

	tests := []struct {
		method, path string
		wantStatus   int
		wantBody     string
	}{
		{http.MethodGet, "/api/test", http.StatusOK, `"message":"Backend server is running!"`},
		{http.MethodGet, "/health", http.StatusOK, `"status":"healthy"`},
		{http.MethodGet, "/health/live", http.StatusOK, `"status":"alive"`},
		{http.MethodGet, "/health/ready", http.StatusOK, `"status":"degraded"`},
		{http.MethodGet, "/", http.StatusOK, `"service":"Cover Letter Generator"`},
		{http.MethodPost, "/api/generate", http.StatusBadRequest, `"error":"Missing required fields"`},
		{http.MethodGet, "/status", http.StatusOK, `"endpoints"`},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %s, want it to contain %s", rec.Body.String(), tt.wantBody)
			}
			if rec.Header().Get(echo.HeaderXRequestID) == "" {
				t.Error("missing X-Request-ID")
			}
		})
	}

	if m := collector.Get("POST /api/generate"); m == nil || m.RequestCount != 1 {
		t.Errorf("generate metrics = %+v", m)
	}
}

func TestSetupRoutes_StatusReportsMetrics(t *testing.T) {
	e, _ := newTestEcho(t, nil)

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/test", nil))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	var body struct {
		Provider  string `json:"provider"`
		Endpoints []struct {
			Endpoint     string `json:"endpoint"`
			RequestCount int64  `json:"request_count"`
		} `json:"endpoints"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Provider != "none" {
		t.Errorf("provider = %q", body.Provider)
	}
	found := false
	for _, ep := range body.Endpoints {
		if ep.Endpoint == "GET /api/test" && ep.RequestCount == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("endpoints = %+v", body.Endpoints)
	}
}

func TestSetupRoutes_RateLimitOnlyAppliesToGenerate(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, 1)
	defer limiter.Stop()
	e, _ := newTestEcho(t, limiter)

	codes := []int{}
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusBadRequest || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [400 429]", codes)
	}

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/test", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("/api/test status = %d", rec.Code)
		}
	}
}

func TestSetupRoutes_GenerateDeadlineAnswers503(t *testing.T) {
	cfg := config.Default()
	cfg.Server.RequestTimeout = 50 * time.Millisecond
	generator := coverletter.NewGenerator(hangingCompleter{}, nil, logging.NewMultiLogger(), 0)
	e, _ := setupTestRoutes(t, cfg, generator, nil)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, generateForm())

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["error"] != "Request timed out" || body["type"] != "timeout" {
		t.Errorf("body = %v", body)
	}
}

func TestSetupRoutes_ZeroRequestTimeoutDisablesDeadline(t *testing.T) {
	cfg := config.Default()
	cfg.Server.RequestTimeout = 0
	e, _ := setupTestRoutes(t, cfg, stubGenerator{}, nil)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, generateForm())

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"coverLetter":"Dear Hiring Manager`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
