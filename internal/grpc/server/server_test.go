package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"os"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"coverletter-service/internal/config"
	"coverletter-service/internal/coverletter"
	"coverletter-service/internal/llm"
	"coverletter-service/internal/logging"
	"coverletter-service/internal/metrics"
	"coverletter-service/internal/upload"
)

type fakeCompleter struct {
	completion *llm.Completion
	err        error
	calls      int
	last       *llm.CompletionRequest
}

func (f *fakeCompleter) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
	f.calls++
	f.last = req
	return f.completion, f.err
}

type fakeExtractor struct{ text string }

func (f fakeExtractor) ExtractText(ctx context.Context, filePath string) (string, error) {
	return f.text, nil
}

type fakeProviderStatus struct{}

func (fakeProviderStatus) IsHealthy() bool         { return true }
func (fakeProviderStatus) GetProviderName() string { return "fake" }

type fixture struct {
	conn      *grpc.ClientConn
	completer *fakeCompleter
	collector *metrics.Collector
	uploadDir string
}

func newFixture(t *testing.T, completer *fakeCompleter) *fixture {
	t.Helper()

	dir := t.TempDir()
	collector := metrics.NewCollector()
	generator := coverletter.NewGenerator(completer, fakeExtractor{text: "5 years of backend experience"}, logging.NewMultiLogger(), 1000)
	srv := NewServer(config.Default(), generator, upload.NewStore(dir, 1<<20), fakeProviderStatus{}, collector)

	lis := bufconn.Listen(1 << 20)
	go srv.Start(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return &fixture{conn: conn, completer: completer, collector: collector, uploadDir: dir}
}

func (f *fixture) generate(t *testing.T, fields map[string]interface{}) (*structpb.Struct, error) {
	t.Helper()

	in, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatal(err)
	}
	out := new(structpb.Struct)
	err = f.conn.Invoke(context.Background(), "/"+ServiceName+"/Generate", in, out)
	return out, err
}

func TestGenerate_Success(t *testing.T) {
	f := newFixture(t, &fakeCompleter{completion: &llm.Completion{Text: "Dear Hiring Manager,\n\nBest regards", Model: "fake-1"}})

	out, err := f.generate(t, map[string]interface{}{
		"jobTitle":      "Software Engineer",
		"company":       "Acme Corp",
		"inventiveness": 100,
		"humor":         "0",
		"cv":            base64.StdEncoding.EncodeToString([]byte("%PDF-1.4\n")),
		"cvFilename":    "cv.pdf",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	fields := out.GetFields()
	if got := fields["coverLetter"].GetStringValue(); got != "Dear Hiring Manager,\n\nBest regards" {
		t.Errorf("coverLetter = %q", got)
	}
	if got := fields["temperature"].GetNumberValue(); got < 0.999 || got > 1.001 {
		t.Errorf("temperature = %v, want 1.0", got)
	}
	if got := fields["presencePenalty"].GetNumberValue(); got != 0 {
		t.Errorf("presencePenalty = %v", got)
	}
	if !strings.Contains(f.completer.last.Prompt, "5 years of backend experience") {
		t.Errorf("prompt missing CV text")
	}

	entries, _ := os.ReadDir(f.uploadDir)
	if len(entries) != 0 {
		t.Errorf("staged upload not removed")
	}
	if m := f.collector.Get("/" + ServiceName + "/Generate"); m == nil || m.SuccessCount != 1 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestGenerate_StatusCodes(t *testing.T) {
	tests := []struct {
		name      string
		fields    map[string]interface{}
		err       error
		wantCode  codes.Code
		wantMsg   string
		wantCalls int
	}{
		{
			name:     "missing fields",
			fields:   map[string]interface{}{"company": "Acme Corp"},
			wantCode: codes.InvalidArgument,
			wantMsg:  "missing required fields: jobTitle",
		},
		{
			name:     "bad slider",
			fields:   map[string]interface{}{"jobTitle": "Engineer", "company": "Acme", "humor": 12.5},
			wantCode: codes.InvalidArgument,
			wantMsg:  "humor",
		},
		{
			name:     "not a pdf",
			fields:   map[string]interface{}{"jobTitle": "Engineer", "company": "Acme", "cv": base64.StdEncoding.EncodeToString([]byte("hello"))},
			wantCode: codes.InvalidArgument,
			wantMsg:  "Only PDF files are allowed",
		},
		{
			name:     "bad base64",
			fields:   map[string]interface{}{"jobTitle": "Engineer", "company": "Acme", "cv": "***"},
			wantCode: codes.InvalidArgument,
			wantMsg:  "base64",
		},
		{
			name:      "upstream failure",
			fields:    map[string]interface{}{"jobTitle": "Engineer", "company": "Acme"},
			err:       fmt.Errorf("%w: no choices", llm.ErrInvalidResponse),
			wantCode:  codes.Internal,
			wantMsg:   "Invalid response from completion service",
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &fakeCompleter{completion: &llm.Completion{Text: "Dear Hiring Manager"}, err: tt.err}
			f := newFixture(t, completer)

			_, err := f.generate(t, tt.fields)
			st, ok := status.FromError(err)
			if !ok || st.Code() != tt.wantCode {
				t.Fatalf("Generate() error = %v, want code %v", err, tt.wantCode)
			}
			if !strings.Contains(st.Message(), tt.wantMsg) {
				t.Errorf("message = %q, want it to contain %q", st.Message(), tt.wantMsg)
			}
			if completer.calls != tt.wantCalls {
				t.Errorf("completer calls = %d, want %d", completer.calls, tt.wantCalls)
			}
		})
	}
}

func TestGenerate_InternalCarriesTypeDetail(t *testing.T) {
	f := newFixture(t, &fakeCompleter{err: &llm.UpstreamError{Provider: "openai", Type: llm.TypeRateLimit, StatusCode: 429, Message: "slow down"}})

	_, err := f.generate(t, map[string]interface{}{"jobTitle": "Engineer", "company": "Acme"})

	detail := structDetail(t, err, codes.Internal)
	if got := detail.GetFields()["type"].GetStringValue(); got != llm.TypeRateLimit {
		t.Errorf("type = %q", got)
	}
	if got := detail.GetFields()["details"].GetStringValue(); got != "slow down" {
		t.Errorf("details = %q", got)
	}
}

func TestGenerate_MissingFieldsCarryDetail(t *testing.T) {
	f := newFixture(t, &fakeCompleter{completion: &llm.Completion{Text: "Dear Hiring Manager"}})

	_, err := f.generate(t, map[string]interface{}{"company": "Acme Corp", "jobTitle": "  "})

	detail := structDetail(t, err, codes.InvalidArgument)
	if got := detail.GetFields()["error"].GetStringValue(); got != "Missing required fields" {
		t.Errorf("error = %q", got)
	}
	flags := detail.GetFields()["details"].GetStructValue().GetFields()
	if !flags["jobTitle"].GetBoolValue() {
		t.Error("jobTitle flag should be true")
	}
	if v, ok := flags["company"]; !ok || v.GetBoolValue() {
		t.Errorf("company flag = %v, want false", v)
	}
	if f.completer.calls != 0 {
		t.Error("completer called for an invalid request")
	}
}

// structDetail asserts the status code of err and returns its Struct detail
func structDetail(t *testing.T, err error, want codes.Code) *structpb.Struct {
	t.Helper()

	st, _ := status.FromError(err)
	if st.Code() != want {
		t.Fatalf("code = %v, want %v", st.Code(), want)
	}
	for _, d := range st.Details() {
		if s, ok := d.(*structpb.Struct); ok {
			return s
		}
	}
	t.Fatalf("no Struct detail in %v", st.Details())
	return nil
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t, &fakeCompleter{})

	out := new(structpb.Struct)
	if err := f.conn.Invoke(context.Background(), "/"+ServiceName+"/HealthCheck", &emptypb.Empty{}, out); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
	if got := out.GetFields()["status"].GetStringValue(); got != "healthy" {
		t.Errorf("status = %q", got)
	}

	resp, err := healthpb.NewHealthClient(f.conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("grpc.health.v1 Check() error = %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("serving status = %v", resp.GetStatus())
	}
}

func TestSliderField(t *testing.T) {
	tests := []struct {
		value  *structpb.Value
		want   int
		wantOK bool
	}{
		{nil, 20, true},
		{structpb.NewNullValue(), 20, true},
		{structpb.NewNumberValue(70), 70, true},
		{structpb.NewStringValue("30"), 30, true},
		{structpb.NewNumberValue(101), 0, false},
		{structpb.NewBoolValue(true), 0, false},
	}

	for i, tt := range tests {
		fields := map[string]*structpb.Value{}
		if tt.value != nil {
			fields["humor"] = tt.value
		}
		got, ok := sliderField(fields, "humor", 20)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("case %d: sliderField() = %d, %v; want %d, %v", i, got, ok, tt.want, tt.wantOK)
		}
	}
}
