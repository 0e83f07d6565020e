package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"coverletter-service/internal/api/validation"
	"coverletter-service/internal/coverletter"
	"coverletter-service/internal/grpc/interceptors"
	"coverletter-service/internal/logging"
	"coverletter-service/internal/upload"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "coverletter.v1.CoverLetterService"

// CoverLetterServiceServer exchanges google.protobuf.Struct messages whose
// keys match the HTTP form fields
type CoverLetterServiceServer interface {
	Generate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	HealthCheck(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterCoverLetterServiceServer registers srv on s
func RegisterCoverLetterServiceServer(s grpc.ServiceRegistrar, srv CoverLetterServiceServer) {
	s.RegisterService(&CoverLetterServiceDesc, srv)
}

var CoverLetterServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CoverLetterServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Generate", Handler: generateHandler},
		{MethodName: "HealthCheck", Handler: healthCheckHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "coverletter/v1/coverletter.proto",
}

func generateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoverLetterServiceServer).Generate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Generate"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CoverLetterServiceServer).Generate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func healthCheckHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoverLetterServiceServer).HealthCheck(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/HealthCheck"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CoverLetterServiceServer).HealthCheck(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// Generate implements the Generate gRPC method. Fields: jobTitle, company,
// inventiveness, humor, cv (base64 PDF) and optional cvFilename.
func (s *Server) Generate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	logger := logging.LogWithRequestID(interceptors.RequestIDFromContext(ctx))
	fields := in.GetFields()

	req := &coverletter.Request{
		JobTitle: stringField(fields, "jobTitle"),
		Company:  stringField(fields, "company"),
	}

	var invalid []string
	var ok bool
	if req.Inventiveness, ok = sliderField(fields, "inventiveness", coverletter.DefaultInventiveness); !ok {
		invalid = append(invalid, "inventiveness")
	}
	if req.Humor, ok = sliderField(fields, "humor", coverletter.DefaultHumor); !ok {
		invalid = append(invalid, "humor")
	}

	cv := stringField(fields, "cv")
	logger.Info("Received generation request", map[string]interface{}{
		"job_title": req.JobTitle,
		"company":   req.Company,
		"has_file":  cv != "",
		"transport": "grpc",
	})

	if err := req.Validate(); err != nil {
		return nil, generationStatus(err)
	}
	if len(invalid) > 0 {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %s must be an integer between 0 and 100", strings.Join(invalid, ", "))
	}

	if cv != "" {
		data, err := base64.StdEncoding.DecodeString(cv)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, "cv must be base64-encoded PDF bytes")
		}

		staged, err := s.store.SaveBytes(stringField(fields, "cvFilename"), data)
		switch {
		case errors.Is(err, upload.ErrNotPDF):
			return nil, status.Error(codes.InvalidArgument, "Only PDF files are allowed")
		case errors.Is(err, upload.ErrTooLarge):
			return nil, status.Error(codes.ResourceExhausted, "Uploaded file is too large")
		case err != nil:
			logger.Error("Failed to stage uploaded file", map[string]interface{}{"error": err.Error()})
			return nil, status.Error(codes.Internal, "Failed to process uploaded file")
		}
		defer func() {
			if err := staged.Remove(); err != nil {
				logger.Warn("Failed to remove staged upload", map[string]interface{}{"error": err.Error()})
			}
		}()
		req.CVPath = staged.Path
	}

	result, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, generationStatus(err)
	}

	return structpb.NewStruct(map[string]interface{}{
		"coverLetter":     result.CoverLetter,
		"provider":        result.Provider,
		"model":           result.Model,
		"temperature":     result.Temperature,
		"presencePenalty": result.PresencePenalty,
	})
}

// generationStatus maps generation failures onto gRPC codes; the failure
// category travels as a Struct detail with error, details and type keys
func generationStatus(err error) error {
	var missing *coverletter.MissingFieldsError
	if errors.As(err, &missing) {
		details := make(map[string]interface{}, 2)
		for field, isMissing := range missing.Details() {
			details[field] = isMissing
		}
		return statusWithDetail(status.New(codes.InvalidArgument, missing.Error()), map[string]interface{}{
			"error":   "Missing required fields",
			"details": details,
		})
	}

	message, errType := err.Error(), ""
	var genErr *coverletter.GenerationError
	if errors.As(err, &genErr) {
		message, errType = genErr.Message, genErr.Type
	}

	return statusWithDetail(status.New(codes.Internal, fmt.Sprintf("Failed to generate cover letter: %s", message)), map[string]interface{}{
		"error":   "Failed to generate cover letter",
		"details": message,
		"type":    errType,
	})
}

// statusWithDetail attaches body as a Struct detail, the same shape as the HTTP error response
func statusWithDetail(st *status.Status, body map[string]interface{}) error {
	detail, err := structpb.NewStruct(body)
	if err != nil {
		return st.Err()
	}
	if withDetail, err := st.WithDetails(detail); err == nil {
		return withDetail.Err()
	}
	return st.Err()
}

func stringField(fields map[string]*structpb.Value, name string) string {
	v, ok := fields[name]
	if !ok {
		return ""
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return kind.StringValue
	case *structpb.Value_NumberValue:
		return fmt.Sprintf("%g", kind.NumberValue)
	default:
		return ""
	}
}

// sliderField accepts a number or a numeric string; absent or null selects def
func sliderField(fields map[string]*structpb.Value, name string, def int) (int, bool) {
	v, ok := fields[name]
	if !ok {
		return def, true
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return def, true
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n != math.Trunc(n) || n < 0 || n > 100 {
			return 0, false
		}
		return int(n), true
	case *structpb.Value_StringValue:
		return validation.ParseSlider(kind.StringValue, def)
	default:
		return 0, false
	}
}
