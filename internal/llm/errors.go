package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrInvalidResponse means the provider answered with an unexpected shape
	ErrInvalidResponse = errors.New("invalid response from completion service")

	// ErrProviderUnavailable means no provider could be created, usually missing credentials
	ErrProviderUnavailable = errors.New("completion provider unavailable")
)

// Upstream failure categories, aligned with OpenAI's error "type" values
const (
	TypeAuthentication      = "authentication_error"
	TypePermission          = "permission_error"
	TypeRateLimit           = "rate_limit_error"
	TypeInvalidRequest      = "invalid_request_error"
	TypeAPI                 = "api_error"
	TypeTimeout             = "timeout"
	TypeNetwork             = "network_error"
	TypeProviderUnavailable = "provider_unavailable"
	TypeInvalidResponse     = "invalid_response"
)

// UpstreamError is a completion failure with a category for diagnostics
type UpstreamError struct {
	Provider   string
	Type       string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s (status %d): %s", e.Provider, e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Provider, e.Type, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// TypeForStatus maps an HTTP status from a provider onto a category
func TypeForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return TypeAuthentication
	case status == http.StatusForbidden:
		return TypePermission
	case status == http.StatusTooManyRequests:
		return TypeRateLimit
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return TypeTimeout
	case status >= 400 && status < 500:
		return TypeInvalidRequest
	default:
		return TypeAPI
	}
}

// ClassifyTransportError wraps a non-API error (deadline, dial failure) as an UpstreamError
func ClassifyTransportError(provider string, err error) *UpstreamError {
	upstream := &UpstreamError{Provider: provider, Type: TypeAPI, Message: err.Error(), Err: err}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		upstream.Type = TypeTimeout
		upstream.Message = "completion request timed out"
	case errors.Is(err, context.Canceled):
		upstream.Type = TypeTimeout
		upstream.Message = "completion request was cancelled"
	case errors.As(err, &netErr):
		upstream.Type = TypeNetwork
		if netErr.Timeout() {
			upstream.Type = TypeTimeout
		}
	}

	return upstream
}

// ErrorType returns the category of err for response details
func ErrorType(err error) string {
	var upstream *UpstreamError
	switch {
	case errors.Is(err, ErrInvalidResponse):
		return TypeInvalidResponse
	case errors.As(err, &upstream):
		return upstream.Type
	case errors.Is(err, ErrProviderUnavailable):
		return TypeProviderUnavailable
	default:
		return TypeAPI
	}
}

// ErrorMessage returns the most useful human message carried by err
func ErrorMessage(err error) string {
	var upstream *UpstreamError
	if errors.As(err, &upstream) && upstream.Message != "" {
		return upstream.Message
	}
	return err.Error()
}
