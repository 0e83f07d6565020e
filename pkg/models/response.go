package models

import "time"

// GenerateResponse is the success body of POST /api/generate
type GenerateResponse struct {
	CoverLetter string `json:"coverLetter"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
	Type    string      `json:"type,omitempty"`
}

// MessageResponse is a plain acknowledgement, used by the connectivity probe
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// StatusResponse adds per-endpoint request metrics to the health payload
type StatusResponse struct {
	HealthResponse
	Provider  string      `json:"provider"`
	Endpoints interface{} `json:"endpoints"`
}
