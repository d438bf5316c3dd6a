// Package models - Stub API response types and error handling.
// This file defines the error and health documents returned by the local
// stub notify API. Success payloads reuse Envelope from payload.go.
package models

import (
	"time"
)

// ErrorResponse is the body of every non-2xx stub API response.
type ErrorResponse struct {
	Error     string    `json:"error"`          // Error type (always "error")
	Message   string    `json:"message"`        // Human-readable error description
	Code      string    `json:"code,omitempty"` // Machine-readable error code
	Timestamp time.Time `json:"timestamp"`      // Error occurrence time
}

type HealthCheckResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

// Health status values
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Error codes shared by the stub API and the HTTP client.
const (
	ErrorCodeNotFound       = "NOT_FOUND"       // 404: Resource doesn't exist
	ErrorCodeBadRequest     = "BAD_REQUEST"     // 400: Invalid request format
	ErrorCodeUnauthorized   = "UNAUTHORIZED"    // 401: Missing or wrong credentials
	ErrorCodeInternalError  = "INTERNAL_ERROR"  // 500: Server-side error
	ErrorCodeInvalidRequest = "INVALID_REQUEST" // 405/400: Invalid request data
	ErrorCodeRateLimited    = "RATE_LIMITED"    // 429: Device exceeded its request budget
)

func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     "error",
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
	}
}
