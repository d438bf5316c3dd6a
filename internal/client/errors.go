package client

import (
	"fmt"
	"net/http"
)

// APIError is returned for non-2xx responses from the notify API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("notify api: %d %s: %v", e.StatusCode, msg, e.Err)
	}
	return fmt.Sprintf("notify api: %d %s", e.StatusCode, msg)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NotFound reports whether the API answered 404.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}
