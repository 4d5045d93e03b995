package providers

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when a provider has no credentials.
	ErrNotConfigured = errors.New("provider not configured")
	// ErrEmptyResponse is returned when a provider answers without content.
	ErrEmptyResponse = errors.New("empty response")
	// ErrBlocked is returned when a provider refuses to answer, e.g. a safety filter.
	ErrBlocked = errors.New("response blocked")
)

// APIError is a provider error response.
// It exposes the HTTP status and nested error code so retry classification
// does not depend on message text.
type APIError struct {
	Provider   string `json:"provider"`
	StatusCode int    `json:"status_code"`
	Code       int    `json:"code,omitempty"`
	Status     string `json:"status,omitempty"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s error (status %d %s): %s", e.Provider, e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// HTTPStatus returns the HTTP status of the failed response.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// ErrorCode returns the nested error code reported in the response body.
func (e *APIError) ErrorCode() int {
	return e.Code
}
