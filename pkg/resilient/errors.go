package resilient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// CodeUnknown is used when a non-2xx body carries no structured error payload.
const CodeUnknown = "UNKNOWN_ERROR"

// APIError is returned for a non-2xx response.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Body       []byte `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error [%s]: %s", e.Code, e.Message)
}

// Raw returns the response body as text, or the message when the body was empty.
func (e *APIError) Raw() string {
	if len(e.Body) > 0 {
		return strings.TrimSpace(string(e.Body))
	}
	return e.Message
}

// NetworkError wraps a transport-level failure (dial, TLS, connection reset, ...).
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap returns the wrapped error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// AbortError reports an attempt cancelled because it outlived the per-attempt timeout.
type AbortError struct {
	URL   string
	After time.Duration
	Err   error
}

// Error implements the error interface.
func (e *AbortError) Error() string {
	return fmt.Sprintf("request to %s aborted after %s", e.URL, e.After)
}

// Unwrap returns the wrapped error.
func (e *AbortError) Unwrap() error {
	return e.Err
}

// Timeout marks the error as a timeout, matching the net.Error convention.
func (e *AbortError) Timeout() bool {
	return true
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap returns the last attempt's error.
func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// parseAPIError builds an APIError from a non-2xx response. The body is read as
// {code, message} first, then as the Google {error: {status, message}} envelope.
func parseAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Body:       body,
	}

	var payload struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message

		if apiErr.Code == "" && apiErr.Message == "" && len(payload.Error) > 0 {
			var nested struct {
				Status  string `json:"status"`
				Message string `json:"message"`
			}
			if json.Unmarshal(payload.Error, &nested) == nil {
				apiErr.Code = nested.Status
				apiErr.Message = nested.Message
			}
		}
	}

	if apiErr.Code == "" && apiErr.Message == "" {
		apiErr.Code = CodeUnknown
		apiErr.Message = resp.Status
		if apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
	}
	if apiErr.Code == "" {
		apiErr.Code = CodeUnknown
	}

	return apiErr
}
