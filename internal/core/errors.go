package core

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorKind classifies a fetch failure so the UI can render a distinct,
// actionable message for each case.
type ErrorKind string

const (
	// ErrorKindRateLimited indicates the local limiter denied the request,
	// or the server answered 429.
	ErrorKindRateLimited ErrorKind = "rate_limited"
	// ErrorKindTimeout indicates the transport timed out.
	ErrorKindTimeout ErrorKind = "timeout"
	// ErrorKindConnection indicates the connection could not be established.
	ErrorKindConnection ErrorKind = "connection_error"
	// ErrorKindServerError indicates an upstream 5xx other than 503.
	ErrorKindServerError ErrorKind = "server_error"
	// ErrorKindServiceUnavailable indicates an upstream 503.
	ErrorKindServiceUnavailable ErrorKind = "service_unavailable"
	// ErrorKindNotFound indicates the API endpoint answered 404.
	ErrorKindNotFound ErrorKind = "not_found"
	// ErrorKindClientError indicates any other 4xx; the raw body is preserved.
	ErrorKindClientError ErrorKind = "client_error"
	// ErrorKindInvalidResponse indicates a non-JSON or malformed response body.
	ErrorKindInvalidResponse ErrorKind = "invalid_response"
	// ErrorKindUnexpected covers everything else.
	ErrorKindUnexpected ErrorKind = "unexpected_error"
)

// APIError is the single error type crossing the fetch/cache core boundary.
type APIError struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code,omitempty"`
	// Body holds the raw response body for client errors.
	Body string `json:"body,omitempty"`
	// Wait is the suggested wait before retrying a rate-limited request.
	Wait time.Duration `json:"-"`
	// Err is the underlying cause, kept for logs but not exposed to clients.
	Err error `json:"-"`
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the status code a frontend should answer with when
// relaying this error. Upstream failures map to gateway-style codes rather
// than echoing the remote status.
func (e *APIError) HTTPStatusCode() int {
	switch e.Kind {
	case ErrorKindRateLimited:
		return http.StatusTooManyRequests
	case ErrorKindTimeout:
		return http.StatusGatewayTimeout
	case ErrorKindConnection, ErrorKindServerError, ErrorKindNotFound,
		ErrorKindClientError, ErrorKindInvalidResponse:
		return http.StatusBadGateway
	case ErrorKindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ToJSON converts the error to a JSON-compatible map.
func (e *APIError) ToJSON() map[string]interface{} {
	body := map[string]interface{}{
		"kind":    e.Kind,
		"message": e.Message,
	}
	if e.Wait > 0 {
		body["wait_seconds"] = e.Wait.Seconds()
	}
	return map[string]interface{}{"error": body}
}

// AsAPIError unwraps err into an *APIError, wrapping unknown errors as
// unexpected so callers always get a classified error.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewUnexpectedError(err)
}

// NewRateLimitedError reports a local limiter denial with the suggested wait.
func NewRateLimitedError(wait time.Duration) *APIError {
	return &APIError{
		Kind:    ErrorKindRateLimited,
		Message: fmt.Sprintf("rate limit exceeded, please wait %.1f seconds", wait.Seconds()),
		Wait:    wait,
	}
}

// NewServerRateLimitedError reports a 429 from the remote API.
func NewServerRateLimitedError() *APIError {
	return &APIError{
		Kind:       ErrorKindRateLimited,
		Message:    "rate limited by server",
		StatusCode: http.StatusTooManyRequests,
	}
}

// NewTimeoutError reports a transport timeout.
func NewTimeoutError(timeout time.Duration, err error) *APIError {
	return &APIError{
		Kind:    ErrorKindTimeout,
		Message: fmt.Sprintf("request timeout after %s", timeout),
		Err:     err,
	}
}

// NewConnectionError reports a failure to reach the remote API at all.
func NewConnectionError(err error) *APIError {
	return &APIError{
		Kind:    ErrorKindConnection,
		Message: "network connection error",
		Err:     err,
	}
}

// NewServerError reports an upstream 5xx.
func NewServerError(statusCode int) *APIError {
	return &APIError{
		Kind:       ErrorKindServerError,
		Message:    fmt.Sprintf("server error: %d", statusCode),
		StatusCode: statusCode,
	}
}

// NewServiceUnavailableError reports an upstream 503.
func NewServiceUnavailableError() *APIError {
	return &APIError{
		Kind:       ErrorKindServiceUnavailable,
		Message:    "service temporarily unavailable",
		StatusCode: http.StatusServiceUnavailable,
	}
}

// NewNotFoundError reports a 404 from the API endpoint.
func NewNotFoundError() *APIError {
	return &APIError{
		Kind:       ErrorKindNotFound,
		Message:    "API endpoint not found",
		StatusCode: http.StatusNotFound,
	}
}

// NewClientError reports a 4xx other than 404/429, preserving the raw body.
func NewClientError(statusCode int, body string) *APIError {
	return &APIError{
		Kind:       ErrorKindClientError,
		Message:    fmt.Sprintf("client error: %d", statusCode),
		StatusCode: statusCode,
		Body:       body,
	}
}

// NewInvalidResponseError reports a response body that could not be consumed.
func NewInvalidResponseError(detail string, err error) *APIError {
	return &APIError{
		Kind:    ErrorKindInvalidResponse,
		Message: detail,
		Err:     err,
	}
}

// NewUnexpectedError wraps an unclassified failure.
func NewUnexpectedError(err error) *APIError {
	msg := "unexpected error"
	if err != nil {
		msg = "unexpected error: " + err.Error()
	}
	return &APIError{
		Kind:    ErrorKindUnexpected,
		Message: msg,
		Err:     err,
	}
}

// FromStatus maps a non-2xx HTTP status onto the error taxonomy.
func FromStatus(statusCode int, body string) *APIError {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return NewServerRateLimitedError()
	case statusCode == http.StatusServiceUnavailable:
		return NewServiceUnavailableError()
	case statusCode >= 500:
		return NewServerError(statusCode)
	case statusCode == http.StatusNotFound:
		return NewNotFoundError()
	case statusCode >= 400:
		return NewClientError(statusCode, body)
	default:
		return NewUnexpectedError(fmt.Errorf("unexpected status %d", statusCode))
	}
}
