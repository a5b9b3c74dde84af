// Package apierr defines the error taxonomy shared by the upstream
// executor, the domain client and both front doors, plus the helpers
// that map those errors onto HTTP responses.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors raised by the endpoint registry and the upstream
// executor. Handlers match these with errors.Is.
var (
	// ErrUnknownEndpoint means a logical operation name is not registered.
	ErrUnknownEndpoint = errors.New("unknown endpoint")

	// ErrMissingParameter means a path template placeholder had no value.
	ErrMissingParameter = errors.New("missing endpoint parameter")

	// ErrUnauthorized maps to HTTP 401 from the upstream API.
	ErrUnauthorized = errors.New("unauthorized, please check your authentication token")

	// ErrUpstreamTimeout means the upstream call exceeded the request timeout.
	ErrUpstreamTimeout = errors.New("upstream request timed out, please try again")

	// ErrEmptyResponse means the upstream returned nothing where a payload
	// was required.
	ErrEmptyResponse = errors.New("empty response from upstream")

	// ErrInvalidResponse means the upstream returned a 2xx body that is not
	// valid JSON.
	ErrInvalidResponse = errors.New("invalid response from upstream")

	// ErrInvalidJSONString means a string payload could not be re-parsed
	// as JSON during normalization.
	ErrInvalidJSONString = errors.New("invalid JSON string response from upstream")
)

// UpstreamError carries a non-2xx upstream status together with the
// message extracted from the upstream error body.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream error: %s", http.StatusText(e.Status))
	}
	return e.Message
}

// NewUpstreamError builds an UpstreamError, falling back to the generic
// HTTP status text when no message was extracted from the body. A zero
// status (error reported inside a 2xx body) defaults to 500.
func NewUpstreamError(status int, message string) *UpstreamError {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &UpstreamError{Status: status, Message: message}
}

// InvalidTypesError reports type keys rejected by the type validator,
// enumerating both the offending and the accepted identifiers.
type InvalidTypesError struct {
	Invalid []string
	Valid   []string
}

func (e *InvalidTypesError) Error() string {
	return fmt.Sprintf("invalid type(s): %s. Valid types are: %s",
		strings.Join(e.Invalid, ", "), strings.Join(e.Valid, ", "))
}

// StatusCode maps an error from the taxonomy to the HTTP status the REST
// front door should respond with. UpstreamError keeps the upstream's own
// status; anything unrecognized is a 500.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Status
	}
	var invalidTypes *InvalidTypesError
	if errors.As(err, &invalidTypes) {
		return http.StatusBadRequest
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrEmptyResponse),
		errors.Is(err, ErrInvalidResponse),
		errors.Is(err, ErrInvalidJSONString):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ErrorDetail is the message part of the REST error envelope.
type ErrorDetail struct {
	Message string `json:"message"`
}

// ErrorResponse is the JSON error envelope returned by the REST front
// door, matching the upstream API's own error shape.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ToAPIError wraps a message into the REST error envelope.
func ToAPIError(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Message: message}}
}
