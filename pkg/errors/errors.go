// Package errors defines the error types returned by the Twitter API wrapper.
//
// Every failure surfaced by the client is one of:
//
//   - *NetworkError: the transport failed before a response was received
//   - *HTTPStatusError: the server answered with a status code >= 400
//   - *ProtocolError: the OAuth exchange could not proceed (missing verifier, malformed token response)
//   - *DecodingError: a JSON or query-string payload could not be parsed
//   - *ConfigError and *StateError: misuse of the client itself
//
// Use errors.As from the standard library to inspect them.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingVerifier is wrapped by the ProtocolError returned when an access
	// token exchange is attempted with a request token that has no verifier.
	ErrMissingVerifier = errors.New("missing verifier")
	// ErrMissingToken is wrapped by the ProtocolError returned when a token
	// response lacks oauth_token or oauth_token_secret.
	ErrMissingToken = errors.New("missing token")
)

// joinParts joins error message parts with the specified separator.
func joinParts(parts []string, sep string) string {
	return strings.Join(parts, sep)
}

// ConfigError indicates a problem with the client configuration.
type ConfigError struct {
	// Field contains the name of the configuration field that caused the error
	Field string
	// Message contains the detailed error message
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// StateError indicates an operation was attempted when the client or an
// authorization flow is not in a state that allows it.
type StateError struct {
	// Operation is the name of the operation that was attempted
	Operation string
	// Message contains the detailed error message
	Message string
}

func (e *StateError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("state error during %s: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("state error: %s", e.Message)
}

// NetworkError indicates a transport failure. The core never retries it.
type NetworkError struct {
	// Operation is the HTTP method of the failed request
	Operation string
	// URL is the URL that was being accessed
	URL string
	// Err contains the underlying transport error
	Err error
}

func (e *NetworkError) Error() string {
	msg := "unknown failure"
	if e.Err != nil {
		msg = e.Err.Error()
	}

	if e.Operation != "" && e.URL != "" {
		return fmt.Sprintf("network error during %s %s: %s", e.Operation, e.URL, msg)
	}
	return fmt.Sprintf("network error: %s", msg)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPStatusError represents a response whose status code is 400 or above.
type HTTPStatusError struct {
	// StatusCode is the HTTP status code
	StatusCode int
	// Reason is the reason phrase for StatusCode, or "HTTP Status {code}" when
	// the code is not a known one.
	Reason string
	// Body contains the raw response body for diagnostics
	Body string
	// ErrorCode is the platform error code from {"errors":[{"code":...}]}, or 0
	ErrorCode int
	// Message is the platform error message, if the body carried one
	Message string
}

func (e *HTTPStatusError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("HTTP Status %d", e.StatusCode))

	if e.Reason != "" && e.Reason != parts[0] {
		parts = append(parts, e.Reason)
	}
	if e.ErrorCode != 0 {
		parts = append(parts, fmt.Sprintf("code %d", e.ErrorCode))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Body != "" {
		parts = append(parts, fmt.Sprintf("response: %q", e.Body))
	}

	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + ": " + joinParts(parts[1:], ", ")
}

// ProtocolError indicates the OAuth handshake could not proceed.
type ProtocolError struct {
	// Message contains the detailed error message
	Message string
	// Body contains the raw response body (if available)
	Body string
	// Err contains the underlying error if available
	Err error
}

func (e *ProtocolError) Error() string {
	var parts []string
	parts = append(parts, "oauth protocol error")

	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Body != "" {
		parts = append(parts, fmt.Sprintf("body: %q", e.Body))
	}
	if e.Err != nil && (e.Message == "" || e.Err.Error() != e.Message) {
		parts = append(parts, fmt.Sprintf("err: %v", e.Err))
	}

	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + ": " + joinParts(parts[1:], ", ")
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// DecodingError indicates a response (or a single stream chunk) could not be
// parsed.
type DecodingError struct {
	// Operation is the name of the operation where parsing failed
	Operation string
	// Data holds the offending payload, truncated
	Data string
	// Err contains the underlying error if available
	Err error
}

const maxDecodingData = 256

// NewDecodingError builds a DecodingError, truncating data for readability.
func NewDecodingError(operation string, data []byte, err error) *DecodingError {
	if len(data) > maxDecodingData {
		data = data[:maxDecodingData]
	}
	return &DecodingError{Operation: operation, Data: string(data), Err: err}
}

func (e *DecodingError) Error() string {
	msg := "malformed payload"
	if e.Err != nil {
		msg = e.Err.Error()
	}

	if e.Operation != "" {
		return fmt.Sprintf("decoding error during %s: %s", e.Operation, msg)
	}
	return fmt.Sprintf("decoding error: %s", msg)
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}
