package errs

import (
	"net/http"
	"strings"
)

// Machine-readable codes for the relay's own failure classes.
// Generic HTTP classes derive their code from the status text instead.
const (
	CodeAuthConfiguration = "AUTH_CONFIGURATION_ERROR"
	CodeTargetNotFound    = "TARGET_NOT_FOUND"
	CodeDispatchFailed    = "DISPATCH_FAILED"
	CodeConfiguration     = "CONFIGURATION_ERROR"
)

// Fixed client-facing messages. The remote failure classes never echo the
// underlying error (which could include request URLs or headers).
const (
	MessageInvalidInput      = "Invalid input"
	MessageAuthConfiguration = "GitHub authentication failed. Check GITHUB_TOKEN configuration."
	MessageTargetNotFound    = "GitHub repository not found. Check GITHUB_REPO configuration."
	MessageDispatchFailed    = "Failed to trigger workflow"
	MessageRouteNotFound     = "Endpoint not found"
	MessageTooManyRequests   = "Too many requests from this IP, please try again later."
	MessageInternal          = "Internal server error"
)

// Sentinel templates, usable with errors.Is.
var (
	ErrAuthConfiguration = NewAuthConfigurationError()
	ErrTargetNotFound    = NewTargetNotFoundError()
	ErrDispatchFailed    = &HTTPError{Code: CodeDispatchFailed, Message: MessageDispatchFailed, Status: http.StatusInternalServerError}
	ErrConfiguration     = &HTTPError{Code: CodeConfiguration, Status: http.StatusInternalServerError}
)

func statusCode(status int) string {
	// http.StatusText(400) => "Bad Request" => "BAD_REQUEST"
	return MakeUpperCaseWithUnderscores(http.StatusText(status))
}

// NewBadRequestError creates a 400 Bad Request HTTPError.
//
// details is optional; pass nil when the message says it all.
func NewBadRequestError(message string, details []string) *HTTPError {
	e := &HTTPError{
		Code:    statusCode(http.StatusBadRequest),
		Message: message,
		Status:  http.StatusBadRequest,
	}

	if len(details) > 0 {
		e.Details = details
	}

	return e
}

// NewValidationError creates the 400 returned when a request body breaks the
// input schema. Every violation is listed in details.
func NewValidationError(details []string) *HTTPError {
	return NewBadRequestError(MessageInvalidInput, details)
}

// NewNotFoundError creates a 404 Not Found HTTPError.
func NewNotFoundError(message string) *HTTPError {
	return &HTTPError{
		Code:    statusCode(http.StatusNotFound),
		Message: message,
		Status:  http.StatusNotFound,
	}
}

// NewRouteNotFoundError creates the 404 returned for unmatched paths.
// The requested path is echoed back so clients can spot typos.
func NewRouteNotFoundError(path string) *HTTPError {
	e := NewNotFoundError(MessageRouteNotFound)
	e.Path = path
	return e
}

// NewTooManyRequestsError creates a 429 Too Many Requests HTTPError.
func NewTooManyRequestsError() *HTTPError {
	return &HTTPError{
		Code:    statusCode(http.StatusTooManyRequests),
		Message: MessageTooManyRequests,
		Status:  http.StatusTooManyRequests,
	}
}

// NewInternalServerError creates a 500 Internal Server Error HTTPError.
//
// Note:
//   - message is generic, not the real internal error message.
//   - the global error handler may attach a stack outside production.
func NewInternalServerError() *HTTPError {
	return &HTTPError{
		Code:    statusCode(http.StatusInternalServerError),
		Message: MessageInternal,
		Status:  http.StatusInternalServerError,
	}
}

// NewAuthConfigurationError is returned when the remote platform rejected the
// configured token (remote 401). Surfaced as 500: the caller cannot fix it.
func NewAuthConfigurationError() *HTTPError {
	return &HTTPError{
		Code:    CodeAuthConfiguration,
		Message: MessageAuthConfiguration,
		Status:  http.StatusInternalServerError,
	}
}

// NewTargetNotFoundError is returned when the remote platform answered 404 for
// the configured control repository.
func NewTargetNotFoundError() *HTTPError {
	return &HTTPError{
		Code:    CodeTargetNotFound,
		Message: MessageTargetNotFound,
		Status:  http.StatusInternalServerError,
	}
}

// NewDispatchError is the generic outbound failure. The underlying error
// message travels in details; this is the only class that carries it.
func NewDispatchError(cause error) *HTTPError {
	e := ErrDispatchFailed.WithDetails(nil)
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// NewConfigurationError reports that the service cannot dispatch because
// required configuration is missing or malformed. Only variable names are
// listed, never their values.
func NewConfigurationError(problems []string) *HTTPError {
	return &HTTPError{
		Code:    CodeConfiguration,
		Message: "Service configuration incomplete: " + strings.Join(problems, ", "),
		Details: problems,
		Status:  http.StatusInternalServerError,
	}
}

// FromStatus converts an arbitrary status code (e.g. from an echo error)
// into an HTTPError using the standard status text.
func FromStatus(status int, message string) *HTTPError {
	if message == "" {
		message = http.StatusText(status)
	}

	return &HTTPError{
		Code:    statusCode(status),
		Message: message,
		Status:  status,
	}
}
