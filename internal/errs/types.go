package errs

import "strings"

// HTTPError is the main custom error type for API responses.
//
// It implements the `error` interface via Error().
// It is serialized inside an ErrorResponse envelope, so clients always see:
//
//	{ "error": { "code": "...", "message": "...", "details": ... } }
//
// Fields:
//   - Code: machine-friendly error code (e.g. "BAD_REQUEST").
//   - Message: human-friendly message. For server-side failures it is fixed text.
//   - Details: optional extra information ([]string for validation, string for dispatch failures).
//   - Path: the request path, only set for route-not-found errors.
//   - Stack: stack trace, only set outside production by the global error handler.
//   - Status: HTTP status code, never serialized.
type HTTPError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	Path    string `json:"path,omitempty"`
	Stack   string `json:"stack,omitempty"`
	Status  int    `json:"-"`
}

// ErrorResponse is the JSON envelope every error response is written in.
type ErrorResponse struct {
	Error *HTTPError `json:"error"`
}

// Error makes *HTTPError satisfy the built-in `error` interface.
//
// Here it returns the Message, so printing/logging the error shows the message.
func (e *HTTPError) Error() string {
	return e.Message
}

// Is customizes how errors.Is(...) treats HTTPError.
//
// Two HTTPErrors match when they carry the same Code. This lets callers write
//
//	errors.Is(err, errs.ErrTargetNotFound)
//
// against the sentinel templates declared in http.go.
func (e *HTTPError) Is(target error) bool {
	t, ok := target.(*HTTPError)
	if !ok {
		return false
	}

	return t.Code == e.Code
}

// WithDetails returns a *copy* of this HTTPError with Details replaced.
func (e *HTTPError) WithDetails(details any) *HTTPError {
	cp := *e
	cp.Details = details
	return &cp
}

// WithMessage returns a *copy* of this HTTPError with Message replaced.
//
// Useful if you have a base error template and want to customize message
// without mutating the original.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	cp := *e
	cp.Message = message
	return &cp
}

// MakeUpperCaseWithUnderscores converts a string into an UPPER_CASE_WITH_UNDERSCORES format.
//
// Example:
//
//	"Bad Request" -> "BAD_REQUEST"
//
// Used to create stable machine-readable error codes from HTTP status text.
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
