package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/deppfellow/github-action-pr-trigger/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validatable is implemented by request payload types that know how to validate themselves.
//
// Typical pattern:
// - Define a request struct with validator tags (`validate:"required,max=250"`)
// - Implement Validate() error that runs validation.Struct(req)
type Validatable interface {
	Validate() error
}

// FieldDecoder is implemented by payloads that decode themselves field by
// field. BindAndValidate uses it instead of echo's Bind so type errors are
// collected alongside rule violations.
type FieldDecoder interface {
	DecodeFields(fields map[string]json.RawMessage) CustomValidationErrors
}

// CustomValidationError represents a single validation issue for a specific field.
// This is used for validation errors that cannot be expressed via validator tags.
// An empty Field means Message is already a complete sentence.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is a slice of custom validation errors that satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

// ownerRepoRegex matches "owner/repo".
var ownerRepoRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+/[a-zA-Z0-9_.-]+$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// instance returns the shared validator.
//
// Field names are reported by their json tag and the "ownerrepo" tag is registered.
func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})

		_ = validate.RegisterValidation("ownerrepo", func(fl validator.FieldLevel) bool {
			return ownerRepoRegex.MatchString(fl.Field().String())
		})
	})

	return validate
}

// Struct validates v against its `validate` tags with the shared validator.
func Struct(v any) error {
	return instance().Struct(v)
}

// IsOwnerRepo reports whether s has the "owner/repo" shape.
func IsOwnerRepo(s string) bool {
	return ownerRepoRegex.MatchString(s)
}

// BindAndValidate binds request data into payload and validates it.
//
// Flow:
//  1. If payload is a FieldDecoder, the body must be a JSON object and is
//     decoded field by field; otherwise c.Bind is used.
//  2. payload.Validate() applies the tag rules.
//  3. Every violation from both steps is returned together as one 400.
//
// NOTE: payload must be a pointer to a struct.
func BindAndValidate(c echo.Context, payload Validatable) error {
	var decodeErrs CustomValidationErrors

	if decoder, ok := payload.(FieldDecoder); ok {
		fields, err := readObject(c.Request().Body)
		if err != nil {
			// echo's body limit reader fails with its own 413.
			var echoErr *echo.HTTPError
			if errors.As(err, &echoErr) {
				return echoErr
			}
			return errs.NewValidationError([]string{err.Error()})
		}
		decodeErrs = decoder.DecodeFields(fields)
	} else if err := c.Bind(payload); err != nil {
		return errs.NewBadRequestError("Invalid request body", nil)
	}

	details := messages(decodeErrs)

	// A field that failed to decode is left zero-valued, which would also trip
	// `required`. Report only the type error for it.
	skip := make(map[string]bool, len(decodeErrs))
	for _, e := range decodeErrs {
		if e.Field != "" {
			skip[e.Field] = true
		}
	}

	if err := payload.Validate(); err != nil {
		var ruleErrs CustomValidationErrors
		for _, fe := range extractValidationError(err) {
			if fe.Field == "" || !skip[fe.Field] {
				ruleErrs = append(ruleErrs, fe)
			}
		}
		details = append(details, messages(ruleErrs)...)
	}

	if len(details) > 0 {
		return errs.NewValidationError(details)
	}

	return nil
}

// readObject parses the body into its top-level fields.
func readObject(body io.Reader) (map[string]json.RawMessage, error) {
	if body == nil {
		return nil, fmt.Errorf("request body must be a JSON object")
	}

	data, err := io.ReadAll(body)
	if err != nil {
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			return nil, echoErr
		}
		return nil, fmt.Errorf("request body could not be read")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("request body must be a JSON object")
	}

	return fields, nil
}

func messages(custom CustomValidationErrors) []string {
	out := make([]string, 0, len(custom))
	for _, e := range custom {
		if e.Field == "" {
			out = append(out, e.Message)
			continue
		}
		out = append(out, e.Field+" "+e.Message)
	}
	return out
}

// extractValidationError translates validator.ValidationErrors into
// field/message pairs a client can act on.
func extractValidationError(err error) []CustomValidationError {
	var out []CustomValidationError

	if custom, ok := err.(CustomValidationErrors); ok {
		return custom
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []CustomValidationError{{Message: err.Error()}}
	}

	for _, fe := range validationErrors {
		var msg string
		kind := fe.Kind()

		switch fe.Tag() {
		case "required":
			msg = "is required"

		case "min":
			// strings: length, maps: entries, numbers: value
			switch kind {
			case reflect.String:
				msg = fmt.Sprintf("must be at least %s characters", fe.Param())
			case reflect.Map, reflect.Slice:
				if fe.Param() == "1" {
					msg = "must contain at least 1 entry"
				} else {
					msg = fmt.Sprintf("must contain at least %s entries", fe.Param())
				}
			default:
				msg = fmt.Sprintf("must be at least %s", fe.Param())
			}

		case "max":
			switch kind {
			case reflect.String:
				msg = fmt.Sprintf("must not exceed %s characters", fe.Param())
			case reflect.Map, reflect.Slice:
				msg = fmt.Sprintf("must not contain more than %s entries", fe.Param())
			default:
				msg = fmt.Sprintf("must not exceed %s", fe.Param())
			}

		case "ownerrepo":
			msg = `must be in format "owner/repo"`

		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", fe.Param())

		default:
			if fe.Param() != "" {
				msg = fmt.Sprintf("failed %s:%s", fe.Tag(), fe.Param())
			} else {
				msg = fmt.Sprintf("failed %s", fe.Tag())
			}
		}

		out = append(out, CustomValidationError{Field: fe.Field(), Message: msg})
	}

	return out
}
