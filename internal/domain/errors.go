// errors.go - Error taxonomy shared by the analyzers and the orchestrator

package domain

import (
	"errors"
	"fmt"
)

// ErrNotApplicable is returned when the primary analyzer declines a request
// (no image under an image-required policy, or no configured capability).
// It is a routing signal, not a failure.
var ErrNotApplicable = errors.New("primary analysis not applicable")

// ServiceErrorKind classifies failures of the external completion capability.
type ServiceErrorKind string

const (
	ServiceUnavailable ServiceErrorKind = "unavailable"
	ServiceTimeout     ServiceErrorKind = "timeout"
	ServiceRateLimited ServiceErrorKind = "rate_limited"
)

// ExternalServiceError is a transport or availability failure of the external capability.
type ExternalServiceError struct {
	Kind       ServiceErrorKind
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ExternalServiceError) Error() string {
	msg := fmt.Sprintf("external service %s", e.Kind)
	if e.Provider != "" {
		msg += " (" + e.Provider + ")"
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" status %d", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// ValidationKind classifies rejected model output.
type ValidationKind string

const (
	MalformedOutput  ValidationKind = "malformed_output"
	UnknownEnumValue ValidationKind = "unknown_enum_value"
	MissingField     ValidationKind = "missing_field"
)

// ValidationError reports model output that failed the response contract.
type ValidationError struct {
	Kind    ValidationKind
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Value != "":
		return fmt.Sprintf("%s: field %s has value %q", e.Kind, e.Field, e.Value)
	case e.Field != "":
		return fmt.Sprintf("%s: field %s", e.Kind, e.Field)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return string(e.Kind)
}

// IsExternalServiceError reports whether err wraps an ExternalServiceError.
func IsExternalServiceError(err error) bool {
	var svcErr *ExternalServiceError
	return errors.As(err, &svcErr)
}

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}
