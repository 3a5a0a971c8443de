package props

import (
	"errors"
	"fmt"
)

// ResolutionErrorCode categorizes prop resolution failures.
type ResolutionErrorCode string

const (
	// ErrCodeMissingRequired indicates a required prop lacks a value.
	ErrCodeMissingRequired ResolutionErrorCode = "MISSING_REQUIRED"

	// ErrCodeInvalidDefault indicates a default on a non-optional prop.
	ErrCodeInvalidDefault ResolutionErrorCode = "INVALID_DEFAULT"

	// ErrCodeBadReference indicates a propDefinitionRef naming a
	// non-existent app prop or definition.
	ErrCodeBadReference ResolutionErrorCode = "BAD_REFERENCE"

	// ErrCodeForwardReference indicates input values referencing a
	// prop declared later in the schema.
	ErrCodeForwardReference ResolutionErrorCode = "FORWARD_REFERENCE"

	// ErrCodeTypeMismatch indicates a supplied value implausible for
	// the prop's declared type.
	ErrCodeTypeMismatch ResolutionErrorCode = "TYPE_MISMATCH"

	// ErrCodeInputValues indicates an inputValues function failure.
	ErrCodeInputValues ResolutionErrorCode = "INPUT_VALUES"
)

// ResolutionError is fatal to activation: the component never reaches
// Active when resolution fails.
type ResolutionError struct {
	Code    ResolutionErrorCode
	Prop    string
	Message string
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	if e.Prop != "" {
		return fmt.Sprintf("%s: prop %q: %s", e.Code, e.Prop, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsResolutionError reports whether err is (or wraps) a ResolutionError.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}

// IsForwardReference reports whether err is a forward-reference
// definition error.
func IsForwardReference(err error) bool {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Code == ErrCodeForwardReference
	}
	return false
}

// OptionsProviderError wraps a failure inside a dynamic options
// provider. Surfaced to the configuring collaborator; never affects an
// already-active instance.
type OptionsProviderError struct {
	Prop string
	Page int
	Err  error
}

// Error implements the error interface.
func (e *OptionsProviderError) Error() string {
	return fmt.Sprintf("options provider for prop %q failed on page %d: %v", e.Prop, e.Page, e.Err)
}

// Unwrap returns the underlying provider error.
func (e *OptionsProviderError) Unwrap() error {
	return e.Err
}
