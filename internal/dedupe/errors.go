package dedupe

import (
	"errors"
	"fmt"
)

// TypeError indicates an emission id unusable under the configured
// strategy (non-numeric under greatest, or not a string/number at
// all). The specific emission is rejected; the rest of the batch is
// unaffected.
type TypeError struct {
	Strategy string
	ID       any
	Message  string
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	return fmt.Sprintf("dedupe %s: id %v (%T): %s", e.Strategy, e.ID, e.ID, e.Message)
}

// IsTypeError reports whether err is (or wraps) a dedupe TypeError.
func IsTypeError(err error) bool {
	var te *TypeError
	return errors.As(err, &te)
}
