package runtime

import (
	"errors"
	"fmt"
)

// LifecycleError is returned when an operation is attempted in the
// wrong lifecycle state: run before activate, run after deactivate, a
// double transition. Fatal per-call; the invocation is rejected with
// no emissions and no store mutations.
type LifecycleError struct {
	Instance string
	Op       string
	State    State
}

// Error implements the error interface.
func (e *LifecycleError) Error() string {
	return fmt.Sprintf("INVALID_LIFECYCLE_STATE: %s not allowed while %s (instance=%s)", e.Op, e.State, e.Instance)
}

// IsInvalidLifecycle reports whether err is (or wraps) a
// LifecycleError.
func IsInvalidLifecycle(err error) bool {
	var le *LifecycleError
	return errors.As(err, &le)
}

// MissingIDError is returned by Emit when a dedupe strategy other than
// none is configured and the emission carries no id. The specific emit
// call is rejected; the rest of run proceeds.
type MissingIDError struct {
	Instance string
	Strategy string
}

// Error implements the error interface.
func (e *MissingIDError) Error() string {
	return fmt.Sprintf("MISSING_ID_FOR_DEDUPE: dedupe strategy %q requires every emission to carry an id (instance=%s)", e.Strategy, e.Instance)
}

// IsMissingID reports whether err is (or wraps) a MissingIDError.
func IsMissingID(err error) bool {
	var me *MissingIDError
	return errors.As(err, &me)
}

// HookError wraps an activate/deactivate hook failure. The transition
// is aborted and the instance remains in its prior state.
type HookError struct {
	Instance string
	Hook     string
	Err      error
}

// Error implements the error interface.
func (e *HookError) Error() string {
	return fmt.Sprintf("%s hook failed for instance %s: %v", e.Hook, e.Instance, e.Err)
}

// Unwrap returns the underlying hook error.
func (e *HookError) Unwrap() error {
	return e.Err
}
