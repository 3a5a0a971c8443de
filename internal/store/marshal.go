package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SerializationError indicates a value that cannot be stored: cycles,
// functions, channels, or non-finite numbers. Raised to the caller,
// who decides whether to retry or abort.
type SerializationError struct {
	Key     string
	Message string
}

// Error implements the error interface.
func (e *SerializationError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("value for key %q is not JSON-serializable: %s", e.Key, e.Message)
	}
	return fmt.Sprintf("value is not JSON-serializable: %s", e.Message)
}

// IsSerializationError reports whether err is (or wraps) a
// SerializationError.
func IsSerializationError(err error) bool {
	var se *SerializationError
	return errors.As(err, &se)
}

// marshalValue serializes a stored value to its JSON text form.
// encoding/json already rejects cycles, non-finite numbers, and
// unsupported types; those failures become SerializationError.
func marshalValue(key string, value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		var typeErr *json.UnsupportedTypeError
		var valueErr *json.UnsupportedValueError
		if errors.As(err, &typeErr) || errors.As(err, &valueErr) {
			return "", &SerializationError{Key: key, Message: err.Error()}
		}
		var marshalerErr *json.MarshalerError
		if errors.As(err, &marshalerErr) {
			return "", &SerializationError{Key: key, Message: err.Error()}
		}
		return "", fmt.Errorf("marshal value for key %q: %w", key, err)
	}
	return string(data), nil
}

// unmarshalValue decodes a stored value. Decoding allocates fresh
// structures, so callers get a detached copy on every read.
func unmarshalValue(key, data string) (any, error) {
	var value any
	if err := json.Unmarshal([]byte(data), &value); err != nil {
		return nil, fmt.Errorf("unmarshal value for key %q: %w", key, err)
	}
	return value, nil
}
