package component

import (
	"context"
	"log/slog"

	"github.com/spindle-dev/spindle/internal/trigger"
)

// EmitOptions carries per-emission metadata.
//
// ID is required under every dedupe strategy except none; it must be a
// string or a numeric value. Timestamp is unix seconds; nil means
// unset, in which case the emission keeps its call-order position.
// Zero is a real instant, not absence. Summary is display-only and
// never affects dedupe or ordering.
type EmitOptions struct {
	ID        any
	Summary   string
	Timestamp *int64
}

// Unix wraps a unix-seconds value for EmitOptions.Timestamp.
func Unix(ts int64) *int64 {
	return &ts
}

// Context is the execution context bound into run, hooks, and methods.
//
// There is no ambient receiver: everything user code may touch is
// reachable through this interface. Capability accessors return false
// when the corresponding prop is not declared (or, for HTTP, when the
// current invocation is not an HTTP event).
type Context interface {
	// Context returns the invocation's cancellation context.
	Context() context.Context

	// Prop returns the resolved value of a declared prop.
	Prop(name string) any

	// Props returns a copy of all resolved prop values.
	Props() map[string]any

	// CallMethod invokes a method from the definition's method table.
	CallMethod(name string, args map[string]any) (any, error)

	// Emit publishes an event, subject to ordering and dedupe.
	Emit(data any, opts EmitOptions) error

	// HTTP returns the HTTP capability for the current invocation.
	HTTP() (HTTPCapability, bool)

	// KV returns the instance-scoped key-value capability.
	KV() (KVCapability, bool)

	// App returns the capability object for a declared App prop.
	App(name string) (AppCapability, bool)

	// Logger returns the invocation-scoped logger.
	Logger() *slog.Logger
}

// HTTPCapability is the capability object for an Http interface prop:
// it is both the resolved value (the endpoint) and the only path to
// respond().
type HTTPCapability interface {
	// Endpoint returns the stable endpoint identifier bound to the
	// component instance.
	Endpoint() string

	// Respond issues the response for the current HTTP event.
	// Only the first call per event is honored.
	Respond(resp trigger.Response) error
}

// KVCapability is the capability object for a KeyValueStore service
// prop. Scope is exclusively the owning component instance.
type KVCapability interface {
	// Get returns the value for key, or ok=false if unset.
	// Values are returned by value: mutating the result never
	// affects the stored copy.
	Get(key string) (value any, ok bool, err error)

	// Set stores a JSON-serializable value under key.
	Set(key string, value any) error
}

// AppCapability exposes a resolved App prop: its slug, externally
// supplied auth, resolved input values, and bound methods.
type AppCapability interface {
	Slug() string
	Auth() map[string]any
	CallMethod(name string, args map[string]any) (any, error)
}
