package runtime

import "context"

// Event is one emission that survived ordering and dedupe, handed to
// the external events sink.
type Event struct {
	InstanceID string `json:"instance_id"`
	Component  string `json:"component"`

	// Seq is the delivery order stamp from the instance clock.
	Seq int64 `json:"seq"`

	Data any `json:"data"`

	// ID is the emission id, if one was supplied.
	ID any `json:"id,omitempty"`

	// Summary is display-only; it never affects dedupe or ordering.
	Summary string `json:"summary,omitempty"`

	// Timestamp is the emission ts in unix seconds, nil if unset.
	Timestamp *int64 `json:"ts,omitempty"`
}

// EventSink receives accepted events, oldest first within each
// invocation. The sink is an external collaborator: delivery failures
// are logged but never abort the invocation.
type EventSink interface {
	Deliver(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(ctx context.Context, ev Event) error

// Deliver implements EventSink.
func (f SinkFunc) Deliver(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}
