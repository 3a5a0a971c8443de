// Package trigger converts external stimuli (timer ticks, cron fires,
// inbound HTTP requests) into invocation events and dispatches them to
// a component instance.
//
// The package is a leaf: it knows nothing about components or the
// runtime. Dispatchers hand events to a Target, which the runtime
// implements with its per-instance serialized queue.
package trigger

import (
	"fmt"
	"sync"
)

// Event is a sealed union of invocation event kinds.
// Only TimerEvent, HttpEvent, and ManualEvent implement it.
type Event interface {
	invocationEvent()
}

// TimerEvent is produced by the timer dispatcher on each fire.
// Exactly one of IntervalSeconds or Cron echoes the configured schedule.
type TimerEvent struct {
	// Timestamp is the fire time in unix seconds.
	Timestamp int64

	// IntervalSeconds is the configured cadence, if interval-scheduled.
	IntervalSeconds int

	// Cron is the configured expression, if cron-scheduled.
	Cron string
}

func (TimerEvent) invocationEvent() {}

// HttpEvent is produced by the HTTP dispatcher for one inbound request.
// The request blocks on Responder until exactly one response is issued.
type HttpEvent struct {
	Method  string
	Path    string
	Query   map[string]string
	Headers map[string]string

	// BodyRaw is the raw request body.
	BodyRaw string

	// Body is the parsed JSON body when the raw body parses, otherwise
	// the raw string.
	Body any

	// Responder carries the response channel back to the blocked caller.
	Responder *Responder
}

func (*HttpEvent) invocationEvent() {}

// ManualEvent is a one-shot invocation carrying an arbitrary payload.
// Used by the CLI --fire path and by tests.
type ManualEvent struct {
	Payload any
}

func (ManualEvent) invocationEvent() {}

// Response is the outbound HTTP response accepted via respond().
// Body may be a string, []byte, or any JSON-serializable value.
type Response struct {
	Status  int
	Headers map[string]string
	Body    any
}

// Target receives invocation events from dispatchers.
// Implemented by the runtime's component instance.
type Target interface {
	// Dispatch submits an event for serialized execution.
	// Returns an error if the instance is not accepting invocations.
	Dispatch(ev Event) error
}

// ErrAlreadyResponded is returned by Responder.Respond after the first
// response has been accepted. Callers treat it as a warning, not a
// failure of the invocation.
var ErrAlreadyResponded = fmt.Errorf("response already issued for this event")

// Responder delivers exactly one response per HTTP event.
//
// The first Respond call wins; every later call is a no-op returning
// ErrAlreadyResponded. The dispatcher reads the accepted response from
// the channel returned by Done.
type Responder struct {
	mu        sync.Mutex
	responded bool
	ch        chan Response
}

// NewResponder creates a responder for a single HTTP event.
func NewResponder() *Responder {
	return &Responder{ch: make(chan Response, 1)}
}

// Respond accepts the response for this event.
// Only the first call is honored.
func (r *Responder) Respond(resp Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.responded {
		return ErrAlreadyResponded
	}
	r.responded = true

	if resp.Status == 0 {
		resp.Status = 200
	}
	r.ch <- resp
	return nil
}

// Responded reports whether a response has been accepted.
func (r *Responder) Responded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.responded
}

// Done returns the channel carrying the single accepted response.
func (r *Responder) Done() <-chan Response {
	return r.ch
}
