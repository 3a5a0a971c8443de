// Package testutil provides deterministic helpers shared by tests:
// an event-capturing sink and a silenced logger.
package testutil

import (
	"context"
	"sync"

	"github.com/spindle-dev/spindle/internal/runtime"
)

// CaptureSink records every delivered event in order.
//
// Thread-safe: deliveries from different instances may interleave, but
// per-instance order is preserved.
type CaptureSink struct {
	mu     sync.Mutex
	events []runtime.Event
}

// NewCaptureSink creates an empty sink.
func NewCaptureSink() *CaptureSink {
	return &CaptureSink{}
}

// Deliver implements runtime.EventSink.
func (s *CaptureSink) Deliver(_ context.Context, ev runtime.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of the captured events in delivery order.
func (s *CaptureSink) Events() []runtime.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]runtime.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Reset discards captured events for sink reuse across scenarios.
func (s *CaptureSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
