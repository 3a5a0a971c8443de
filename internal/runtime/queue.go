package runtime

import (
	"sync"

	"github.com/spindle-dev/spindle/internal/trigger"
)

// invocationQueue is a thread-safe FIFO of pending invocation events.
//
// The queue is unbounded: timer fires and HTTP requests that arrive
// while an invocation is running must queue, never run concurrently.
// Dispatchers enqueue from their own goroutines while the instance's
// single-writer loop dequeues.
//
// A buffered signal channel enables context-aware waiting in the loop.
type invocationQueue struct {
	mu     sync.Mutex
	events []trigger.Event
	closed bool
	signal chan struct{} // signals event availability (buffered, size 1)
}

func newInvocationQueue() *invocationQueue {
	return &invocationQueue{
		events: make([]trigger.Event, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Returns false if the queue is closed.
func (q *invocationQueue) Enqueue(ev trigger.Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, ev)

	// Non-blocking signal; the buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (nil, false) if the queue is empty.
func (q *invocationQueue) TryDequeue() (trigger.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil, false
	}

	ev := q.events[0]

	// Nil out the slot so the backing array does not retain the
	// event's pointers until reallocation.
	q.events[0] = nil
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return ev, true
}

// Wait returns a channel that signals when events may be available.
func (q *invocationQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *invocationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close signals that no more events will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *invocationQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
