package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spindle-dev/spindle/internal/trigger"
)

func TestQueue_FIFO(t *testing.T) {
	q := newInvocationQueue()

	require.True(t, q.Enqueue(trigger.ManualEvent{Payload: 1}))
	require.True(t, q.Enqueue(trigger.ManualEvent{Payload: 2}))
	require.True(t, q.Enqueue(trigger.ManualEvent{Payload: 3}))
	assert.Equal(t, 3, q.Len())

	for want := 1; want <= 3; want++ {
		ev, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, ev.(trigger.ManualEvent).Payload)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestQueue_EnqueueSignalsWaiters(t *testing.T) {
	q := newInvocationQueue()

	q.Enqueue(trigger.ManualEvent{})
	select {
	case <-q.Wait():
	default:
		t.Fatal("expected a pending signal after enqueue")
	}
}

func TestQueue_CloseRejectsEnqueue(t *testing.T) {
	q := newInvocationQueue()
	q.Close()

	assert.False(t, q.Enqueue(trigger.ManualEvent{}))
}

func TestQueue_CloseWakesWaiters(t *testing.T) {
	q := newInvocationQueue()
	q.Close()

	// The closed signal channel is always ready.
	<-q.Wait()
	<-q.Wait()
}

func TestQueue_CloseIsIdempotent(t *testing.T) {
	q := newInvocationQueue()
	q.Close()
	q.Close()
}
