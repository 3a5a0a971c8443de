// Package runtime binds a resolved component to its triggers, drives
// the activate → invoke* → deactivate lifecycle, and owns the event
// emission pipeline (ordering, dedupe, delivery to the sink).
//
// Each instance processes invocations with single-invocation-at-a-time
// semantics: all mutations happen in the instance's single-writer loop
// goroutine, which keeps store state and dedupe state consistent.
// Independent instances run fully in parallel.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/spindle-dev/spindle/internal/component"
	"github.com/spindle-dev/spindle/internal/dedupe"
	"github.com/spindle-dev/spindle/internal/props"
	"github.com/spindle-dev/spindle/internal/store"
	"github.com/spindle-dev/spindle/internal/trigger"
)

// State is the instance lifecycle state.
type State int

const (
	// StateCreated is the initial state: props resolved, not yet
	// activated.
	StateCreated State = iota

	// StateActive accepts invocations.
	StateActive

	// StateDeactivated is terminal.
	StateDeactivated
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateActive:
		return "active"
	case StateDeactivated:
		return "deactivated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Instance is one deployed component: a definition, its resolved
// props, and the durable state scoped to it.
//
// Thread-safety model:
//   - Dispatch(): safe from any goroutine (dispatchers call it)
//   - the loop goroutine is the only executor of invocations
//   - Activate/Deactivate: deployment collaborator, one at a time
type Instance struct {
	id       string
	def      *component.Definition
	resolved *props.ResolvedSet
	st       *store.Store
	sink     EventSink
	logger   *slog.Logger

	mu            sync.Mutex
	state         State
	transitioning bool
	draining      bool
	pending       int
	idle          chan struct{}

	queue      *invocationQueue
	clock      *Clock
	dedupe     *dedupe.Engine
	endpointID string

	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures an Instance.
type Option func(*Instance)

// WithLogger sets the instance logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(i *Instance) {
		i.logger = logger
	}
}

// WithClock sets the logical clock. Used by tests and by deployments
// resuming against an existing invocation log.
func WithClock(clock *Clock) Option {
	return func(i *Instance) {
		i.clock = clock
	}
}

// NewInstance creates an instance in StateCreated.
//
// The instance row is ensured in the store, the persisted dedupe state
// is restored, and, when the definition declares an Http interface
// prop, the stable endpoint identifier is allocated (or re-read: a
// redeploy that keeps the instance id keeps its endpoint).
func NewInstance(ctx context.Context, id string, def *component.Definition, resolved *props.ResolvedSet, st *store.Store, sink EventSink, opts ...Option) (*Instance, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, fmt.Errorf("instance %s: event sink is required", id)
	}

	inst := &Instance{
		id:       id,
		def:      def,
		resolved: resolved,
		st:       st,
		sink:     sink,
		logger:   slog.Default(),
		state:    StateCreated,
		queue:    newInvocationQueue(),
		clock:    NewClock(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(inst)
	}
	inst.logger = inst.logger.With("instance", id, "component", def.Name)

	if err := st.EnsureInstance(ctx, id, def.Name); err != nil {
		return nil, err
	}

	_, snapshot, ok, err := st.ReadDedupeState(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		snapshot = nil
	}
	engine, err := dedupe.Restore(def.Strategy(), snapshot)
	if err != nil {
		return nil, err
	}
	inst.dedupe = engine

	if _, ok := def.InterfaceProp(component.InterfaceHTTP); ok {
		endpoint, err := st.EndpointID(ctx, id)
		if err != nil {
			return nil, err
		}
		if endpoint == "" {
			endpoint = uuid.Must(uuid.NewV7()).String()
			if err := st.SetEndpointID(ctx, id, endpoint); err != nil {
				return nil, err
			}
		}
		inst.endpointID = endpoint
	}

	return inst, nil
}

// ID returns the instance identifier.
func (i *Instance) ID() string {
	return i.id
}

// Definition returns the bound component definition.
func (i *Instance) Definition() *component.Definition {
	return i.def
}

// EndpointID returns the HTTP endpoint identifier, or "" when the
// definition declares no Http interface prop.
func (i *Instance) EndpointID() string {
	return i.endpointID
}

// CurrentState returns the lifecycle state.
func (i *Instance) CurrentState() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// QueueLen returns the number of pending invocations. Diagnostics.
func (i *Instance) QueueLen() int {
	return i.queue.Len()
}

// Activate transitions Created → Active, firing the activate hook
// exactly once. A hook failure aborts the transition: the instance
// remains Created and may be retried.
func (i *Instance) Activate(ctx context.Context) error {
	i.mu.Lock()
	if i.state != StateCreated || i.transitioning {
		st := i.state
		i.mu.Unlock()
		return &LifecycleError{Instance: i.id, Op: "activate", State: st}
	}
	i.transitioning = true
	i.mu.Unlock()

	if hook := i.def.Hooks.Activate; hook != nil {
		hc := &execContext{ctx: ctx, inst: i, logger: i.logger}
		if err := hook(hc); err != nil {
			i.mu.Lock()
			i.transitioning = false
			i.mu.Unlock()
			return &HookError{Instance: i.id, Hook: "activate", Err: err}
		}
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	i.mu.Lock()
	i.state = StateActive
	i.transitioning = false
	i.cancel = cancel
	i.mu.Unlock()

	go i.loop(loopCtx)

	i.logger.Info("instance activated", "endpoint", i.endpointID, "dedupe", string(i.def.Strategy()))
	return nil
}

// Dispatch implements trigger.Target: it submits an event for
// serialized execution. Rejected with a LifecycleError outside
// StateActive - a rejected invocation produces no emissions and no
// store mutations.
func (i *Instance) Dispatch(ev trigger.Event) error {
	i.mu.Lock()
	if i.state != StateActive || i.draining {
		st := i.state
		i.mu.Unlock()
		return &LifecycleError{Instance: i.id, Op: "run", State: st}
	}
	i.pending++
	i.mu.Unlock()

	if !i.queue.Enqueue(ev) {
		i.finishPending()
		return &LifecycleError{Instance: i.id, Op: "run", State: StateDeactivated}
	}
	return nil
}

// Quiesce blocks until no invocation is pending or running.
func (i *Instance) Quiesce(ctx context.Context) error {
	for {
		i.mu.Lock()
		if i.pending == 0 {
			i.mu.Unlock()
			return nil
		}
		if i.idle == nil {
			i.idle = make(chan struct{})
		}
		ch := i.idle
		i.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// Deactivate transitions Active → Deactivated, firing the deactivate
// hook exactly once. New invocations are rejected immediately, any
// in-flight run completes first, and a hook failure aborts the
// transition (the instance returns to Active).
func (i *Instance) Deactivate(ctx context.Context) error {
	i.mu.Lock()
	if i.state != StateActive || i.transitioning {
		st := i.state
		i.mu.Unlock()
		return &LifecycleError{Instance: i.id, Op: "deactivate", State: st}
	}
	i.transitioning = true
	i.draining = true
	i.mu.Unlock()

	abort := func(err error) error {
		i.mu.Lock()
		i.draining = false
		i.transitioning = false
		i.mu.Unlock()
		return err
	}

	if err := i.Quiesce(ctx); err != nil {
		return abort(fmt.Errorf("deactivate %s: %w", i.id, err))
	}

	if hook := i.def.Hooks.Deactivate; hook != nil {
		hc := &execContext{ctx: ctx, inst: i, logger: i.logger}
		if err := hook(hc); err != nil {
			return abort(&HookError{Instance: i.id, Hook: "deactivate", Err: err})
		}
	}

	i.mu.Lock()
	i.state = StateDeactivated
	i.transitioning = false
	i.mu.Unlock()

	i.queue.Close()
	i.cancel()
	<-i.done

	i.logger.Info("instance deactivated")
	return nil
}

// loop is the single-writer invocation loop. All invocation
// processing, store writes, and dedupe updates happen here.
func (i *Instance) loop(ctx context.Context) {
	defer close(i.done)

	for {
		ev, ok := i.queue.TryDequeue()
		if ok {
			i.runOne(ctx, ev)
			continue
		}

		select {
		case <-ctx.Done():
			i.logger.Info("instance loop stopping: context cancelled")
			i.queue.Close()
			return

		case <-i.queue.Wait():
			// The signal channel closes when the queue is closed,
			// which fires this case with an empty queue.
			if i.queue.Len() == 0 {
				i.logger.Info("instance loop stopping: queue closed")
				return
			}
		}
	}
}

// runOne executes one invocation end to end: invocation log record,
// user run, then the emission flush. Dedupe and store updates from
// this invocation are durably committed before the next queued
// invocation begins.
func (i *Instance) runOne(ctx context.Context, ev trigger.Event) {
	defer i.finishPending()

	seq := i.clock.Next()
	invID := uuid.Must(uuid.NewV7()).String()
	kind := eventKind(ev)
	logger := i.logger.With("invocation_id", invID, "trigger", kind)

	rec := store.InvocationRecord{
		ID:         invID,
		InstanceID: i.id,
		Kind:       kind,
		Seq:        seq,
		Status:     store.InvocationRunning,
	}
	if err := i.st.WriteInvocation(ctx, rec); err != nil {
		logger.Error("invocation log write failed", "error", err)
	}

	em := &emitter{strategy: i.def.Strategy(), instance: i.id}
	ec := &execContext{ctx: ctx, inst: i, event: ev, em: em, logger: logger}

	if err := i.runUser(ec, ev); err != nil {
		logger.Error("run failed", "error", err)
		i.respondDefault(ev, trigger.Response{Status: 500, Body: "invocation failed"}, logger, false)
		if err := i.st.MarkInvocation(ctx, invID, store.InvocationFailed, err.Error()); err != nil {
			logger.Error("invocation log update failed", "error", err)
		}
		return
	}

	note := i.flush(ctx, ev, em, logger)
	if err := i.st.MarkInvocation(ctx, invID, store.InvocationOK, note); err != nil {
		logger.Error("invocation log update failed", "error", err)
	}
}

// runUser calls the component's run with panic containment: a panic
// fails the invocation, never the instance.
func (i *Instance) runUser(ec *execContext, ev trigger.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run panicked: %v", r)
		}
	}()
	return i.def.Run(ec, ev)
}

// flush drains the emitter: order by ts, consult the dedupe engine,
// deliver survivors to the sink oldest first, persist the dedupe
// snapshot, and issue the default HTTP response if run never did.
// Returns a note for the invocation log (rejected emissions etc.).
func (i *Instance) flush(ctx context.Context, ev trigger.Event, em *emitter, logger *slog.Logger) string {
	notes := append([]string(nil), em.rejected...)

	batch := em.ordered()
	if len(batch) > 0 {
		ids := make([]any, len(batch))
		for idx, e := range batch {
			ids[idx] = e.opts.ID
		}
		decisions := i.dedupe.AdmitBatch(ids)

		accepted := 0
		for idx, d := range decisions {
			if d.Err != nil {
				logger.Warn("emission rejected", "error", d.Err)
				notes = append(notes, d.Err.Error())
				continue
			}
			if !d.Accept {
				logger.Debug("emission suppressed by dedupe", "id", batch[idx].opts.ID)
				continue
			}
			e := batch[idx]
			out := Event{
				InstanceID: i.id,
				Component:  i.def.Name,
				Seq:        i.clock.Next(),
				Data:       e.data,
				ID:         e.opts.ID,
				Summary:    e.opts.Summary,
				Timestamp:  e.opts.Timestamp,
			}
			if err := i.sink.Deliver(ctx, out); err != nil {
				logger.Error("event delivery failed", "error", err, "id", out.ID)
			}
			accepted++
		}

		snapshot, err := i.dedupe.Snapshot()
		if err == nil {
			err = i.st.WriteDedupeState(ctx, i.id, string(i.dedupe.Strategy()), snapshot)
		}
		if err != nil {
			logger.Error("dedupe state persistence failed", "error", err)
			notes = append(notes, err.Error())
		}

		logger.Info("emissions flushed", "buffered", len(batch), "accepted", accepted)
	}

	i.respondDefault(ev, trigger.Response{Status: 200}, logger, true)
	return strings.Join(notes, "; ")
}

// respondDefault issues resp for an HTTP event that run left
// unanswered. No-op for other event kinds or already-answered events.
func (i *Instance) respondDefault(ev trigger.Event, resp trigger.Response, logger *slog.Logger, logMissing bool) {
	hev, ok := ev.(*trigger.HttpEvent)
	if !ok || hev.Responder == nil || hev.Responder.Responded() {
		return
	}
	if logMissing {
		logger.Info("run issued no response, sending default empty response")
	}
	if err := hev.Responder.Respond(resp); err != nil {
		logger.Warn("default response not accepted", "error", err)
	}
}

// finishPending decrements the pending count and wakes Quiesce
// waiters when it reaches zero.
func (i *Instance) finishPending() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.pending--
	if i.pending == 0 && i.idle != nil {
		close(i.idle)
		i.idle = nil
	}
}

// eventKind names an event for the invocation log.
func eventKind(ev trigger.Event) string {
	switch ev.(type) {
	case trigger.TimerEvent:
		return "timer"
	case *trigger.HttpEvent:
		return "http"
	case trigger.ManualEvent:
		return "manual"
	default:
		return "unknown"
	}
}
