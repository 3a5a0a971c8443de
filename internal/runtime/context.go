package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spindle-dev/spindle/internal/component"
	"github.com/spindle-dev/spindle/internal/props"
	"github.com/spindle-dev/spindle/internal/trigger"
)

// execContext binds a resolved component to one invocation (or, for
// hooks, to a lifecycle transition with no invocation). It implements
// component.Context: there is no ambient receiver; everything user
// code touches flows through here.
type execContext struct {
	ctx    context.Context
	inst   *Instance
	event  trigger.Event // nil for hook contexts
	em     *emitter      // nil for hook contexts
	logger *slog.Logger
}

// Context implements component.Context.
func (c *execContext) Context() context.Context {
	return c.ctx
}

// Prop implements component.Context.
func (c *execContext) Prop(name string) any {
	return c.inst.resolved.Value(name)
}

// Props implements component.Context.
func (c *execContext) Props() map[string]any {
	return c.inst.resolved.Values()
}

// CallMethod implements component.Context.
func (c *execContext) CallMethod(name string, args map[string]any) (any, error) {
	method, ok := c.inst.def.Methods[name]
	if !ok {
		return nil, fmt.Errorf("component %s has no method %q", c.inst.def.Name, name)
	}
	return method(c, args)
}

// Emit implements component.Context. Unavailable in hook contexts.
func (c *execContext) Emit(data any, opts component.EmitOptions) error {
	if c.em == nil {
		return &LifecycleError{Instance: c.inst.id, Op: "emit", State: c.inst.CurrentState()}
	}
	return c.em.emit(data, opts)
}

// HTTP implements component.Context. The capability exists only when
// the definition declares an Http interface prop and the current
// invocation is an HTTP event: respond() is unreachable elsewhere.
func (c *execContext) HTTP() (component.HTTPCapability, bool) {
	if _, ok := c.inst.def.InterfaceProp(component.InterfaceHTTP); !ok {
		return nil, false
	}
	hev, ok := c.event.(*trigger.HttpEvent)
	if !ok {
		return nil, false
	}
	return &httpCapability{
		endpoint:  c.inst.endpointID,
		responder: hev.Responder,
		logger:    c.logger,
	}, true
}

// KV implements component.Context. The capability exists only when
// the definition declares a KeyValueStore service prop.
func (c *execContext) KV() (component.KVCapability, bool) {
	if _, ok := c.inst.def.ServiceProp(component.ServiceKeyValueStore); !ok {
		return nil, false
	}
	return &kvCapability{ctx: c.ctx, inst: c.inst}, true
}

// App implements component.Context.
func (c *execContext) App(name string) (component.AppCapability, bool) {
	resolved, ok := c.inst.resolved.Get(name)
	if !ok || resolved.App == nil {
		return nil, false
	}
	return &appCapability{c: c, name: name, resolved: resolved}, true
}

// Logger implements component.Context.
func (c *execContext) Logger() *slog.Logger {
	return c.logger
}

// httpCapability is the capability object for an Http interface prop:
// both the resolved endpoint value and the sole path to respond().
type httpCapability struct {
	endpoint  string
	responder *trigger.Responder
	logger    *slog.Logger
}

// Endpoint implements component.HTTPCapability.
func (h *httpCapability) Endpoint() string {
	return h.endpoint
}

// Respond implements component.HTTPCapability.
// Only the first call per event is honored; later calls are no-ops
// logged as warnings.
func (h *httpCapability) Respond(resp trigger.Response) error {
	if err := h.responder.Respond(resp); err != nil {
		h.logger.Warn("duplicate respond call ignored", "endpoint", h.endpoint)
		return err
	}
	return nil
}

// kvCapability is the capability object for a KeyValueStore service
// prop, scoped to the owning instance.
type kvCapability struct {
	ctx  context.Context
	inst *Instance
}

// Get implements component.KVCapability.
func (kv *kvCapability) Get(key string) (any, bool, error) {
	return kv.inst.st.GetValue(kv.ctx, kv.inst.id, key)
}

// Set implements component.KVCapability.
func (kv *kvCapability) Set(key string, value any) error {
	return kv.inst.st.SetValue(kv.ctx, kv.inst.id, key, value)
}

// appCapability exposes a resolved App prop: slug, externally supplied
// auth, and methods bound to this execution context.
type appCapability struct {
	c        *execContext
	name     string
	resolved *props.Resolved
}

// Slug implements component.AppCapability.
func (a *appCapability) Slug() string {
	return a.resolved.App.Slug
}

// Auth implements component.AppCapability.
func (a *appCapability) Auth() map[string]any {
	auth, _ := a.resolved.Value.(map[string]any)
	return auth
}

// CallMethod implements component.AppCapability.
func (a *appCapability) CallMethod(name string, args map[string]any) (any, error) {
	method, ok := a.resolved.App.Methods[name]
	if !ok {
		return nil, fmt.Errorf("app prop %q has no method %q", a.name, name)
	}
	return method(a.c, args)
}
