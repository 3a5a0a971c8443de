// Package builtin holds the components compiled into the spindle
// binary. They double as working examples of the authoring surface.
package builtin

import (
	"fmt"
	"time"

	"github.com/spindle-dev/spindle/internal/component"
	"github.com/spindle-dev/spindle/internal/trigger"
)

// RegisterAll registers every built-in component under the given owner
// scope.
func RegisterAll(reg *component.Registry, owner string) error {
	for _, def := range []*component.Definition{
		Heartbeat(),
		Webhook(),
	} {
		if _, err := reg.Register(owner, def); err != nil {
			return fmt.Errorf("builtin: %w", err)
		}
	}
	return nil
}

// Heartbeat emits one event per timer fire, deduplicated on the fire
// timestamp so a replayed fire never produces a second event.
func Heartbeat() *component.Definition {
	return &component.Definition{
		Name:        "heartbeat",
		Version:     "0.1.0",
		Description: "Emits a heartbeat event on every timer fire.",
		Props: []component.Prop{
			{Name: "schedule", Spec: &component.Interface{Kind: component.InterfaceTimer}},
			{Name: "message", Spec: &component.UserInput{
				Type:     "string",
				Label:    "Message",
				Optional: true,
				Default:  "ping",
			}},
		},
		Dedupe: component.DedupeGreatest,
		Run: func(c component.Context, ev trigger.Event) error {
			ts := time.Now().Unix()
			if tev, ok := ev.(trigger.TimerEvent); ok {
				ts = tev.Timestamp
			}
			return c.Emit(map[string]any{"message": c.Prop("message")}, component.EmitOptions{
				ID:      ts,
				Summary: "heartbeat",
			})
		},
	}
}

// Webhook receives HTTP requests, counts them in the key-value store,
// and echoes the parsed body back to the caller.
func Webhook() *component.Definition {
	return &component.Definition{
		Name:        "webhook",
		Version:     "0.1.0",
		Description: "Receives HTTP requests and emits one event per request.",
		Props: []component.Prop{
			{Name: "http", Spec: &component.Interface{Kind: component.InterfaceHTTP}},
			{Name: "db", Spec: &component.Service{Kind: component.ServiceKeyValueStore}},
		},
		Run: func(c component.Context, ev trigger.Event) error {
			hev, ok := ev.(*trigger.HttpEvent)
			if !ok {
				return fmt.Errorf("webhook: expected an http event, got %T", ev)
			}

			count := 0
			if kv, ok := c.KV(); ok {
				if v, found, err := kv.Get("count"); err == nil && found {
					if f, ok := v.(float64); ok {
						count = int(f)
					}
				}
				count++
				if err := kv.Set("count", count); err != nil {
					return err
				}
			}

			if err := c.Emit(map[string]any{
				"method": hev.Method,
				"path":   hev.Path,
				"body":   hev.Body,
				"count":  count,
			}, component.EmitOptions{Summary: "webhook request"}); err != nil {
				return err
			}

			if h, ok := c.HTTP(); ok {
				return h.Respond(trigger.Response{
					Status: 200,
					Body:   map[string]any{"received": hev.Body, "count": count},
				})
			}
			return nil
		},
	}
}
