// Package component defines the authoring surface of the runtime: the
// component definition, its prop schema, the execution context handed
// to user code, and the owner-scoped registry.
package component

import (
	"fmt"

	"github.com/spindle-dev/spindle/internal/trigger"
)

// DedupeStrategy is the admission policy applied to emitted events,
// keyed by their id.
type DedupeStrategy string

const (
	// DedupeNone accepts every emission unconditionally.
	DedupeNone DedupeStrategy = "none"

	// DedupeUnique accepts ids not in the last-100 FIFO cache.
	DedupeUnique DedupeStrategy = "unique"

	// DedupeGreatest accepts ids strictly greater than the cached
	// numeric maximum.
	DedupeGreatest DedupeStrategy = "greatest"

	// DedupeLast accepts the portion of a batch strictly after the
	// cached last id.
	DedupeLast DedupeStrategy = "last"
)

// Valid reports whether s is a known strategy.
// The empty string is valid and means DedupeNone.
func (s DedupeStrategy) Valid() bool {
	switch s {
	case "", DedupeNone, DedupeUnique, DedupeGreatest, DedupeLast:
		return true
	}
	return false
}

// RequiresID reports whether emissions under this strategy must carry
// an id.
func (s DedupeStrategy) RequiresID() bool {
	switch s {
	case DedupeUnique, DedupeGreatest, DedupeLast:
		return true
	}
	return false
}

// RunFunc executes one invocation. It receives the execution context
// (resolved props, methods, capabilities, emit) and the event that
// produced the invocation.
type RunFunc func(c Context, ev trigger.Event) error

// HookFunc is a lifecycle callback. Hooks run with a Context but
// outside any invocation: Emit and respond are unavailable.
type HookFunc func(c Context) error

// Hooks are optional lifecycle callbacks, fired at most once per
// corresponding transition.
type Hooks struct {
	Activate   HookFunc
	Deactivate HookFunc
}

// Method is a named callable bound to the execution context.
type Method func(c Context, args map[string]any) (any, error)

// Definition is a component manifest as authored in Go.
//
// Name is unique per owner scope; the registry disambiguates
// collisions with a numeric suffix. Run is required. Props are
// ordered: later props may reference earlier ones via
// PropDefinitionRef input values, never the reverse.
type Definition struct {
	Name        string
	Version     string
	Description string

	Props   []Prop
	Methods map[string]Method
	Hooks   Hooks
	Dedupe  DedupeStrategy

	Run RunFunc
}

// Prop is one named slot in the ordered prop schema.
type Prop struct {
	Name string
	Spec PropSpec
}

// Validate checks the definition's structural requirements.
// Prop-level validation (references, defaults) happens during
// resolution; this catches what must hold before registration.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("component name is required")
	}
	if d.Run == nil {
		return fmt.Errorf("component %s: run is required", d.Name)
	}
	if !d.Dedupe.Valid() {
		return fmt.Errorf("component %s: unknown dedupe strategy %q", d.Name, d.Dedupe)
	}
	seen := make(map[string]bool, len(d.Props))
	for _, p := range d.Props {
		if p.Name == "" {
			return fmt.Errorf("component %s: prop with empty name", d.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("component %s: duplicate prop %q", d.Name, p.Name)
		}
		seen[p.Name] = true
		if p.Spec == nil {
			return fmt.Errorf("component %s: prop %q has no spec", d.Name, p.Name)
		}
	}
	return nil
}

// Strategy returns the effective dedupe strategy, mapping the empty
// string to DedupeNone.
func (d *Definition) Strategy() DedupeStrategy {
	if d.Dedupe == "" {
		return DedupeNone
	}
	return d.Dedupe
}

// InterfaceProp returns the first Interface prop of the given kind,
// or false if none is declared.
func (d *Definition) InterfaceProp(kind InterfaceKind) (string, bool) {
	for _, p := range d.Props {
		if ifc, ok := p.Spec.(*Interface); ok && ifc.Kind == kind {
			return p.Name, true
		}
	}
	return "", false
}

// ServiceProp returns the first Service prop of the given kind,
// or false if none is declared.
func (d *Definition) ServiceProp(kind ServiceKind) (string, bool) {
	for _, p := range d.Props {
		if svc, ok := p.Spec.(*Service); ok && svc.Kind == kind {
			return p.Name, true
		}
	}
	return "", false
}
