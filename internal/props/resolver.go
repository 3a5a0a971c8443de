// Package props resolves a component's declared prop schema into
// concrete values.
//
// Resolution iterates props in declaration order: later props may
// reference earlier ones through propDefinitionRef input values, never
// the reverse. Dynamic option providers are never called during
// resolution; callers pull pages explicitly via FetchOptionsPage.
package props

import (
	"fmt"

	"github.com/spindle-dev/spindle/internal/component"
)

// Resolved is one prop after resolution: its effective spec (merged,
// for refs) and its concrete value.
type Resolved struct {
	Name string

	// Spec is the effective spec. For a PropDefinitionRef this is the
	// referenced base merged with the local override.
	Spec component.PropSpec

	// Value is the supplied or defaulted value for UserInput props,
	// the externally supplied auth/config map for App props, and nil
	// for Interface/Service props (their value is a capability).
	Value any

	// InputValues are the evaluated ref inputs, consumed by the
	// definition's options provider.
	InputValues map[string]any

	// App is the backing app for props resolved through a ref.
	App *component.App
}

// ResolvedSet holds resolved props in declaration order.
type ResolvedSet struct {
	order []string
	props map[string]*Resolved
}

// Get returns the resolved prop by name.
func (rs *ResolvedSet) Get(name string) (*Resolved, bool) {
	p, ok := rs.props[name]
	return p, ok
}

// Value returns the resolved value for name, or nil if unknown.
func (rs *ResolvedSet) Value(name string) any {
	if p, ok := rs.props[name]; ok {
		return p.Value
	}
	return nil
}

// Values returns a fresh name→value map in no particular order.
func (rs *ResolvedSet) Values() map[string]any {
	m := make(map[string]any, len(rs.props))
	for name, p := range rs.props {
		m[name] = p.Value
	}
	return m
}

// Names returns prop names in declaration order.
func (rs *ResolvedSet) Names() []string {
	out := make([]string, len(rs.order))
	copy(out, rs.order)
	return out
}

// snapshot is the read-only accessor handed to inputValues functions.
// It only sees props declared (and resolved) before the current one.
type snapshot struct {
	set   *ResolvedSet
	limit int
}

// Get implements component.PropValues. Referencing an undeclared or
// later prop is a definition error.
func (s snapshot) Get(name string) (any, error) {
	for i := 0; i < s.limit; i++ {
		if s.set.order[i] == name {
			return s.set.props[name].Value, nil
		}
	}
	return nil, &ResolutionError{
		Code:    ErrCodeForwardReference,
		Prop:    name,
		Message: "referenced prop is not declared before this one",
	}
}

// Resolve resolves schema against the supplied raw values.
//
// Definition errors (bad references, forward references in declared
// Uses lists, defaults on required props) are detected statically
// before any inputValues function runs. Providers are never called.
func Resolve(schema []component.Prop, supplied map[string]any) (*ResolvedSet, error) {
	if err := validateSchema(schema); err != nil {
		return nil, err
	}

	rs := &ResolvedSet{
		order: make([]string, 0, len(schema)),
		props: make(map[string]*Resolved, len(schema)),
	}

	for i, p := range schema {
		resolved, err := resolveOne(rs, i, p, schema, supplied)
		if err != nil {
			return nil, err
		}
		rs.order = append(rs.order, p.Name)
		rs.props[p.Name] = resolved
	}

	return rs, nil
}

// validateSchema performs the static pass: every error here is found
// before any user function executes.
func validateSchema(schema []component.Prop) error {
	index := make(map[string]int, len(schema))
	for i, p := range schema {
		index[p.Name] = i
	}

	for i, p := range schema {
		switch spec := p.Spec.(type) {
		case *component.UserInput:
			if spec.Default != nil && !spec.Optional {
				return &ResolutionError{
					Code:    ErrCodeInvalidDefault,
					Prop:    p.Name,
					Message: "default is only legal on optional props",
				}
			}

		case *component.PropDefinitionRef:
			appIdx, ok := index[spec.App]
			if !ok {
				return &ResolutionError{
					Code:    ErrCodeBadReference,
					Prop:    p.Name,
					Message: fmt.Sprintf("app prop %q is not declared", spec.App),
				}
			}
			if appIdx >= i {
				return &ResolutionError{
					Code:    ErrCodeForwardReference,
					Prop:    p.Name,
					Message: fmt.Sprintf("app prop %q must be declared before this ref", spec.App),
				}
			}
			app, ok := schema[appIdx].Spec.(*component.App)
			if !ok {
				return &ResolutionError{
					Code:    ErrCodeBadReference,
					Prop:    p.Name,
					Message: fmt.Sprintf("prop %q is not an app prop", spec.App),
				}
			}
			if _, ok := app.PropDefinitions[spec.Definition]; !ok {
				return &ResolutionError{
					Code:    ErrCodeBadReference,
					Prop:    p.Name,
					Message: fmt.Sprintf("app %q has no prop definition %q", app.Slug, spec.Definition),
				}
			}
			for _, dep := range spec.Uses {
				depIdx, ok := index[dep]
				if !ok || depIdx >= i {
					return &ResolutionError{
						Code:    ErrCodeForwardReference,
						Prop:    p.Name,
						Message: fmt.Sprintf("input values reference %q, which is not declared earlier", dep),
					}
				}
			}
		}
	}
	return nil
}

// resolveOne resolves the i-th prop. Earlier props are already in rs.
func resolveOne(rs *ResolvedSet, i int, p component.Prop, schema []component.Prop, supplied map[string]any) (*Resolved, error) {
	switch spec := p.Spec.(type) {
	case *component.UserInput:
		value, err := resolveUserInput(p.Name, spec, supplied)
		if err != nil {
			return nil, err
		}
		return &Resolved{Name: p.Name, Spec: spec, Value: value}, nil

	case *component.Interface:
		return &Resolved{Name: p.Name, Spec: spec, Value: spec.Default}, nil

	case *component.Service:
		return &Resolved{Name: p.Name, Spec: spec}, nil

	case *component.App:
		// The externally resolved credentials/config ride in on the
		// supplied value for the app prop itself.
		auth, _ := supplied[p.Name].(map[string]any)
		return &Resolved{Name: p.Name, Spec: spec, Value: auth, App: spec}, nil

	case *component.PropDefinitionRef:
		appProp, _ := rs.Get(spec.App)
		app := appProp.App

		base := app.PropDefinitions[spec.Definition]
		merged := mergeOverride(base, spec.Override)

		if merged.Default != nil && !merged.Optional {
			return nil, &ResolutionError{
				Code:    ErrCodeInvalidDefault,
				Prop:    p.Name,
				Message: "default is only legal on optional props",
			}
		}

		inputs, err := evaluateInputValues(rs, i, p.Name, spec)
		if err != nil {
			return nil, err
		}

		value, err := resolveUserInput(p.Name, merged, supplied)
		if err != nil {
			return nil, err
		}
		return &Resolved{
			Name:        p.Name,
			Spec:        merged,
			Value:       value,
			InputValues: inputs,
			App:         app,
		}, nil

	default:
		return nil, &ResolutionError{
			Code:    ErrCodeBadReference,
			Prop:    p.Name,
			Message: fmt.Sprintf("unknown prop spec type %T", p.Spec),
		}
	}
}

// evaluateInputValues produces the ref's input values, either the
// literal map or the result of the function run against a snapshot of
// earlier props.
func evaluateInputValues(rs *ResolvedSet, i int, name string, ref *component.PropDefinitionRef) (map[string]any, error) {
	if ref.InputValuesFn == nil {
		return ref.InputValues, nil
	}

	inputs, err := ref.InputValuesFn(snapshot{set: rs, limit: i})
	if err != nil {
		if IsResolutionError(err) {
			return nil, err
		}
		return nil, &ResolutionError{
			Code:    ErrCodeInputValues,
			Prop:    name,
			Message: fmt.Sprintf("input values function failed: %v", err),
		}
	}
	return inputs, nil
}

// resolveUserInput picks the supplied value or the default, and
// validates plausibility against the declared type.
func resolveUserInput(name string, spec *component.UserInput, supplied map[string]any) (any, error) {
	value, present := supplied[name]
	if !present {
		if spec.Optional {
			return spec.Default, nil
		}
		return nil, &ResolutionError{
			Code:    ErrCodeMissingRequired,
			Prop:    name,
			Message: "required prop has no value",
		}
	}

	if err := checkType(spec.Type, value); err != nil {
		return nil, &ResolutionError{
			Code:    ErrCodeTypeMismatch,
			Prop:    name,
			Message: err.Error(),
		}
	}
	return value, nil
}

// mergeOverride deep-merges a referenced base definition with the
// local override. Local fields win field-by-field, never by
// whole-object replacement; the base is left untouched.
func mergeOverride(base *component.UserInput, o component.Override) *component.UserInput {
	merged := *base
	if o.Type != nil {
		merged.Type = *o.Type
	}
	if o.Label != nil {
		merged.Label = *o.Label
	}
	if o.Description != nil {
		merged.Description = *o.Description
	}
	if o.Optional != nil {
		merged.Optional = *o.Optional
	}
	if o.Default != nil {
		merged.Default = o.Default
	}
	if o.Options != nil {
		merged.Options = o.Options
	}
	if o.OptionsFn != nil {
		merged.OptionsFn = o.OptionsFn
	}
	return &merged
}

// checkType validates that a statically supplied value is plausible
// for the declared type. An empty or "any" type accepts everything.
func checkType(typ string, value any) error {
	switch typ {
	case "", "any":
		return nil
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case "integer":
		switch value.(type) {
		case int, int32, int64, float64:
		default:
			return fmt.Errorf("expected integer, got %T", value)
		}
	case "object":
		if _, ok := value.(map[string]any); !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
	case "string[]", "integer[]", "any[]":
		switch value.(type) {
		case []any, []string, []int, []int64, []float64:
		default:
			return fmt.Errorf("expected array, got %T", value)
		}
	default:
		return nil
	}
	return nil
}
