package harness

import (
	"github.com/spindle-dev/spindle/internal/component"
	"github.com/spindle-dev/spindle/internal/runtime"
	"github.com/spindle-dev/spindle/internal/trigger"
)

// Scenario describes one end-to-end run: a component, its supplied
// prop values, and the ordered events dispatched to it.
type Scenario struct {
	// Name identifies the scenario. It is also the golden file name.
	Name string

	// Definition is the component under test.
	Definition *component.Definition

	// Values are the supplied prop values, keyed by prop name.
	Values map[string]any

	// Events are dispatched in order after activation.
	Events []trigger.Event
}

// Result is the observable outcome of one scenario run.
type Result struct {
	// Events are the deliveries that reached the sink, in order.
	Events []runtime.Event

	// DispatchErrors records events the instance rejected.
	DispatchErrors []string

	// EndpointID is the allocated HTTP endpoint, or "" when the
	// definition declares no Http interface prop.
	EndpointID string
}
