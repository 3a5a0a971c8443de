package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spindle-dev/spindle/internal/component"
	"github.com/spindle-dev/spindle/internal/trigger"
)

func TestRun_DeliversEmissionsInOrder(t *testing.T) {
	scenario := &Scenario{
		Name: "basic-delivery",
		Definition: &component.Definition{
			Name: "relay",
			Run: func(c component.Context, ev trigger.Event) error {
				return c.Emit(ev.(trigger.ManualEvent).Payload, component.EmitOptions{})
			},
		},
		Events: []trigger.Event{
			trigger.ManualEvent{Payload: "one"},
			trigger.ManualEvent{Payload: "two"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Events, 2)
	assert.Equal(t, "one", result.Events[0].Data)
	assert.Equal(t, "two", result.Events[1].Data)
	assert.Less(t, result.Events[0].Seq, result.Events[1].Seq)
	assert.Empty(t, result.DispatchErrors)
}

func TestRun_DedupeSpansEvents(t *testing.T) {
	scenario := &Scenario{
		Name: "dedupe-unique",
		Definition: &component.Definition{
			Name:   "relay",
			Dedupe: component.DedupeUnique,
			Run: func(c component.Context, ev trigger.Event) error {
				id := ev.(trigger.ManualEvent).Payload
				return c.Emit(id, component.EmitOptions{ID: id})
			},
		},
		Events: []trigger.Event{
			trigger.ManualEvent{Payload: "a"},
			trigger.ManualEvent{Payload: "a"},
			trigger.ManualEvent{Payload: "b"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Events, 2)
	assert.Equal(t, "a", result.Events[0].Data)
	assert.Equal(t, "b", result.Events[1].Data)
}

func TestRun_PropResolutionFailureSurfaces(t *testing.T) {
	scenario := &Scenario{
		Name: "missing-prop",
		Definition: &component.Definition{
			Name: "relay",
			Props: []component.Prop{
				{Name: "url", Spec: &component.UserInput{Type: "string"}},
			},
			Run: func(component.Context, trigger.Event) error { return nil },
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
}

func TestRun_EndpointAllocatedForHTTPComponents(t *testing.T) {
	scenario := &Scenario{
		Name: "http-endpoint",
		Definition: &component.Definition{
			Name: "hook",
			Props: []component.Prop{
				{Name: "http", Spec: &component.Interface{Kind: component.InterfaceHTTP}},
			},
			Run: func(component.Context, trigger.Event) error { return nil },
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.NotEmpty(t, result.EndpointID)
}
