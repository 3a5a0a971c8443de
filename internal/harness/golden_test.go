package harness

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spindle-dev/spindle/internal/component"
	"github.com/spindle-dev/spindle/internal/trigger"
)

func TestGolden_TimestampOrdering(t *testing.T) {
	scenario := &Scenario{
		Name: "relay-ts-ordering",
		Definition: &component.Definition{
			Name: "relay",
			Run: func(c component.Context, ev trigger.Event) error {
				if err := c.Emit("late", component.EmitOptions{Summary: "tick", Timestamp: component.Unix(200)}); err != nil {
					return err
				}
				return c.Emit("early", component.EmitOptions{Summary: "tick", Timestamp: component.Unix(100)})
			},
		},
		Events: []trigger.Event{trigger.ManualEvent{}},
	}

	require.NoError(t, RunWithGolden(t, scenario))
}
