// Package harness runs components end to end against a fresh
// in-memory store: resolve props, activate, dispatch the scenario's
// events through the real invocation loop, deactivate, and hand back
// the delivered events for assertion or golden comparison.
package harness

import (
	"context"
	"fmt"

	"github.com/spindle-dev/spindle/internal/props"
	"github.com/spindle-dev/spindle/internal/runtime"
	"github.com/spindle-dev/spindle/internal/store"
	"github.com/spindle-dev/spindle/internal/testutil"
)

// Run executes a scenario and returns its result.
//
// Each run gets a fresh in-memory database, so scenarios are fully
// isolated and repeatable. Sequence numbers come from the instance's
// logical clock and are deterministic for a fixed event order.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("scenario %s: opening store: %w", scenario.Name, err)
	}
	defer st.Close()

	resolved, err := props.Resolve(scenario.Definition.Props, scenario.Values)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: resolving props: %w", scenario.Name, err)
	}

	sink := testutil.NewCaptureSink()
	inst, err := runtime.NewInstance(ctx, scenario.Name, scenario.Definition, resolved, st, sink,
		runtime.WithLogger(testutil.SilentLogger()),
	)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: creating instance: %w", scenario.Name, err)
	}

	if err := inst.Activate(ctx); err != nil {
		return nil, fmt.Errorf("scenario %s: activating: %w", scenario.Name, err)
	}

	result := &Result{EndpointID: inst.EndpointID()}

	for i, ev := range scenario.Events {
		if err := inst.Dispatch(ev); err != nil {
			result.DispatchErrors = append(result.DispatchErrors,
				fmt.Sprintf("event %d: %v", i, err))
			continue
		}
		// Serialize events for deterministic seq assignment. The loop
		// already serializes execution; waiting here pins the order
		// events enter the queue as well.
		if err := inst.Quiesce(ctx); err != nil {
			return nil, fmt.Errorf("scenario %s: waiting for event %d: %w", scenario.Name, i, err)
		}
	}

	if err := inst.Deactivate(ctx); err != nil {
		return nil, fmt.Errorf("scenario %s: deactivating: %w", scenario.Name, err)
	}

	result.Events = sink.Events()
	return result, nil
}
