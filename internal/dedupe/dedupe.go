// Package dedupe decides whether emitted events pass through the
// runtime, under one of four admission strategies keyed by event id.
//
// An Engine is owned by exactly one component instance. Admissions
// mutate only the in-memory state; the runtime persists a snapshot
// atomically after each completed invocation, so a crashed invocation
// never leaves partial admissions behind.
package dedupe

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/spindle-dev/spindle/internal/component"
)

// MaxUniqueIDs caps the unique strategy's FIFO cache.
const MaxUniqueIDs = 100

// Decision is the admission outcome for one emission.
// Err is set when the id is unusable; such emissions are rejected and
// reported without aborting the batch.
type Decision struct {
	Accept bool
	Err    error
}

// Engine applies one strategy's admission policy and tracks its state.
//
// Not safe for concurrent use: the runtime serializes invocations per
// instance, which is the only caller.
type Engine struct {
	strategy component.DedupeStrategy

	// unique is the FIFO cache of admitted id keys, oldest first.
	unique []string

	// max is the greatest admitted numeric id, if any.
	max *float64

	// last is the id key of the newest admitted emission, if any.
	last *string
}

// state is the persisted snapshot shape.
type state struct {
	Unique []string `json:"unique,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Last   *string  `json:"last,omitempty"`
}

// New creates an engine with empty state.
func New(strategy component.DedupeStrategy) *Engine {
	if strategy == "" {
		strategy = component.DedupeNone
	}
	return &Engine{strategy: strategy}
}

// Restore creates an engine from a persisted snapshot.
// An empty snapshot yields empty state.
func Restore(strategy component.DedupeStrategy, snapshot []byte) (*Engine, error) {
	e := New(strategy)
	if len(snapshot) == 0 {
		return e, nil
	}
	var st state
	if err := json.Unmarshal(snapshot, &st); err != nil {
		return nil, fmt.Errorf("restore dedupe state: %w", err)
	}
	e.unique = st.Unique
	e.max = st.Max
	e.last = st.Last
	return e, nil
}

// Snapshot serializes the current state for persistence.
func (e *Engine) Snapshot() ([]byte, error) {
	data, err := json.Marshal(state{Unique: e.unique, Max: e.max, Last: e.last})
	if err != nil {
		return nil, fmt.Errorf("snapshot dedupe state: %w", err)
	}
	return data, nil
}

// Strategy returns the engine's strategy.
func (e *Engine) Strategy() component.DedupeStrategy {
	return e.strategy
}

// AdmitBatch decides admission for one invocation's ordered emissions
// (ts order, per the emitter). The returned slice is parallel to ids.
//
// The last strategy is batch-scoped: the batch is scanned for the
// newest occurrence of the cached id, everything strictly after it is
// accepted, and the cache moves to the newest accepted id. A batch
// that does not contain the cached id is accepted whole.
func (e *Engine) AdmitBatch(ids []any) []Decision {
	switch e.strategy {
	case component.DedupeUnique:
		return e.admitEach(ids, e.admitUnique)
	case component.DedupeGreatest:
		return e.admitEach(ids, e.admitGreatest)
	case component.DedupeLast:
		return e.admitLast(ids)
	default:
		decisions := make([]Decision, len(ids))
		for i := range decisions {
			decisions[i].Accept = true
		}
		return decisions
	}
}

// admitEach applies a per-emission policy in order.
func (e *Engine) admitEach(ids []any, admit func(id any) (bool, error)) []Decision {
	decisions := make([]Decision, len(ids))
	for i, id := range ids {
		ok, err := admit(id)
		decisions[i] = Decision{Accept: ok, Err: err}
	}
	return decisions
}

// admitUnique accepts ids absent from the FIFO cache, evicting the
// oldest entry once the cache exceeds MaxUniqueIDs.
func (e *Engine) admitUnique(id any) (bool, error) {
	key, err := idKey(id)
	if err != nil {
		return false, err
	}
	for _, cached := range e.unique {
		if cached == key {
			return false, nil
		}
	}
	e.unique = append(e.unique, key)
	if len(e.unique) > MaxUniqueIDs {
		e.unique = e.unique[1:]
	}
	return true, nil
}

// admitGreatest accepts ids strictly greater than the cached maximum.
func (e *Engine) admitGreatest(id any) (bool, error) {
	num, err := toNumber(id)
	if err != nil {
		return false, &TypeError{Strategy: string(e.strategy), ID: id, Message: err.Error()}
	}
	if e.max != nil && num <= *e.max {
		return false, nil
	}
	e.max = &num
	return true, nil
}

// admitLast implements the batch-suffix policy.
func (e *Engine) admitLast(ids []any) []Decision {
	decisions := make([]Decision, len(ids))
	keys := make([]string, len(ids))
	for i, id := range ids {
		key, err := idKey(id)
		if err != nil {
			decisions[i].Err = err
			continue
		}
		keys[i] = key
	}

	// With no cached id the whole batch passes. Otherwise find the
	// newest occurrence of the cached id; everything strictly after it
	// passes. A batch without the cached id passes whole.
	cutoff := -1
	if e.last != nil {
		for i := len(ids) - 1; i >= 0; i-- {
			if decisions[i].Err == nil && keys[i] == *e.last {
				cutoff = i
				break
			}
		}
	}

	newest := ""
	accepted := false
	for i := range ids {
		if decisions[i].Err != nil {
			continue
		}
		if i > cutoff {
			decisions[i].Accept = true
			newest = keys[i]
			accepted = true
		}
	}
	if accepted {
		e.last = &newest
	}
	return decisions
}

// UniqueLen returns the unique cache size. Diagnostics and tests.
func (e *Engine) UniqueLen() int {
	return len(e.unique)
}

// idKey normalizes an emission id to its cache key. Numeric ids with
// equal value map to the same key regardless of Go type.
func idKey(id any) (string, error) {
	if s, ok := id.(string); ok {
		return s, nil
	}
	num, err := toNumber(id)
	if err != nil {
		return "", &TypeError{ID: id, Message: "id must be a string or a number"}
	}
	return strconv.FormatFloat(num, 'g', -1, 64), nil
}

// toNumber coerces an id to a total-ordered float64.
func toNumber(id any) (float64, error) {
	var num float64
	switch v := id.(type) {
	case int:
		num = float64(v)
	case int32:
		num = float64(v)
	case int64:
		num = float64(v)
	case float32:
		num = float64(v)
	case float64:
		num = v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("id %q is not numeric", v)
		}
		num = f
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("id %q is not numeric", v)
		}
		num = f
	default:
		return 0, fmt.Errorf("id of type %T is not numeric", id)
	}
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return 0, fmt.Errorf("id %v is not totally ordered", num)
	}
	return num, nil
}
