package runtime

import (
	"sort"

	"github.com/spindle-dev/spindle/internal/component"
)

// emission is one buffered emit call.
type emission struct {
	data    any
	opts    component.EmitOptions
	callSeq int
}

// emitter buffers every emission from a single run invocation.
//
// Nothing leaves the runtime until the invocation completes: the
// buffered set is then ordered, passed through the dedupe engine, and
// delivered to the sink.
type emitter struct {
	strategy component.DedupeStrategy
	instance string

	buf      []emission
	rejected []string // emit-time rejections, reported in the invocation log
}

// emit validates and buffers one emission.
func (e *emitter) emit(data any, opts component.EmitOptions) error {
	if e.strategy.RequiresID() && opts.ID == nil {
		err := &MissingIDError{Instance: e.instance, Strategy: string(e.strategy)}
		e.rejected = append(e.rejected, err.Error())
		return err
	}
	e.buf = append(e.buf, emission{data: data, opts: opts, callSeq: len(e.buf)})
	return nil
}

// ordered returns the buffered emissions in delivery order.
//
// Emissions carrying ts are sorted ascending by ts among themselves,
// with original call order as tie-break, and merged back into the
// buffer slots they collectively occupied. Emissions without ts never
// move: they keep their call-order position interleaved with the
// timestamped ones.
func (e *emitter) ordered() []emission {
	out := make([]emission, len(e.buf))
	copy(out, e.buf)

	var slots []int
	for i, em := range out {
		if em.opts.Timestamp != nil {
			slots = append(slots, i)
		}
	}
	if len(slots) < 2 {
		return out
	}

	stamped := make([]emission, len(slots))
	for j, i := range slots {
		stamped[j] = out[i]
	}
	sort.SliceStable(stamped, func(a, b int) bool {
		return *stamped[a].opts.Timestamp < *stamped[b].opts.Timestamp
	})
	for j, i := range slots {
		out[i] = stamped[j]
	}
	return out
}
