package pass

import (
	"errors"
	"fmt"
	"slices"

	"floc/internal/source"
)

// ErrInvalidOrdering reports a pass configuration with no valid
// execution order: a dependency on an unregistered pass, a duplicate
// key, or a dependency cycle.
var ErrInvalidOrdering = errors.New("no valid pass ordering")

// Manager owns a set of passes and the one valid order to run them in.
// The order is fixed at construction; Run replays it over a context.
type Manager struct {
	passes []Pass
	order  []int
}

// NewManager schedules the given passes. Scheduling is a topological
// sort over the declared dependencies; ties run in registration order,
// so the resulting schedule is deterministic.
func NewManager(passes ...Pass) (*Manager, error) {
	index := make(map[Key]int, len(passes))
	for i, p := range passes {
		key := p.Key()
		if _, dup := index[key]; dup {
			return nil, fmt.Errorf("%w: pass %q registered twice", ErrInvalidOrdering, key)
		}
		index[key] = i
	}

	// Kahn's algorithm with sorted batches. An edge runs from each
	// dependency to its dependent.
	edges := make([][]int, len(passes))
	indeg := make([]int, len(passes))
	for i, p := range passes {
		for _, dep := range p.Depends() {
			from, ok := index[dep]
			if !ok {
				return nil, fmt.Errorf("%w: pass %q depends on unregistered pass %q", ErrInvalidOrdering, p.Key(), dep)
			}
			edges[from] = append(edges[from], i)
			indeg[i]++
		}
	}

	order := make([]int, 0, len(passes))
	current := make([]int, 0, len(passes))
	for i := range passes {
		if indeg[i] == 0 {
			current = append(current, i)
		}
	}
	slices.Sort(current)

	for len(current) > 0 {
		next := make([]int, 0)
		for _, i := range current {
			order = append(order, i)
			for _, to := range edges[i] {
				indeg[to]--
				if indeg[to] == 0 {
					next = append(next, to)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if len(order) != len(passes) {
		var stuck []Key
		for i, p := range passes {
			if indeg[i] > 0 {
				stuck = append(stuck, p.Key())
			}
		}
		slices.Sort(stuck)
		return nil, fmt.Errorf("%w: dependency cycle through %v", ErrInvalidOrdering, stuck)
	}

	return &Manager{passes: passes, order: order}, nil
}

// Order reports the scheduled execution order.
func (m *Manager) Order() []Key {
	keys := make([]Key, len(m.order))
	for i, idx := range m.order {
		keys[i] = m.passes[idx].Key()
	}
	return keys
}

// Result is what a completed run leaves behind: the final context and
// the accumulated pass outputs.
type Result struct {
	Context *source.Context
	Data    *DataMap
}

// Run executes the scheduled passes in order over ctx.
//
// After each pass, the outputs of everything it invalidates are evicted
// and its own output is stored under its key. The first pass error
// aborts the remaining schedule and is returned wrapped with the
// offending pass's key.
func (m *Manager) Run(ctx *source.Context) (*Result, error) {
	data := NewDataMap()
	for _, idx := range m.order {
		p := m.passes[idx]
		out, err := p.Run(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("pass %q: %w", p.Key(), err)
		}
		for _, stale := range p.Invalidates() {
			data.evict(stale)
		}
		if out != nil {
			data.put(p.Key(), out)
		}
	}
	return &Result{Context: ctx, Data: data}, nil
}

// Clone builds a fresh manager running clones of the same passes, for
// compiling another module with the same configuration.
func (m *Manager) Clone() *Manager {
	passes := make([]Pass, len(m.passes))
	for i, p := range m.passes {
		passes[i] = p.Clone()
	}
	clone, err := NewManager(passes...)
	if err != nil {
		// The original ordering was already proven valid.
		panic(fmt.Sprintf("pass: clone of a valid manager failed: %v", err))
	}
	return clone
}
