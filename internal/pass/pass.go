// Package pass implements the compilation pass framework: named units of
// work with declared dependency and invalidation relationships, scheduled
// into a deterministic order and run over a shared compilation context.
package pass

import (
	"floc/internal/source"
)

// Key identifies a pass. Keys are explicit registration-time names
// rather than anything derived from the implementing type, so two
// instances of the same pass always agree and a renamed type changes
// nothing. By convention keys are path-like, "analysis/module-map".
type Key string

// Pass is one unit of compilation work.
//
// A pass receives the compilation context and the accumulated data of
// earlier passes, and produces a single output value published under its
// own key. The data map handed to Run is read-only; output is returned,
// never written in place.
type Pass interface {
	// Key names the pass. It must be constant over the pass's lifetime.
	Key() Key

	// Depends lists the passes whose output this pass reads. The manager
	// refuses orderings that run this pass before any of them.
	Depends() []Key

	// Invalidates lists the passes whose prior output this pass makes
	// stale. Their entries are evicted from the data map after this pass
	// runs.
	Invalidates() []Key

	// Run executes the pass. The returned value is stored in the data
	// map under the pass's key; a nil value stores nothing.
	Run(ctx *source.Context, data *DataMap) (any, error)

	// Clone returns an independent copy of the pass and its
	// configuration, for building fresh managers.
	Clone() Pass
}
