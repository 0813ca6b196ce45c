package flo

import (
	"errors"
	"fmt"
)

// ErrPoisoned is wrapped by every finalization failure caused by a
// reachable poison value.
var ErrPoisoned = errors.New("reachable poison value")

// Validate walks every entity reachable from the object's roots (entry
// point, symbol tables, initializers, finalizers) and reports each one
// that carries a poison marker other than None or Unreachable. The two
// reserved sentinel slots are never reachable from a well-formed object;
// a reference to either is reported like any other poison.
//
// Validation always runs the full walk, even for partial objects; callers
// deciding whether a partial object may be emitted check Partial()
// themselves.
func (o *Object) Validate() error {
	w := &poisonWalk{obj: o}
	if o.EntryPoint != 0 {
		w.block(o.EntryPoint, "entry point")
	}
	for _, name := range o.Symbols.Code.Names() {
		id, _ := o.Symbols.Code.ByName(name)
		w.block(id, fmt.Sprintf("function symbol %q", name))
	}
	for _, name := range o.Symbols.Data.Names() {
		id, _ := o.Symbols.Data.ByName(name)
		w.variable(id, fmt.Sprintf("data symbol %q", name))
	}
	for i, id := range o.Initializers {
		w.block(id, fmt.Sprintf("initializer %d", i))
	}
	for i, id := range o.Finalizers {
		w.block(id, fmt.Sprintf("finalizer %d", i))
	}
	return errors.Join(w.errs...)
}

// checkEmittable is the gate applied by the emission and loading paths.
func (o *Object) checkEmittable() error {
	if o.allowIncomplete {
		return nil
	}
	return o.Validate()
}

// poisonWalk tracks visited ids per table so cyclic control flow
// terminates.
type poisonWalk struct {
	obj  *Object
	errs []error

	blocks    map[BlockID]bool
	stmts     map[StatementID]bool
	arms      map[MatchArmID]bool
	vars      map[VariableID]bool
	arrays    map[ArrayTypeID]bool
	structs   map[StructTypeID]bool
	diags     map[DiagnosticID]bool
	locations map[LocationID]bool
}

func (w *poisonWalk) poisonErr(what string, via string, m Marker) {
	if m.Kind == PoisonExplicit && m.Reason != "" {
		w.errs = append(w.errs, fmt.Errorf("%s (via %s): %w: %s: %s", what, via, ErrPoisoned, m.Kind, m.Reason))
		return
	}
	w.errs = append(w.errs, fmt.Errorf("%s (via %s): %w: %s", what, via, ErrPoisoned, m.Kind))
}

// tolerated reports whether a marker may survive finalization.
func tolerated(m Marker) bool {
	return m.Kind == PoisonNone || m.Kind == PoisonUnreachable
}

func (w *poisonWalk) block(id BlockID, via string) {
	if !w.obj.Blocks.Has(id) {
		w.errs = append(w.errs, fmt.Errorf("block %d (via %s): unknown id", id, via))
		return
	}
	if w.blocks[id] {
		return
	}
	if w.blocks == nil {
		w.blocks = make(map[BlockID]bool)
	}
	w.blocks[id] = true

	b := w.obj.Blocks.Get(id)
	if !tolerated(b.Poison) {
		w.poisonErr(fmt.Sprintf("block %d", id), via, b.Poison)
		return
	}
	here := fmt.Sprintf("block %d", id)
	if b.Signature != nil {
		for _, v := range b.Signature.Params {
			w.variable(v, here+" params")
		}
		for _, v := range b.Signature.Returns {
			w.variable(v, here+" returns")
		}
		w.location(b.Signature.Location, here)
	}
	for _, s := range b.Statements {
		w.statement(s, here)
	}
	w.exit(b.Exit, here)
	for _, d := range b.Diagnostics {
		w.diagnostic(d, here)
	}
}

func (w *poisonWalk) exit(e BlockExit, via string) {
	switch e.Kind {
	case ExitReturn:
		for _, v := range e.Returns {
			w.variable(v, via+" return")
		}
	case ExitPanic:
		for _, v := range e.PanicArgs {
			w.variable(v, via+" panic")
		}
	case ExitGoto:
		w.block(e.Goto, via+" goto")
	case ExitMatch:
		for _, a := range e.Arms {
			w.arm(a, via+" match")
		}
	case ExitUnspecified:
		w.errs = append(w.errs, fmt.Errorf("%s: unspecified block exit", via))
	}
}

func (w *poisonWalk) ref(r BlockRef, via string) {
	if r.Kind == RefLocal {
		w.block(r.Block, via)
	}
}

func (w *poisonWalk) statement(id StatementID, via string) {
	if !w.obj.Statements.Has(id) {
		w.errs = append(w.errs, fmt.Errorf("statement %d (via %s): unknown id", id, via))
		return
	}
	if w.stmts[id] {
		return
	}
	if w.stmts == nil {
		w.stmts = make(map[StatementID]bool)
	}
	w.stmts[id] = true

	s := w.obj.Statements.Get(id)
	here := fmt.Sprintf("statement %d", id)
	switch s.Kind {
	case StmtPoisoned:
		if !tolerated(s.Poison) {
			w.poisonErr(here, via, s.Poison)
		}
	case StmtAssignConst:
		w.variable(s.AssignConst.Variable, here)
		w.typ(s.AssignConst.Value.Type, here)
		w.meta(s.AssignConst.Diagnostics, s.AssignConst.Location, here)
	case StmtCall:
		w.ref(s.Call.Target, here)
		for _, v := range s.Call.Inputs {
			w.variable(v, here)
		}
		for _, v := range s.Call.Outputs {
			w.variable(v, here)
		}
		w.meta(s.Call.Diagnostics, s.Call.Location, here)
	case StmtConstruct:
		w.variable(s.Construct.Target, here)
		for _, v := range s.Construct.Initializers {
			w.variable(v, here)
		}
		w.meta(s.Construct.Diagnostics, s.Construct.Location, here)
	case StmtDestructure:
		w.variable(s.Destructure.Whole, here)
		for _, v := range s.Destructure.Parts {
			w.variable(v, here)
		}
		w.meta(s.Destructure.Diagnostics, s.Destructure.Location, here)
	case StmtSnap:
		w.variable(s.Snap.Target, here)
		w.variable(s.Snap.Source, here)
		w.meta(s.Snap.Diagnostics, s.Snap.Location, here)
	case StmtDesnap:
		w.variable(s.Desnap.Snap, here)
		w.variable(s.Desnap.Target, here)
		w.meta(s.Desnap.Diagnostics, s.Desnap.Location, here)
	}
}

func (w *poisonWalk) arm(id MatchArmID, via string) {
	if !w.obj.MatchArms.Has(id) {
		w.errs = append(w.errs, fmt.Errorf("match arm %d (via %s): unknown id", id, via))
		return
	}
	if w.arms[id] {
		return
	}
	if w.arms == nil {
		w.arms = make(map[MatchArmID]bool)
	}
	w.arms[id] = true

	a := w.obj.MatchArms.Get(id)
	here := fmt.Sprintf("match arm %d", id)
	if !tolerated(a.Poison) {
		w.poisonErr(here, via, a.Poison)
		return
	}
	w.variable(a.Condition, here)
	w.ref(a.Target, here)
	w.meta(a.Diagnostics, a.Location, here)
}

func (w *poisonWalk) variable(id VariableID, via string) {
	if !w.obj.Variables.Has(id) {
		w.errs = append(w.errs, fmt.Errorf("variable %d (via %s): unknown id", id, via))
		return
	}
	if w.vars[id] {
		return
	}
	if w.vars == nil {
		w.vars = make(map[VariableID]bool)
	}
	w.vars[id] = true

	v := w.obj.Variables.Get(id)
	here := fmt.Sprintf("variable %d", id)
	if !tolerated(v.Poison) {
		w.poisonErr(here, via, v.Poison)
		return
	}
	w.typ(v.Type, here)
	w.meta(v.Diagnostics, v.Location, here)
}

func (w *poisonWalk) typ(t Type, via string) {
	switch t.Kind {
	case TypeArray:
		w.arrayType(t.Array, via)
	case TypeStruct:
		w.structType(t.Struct, via)
	}
}

func (w *poisonWalk) arrayType(id ArrayTypeID, via string) {
	if !w.obj.Arrays.Has(id) {
		w.errs = append(w.errs, fmt.Errorf("array type %d (via %s): unknown id", id, via))
		return
	}
	if w.arrays[id] {
		return
	}
	if w.arrays == nil {
		w.arrays = make(map[ArrayTypeID]bool)
	}
	w.arrays[id] = true

	t := w.obj.Arrays.Get(id)
	here := fmt.Sprintf("array type %d", id)
	if !tolerated(t.Poison) {
		w.poisonErr(here, via, t.Poison)
		return
	}
	w.typ(t.Member, here)
	w.meta(t.Diagnostics, t.Location, here)
}

func (w *poisonWalk) structType(id StructTypeID, via string) {
	if !w.obj.Structs.Has(id) {
		w.errs = append(w.errs, fmt.Errorf("struct type %d (via %s): unknown id", id, via))
		return
	}
	if w.structs[id] {
		return
	}
	if w.structs == nil {
		w.structs = make(map[StructTypeID]bool)
	}
	w.structs[id] = true

	t := w.obj.Structs.Get(id)
	here := fmt.Sprintf("struct type %d", id)
	if !tolerated(t.Poison) {
		w.poisonErr(here, via, t.Poison)
		return
	}
	for _, m := range t.Members {
		w.typ(m, here)
	}
	w.meta(t.Diagnostics, t.Location, here)
}

func (w *poisonWalk) diagnostic(id DiagnosticID, via string) {
	if !w.obj.Diagnostics.Has(id) {
		w.errs = append(w.errs, fmt.Errorf("diagnostic %d (via %s): unknown id", id, via))
		return
	}
	if w.diags[id] {
		return
	}
	if w.diags == nil {
		w.diags = make(map[DiagnosticID]bool)
	}
	w.diags[id] = true

	d := w.obj.Diagnostics.Get(id)
	here := fmt.Sprintf("diagnostic %d", id)
	if !tolerated(d.Poison) {
		w.poisonErr(here, via, d.Poison)
		return
	}
	w.location(d.Location, here)
}

func (w *poisonWalk) location(id LocationID, via string) {
	if id == 0 {
		// Zero means "no location", not a reference to the null slot.
		return
	}
	if !w.obj.Locations.Has(id) {
		w.errs = append(w.errs, fmt.Errorf("location %d (via %s): unknown id", id, via))
		return
	}
	if w.locations[id] {
		return
	}
	if w.locations == nil {
		w.locations = make(map[LocationID]bool)
	}
	w.locations[id] = true

	l := w.obj.Locations.Get(id)
	if !tolerated(l.Poison) {
		w.poisonErr(fmt.Sprintf("location %d", id), via, l.Poison)
	}
}

func (w *poisonWalk) meta(diags []DiagnosticID, loc LocationID, via string) {
	for _, d := range diags {
		w.diagnostic(d, via)
	}
	w.location(loc, via)
}
