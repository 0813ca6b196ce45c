package flo

import (
	"errors"
	"testing"
)

// buildAddObject constructs a minimal complete translation unit: one
// function taking two s64 params and returning their (statically known)
// sum via an assign-const, exported as "add".
func buildAddObject() (*Object, BlockID) {
	o := New("add")

	loc := o.AddLocation(Location{Source: "add.ll", Line: 1, Col: 1})
	a := o.AddVariable(Variable{Type: ScalarType(TypeSigned64), Linkage: LocalLinkage()})
	b := o.AddVariable(Variable{Type: ScalarType(TypeSigned64), Linkage: LocalLinkage()})
	r := o.AddVariable(Variable{Type: ScalarType(TypeSigned64), Linkage: LocalLinkage()})

	stmt := o.AddStatement(Statement{Kind: StmtAssignConst, AssignConst: AssignConstStatement{
		Variable: r,
		Value:    ConstantValue{Value: U128(7), Type: ScalarType(TypeSigned64)},
		Location: loc,
	}})
	entry := o.AddBlock(Block{
		Signature: &Signature{
			Params:   []VariableID{a, b},
			Returns:  []VariableID{r},
			Location: loc,
		},
		Statements: []StatementID{stmt},
		Exit:       ReturnExit(r),
	})
	o.Symbols.Code.Put("add", entry)
	return o, entry
}

func TestValidate_CleanObject(t *testing.T) {
	o, _ := buildAddObject()
	if err := o.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidate_ReachablePoisonFails(t *testing.T) {
	o, entry := buildAddObject()
	o.Blocks.Swap(entry, PoisonedBlock(PoisonExplicit))

	err := o.Validate()
	if !errors.Is(err, ErrPoisoned) {
		t.Fatalf("Validate() = %v, want ErrPoisoned", err)
	}
}

func TestValidate_UnreachablePoisonTolerated(t *testing.T) {
	o, _ := buildAddObject()
	// Poisoned entities nothing references are allowed to linger.
	o.AddVariable(PoisonedVariable(PoisonExplicit))
	o.AddBlock(PoisonedBlock(PoisonUndefined))

	if err := o.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidate_UnreachableMarkerTolerated(t *testing.T) {
	// A reachable entity carrying the Unreachable marker is fine: the
	// marker records dead code, not an error.
	o, _ := buildAddObject()
	dead := o.AddBlock(Block{
		Poison: MarkerOf(PoisonUnreachable),
		Exit:   ReturnExit(),
	})
	o.Symbols.Code.Put("dead", dead)

	if err := o.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidate_UnresolvedForwardReference(t *testing.T) {
	o, entry := buildAddObject()
	forward := o.DeclareBlock()
	callee := o.AddStatement(Statement{Kind: StmtCall, Call: CallStatement{
		Target: LocalRef(forward),
	}})
	block := o.Blocks.Get(entry)
	block.Statements = append(block.Statements, callee)
	o.Blocks.Swap(entry, block)

	if err := o.Validate(); !errors.Is(err, ErrPoisoned) {
		t.Fatalf("Validate() with unresolved declaration = %v, want ErrPoisoned", err)
	}

	// Resolving the declaration clears the failure.
	o.Blocks.Swap(forward, Block{Exit: ReturnExit()})
	if err := o.Validate(); err != nil {
		t.Fatalf("Validate() after resolving = %v, want nil", err)
	}
}

func TestValidate_WalksTypeGraph(t *testing.T) {
	o, entry := buildAddObject()
	arr := o.AddArrayType(PoisonedArrayType(PoisonExplicit))
	v := o.AddVariable(Variable{Type: ArrayOf(arr), Linkage: LocalLinkage()})
	block := o.Blocks.Get(entry)
	block.Exit = ReturnExit(v)
	o.Blocks.Swap(entry, block)

	if err := o.Validate(); !errors.Is(err, ErrPoisoned) {
		t.Fatalf("Validate() with poisoned member type = %v, want ErrPoisoned", err)
	}
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	o := New("broken")
	for _, name := range []string{"f", "g", "h"} {
		id := o.AddBlock(PoisonedBlock(PoisonExplicit))
		o.Symbols.Code.Put(name, id)
	}

	err := o.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want three violations")
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		t.Fatalf("Validate() error does not unwrap a list: %T", err)
	}
	if n := len(joined.Unwrap()); n != 3 {
		t.Fatalf("Validate() reported %d violations, want 3", n)
	}
}

func TestValidate_UnspecifiedExitFails(t *testing.T) {
	o := New("stub")
	id := o.AddBlock(Block{})
	o.Symbols.Code.Put("f", id)

	if err := o.Validate(); err == nil {
		t.Fatal("Validate() accepted a reachable block without an exit")
	}
}

func TestPartial_EmissionGate(t *testing.T) {
	complete := New("incomplete")
	complete.Symbols.Code.Put("f", complete.AddBlock(PoisonedBlock(PoisonExplicit)))
	if _, err := complete.String(); !errors.Is(err, ErrPoisoned) {
		t.Fatalf("String() on poisoned complete object = %v, want ErrPoisoned", err)
	}

	partial := NewPartial("incomplete")
	partial.Symbols.Code.Put("f", partial.AddBlock(PoisonedBlock(PoisonExplicit)))
	if _, err := partial.String(); err != nil {
		t.Fatalf("String() on poisoned partial object = %v, want nil", err)
	}
}
