// Package flo implements the FlatLowered Object ("FLO"): the serializable
// intermediate representation that the compiler builds toward, and the
// interchange format between tools in this project.
//
// An Object owns one intern table per entity kind plus two symbol tables.
// Entities reference each other only by identifier, never by pointer, so
// the whole structure survives serialization unchanged. During
// construction an object may freely contain poisoned (invalid,
// not-yet-defined, or dead) entries; emission validates that nothing
// poisoned is reachable unless the object was created in partial mode.
package flo

// Object is the in-memory representation of a FLO translation unit.
type Object struct {
	// Name identifies the translation unit. Empty is allowed only for
	// objects that are never emitted.
	Name string

	// Version is the protocol version. Left empty, it is stamped at
	// emission time.
	Version string

	// Time is the generation timestamp in RFC 3339 form. Left empty, it
	// is stamped at emission time.
	Time string

	// EntryPoint is the entry block when this object is executable, 0
	// otherwise.
	EntryPoint BlockID

	// Symbols holds every name this object exports or resolves.
	Symbols SymbolTables

	// Intern tables, one per entity kind. Exclusively owned by this
	// object for its whole lifetime; not safe for concurrent mutation.
	Blocks      *Table[BlockID, Block]
	Statements  *Table[StatementID, Statement]
	MatchArms   *Table[MatchArmID, MatchArm]
	Variables   *Table[VariableID, Variable]
	Arrays      *Table[ArrayTypeID, ArrayType]
	Structs     *Table[StructTypeID, StructType]
	Diagnostics *Table[DiagnosticID, Diagnostic]
	Locations   *Table[LocationID, Location]

	// Initializers run when the program starts, Finalizers when it ends.
	// Both must name blocks with parameterless signatures.
	Initializers []BlockID
	Finalizers   []BlockID

	// allowIncomplete permits emitting or loading objects that still
	// contain reachable poison values, for mid-construction snapshots.
	allowIncomplete bool
}

// New creates a new, empty object for the named translation unit.
func New(name string) *Object {
	return &Object{
		Name:        name,
		Symbols:     NewSymbolTables(),
		Blocks:      NewTable[BlockID](PoisonedBlock),
		Statements:  NewTable[StatementID](PoisonedStatement),
		MatchArms:   NewTable[MatchArmID](PoisonedMatchArm),
		Variables:   NewTable[VariableID](PoisonedVariable),
		Arrays:      NewTable[ArrayTypeID](PoisonedArrayType),
		Structs:     NewTable[StructTypeID](PoisonedStructType),
		Diagnostics: NewTable[DiagnosticID](PoisonedDiagnostic),
		Locations:   NewTable[LocationID](PoisonedLocation),
	}
}

// NewPartial creates a partial object, which may be emitted while still
// incomplete.
func NewPartial(name string) *Object {
	o := New(name)
	o.allowIncomplete = true
	return o
}

// Partial reports whether the object tolerates reachable poison at
// emission time.
func (o *Object) Partial() bool {
	return o.allowIncomplete
}

// Mutators. These delegate to the owning table or list; no cross-table
// consistency is checked here. Consistency is a finalization-time concern,
// which is what lets construction proceed in any order.

// AddBlock interns a block and returns its id.
func (o *Object) AddBlock(b Block) BlockID { return o.Blocks.Insert(b) }

// DeclareBlock reserves a block id whose definition is not yet known. The
// placeholder is Undefined-poisoned; resolve it later with Blocks.Swap.
func (o *Object) DeclareBlock() BlockID {
	return o.Blocks.Insert(PoisonedBlock(PoisonUndefined))
}

// AddStatement interns a statement and returns its id.
func (o *Object) AddStatement(s Statement) StatementID { return o.Statements.Insert(s) }

// AddMatchArm interns a match arm and returns its id.
func (o *Object) AddMatchArm(a MatchArm) MatchArmID { return o.MatchArms.Insert(a) }

// AddVariable interns a variable and returns its id.
func (o *Object) AddVariable(v Variable) VariableID { return o.Variables.Insert(v) }

// AddArrayType interns an array type definition and returns its id.
func (o *Object) AddArrayType(t ArrayType) ArrayTypeID { return o.Arrays.Insert(t) }

// AddStructType interns a struct type definition and returns its id.
func (o *Object) AddStructType(t StructType) StructTypeID { return o.Structs.Insert(t) }

// AddDiagnostic interns a diagnostic and returns its id.
func (o *Object) AddDiagnostic(d Diagnostic) DiagnosticID { return o.Diagnostics.Insert(d) }

// AddLocation interns a location and returns its id.
func (o *Object) AddLocation(l Location) LocationID { return o.Locations.Insert(l) }

// SetEntryPoint marks the block executed when the object runs as a
// program.
func (o *Object) SetEntryPoint(id BlockID) { o.EntryPoint = id }

// PushInitializer appends a block to the startup sequence.
func (o *Object) PushInitializer(id BlockID) {
	o.Initializers = append(o.Initializers, id)
}

// PushFinalizer appends a block to the shutdown sequence.
func (o *Object) PushFinalizer(id BlockID) {
	o.Finalizers = append(o.Finalizers, id)
}
