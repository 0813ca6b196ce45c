package flo

// Identifier types for the intern tables. Identifiers are scoped to one
// table: a BlockID and a VariableID that happen to share a numeric value
// are unrelated. Id 0 always refers to the reserved null sentinel, which
// lets a zero id double as "absent" for optional references.
type (
	// BlockID references a Block in the object's block table.
	BlockID uint64
	// StatementID references a Statement in the object's statement table.
	StatementID uint64
	// MatchArmID references a MatchArm in the object's match-arm table.
	MatchArmID uint64
	// VariableID references a Variable in the object's variable table.
	VariableID uint64
	// ArrayTypeID references an ArrayType in the object's array-type table.
	ArrayTypeID uint64
	// StructTypeID references a StructType in the object's struct-type table.
	StructTypeID uint64
	// DiagnosticID references a Diagnostic in the object's diagnostic table.
	DiagnosticID uint64
	// LocationID references a Location in the object's location table.
	LocationID uint64
)

// Block is a linear, single-entry code path: an ordered list of statements
// terminated by a control-flow exit. Everything but control flow happens in
// the statements of some block.
type Block struct {
	// Signature is present iff this block is the entry point of a
	// function.
	Signature *Signature

	Poison Marker

	// Statements are executed in order.
	Statements []StatementID

	// Exit is taken after the last statement.
	Exit BlockExit

	Diagnostics []DiagnosticID
}

// Signature carries the metadata needed to call a function. It lives on
// the function's entry block and is not interned separately.
type Signature struct {
	// Params are the variables bound to the call's inputs.
	Params []VariableID

	// Returns are the variables produced by the eventual return exit.
	Returns []VariableID

	// CanPanic is set when any path through the function may panic.
	CanPanic bool

	// Location of the function in source, 0 when unknown.
	Location LocationID
}

// ExitKind enumerates the ways control leaves a block.
type ExitKind uint8

const (
	// ExitUnspecified is the placeholder exit of a block still under
	// construction. Encountering it at emission time outside a poisoned
	// block is an error.
	ExitUnspecified ExitKind = iota
	// ExitReturn returns control to the caller.
	ExitReturn
	// ExitPanic aborts with a formatted message.
	ExitPanic
	// ExitGoto continues at another block.
	ExitGoto
	// ExitMatch tries a list of match arms and jumps to the first whose
	// condition holds.
	ExitMatch
)

// BlockExit describes the action taken once a block's statements have run.
type BlockExit struct {
	Kind ExitKind

	// Returns holds the returned variables for ExitReturn.
	Returns []VariableID

	// PanicFormat and PanicArgs describe the message for ExitPanic.
	PanicFormat string
	PanicArgs   []VariableID

	// Goto is the continuation block for ExitGoto.
	Goto BlockID

	// Arms are the candidates for ExitMatch, tried in order.
	Arms []MatchArmID
}

// ReturnExit builds a return exit over the given variables.
func ReturnExit(vars ...VariableID) BlockExit {
	return BlockExit{Kind: ExitReturn, Returns: vars}
}

// GotoExit builds an unconditional jump to target.
func GotoExit(target BlockID) BlockExit {
	return BlockExit{Kind: ExitGoto, Goto: target}
}

// StatementKind enumerates statement variants.
type StatementKind uint8

const (
	// StmtAssignConst assigns a constant value to an SSA variable.
	StmtAssignConst StatementKind = iota
	// StmtCall calls a function, locally or by symbol.
	StmtCall
	// StmtConstruct builds an instance of a composite type.
	StmtConstruct
	// StmtDestructure breaks a composite value into its members.
	StmtDestructure
	// StmtSnap captures a variable's value at the current time.
	StmtSnap
	// StmtDesnap binds a new variable to a previously captured value.
	StmtDesnap
	// StmtPoisoned marks the statement itself as a poison value; the
	// marker lives in Statement.Poison.
	StmtPoisoned
)

// Statement is one step of program execution. It is a closed tagged union:
// Kind selects which payload field is meaningful.
type Statement struct {
	Kind StatementKind

	AssignConst AssignConstStatement
	Call        CallStatement
	Construct   ConstructStatement
	Destructure DestructureStatement
	Snap        SnapStatement
	Desnap      DesnapStatement

	// Poison is meaningful only when Kind is StmtPoisoned.
	Poison Marker
}

// Poisoned reports whether the statement is the poisoned variant.
func (s Statement) Poisoned() bool {
	return s.Kind == StmtPoisoned
}

// AssignConstStatement assigns a constant value to an SSA variable.
type AssignConstStatement struct {
	Variable    VariableID
	Value       ConstantValue
	Diagnostics []DiagnosticID
	Location    LocationID
}

// CallStatement calls a target function.
type CallStatement struct {
	// Target identifies the block to call.
	Target BlockRef

	// Inputs are the call arguments.
	Inputs []VariableID

	// Outputs receive the call's return values.
	Outputs []VariableID

	Diagnostics []DiagnosticID
	Location    LocationID
}

// ConstructStatement builds an instance of a composite type. The type of
// the constructed value is the type of the target variable.
type ConstructStatement struct {
	Target VariableID

	// Initializers supply the members in order. For an enum type this is
	// a single variable holding the concrete representation.
	Initializers []VariableID

	Diagnostics []DiagnosticID
	Location    LocationID
}

// DestructureStatement breaks a composite value into per-member variables.
type DestructureStatement struct {
	// Whole is the composite value being taken apart.
	Whole VariableID

	// Parts receive the members, in order.
	Parts []VariableID

	Diagnostics []DiagnosticID
	Location    LocationID
}

// SnapStatement captures a snapshot of a variable's current value.
type SnapStatement struct {
	Target      VariableID
	Source      VariableID
	Diagnostics []DiagnosticID
	Location    LocationID
}

// DesnapStatement binds a variable to the value captured by a snapshot.
type DesnapStatement struct {
	Snap        VariableID
	Target      VariableID
	Diagnostics []DiagnosticID
	Location    LocationID
}

// BlockRefKind enumerates ways to point at a callable block.
type BlockRefKind uint8

const (
	// RefUnspecified is the placeholder target of a poisoned value.
	RefUnspecified BlockRefKind = iota
	// RefLocal targets a block in this translation unit.
	RefLocal
	// RefExternal targets a mangled symbol resolved at link time.
	// Symbols starting with two or more underscores are reserved for the
	// implementation.
	RefExternal
	// RefBuiltin targets a symbol in the compiler's runtime library.
	RefBuiltin
)

// BlockRef identifies a call or jump target, locally or by symbol.
type BlockRef struct {
	Kind   BlockRefKind
	Block  BlockID
	Symbol string
}

// LocalRef builds a reference to a block in this translation unit.
func LocalRef(id BlockID) BlockRef { return BlockRef{Kind: RefLocal, Block: id} }

// ExternalRef builds a reference resolved by symbol at link time.
func ExternalRef(symbol string) BlockRef { return BlockRef{Kind: RefExternal, Symbol: symbol} }

// BuiltinRef builds a reference into the runtime library.
func BuiltinRef(symbol string) BlockRef { return BlockRef{Kind: RefBuiltin, Symbol: symbol} }

// Variable is an SSA variable, simple or composite, with basic metadata.
type Variable struct {
	Type        Type
	Linkage     Linkage
	Poison      Marker
	Diagnostics []DiagnosticID
	Location    LocationID
}

// LinkageKind enumerates where a variable's storage lives.
type LinkageKind uint8

const (
	// LinkUnspecified is the placeholder linkage of a poisoned variable.
	LinkUnspecified LinkageKind = iota
	// LinkLocal places the variable in this translation unit.
	LinkLocal
	// LinkExternal resolves the variable by symbol in another unit.
	LinkExternal
	// LinkBuiltin resolves the variable from the compiler implementation.
	LinkBuiltin
)

// Linkage says whether a variable is local or resolved by symbol.
type Linkage struct {
	Kind   LinkageKind
	Symbol string
}

// LocalLinkage is the linkage of a variable defined in this unit.
func LocalLinkage() Linkage { return Linkage{Kind: LinkLocal} }

// ExternalLinkage builds linkage resolved by symbol.
func ExternalLinkage(symbol string) Linkage { return Linkage{Kind: LinkExternal, Symbol: symbol} }

// TypeKind enumerates the variable types of the object format, a filtered
// view of the foreign IR's type system.
type TypeKind uint8

const (
	// TypeUnspecified is the placeholder type of a poisoned variable.
	TypeUnspecified TypeKind = iota
	TypeVoid
	TypeBool
	TypeEnum
	TypeUnsigned8
	TypeUnsigned16
	TypeUnsigned32
	TypeUnsigned64
	TypeUnsigned128
	TypeSigned8
	TypeSigned16
	TypeSigned32
	TypeSigned64
	TypeSigned128
	TypeFloat
	TypeDouble
	TypePointer
	TypeSnapshot
	TypeArray
	TypeStruct
)

// Type is the simple-or-composite type of an SSA variable. Composite kinds
// carry the id of their interned definition.
type Type struct {
	Kind   TypeKind
	Array  ArrayTypeID
	Struct StructTypeID
}

// Composite reports whether the type can be used with Construct or
// Destructure.
func (t Type) Composite() bool {
	return t.Kind == TypeArray || t.Kind == TypeStruct
}

// ScalarType builds a type with no composite payload.
func ScalarType(kind TypeKind) Type { return Type{Kind: kind} }

// ArrayOf builds a type referencing an interned array definition.
func ArrayOf(id ArrayTypeID) Type { return Type{Kind: TypeArray, Array: id} }

// StructOf builds a type referencing an interned struct definition.
func StructOf(id StructTypeID) Type { return Type{Kind: TypeStruct, Struct: id} }

// ArrayType is a fixed-size, contiguous array of one member type. The
// length is part of the type, so comparing ArrayTypeIDs determines type
// identity including the bound.
type ArrayType struct {
	Member      Type
	Length      uint64
	Diagnostics []DiagnosticID
	Location    LocationID
	Poison      Marker
}

// StructType is an ordered list of member types that can be destructured.
// StructTypeIDs can be treated as unique type identifiers and compared.
type StructType struct {
	Members     []Type
	Diagnostics []DiagnosticID
	Location    LocationID
	Poison      Marker
}

// Diagnostic is a message that can be attached to any interned entity.
type Diagnostic struct {
	Message  string
	Poison   Marker
	Location LocationID
}

// Location points at a piece of source material for diagnostics and
// debugging. Line and Col are 1-based; 0 means unknown.
type Location struct {
	Source string
	Line   uint32
	Col    uint32
	Poison Marker
}

// MatchArm is one arm of a match exit. If Condition (a Bool variable,
// already evaluated) is true, control continues at Target.
type MatchArm struct {
	Condition   VariableID
	Target      BlockRef
	Poison      Marker
	Diagnostics []DiagnosticID
	Location    LocationID
}

// Uint128 is a 128-bit unsigned value, wide enough for every constant the
// object format can carry.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

// U128 builds a Uint128 from a 64-bit value.
func U128(lo uint64) Uint128 { return Uint128{Lo: lo} }

// ConstantValue is a simple constant with a fixed type. The value must fit
// the constraints of the type.
type ConstantValue struct {
	Value Uint128
	Type  Type
}
