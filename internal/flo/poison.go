package flo

// PoisonKind classifies why an interned value is not usable.
type PoisonKind uint8

const (
	// PoisonNone marks a valid, fully defined value.
	PoisonNone PoisonKind = iota
	// PoisonExplicit marks a value that was invalidated on purpose; the
	// marker carries a human-readable reason.
	PoisonExplicit
	// PoisonUndefined marks a value that is declared but not yet defined.
	// Tables hand these out as forward-declaration placeholders.
	PoisonUndefined
	// PoisonUnreachable marks a value that is intentionally dead: a block
	// that should never run, a variable that should never be read.
	PoisonUnreachable
	// PoisonNullEntry is reserved for the value stored at id 0 of every
	// intern table. It exists to catch accidental use of a zero id.
	PoisonNullEntry
)

func (k PoisonKind) String() string {
	switch k {
	case PoisonNone:
		return "none"
	case PoisonExplicit:
		return "explicit"
	case PoisonUndefined:
		return "undefined"
	case PoisonUnreachable:
		return "unreachable"
	case PoisonNullEntry:
		return "null"
	}
	return "unknown"
}

// Marker records the poison state of an interned value.
//
// The zero Marker means "not poisoned".
type Marker struct {
	Kind   PoisonKind
	Reason string
}

// Poisoned reports whether the marker carries any poison kind.
func (m Marker) Poisoned() bool {
	return m.Kind != PoisonNone
}

// MarkerOf builds a marker of the given kind with no reason text.
func MarkerOf(kind PoisonKind) Marker {
	return Marker{Kind: kind}
}

// Poison builds an explicit poison marker with a reason.
func Poison(reason string) Marker {
	return Marker{Kind: PoisonExplicit, Reason: reason}
}

// Poison factories. Every interned entity kind can produce a value whose
// only meaningful content is its poison marker; intern tables use these for
// their reserved sentinel slots and callers use them as forward-declaration
// placeholders to be replaced via Table.Swap.

// PoisonedBlock returns a block carrying only the given poison marker.
func PoisonedBlock(kind PoisonKind) Block { return Block{Poison: MarkerOf(kind)} }

// PoisonedStatement returns the poisoned statement variant.
func PoisonedStatement(kind PoisonKind) Statement {
	return Statement{Kind: StmtPoisoned, Poison: MarkerOf(kind)}
}

// PoisonedMatchArm returns a match arm carrying only the given poison marker.
func PoisonedMatchArm(kind PoisonKind) MatchArm { return MatchArm{Poison: MarkerOf(kind)} }

// PoisonedVariable returns a variable carrying only the given poison marker.
func PoisonedVariable(kind PoisonKind) Variable { return Variable{Poison: MarkerOf(kind)} }

// PoisonedArrayType returns an array type carrying only the given poison marker.
func PoisonedArrayType(kind PoisonKind) ArrayType { return ArrayType{Poison: MarkerOf(kind)} }

// PoisonedStructType returns a struct type carrying only the given poison marker.
func PoisonedStructType(kind PoisonKind) StructType { return StructType{Poison: MarkerOf(kind)} }

// PoisonedDiagnostic returns a diagnostic carrying only the given poison marker.
func PoisonedDiagnostic(kind PoisonKind) Diagnostic { return Diagnostic{Poison: MarkerOf(kind)} }

// PoisonedLocation returns a location carrying only the given poison marker.
func PoisonedLocation(kind PoisonKind) Location { return Location{Poison: MarkerOf(kind)} }
