package llvmir

import "github.com/llir/llvm/ir/enum"

// EntryKind distinguishes symbols the module defines from ones it only
// declares.
type EntryKind uint8

const (
	// EntryDeclaration names an external symbol: signature and
	// attributes, no body.
	EntryDeclaration EntryKind = iota
	// EntryDefinition carries a body as well.
	EntryDefinition
)

func (k EntryKind) String() string {
	if k == EntryDefinition {
		return "definition"
	}
	return "declaration"
}

// FunctionInfo describes what is needed to call a module-level function.
type FunctionInfo struct {
	Kind EntryKind

	// Intrinsic is set for compiler-implemented functions, recognized by
	// their reserved name prefix.
	Intrinsic bool

	Type       Type
	Linkage    enum.Linkage
	Visibility enum.Visibility
}

// GlobalInfo describes what is needed to access a module-level global.
type GlobalInfo struct {
	Kind EntryKind

	Type       Type
	Linkage    enum.Linkage
	Visibility enum.Visibility

	// Alignment in bytes, 0 when unspecified.
	Alignment int

	Const       bool
	Initialized bool
}
