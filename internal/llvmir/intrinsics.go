package llvmir

import (
	"fmt"

	"github.com/llir/llvm/ir/enum"
)

// IntrinsicPrefix marks function names reserved for the input IR's own
// intrinsics.
const IntrinsicPrefix = "llvm."

// IsIntrinsic reports whether a function name denotes an IR intrinsic.
func IsIntrinsic(name string) bool {
	return len(name) > len(IntrinsicPrefix) && name[:len(IntrinsicPrefix)] == IntrinsicPrefix
}

// SpecialIntrinsics is a registry of intrinsics whose declared signatures
// take metadata-typed arguments and therefore cannot be introspected like
// ordinary functions. Their function information is served pre-built.
type SpecialIntrinsics struct {
	intrinsics map[string]FunctionInfo
}

// NewSpecialIntrinsics builds the registry with the known debug-info
// intrinsics.
func NewSpecialIntrinsics() SpecialIntrinsics {
	dbgInfo := func(arity int) FunctionInfo {
		params := make([]Type, arity)
		for i := range params {
			params[i] = Metadata()
		}
		return FunctionInfo{
			Kind:       EntryDeclaration,
			Intrinsic:  true,
			Type:       Function(Void(), params...),
			Linkage:    enum.LinkageExternal,
			Visibility: enum.VisibilityDefault,
		}
	}
	return SpecialIntrinsics{intrinsics: map[string]FunctionInfo{
		"llvm.dbg.declare": dbgInfo(3),
		"llvm.dbg.value":   dbgInfo(3),
		"llvm.dbg.assign":  dbgInfo(5),
	}}
}

// InfoFor returns the pre-built function information for name, if name is
// one of the special intrinsics.
func (s SpecialIntrinsics) InfoFor(name string) (FunctionInfo, bool) {
	info, ok := s.intrinsics[name]
	return info, ok
}

// MustInfoFor is InfoFor for callers that already know name is special.
//
// Panics if it is not.
func (s SpecialIntrinsics) MustInfoFor(name string) FunctionInfo {
	info, ok := s.intrinsics[name]
	if !ok {
		panic(fmt.Sprintf("llvmir: no information found for %s", name))
	}
	return info
}
