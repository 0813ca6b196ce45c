// Package llvmir holds utilities for reasoning about the foreign IR that
// compilation starts from: the data-layout description, a filtered view
// of its type system, and the registry of intrinsics that need special
// handling.
package llvmir

import "errors"

var (
	// ErrInvalidLayout reports a data-layout string that could not be
	// parsed.
	ErrInvalidLayout = errors.New("invalid data layout specification")

	// ErrUnsupportedAddressSpaces reports a module whose layout places
	// pointers, globals, code or allocations outside address space 0.
	ErrUnsupportedAddressSpaces = errors.New("unsupported additional address spaces")

	// ErrNonIntegralPointers reports a module whose layout requests
	// non-integral pointer semantics.
	ErrNonIntegralPointers = errors.New("unsupported non-integral pointer configuration")

	// ErrUnsupportedType reports an input type with no counterpart in the
	// object format's type system.
	ErrUnsupportedType = errors.New("unsupported type")
)
