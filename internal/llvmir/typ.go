package llvmir

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir/types"
)

// TypeKind enumerates the input types the compiler can work with.
type TypeKind uint8

const (
	KindVoid TypeKind = iota
	KindBool
	KindInt
	KindHalf
	KindFloat
	KindDouble
	KindFP128
	KindPointer
	KindArray
	KindStruct
	KindVector
	KindFunction
	KindMetadata
)

// Type is the filtered view of the input type system: the shapes the
// rest of the compiler is prepared to lower. Anything else is rejected
// at conversion time rather than carried around.
type Type struct {
	Kind TypeKind

	// Bits is the width of a KindInt.
	Bits int

	// Elem is the element type of a KindArray or KindVector.
	Elem *Type

	// Count is the length of a KindArray or KindVector.
	Count uint64

	// Members are the field types of a KindStruct.
	Members []Type

	// Return and Params describe a KindFunction.
	Return   *Type
	Params   []Type
	Variadic bool
}

// Void is the unit type.
func Void() Type { return Type{Kind: KindVoid} }

// Int builds an integer type of the given width.
func Int(bits int) Type { return Type{Kind: KindInt, Bits: bits} }

// Bool is the single-bit integer type.
func Bool() Type { return Type{Kind: KindBool} }

// Metadata is the opaque metadata type.
func Metadata() Type { return Type{Kind: KindMetadata} }

// Function builds a function type.
func Function(ret Type, params ...Type) Type {
	return Type{Kind: KindFunction, Return: &ret, Params: params}
}

// FromLL converts a parsed IR type into the filtered view.
//
// Integers over 128 bits, scalable vectors, opaque structs and the
// various exotic bookkeeping types have no counterpart here and yield
// ErrUnsupportedType.
func FromLL(t types.Type) (Type, error) {
	switch t := t.(type) {
	case *types.VoidType:
		return Void(), nil
	case *types.IntType:
		switch {
		case t.BitSize == 1:
			return Bool(), nil
		case t.BitSize <= 128:
			return Int(int(t.BitSize)), nil
		default:
			return Type{}, fmt.Errorf("%w: i%d is wider than 128 bits", ErrUnsupportedType, t.BitSize)
		}
	case *types.FloatType:
		switch t.Kind {
		case types.FloatKindHalf:
			return Type{Kind: KindHalf}, nil
		case types.FloatKindFloat:
			return Type{Kind: KindFloat}, nil
		case types.FloatKindDouble:
			return Type{Kind: KindDouble}, nil
		case types.FloatKindFP128:
			return Type{Kind: KindFP128}, nil
		default:
			return Type{}, fmt.Errorf("%w: floating-point kind %v", ErrUnsupportedType, t.Kind)
		}
	case *types.PointerType:
		return Type{Kind: KindPointer}, nil
	case *types.ArrayType:
		elem, err := FromLL(t.ElemType)
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: KindArray, Elem: &elem, Count: t.Len}, nil
	case *types.VectorType:
		if t.Scalable {
			return Type{}, fmt.Errorf("%w: scalable vectors", ErrUnsupportedType)
		}
		elem, err := FromLL(t.ElemType)
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: KindVector, Elem: &elem, Count: t.Len}, nil
	case *types.StructType:
		if t.Opaque {
			return Type{}, fmt.Errorf("%w: opaque struct %q", ErrUnsupportedType, t.Name())
		}
		members := make([]Type, 0, len(t.Fields))
		for _, f := range t.Fields {
			m, err := FromLL(f)
			if err != nil {
				return Type{}, err
			}
			members = append(members, m)
		}
		return Type{Kind: KindStruct, Members: members}, nil
	case *types.FuncType:
		ret, err := FromLL(t.RetType)
		if err != nil {
			return Type{}, err
		}
		params := make([]Type, 0, len(t.Params))
		for _, p := range t.Params {
			param, err := FromLL(p)
			if err != nil {
				return Type{}, err
			}
			params = append(params, param)
		}
		return Type{Kind: KindFunction, Return: &ret, Params: params, Variadic: t.Variadic}, nil
	case *types.MetadataType:
		return Metadata(), nil
	default:
		return Type{}, fmt.Errorf("%w: %v", ErrUnsupportedType, t)
	}
}

// String renders the type in a compact IR-like spelling, used in error
// messages and for deriving polyfill names.
func (t Type) String() string {
	switch t.Kind {
	case KindVoid:
		return "void"
	case KindBool:
		return "i1"
	case KindInt:
		return fmt.Sprintf("i%d", t.Bits)
	case KindHalf:
		return "half"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindFP128:
		return "fp128"
	case KindPointer:
		return "ptr"
	case KindArray:
		return fmt.Sprintf("[%d x %s]", t.Count, t.Elem)
	case KindVector:
		return fmt.Sprintf("<%d x %s>", t.Count, t.Elem)
	case KindStruct:
		parts := make([]string, len(t.Members))
		for i, m := range t.Members {
			parts[i] = m.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindFunction:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		if t.Variadic {
			parts = append(parts, "...")
		}
		return fmt.Sprintf("%s (%s)", t.Return, strings.Join(parts, ", "))
	case KindMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// Equal reports structural type equality.
func (t Type) Equal(u Type) bool {
	return t.String() == u.String()
}
