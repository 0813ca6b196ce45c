package compiler

import (
	"errors"
	"fmt"
	"sort"

	"floc/internal/flo"
	"floc/internal/llvmir"
	"floc/internal/pass"
	"floc/internal/pass/analysis"
	"floc/internal/source"
)

var (
	// ErrMissingModuleName is returned when a code generator is created
	// for a module without a name. The object format requires one.
	ErrMissingModuleName = errors.New("module name must not be empty")

	// ErrMissingModuleMap is returned when code generation starts before
	// the module-map pass has published its result.
	ErrMissingModuleMap = errors.New("module map has not been computed")

	// ErrNonConstGlobal is returned for an initialized global that is not
	// constant. Mutable initialized storage needs an initializer block,
	// which statement translation does not produce yet.
	ErrNonConstGlobal = errors.New("initialized global is not constant")
)

// CodeGenerator lowers one analyzed module into a partial object.
//
// The output covers the module's shape: every function definition gets an
// entry block carrying its signature and a code symbol, declarations get
// placeholder blocks to be resolved at link time, and globals become
// variables. Statement-level translation fills the blocks in later, which
// is why the result is always a partial object.
type CodeGenerator struct {
	name string
	data *pass.DataMap
	ctx  *source.Context
}

// NewCodeGenerator creates a generator for the named module over the
// published pass data.
func NewCodeGenerator(name string, data *pass.DataMap, ctx *source.Context) (*CodeGenerator, error) {
	if name == "" {
		return nil, ErrMissingModuleName
	}
	return &CodeGenerator{name: name, data: data, ctx: ctx}, nil
}

// genData is the mutable state threaded through the generation steps: the
// object under construction plus the bookkeeping that resolves symbols
// seen before their definitions.
type genData struct {
	obj *flo.Object

	// entries maps function symbols to the blocks reserved for them. A
	// symbol referenced before its definition gets an Undefined
	// placeholder here; the definition swaps the real block in under the
	// same id.
	entries map[string]flo.BlockID

	// arrays and structs deduplicate interned composite types by their
	// source spelling.
	arrays  map[string]flo.ArrayTypeID
	structs map[string]flo.StructTypeID
}

func newGenData(name string) *genData {
	return &genData{
		obj:     flo.NewPartial(name),
		entries: make(map[string]flo.BlockID),
		arrays:  make(map[string]flo.ArrayTypeID),
		structs: make(map[string]flo.StructTypeID),
	}
}

// entryFor returns the block reserved for a function symbol, reserving a
// placeholder and binding the code symbol on first use.
func (d *genData) entryFor(symbol string) flo.BlockID {
	if id, ok := d.entries[symbol]; ok {
		return id
	}
	id := d.obj.DeclareBlock()
	d.entries[symbol] = id
	d.obj.Symbols.Code.Put(symbol, id)
	return id
}

// Run generates the partial object for the module.
func (g *CodeGenerator) Run() (*flo.Object, error) {
	mm, ok := pass.Get[*analysis.ModuleMap](g.data, analysis.ModuleMapKey)
	if !ok {
		return nil, ErrMissingModuleMap
	}
	out := newGenData(g.name)
	if err := g.generateModule(mm, out); err != nil {
		return nil, err
	}
	return out.obj, nil
}

// generateModule walks the module map in symbol order, so repeated runs
// over the same input produce identical objects.
func (g *CodeGenerator) generateModule(mm *analysis.ModuleMap, out *genData) error {
	for _, name := range sortedKeys(mm.Globals) {
		if err := g.generateGlobal(name, mm.Globals[name], out); err != nil {
			return fmt.Errorf("global %s: %w", name, err)
		}
	}
	for _, name := range sortedKeys(mm.Functions) {
		if err := g.generateFunction(name, mm.Functions[name], out); err != nil {
			return fmt.Errorf("function %s: %w", name, err)
		}
	}
	return nil
}

// generateFunction reserves the entry block for a function symbol. A
// definition swaps in a block carrying the lowered signature, still
// Undefined-poisoned because its statements have not been translated. A
// declaration leaves the placeholder for the linker to resolve.
func (g *CodeGenerator) generateFunction(name string, info llvmir.FunctionInfo, out *genData) error {
	id := out.entryFor(name)
	if info.Kind != llvmir.EntryDefinition {
		return nil
	}

	sig := &flo.Signature{}
	for _, param := range info.Type.Params {
		typ, err := g.lowerType(param, out)
		if err != nil {
			return err
		}
		sig.Params = append(sig.Params, out.obj.AddVariable(flo.Variable{
			Type:    typ,
			Linkage: flo.LocalLinkage(),
		}))
	}
	if ret := info.Type.Return; ret != nil && ret.Kind != llvmir.KindVoid {
		typ, err := g.lowerType(*ret, out)
		if err != nil {
			return err
		}
		sig.Returns = append(sig.Returns, out.obj.AddVariable(flo.Variable{
			Type:    typ,
			Linkage: flo.LocalLinkage(),
		}))
	}

	out.obj.Blocks.Swap(id, flo.Block{
		Signature: sig,
		Poison:    flo.MarkerOf(flo.PoisonUndefined),
	})
	return nil
}

// generateGlobal lowers a global into a variable and binds its data
// symbol. Initialized globals must be constant until initializer-block
// generation exists; declarations resolve externally.
func (g *CodeGenerator) generateGlobal(name string, info llvmir.GlobalInfo, out *genData) error {
	typ, err := g.lowerType(info.Type, out)
	if err != nil {
		return err
	}

	linkage := flo.ExternalLinkage(name)
	if info.Kind == llvmir.EntryDefinition {
		if info.Initialized && !info.Const {
			return ErrNonConstGlobal
		}
		linkage = flo.LocalLinkage()
	}

	id := out.obj.AddVariable(flo.Variable{Type: typ, Linkage: linkage})
	out.obj.Symbols.Data.Put(name, id)
	return nil
}

// lowerType maps a filtered input type onto the object type system.
// Integers are carried unsigned at the smallest covering width; vectors
// lose their SIMD nature and become arrays.
func (g *CodeGenerator) lowerType(t llvmir.Type, out *genData) (flo.Type, error) {
	switch t.Kind {
	case llvmir.KindVoid:
		return flo.ScalarType(flo.TypeVoid), nil
	case llvmir.KindBool:
		return flo.ScalarType(flo.TypeBool), nil
	case llvmir.KindInt:
		switch {
		case t.Bits <= 8:
			return flo.ScalarType(flo.TypeUnsigned8), nil
		case t.Bits <= 16:
			return flo.ScalarType(flo.TypeUnsigned16), nil
		case t.Bits <= 32:
			return flo.ScalarType(flo.TypeUnsigned32), nil
		case t.Bits <= 64:
			return flo.ScalarType(flo.TypeUnsigned64), nil
		default:
			return flo.ScalarType(flo.TypeUnsigned128), nil
		}
	case llvmir.KindHalf, llvmir.KindFloat:
		return flo.ScalarType(flo.TypeFloat), nil
	case llvmir.KindDouble:
		return flo.ScalarType(flo.TypeDouble), nil
	case llvmir.KindPointer:
		return flo.ScalarType(flo.TypePointer), nil
	case llvmir.KindArray, llvmir.KindVector:
		key := t.String()
		if id, ok := out.arrays[key]; ok {
			return flo.ArrayOf(id), nil
		}
		member, err := g.lowerType(*t.Elem, out)
		if err != nil {
			return flo.Type{}, err
		}
		id := out.obj.AddArrayType(flo.ArrayType{Member: member, Length: t.Count})
		out.arrays[key] = id
		return flo.ArrayOf(id), nil
	case llvmir.KindStruct:
		key := t.String()
		if id, ok := out.structs[key]; ok {
			return flo.StructOf(id), nil
		}
		members := make([]flo.Type, 0, len(t.Members))
		for _, m := range t.Members {
			member, err := g.lowerType(m, out)
			if err != nil {
				return flo.Type{}, err
			}
			members = append(members, member)
		}
		id := out.obj.AddStructType(flo.StructType{Members: members})
		out.structs[key] = id
		return flo.StructOf(id), nil
	}
	return flo.Type{}, fmt.Errorf("%w: %s has no object-level counterpart", llvmir.ErrUnsupportedType, t)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
