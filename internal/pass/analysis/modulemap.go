// Package analysis holds the analysis passes that run ahead of code
// generation.
package analysis

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/llir/llvm/ir"

	"floc/internal/llvmir"
	"floc/internal/pass"
	"floc/internal/source"
)

// ModuleMapKey is the key the module-map pass publishes under.
const ModuleMapKey pass.Key = "analysis/module-map"

// ModuleMap is the top-level structure of an input module: its name,
// data layout, and every function and global it defines or declares.
// Downstream stages use it for symbol resolution and consistency
// checking.
type ModuleMap struct {
	Name      string
	Layout    llvmir.DataLayout
	Functions map[string]llvmir.FunctionInfo
	Globals   map[string]llvmir.GlobalInfo
}

// NewModuleMap creates an empty map for the named module. An anonymous
// module gets a random 256-bit hex name so that two anonymous modules
// never collide.
func NewModuleMap(name string, layout llvmir.DataLayout) *ModuleMap {
	if name == "" {
		var raw [32]byte
		if _, err := rand.Read(raw[:]); err != nil {
			panic(fmt.Sprintf("analysis: drawing a module name: %v", err))
		}
		name = "0x" + hex.EncodeToString(raw[:])
	}
	return &ModuleMap{
		Name:      name,
		Layout:    layout,
		Functions: make(map[string]llvmir.FunctionInfo),
		Globals:   make(map[string]llvmir.GlobalInfo),
	}
}

// BuildModuleMap is the analysis pass that produces the ModuleMap.
type BuildModuleMap struct {
	intrinsics llvmir.SpecialIntrinsics
}

// NewBuildModuleMap creates the pass.
func NewBuildModuleMap() *BuildModuleMap {
	return &BuildModuleMap{intrinsics: llvmir.NewSpecialIntrinsics()}
}

func (p *BuildModuleMap) Key() pass.Key { return ModuleMapKey }

// Depends is empty: mapping needs nothing but the module itself.
func (p *BuildModuleMap) Depends() []pass.Key { return nil }

// Invalidates is empty: the pass is purely analytical.
func (p *BuildModuleMap) Invalidates() []pass.Key { return nil }

func (p *BuildModuleMap) Clone() pass.Pass {
	c := *p
	return &c
}

// Run maps the context's module and publishes the result.
func (p *BuildModuleMap) Run(ctx *source.Context, _ *pass.DataMap) (any, error) {
	return source.AnalyzeResult(ctx, p.MapModule)
}

// MapModule builds the module map for one parsed module.
func (p *BuildModuleMap) MapModule(m *ir.Module) (*ModuleMap, error) {
	layout, err := p.processDataLayout(m.DataLayout)
	if err != nil {
		return nil, err
	}
	mm := NewModuleMap(m.SourceFilename, layout)

	for _, g := range m.Globals {
		if err := p.mapGlobal(g, mm); err != nil {
			return nil, err
		}
	}
	for _, f := range m.Funcs {
		if err := p.mapFunction(f, mm); err != nil {
			return nil, err
		}
	}
	return mm, nil
}

// processDataLayout parses the layout string and rejects configurations
// the target cannot express: the object format has a single flat address
// space with integral pointers, so anything else fails here rather than
// surfacing as miscompiled code later.
func (p *BuildModuleMap) processDataLayout(layout string) (llvmir.DataLayout, error) {
	dl, err := llvmir.ParseDataLayout(layout)
	if err != nil {
		return llvmir.DataLayout{}, err
	}
	for _, ptr := range dl.Pointers {
		if ptr.AddressSpace != 0 {
			return llvmir.DataLayout{}, fmt.Errorf("%w: pointer layout in address space %d",
				llvmir.ErrUnsupportedAddressSpaces, ptr.AddressSpace)
		}
	}
	if dl.AllocAddressSpace != 0 || dl.GlobalAddressSpace != 0 || dl.ProgramAddressSpace != 0 {
		return llvmir.DataLayout{}, fmt.Errorf("%w: program/global/alloc spaces %d/%d/%d",
			llvmir.ErrUnsupportedAddressSpaces,
			dl.ProgramAddressSpace, dl.GlobalAddressSpace, dl.AllocAddressSpace)
	}
	if len(dl.NonIntegralSpaces) != 0 {
		return llvmir.DataLayout{}, fmt.Errorf("%w: address spaces %v",
			llvmir.ErrNonIntegralPointers, dl.NonIntegralSpaces)
	}
	return dl, nil
}

func (p *BuildModuleMap) mapGlobal(g *ir.Global, mm *ModuleMap) error {
	typ, err := llvmir.FromLL(g.ContentType)
	if err != nil {
		return fmt.Errorf("global %s: %w", g.Name(), err)
	}
	kind := llvmir.EntryDefinition
	if g.Init == nil {
		kind = llvmir.EntryDeclaration
	}
	mm.Globals[g.Name()] = llvmir.GlobalInfo{
		Kind:        kind,
		Type:        typ,
		Linkage:     g.Linkage,
		Visibility:  g.Visibility,
		Alignment:   int(g.Align),
		Const:       g.Immutable,
		Initialized: g.Init != nil,
	}
	return nil
}

func (p *BuildModuleMap) mapFunction(f *ir.Func, mm *ModuleMap) error {
	name := f.Name()
	if info, ok := p.intrinsics.InfoFor(name); ok {
		mm.Functions[name] = info
		return nil
	}
	typ, err := llvmir.FromLL(f.Sig)
	if err != nil {
		return fmt.Errorf("function %s: %w", name, err)
	}
	kind := llvmir.EntryDefinition
	if len(f.Blocks) == 0 {
		kind = llvmir.EntryDeclaration
	}
	mm.Functions[name] = llvmir.FunctionInfo{
		Kind:       kind,
		Intrinsic:  llvmir.IsIntrinsic(name),
		Type:       typ,
		Linkage:    f.Linkage,
		Visibility: f.Visibility,
	}
	return nil
}
