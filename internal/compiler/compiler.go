// Package compiler wires the front end together: it schedules the
// analysis passes over a parsed module, hands their results to the code
// generator, and reports how long each stage took.
package compiler

import (
	"time"

	"floc/internal/flo"
	"floc/internal/pass"
	"floc/internal/pass/analysis"
	"floc/internal/polyfill"
	"floc/internal/source"
)

// Compiler drives the compilation of one translation unit.
type Compiler struct {
	// Context is the parsed input module.
	Context *source.Context

	// Passes is the scheduled analysis pipeline.
	Passes *pass.Manager

	// Polyfills maps intrinsics onto their library implementations during
	// statement translation.
	Polyfills *polyfill.Map

	timings Timings
}

// New creates a compiler over ctx with the default pass pipeline and the
// built-in polyfill mappings.
func New(ctx *source.Context) (*Compiler, error) {
	passes, err := pass.NewManager(analysis.NewBuildModuleMap())
	if err != nil {
		return nil, err
	}
	return &Compiler{
		Context:   ctx,
		Passes:    passes,
		Polyfills: polyfill.NewMap(),
	}, nil
}

// Run executes the pass pipeline and generates the output object. The
// module name comes from the module map, so an anonymous input still
// yields a usable object.
func (c *Compiler) Run() (*flo.Object, error) {
	start := time.Now()
	res, err := c.Passes.Run(c.Context)
	c.timings.Set(StageAnalyze, time.Since(start))
	if err != nil {
		return nil, err
	}

	mm, ok := pass.Get[*analysis.ModuleMap](res.Data, analysis.ModuleMapKey)
	if !ok {
		return nil, ErrMissingModuleMap
	}

	start = time.Now()
	gen, err := NewCodeGenerator(mm.Name, res.Data, c.Context)
	if err != nil {
		return nil, err
	}
	obj, err := gen.Run()
	c.timings.Set(StageGenerate, time.Since(start))
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// Timings returns the durations recorded so far. Callers that emit the
// object themselves may record StageEmit on the returned value.
func (c *Compiler) Timings() *Timings {
	return &c.timings
}

// CompileFile parses and compiles a single input file, recording the
// parse stage alongside the compiler's own timings.
func CompileFile(path string) (*flo.Object, *Timings, error) {
	return compileFile(path, nil)
}

func compileFile(path string, polyfills *polyfill.Map) (*flo.Object, *Timings, error) {
	start := time.Now()
	ctx, err := source.FromFile(path)
	if err != nil {
		return nil, nil, err
	}
	c, err := New(ctx)
	if err != nil {
		return nil, nil, err
	}
	if polyfills != nil {
		c.Polyfills = polyfills.Clone()
	}
	c.timings.Set(StageParse, time.Since(start))

	obj, err := c.Run()
	if err != nil {
		return nil, c.Timings(), err
	}
	return obj, c.Timings(), nil
}
