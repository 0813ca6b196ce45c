// Package source owns the parsed representation of input modules. A
// Context is the single owner of every module handle it parses; the rest
// of the compiler reaches the modules only through scoped accessors, so
// no handle outlives the context that produced it.
package source

import (
	"fmt"

	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
)

// Context holds one parsed input module and hands out scoped access to
// it.
type Context struct {
	module *ir.Module

	// path is the file the module came from, empty for in-memory input.
	path string
}

// FromFile parses the textual IR file at path into a fresh context.
func FromFile(path string) (*Context, error) {
	m, err := asm.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("source: parse %s: %w", path, err)
	}
	return &Context{module: m, path: path}, nil
}

// FromString parses in-memory textual IR. The name stands in for a file
// path in errors and source locations.
func FromString(name, text string) (*Context, error) {
	m, err := asm.ParseString(name, text)
	if err != nil {
		return nil, fmt.Errorf("source: parse %s: %w", name, err)
	}
	return &Context{module: m, path: name}, nil
}

// Path reports where the module came from.
func (c *Context) Path() string {
	return c.path
}

// Analyze runs fn against the context's module. The module must not be
// retained past the call.
func (c *Context) Analyze(fn func(*ir.Module) error) error {
	return fn(c.module)
}

// AnalyzeResult is Analyze for callbacks that produce a value.
func AnalyzeResult[T any](c *Context, fn func(*ir.Module) (T, error)) (T, error) {
	return fn(c.module)
}
