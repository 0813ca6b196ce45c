// Package polyfill maps names of input-IR intrinsics and opcodes to the
// symbols of their software implementations in the runtime library.
//
// The target machine lacks hardware support for a range of operations the
// input IR takes for granted, floating point among them. Calls to those
// operations are lowered as external calls against polyfill symbols, and
// this package owns the naming contract between the two sides.
package polyfill

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Map is a bidirectional mapping between input-IR names and polyfill
// symbols. Lookups run in constant time from either side, and both sides
// are unique: binding a pair displaces any pair that used either name.
type Map struct {
	toPolyfill map[string]string
	toIR       map[string]string
}

// defaultPairs are the built-in bindings, input-IR name on the left.
var defaultPairs = [][2]string{
	{"llvm.uadd.with.overflow.i64", "__llvm_uadd_with_overflow_i64_i64"},
}

// NewMap builds the map with the default bindings.
func NewMap() *Map {
	m := &Map{
		toPolyfill: make(map[string]string),
		toIR:       make(map[string]string),
	}
	for _, p := range defaultPairs {
		m.Bind(p[0], p[1])
	}
	return m
}

// Bind adds a pair to the map, displacing existing pairs that use either
// name.
func (m *Map) Bind(irName, polyfillName string) {
	if old, ok := m.toPolyfill[irName]; ok {
		delete(m.toIR, old)
	}
	if old, ok := m.toIR[polyfillName]; ok {
		delete(m.toPolyfill, old)
	}
	m.toPolyfill[irName] = polyfillName
	m.toIR[polyfillName] = irName
}

// Polyfill returns the polyfill symbol for an input-IR name.
func (m *Map) Polyfill(irName string) (string, bool) {
	s, ok := m.toPolyfill[irName]
	return s, ok
}

// IRName returns the input-IR name a polyfill symbol implements.
func (m *Map) IRName(polyfillName string) (string, bool) {
	s, ok := m.toIR[polyfillName]
	return s, ok
}

// Len reports the number of bound pairs.
func (m *Map) Len() int {
	return len(m.toPolyfill)
}

// Clone returns an independent copy of the map.
func (m *Map) Clone() *Map {
	c := &Map{
		toPolyfill: make(map[string]string, len(m.toPolyfill)),
		toIR:       make(map[string]string, len(m.toIR)),
	}
	for k, v := range m.toPolyfill {
		c.toPolyfill[k] = v
	}
	for k, v := range m.toIR {
		c.toIR[k] = v
	}
	return c
}

// OfOpcode derives the polyfill symbol for an opcode specialized to the
// given operand type spellings. The transformation is purely syntactic;
// callers resolve type aliases first.
func OfOpcode(opcode string, types ...string) string {
	spelled := "void"
	if len(types) > 0 {
		spelled = strings.Join(types, "_")
	}
	return fmt.Sprintf("__llvm_%s_%s", opcode, spelled)
}

// overlayFile is the on-disk shape of a polyfill overlay: a single table
// of input-IR name to polyfill symbol.
type overlayFile struct {
	Polyfills map[string]string `toml:"polyfills"`
}

// LoadOverlay merges pairs from a TOML file into the map, on top of
// whatever is already bound.
func (m *Map) LoadOverlay(path string) error {
	var overlay overlayFile
	if _, err := toml.DecodeFile(path, &overlay); err != nil {
		return fmt.Errorf("polyfill: overlay %s: %w", path, err)
	}
	for ir, poly := range overlay.Polyfills {
		if ir == "" || poly == "" {
			return fmt.Errorf("polyfill: overlay %s: empty name in pair %q = %q", path, ir, poly)
		}
		m.Bind(ir, poly)
	}
	return nil
}
