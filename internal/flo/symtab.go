package flo

import "slices"

// SymbolTable is a bidirectional map between link-time symbol names and
// intern identifiers. Lookups run in constant time from either side.
//
// Put replaces on conflict: inserting a pair where either the name or the
// id is already bound atomically removes whatever pairs they belonged to
// before the new pair is stored. The displaced counterpart becomes
// unreachable by symbol, though its intern-table entry is untouched. This
// is deliberate, documented behavior; callers that need insert-only
// semantics must check with ByName/ByID first.
type SymbolTable[ID ~uint64] struct {
	byName map[string]ID
	byID   map[ID]string
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable[ID ~uint64]() *SymbolTable[ID] {
	return &SymbolTable[ID]{
		byName: make(map[string]ID),
		byID:   make(map[ID]string),
	}
}

// Put binds name to id, displacing any pair that currently uses either.
func (t *SymbolTable[ID]) Put(name string, id ID) {
	if old, ok := t.byName[name]; ok {
		delete(t.byID, old)
	}
	if old, ok := t.byID[id]; ok {
		delete(t.byName, old)
	}
	t.byName[name] = id
	t.byID[id] = name
}

// ByName returns the id bound to name.
func (t *SymbolTable[ID]) ByName(name string) (ID, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// ByID returns the name bound to id.
func (t *SymbolTable[ID]) ByID(id ID) (string, bool) {
	name, ok := t.byID[id]
	return name, ok
}

// Delete removes the pair containing name, if any.
func (t *SymbolTable[ID]) Delete(name string) {
	if id, ok := t.byName[name]; ok {
		delete(t.byID, id)
		delete(t.byName, name)
	}
}

// Len reports the number of bound pairs.
func (t *SymbolTable[ID]) Len() int {
	return len(t.byName)
}

// Names returns every bound symbol name in ascending order. The ordering
// makes serialization deterministic.
func (t *SymbolTable[ID]) Names() []string {
	names := make([]string, 0, len(t.byName))
	for name := range t.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SymbolTables groups the object's two symbol tables.
type SymbolTables struct {
	// Code maps function symbols to their entry blocks.
	Code *SymbolTable[BlockID]

	// Data maps data symbols to variables.
	Data *SymbolTable[VariableID]
}

// NewSymbolTables creates a pair of empty symbol tables.
func NewSymbolTables() SymbolTables {
	return SymbolTables{
		Code: NewSymbolTable[BlockID](),
		Data: NewSymbolTable[VariableID](),
	}
}
