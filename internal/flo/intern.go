package flo

import (
	"fmt"
	"slices"
)

// UndefinedEntryID is the reserved slot that always holds an Undefined
// poison value. It sits far above any id the cursor will reach in practice,
// and the allocator skips it if the table ever grows that large.
const UndefinedEntryID uint64 = 0xdecea5ed

// Table is a generic intern table: an append-mostly store mapping small
// integer identifiers to values of one entity kind.
//
// Identifiers are allocated monotonically and never reused within a table's
// lifetime, so they stay stable for cross-referencing in the serialized
// form. Two slots are reserved from birth: id 0 holds a NullEntry poison
// value and UndefinedEntryID holds an Undefined poison value.
type Table[ID ~uint64, V any] struct {
	entries map[uint64]V
	next    uint64
	poison  func(PoisonKind) V
}

// NewTable constructs a table pre-populated with the two reserved sentinel
// entries. The poison factory is used to build sentinel values.
func NewTable[ID ~uint64, V any](poison func(PoisonKind) V) *Table[ID, V] {
	t := &Table[ID, V]{
		entries: make(map[uint64]V),
		next:    1,
		poison:  poison,
	}
	t.entries[0] = poison(PoisonNullEntry)
	t.entries[UndefinedEntryID] = poison(PoisonUndefined)
	return t
}

// allocate claims the id at the cursor and advances the cursor to the next
// unoccupied slot, skipping anything already taken (the reserved sentinels
// included).
func (t *Table[ID, V]) allocate() uint64 {
	id := t.next
	next := id + 1
	for {
		if _, taken := t.entries[next]; !taken {
			break
		}
		next++
	}
	t.next = next
	return id
}

// Insert stores v under a freshly allocated id and returns that id.
func (t *Table[ID, V]) Insert(v V) ID {
	id := t.allocate()
	t.entries[id] = v
	return ID(id)
}

// Get returns the value stored at id.
//
// Panics if id was never allocated: callers must not construct identifiers
// out of thin air, so an unknown id is an internal consistency error and
// not a recoverable condition.
func (t *Table[ID, V]) Get(id ID) V {
	v, ok := t.entries[uint64(id)]
	if !ok {
		panic(fmt.Sprintf("flo: intern table get with unknown id %d", uint64(id)))
	}
	return v
}

// Swap overwrites the value at an already-allocated id and returns the
// previous value. This is the mechanism for resolving forward references:
// insert an Undefined placeholder, hand its id around, then swap in the
// real definition once it exists.
//
// Panics if id was never allocated.
func (t *Table[ID, V]) Swap(id ID, v V) V {
	prev, ok := t.entries[uint64(id)]
	if !ok {
		panic(fmt.Sprintf("flo: intern table swap with unknown id %d", uint64(id)))
	}
	t.entries[uint64(id)] = v
	return prev
}

// Has reports whether id has been allocated (sentinels included).
func (t *Table[ID, V]) Has(id ID) bool {
	_, ok := t.entries[uint64(id)]
	return ok
}

// IDs returns every allocated id except the two reserved sentinels, in
// ascending order. The ordering makes serialization deterministic.
func (t *Table[ID, V]) IDs() []ID {
	ids := make([]ID, 0, len(t.entries)-2)
	for raw := range t.entries {
		if raw == 0 || raw == UndefinedEntryID {
			continue
		}
		ids = append(ids, ID(raw))
	}
	slices.Sort(ids)
	return ids
}

// Len reports the number of interned values, excluding the sentinels.
func (t *Table[ID, V]) Len() int {
	return len(t.entries) - 2
}

// restore rebuilds a table from decoded id/value pairs. The cursor is
// placed just past the highest restored id so future inserts never collide.
func restore[ID ~uint64, V any](t *Table[ID, V], ids []uint64, values []V) error {
	if len(ids) != len(values) {
		return fmt.Errorf("flo: mismatched table section: %d ids, %d values", len(ids), len(values))
	}
	for i, raw := range ids {
		if raw == 0 || raw == UndefinedEntryID {
			return fmt.Errorf("flo: serialized table redefines reserved id %d", raw)
		}
		if _, dup := t.entries[raw]; dup {
			return fmt.Errorf("flo: serialized table repeats id %d", raw)
		}
		t.entries[raw] = values[i]
		if raw >= t.next {
			t.next = raw + 1
		}
	}
	if _, taken := t.entries[t.next]; taken {
		t.next = t.allocateFrom(t.next)
	}
	return nil
}

func (t *Table[ID, V]) allocateFrom(start uint64) uint64 {
	for {
		if _, taken := t.entries[start]; !taken {
			return start
		}
		start++
	}
}
