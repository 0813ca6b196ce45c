package pass

// DataMap accumulates pass outputs, keyed by the pass that produced
// them. Values are stored type-erased; retrieval goes through Get or
// MustGet, which re-assert the concrete type.
type DataMap struct {
	entries map[Key]any
}

// NewDataMap creates an empty data map.
func NewDataMap() *DataMap {
	return &DataMap{entries: make(map[Key]any)}
}

// put stores the output of the pass named by key, replacing any stale
// value. Only the manager writes to the map.
func (m *DataMap) put(key Key, value any) {
	m.entries[key] = value
}

// evict drops the entry for key, if any.
func (m *DataMap) evict(key Key) {
	delete(m.entries, key)
}

// Has reports whether key has a stored output.
func (m *DataMap) Has(key Key) bool {
	_, ok := m.entries[key]
	return ok
}

// Len reports the number of stored outputs.
func (m *DataMap) Len() int {
	return len(m.entries)
}

// Get retrieves the output stored under key as a T. A missing entry and
// an entry of the wrong type are the same condition: there is no usable
// T for this key.
func Get[T any](m *DataMap, key Key) (T, bool) {
	v, ok := m.entries[key].(T)
	return v, ok
}

// MustGet is Get for callers whose dependency declarations already
// guarantee the entry exists.
//
// Panics if the entry is missing or has the wrong type: that is a
// mis-declared dependency, not a runtime condition.
func MustGet[T any](m *DataMap, key Key) T {
	v, ok := m.entries[key].(T)
	if !ok {
		panic("pass: no usable data for key " + string(key))
	}
	return v
}
