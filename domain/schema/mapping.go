package schema

import "sort"

// Mapping is a resolved id -> schema table iterated in sorted key order.
type Mapping struct {
	keys    []string
	entries map[string]*Schema
}

// NewMapping creates an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{entries: make(map[string]*Schema)}
}

// Set stores s under id, replacing any previous entry.
// It reports whether an entry was replaced.
func (m *Mapping) Set(id string, s *Schema) bool {
	_, replaced := m.entries[id]
	m.entries[id] = s
	if !replaced {
		i := sort.SearchStrings(m.keys, id)
		m.keys = append(m.keys, "")
		copy(m.keys[i+1:], m.keys[i:])
		m.keys[i] = id
	}
	return replaced
}

// Get returns the schema stored under id.
func (m *Mapping) Get(id string) (*Schema, bool) {
	s, ok := m.entries[id]
	return s, ok
}

// Keys returns the ids in sorted order.
func (m *Mapping) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	return len(m.keys)
}
