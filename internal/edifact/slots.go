// =============================================================================
// EDIFACT Generator - Ordered Composition
// =============================================================================
//
// Slots hold the built segments of an entity, one slot per semantic field.
// The emission order is declared once per entity type as a KeyOrder and never
// depends on the order setters were called in.
//
// =============================================================================

package edifact

import (
	"fmt"
	"slices"
)

// Key names a field slot.
type Key string

// KeyOrder is the declared emission order of an entity's slots.
type KeyOrder []Key

// Slots is an ordered, sparse set of segment slots. The zero value is not
// usable; create one with NewSlots.
type Slots struct {
	order   KeyOrder
	allowed map[Key]struct{}
	values  map[Key][]Segment
}

// NewSlots creates slots for order. Keys in extra may be set and composed
// explicitly but are not part of the default order.
func NewSlots(order KeyOrder, extra ...Key) *Slots {
	s := &Slots{
		order:   slices.Clone(order),
		allowed: make(map[Key]struct{}, len(order)+len(extra)),
		values:  make(map[Key][]Segment),
	}
	for _, k := range order {
		s.allowed[k] = struct{}{}
	}
	for _, k := range extra {
		s.allowed[k] = struct{}{}
	}
	return s
}

// Set stores segs under key, replacing any previous value. Setting an
// undeclared key is a programming error and panics.
func (s *Slots) Set(key Key, segs ...Segment) {
	if _, ok := s.allowed[key]; !ok {
		panic(fmt.Sprintf("edifact: slot %q is not declared", key))
	}
	s.values[key] = cloneSegments(segs)
}

// Get returns a deep copy of the segments stored under key.
func (s *Slots) Get(key Key) ([]Segment, bool) {
	v, ok := s.values[key]
	if !ok {
		return nil, false
	}
	return cloneSegments(v), true
}

// Has reports whether key is set.
func (s *Slots) Has(key Key) bool {
	_, ok := s.values[key]
	return ok
}

// Unset clears key.
func (s *Slots) Unset(key Key) {
	delete(s.values, key)
}

// Order returns a copy of the declared order.
func (s *Slots) Order() KeyOrder {
	return slices.Clone(s.order)
}

// ComposeByKeys returns the segments of keys in the given sequence, or of the
// declared order when keys is empty. Unset slots are skipped. A key listed
// twice is emitted twice.
func (s *Slots) ComposeByKeys(keys ...Key) []Segment {
	if len(keys) == 0 {
		keys = s.order
	}
	var out []Segment
	for _, k := range keys {
		for _, seg := range s.values[k] {
			out = append(out, seg.Clone())
		}
	}
	return out
}
