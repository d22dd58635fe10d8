// =============================================================================
// EDIFACT Generator - Segment Model
// =============================================================================
//
// A Segment is the in-memory tuple handed to the serializer: a tag followed by
// data elements. Each element is either a simple Value or a Composite of
// components. The JSON form mirrors the tuple directly:
//
//   ["MOA", ["79", "100.00"]]
//   ["BGM", "380", "A1", "9"]
//
// =============================================================================

package edifact

import (
	"encoding/json"
	"slices"
	"strings"
)

// Element is one data element of a segment.
type Element interface {
	// Components returns the element's components in order. A simple
	// element has exactly one component.
	Components() []string
}

// Value is a simple data element.
type Value string

// Components implements Element.
func (v Value) Components() []string {
	return []string{string(v)}
}

// Composite is a composite data element.
type Composite []string

// Components implements Element.
func (c Composite) Components() []string {
	out := make([]string, len(c))
	copy(out, c)
	return out
}

// Segment is one tagged EDIFACT segment.
type Segment struct {
	Tag      string
	Elements []Element
}

// NewSegment builds a segment from a tag and its elements.
func NewSegment(tag string, elements ...Element) Segment {
	return Segment{Tag: tag, Elements: elements}
}

// Clone returns a deep copy of s. Composite components are copied too, so
// the clone shares no backing array with s.
func (s Segment) Clone() Segment {
	out := Segment{Tag: s.Tag}
	if s.Elements == nil {
		return out
	}
	out.Elements = make([]Element, len(s.Elements))
	for i, el := range s.Elements {
		if c, ok := el.(Composite); ok {
			el = Composite(slices.Clone([]string(c)))
		}
		out.Elements[i] = el
	}
	return out
}

// cloneSegments deep copies segs.
func cloneSegments(segs []Segment) []Segment {
	if segs == nil {
		return nil
	}
	out := make([]Segment, len(segs))
	for i, seg := range segs {
		out[i] = seg.Clone()
	}
	return out
}

// Element returns the element at index i (0 is the first element after the tag).
func (s Segment) Element(i int) (Element, bool) {
	if i < 0 || i >= len(s.Elements) {
		return nil, false
	}
	return s.Elements[i], true
}

// Component returns component c of element e.
func (s Segment) Component(e, c int) (string, bool) {
	el, ok := s.Element(e)
	if !ok {
		return "", false
	}
	comps := el.Components()
	if c < 0 || c >= len(comps) {
		return "", false
	}
	return comps[c], true
}

// Tuple returns the segment as a heterogeneous slice: the tag followed by a
// string per simple element and a []string per composite.
func (s Segment) Tuple() []any {
	out := make([]any, 0, len(s.Elements)+1)
	out = append(out, s.Tag)
	for _, el := range s.Elements {
		switch v := el.(type) {
		case Value:
			out = append(out, string(v))
		default:
			out = append(out, el.Components())
		}
	}
	return out
}

// MarshalJSON renders the tuple form.
func (s Segment) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Tuple())
}

// String renders the segment with default delimiters and no escaping.
// It is meant for logs and test failure output; use ediwriter for real output.
func (s Segment) String() string {
	var b strings.Builder
	b.WriteString(s.Tag)
	for _, el := range s.Elements {
		b.WriteByte('+')
		b.WriteString(strings.Join(el.Components(), ":"))
	}
	b.WriteByte('\'')
	return b.String()
}

// Composer is implemented by every message type that can render its segments.
type Composer interface {
	Compose() []Segment
}
