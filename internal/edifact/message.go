package edifact

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// referenceLength is the number of characters kept from a generated
// reference (0062 is an..14).
const referenceLength = 14

// NewReference returns a random 14 character upper-case reference suitable
// for message and interchange control references.
func NewReference() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:referenceLength])
}

// Message is the shared UNH/UNT envelope of every message type.
type Message struct {
	Reference   string
	Identifier  string
	Version     string
	Release     string
	Agency      string
	Association string
}

// NewMessage returns a message header description. An empty reference is
// replaced by NewReference.
func NewMessage(reference, identifier, version, release, agency, association string) Message {
	if reference == "" {
		reference = NewReference()
	}
	return Message{
		Reference:   reference,
		Identifier:  identifier,
		Version:     version,
		Release:     release,
		Agency:      agency,
		Association: association,
	}
}

// Header builds the UNH segment.
func (m Message) Header() Segment {
	id := Composite{m.Identifier, m.Version, m.Release, m.Agency}
	if m.Association != "" {
		id = append(id, m.Association)
	}
	return NewSegment("UNH", Value(m.Reference), id)
}

// Trailer builds the UNT segment for a message of count segments, UNH and
// UNT included.
func (m Message) Trailer(count int) Segment {
	return NewSegment("UNT", Value(strconv.Itoa(count)), Value(m.Reference))
}

// Envelope wraps body in UNH and UNT.
func (m Message) Envelope(body []Segment) []Segment {
	out := make([]Segment, 0, len(body)+2)
	out = append(out, m.Header())
	out = append(out, body...)
	return append(out, m.Trailer(len(body)+2))
}
