// =============================================================================
// EDIFACT Generator - EDIFACT Writer Module
// =============================================================================
//
// This module turns composed segments into EDIFACT interchange text. It is the
// only place that knows about delimiters, escaping and output charsets; the
// message entities hand over plain []edifact.Segment values.
//
// INTERCHANGE STRUCTURE:
//
//   UNA:+.? '                                 <!-- service string advice -->
//   UNB+UNOC:3+SENDER:14+RECIPIENT:14+240502:1030+REF++APP'
//   UNH+MSG1+INVOIC:D:96A:UN:EAN008'          <!-- first message -->
//   BGM+380+A1+9'
//   ...
//   UNT+10+MSG1'
//   UNH+MSG2+INVOIC:D:96A:UN:EAN008'          <!-- second message -->
//   ...
//   UNZ+2+REF'                                <!-- message count + reference -->
//
// CUSTOMIZATION:
//   - Delimiters via Options.Delimiters
//   - Omit UNA with Options.IncludeUNA = false
//   - One segment per line with Options.Newline
//   - Output charset follows the UNB syntax identifier (UNOA ... UNOW)
//
// =============================================================================

package ediwriter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/annis-souames/edifact-generator/internal/edifact"
)

// ErrUnencodable is returned when a character cannot be represented in the
// interchange's syntax level charset.
var ErrUnencodable = errors.New("character not representable in syntax charset")

// =============================================================================
// DELIMITERS
// =============================================================================

// Delimiters are the service characters of an interchange.
type Delimiters struct {
	Component  byte
	Element    byte
	Decimal    byte
	Release    byte
	Repetition byte
	Segment    byte
}

// DefaultDelimiters are the level A/B defaults advertised by "UNA:+.? '".
var DefaultDelimiters = Delimiters{
	Component:  ':',
	Element:    '+',
	Decimal:    '.',
	Release:    '?',
	Repetition: ' ',
	Segment:    '\'',
}

// UNA returns the service string advice for d.
func (d Delimiters) UNA() string {
	return string([]byte{'U', 'N', 'A', d.Component, d.Element, d.Decimal, d.Release, d.Repetition, d.Segment})
}

// Escape prefixes every service character in s with the release character.
func (d Delimiters) Escape(s string) string {
	if !strings.ContainsAny(s, string([]byte{d.Component, d.Element, d.Release, d.Segment})) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == d.Component || c == d.Element || c == d.Release || c == d.Segment {
			b.WriteByte(d.Release)
		}
		b.WriteByte(c)
	}
	return b.String()
}

// =============================================================================
// WRITE OPTIONS
// =============================================================================

// Options controls serialization.
type Options struct {
	// Delimiters used for the whole interchange.
	// Default: DefaultDelimiters
	Delimiters Delimiters

	// IncludeUNA writes the service string advice before UNB.
	// Default: true
	IncludeUNA bool

	// Newline writes a line break after every segment terminator.
	// Default: false
	Newline bool

	// SyntaxIdentifier selects the output charset when no interchange
	// header is written (UNOA, UNOB, UNOC, UNOD, UNOW, UNOY).
	// Default: "UNOC"
	SyntaxIdentifier string
}

// DefaultOptions returns the default write options.
func DefaultOptions() Options {
	return Options{
		Delimiters:       DefaultDelimiters,
		IncludeUNA:       true,
		SyntaxIdentifier: "UNOC",
	}
}

// =============================================================================
// INTERCHANGE ENVELOPE
// =============================================================================

// Party identifies the sender or recipient of an interchange.
type Party struct {
	ID        string `mapstructure:"id" yaml:"id"`
	Qualifier string `mapstructure:"qualifier" yaml:"qualifier"`
}

// Interchange describes the UNB/UNZ envelope.
type Interchange struct {
	SyntaxIdentifier     string
	SyntaxVersion        string
	Sender               Party
	Recipient            Party
	Prepared             time.Time
	Reference            string
	ApplicationReference string
	Test                 bool
}

// withDefaults fills every empty envelope field, the reference included.
func (ic Interchange) withDefaults() Interchange {
	ic = ic.withSyntaxDefaults()
	if ic.Reference == "" {
		ic.Reference = edifact.NewReference()
	}
	return ic
}

func (ic Interchange) withSyntaxDefaults() Interchange {
	if ic.SyntaxIdentifier == "" {
		ic.SyntaxIdentifier = "UNOC"
	}
	if ic.SyntaxVersion == "" {
		ic.SyntaxVersion = "3"
	}
	if ic.Prepared.IsZero() {
		ic.Prepared = time.Now()
	}
	return ic
}

// Header builds the UNB segment. An empty Reference is written as is so that
// UNB and UNZ always carry the same value; WriteInterchange generates one.
func (ic Interchange) Header() edifact.Segment {
	ic = ic.withSyntaxDefaults()
	test := ""
	if ic.Test {
		test = "1"
	}
	return edifact.NewSegment("UNB",
		edifact.Composite{ic.SyntaxIdentifier, ic.SyntaxVersion},
		edifact.Composite{ic.Sender.ID, ic.Sender.Qualifier},
		edifact.Composite{ic.Recipient.ID, ic.Recipient.Qualifier},
		edifact.Composite{ic.Prepared.Format("060102"), ic.Prepared.Format("1504")},
		edifact.Value(ic.Reference),
		edifact.Value(""),
		edifact.Value(ic.ApplicationReference),
		edifact.Value(""),
		edifact.Value(""),
		edifact.Value(""),
		edifact.Value(test),
	)
}

// Trailer builds the UNZ segment for messages messages.
func (ic Interchange) Trailer(messages int) edifact.Segment {
	return edifact.NewSegment("UNZ", edifact.Value(fmt.Sprint(messages)), edifact.Value(ic.Reference))
}

// =============================================================================
// WRITER
// =============================================================================

// Writer serializes segments to an io.Writer.
type Writer struct {
	w       io.Writer
	opts    Options
	charset string
	err     error
}

// NewWriter returns a writer using opts.
func NewWriter(w io.Writer, opts Options) *Writer {
	if opts.Delimiters == (Delimiters{}) {
		opts.Delimiters = DefaultDelimiters
	}
	if opts.SyntaxIdentifier == "" {
		opts.SyntaxIdentifier = "UNOC"
	}
	return &Writer{w: w, opts: opts, charset: opts.SyntaxIdentifier}
}

// WriteSegment writes one segment followed by the segment terminator.
func (w *Writer) WriteSegment(seg edifact.Segment) error {
	if w.err != nil {
		return w.err
	}
	text := FormatSegment(seg, w.opts.Delimiters)
	if w.opts.Newline {
		text += "\n"
	}
	if err := w.writeString(text); err != nil {
		return fmt.Errorf("segment %s: %w", seg.Tag, err)
	}
	return nil
}

// WriteSegments writes segs in order and stops at the first error.
func (w *Writer) WriteSegments(segs []edifact.Segment) error {
	for _, seg := range segs {
		if err := w.WriteSegment(seg); err != nil {
			return err
		}
	}
	return nil
}

// WriteInterchange writes UNA (when enabled), UNB, every message and UNZ.
func (w *Writer) WriteInterchange(ic Interchange, messages ...[]edifact.Segment) error {
	ic = ic.withDefaults()
	w.charset = ic.SyntaxIdentifier

	if w.opts.IncludeUNA {
		una := w.opts.Delimiters.UNA()
		if w.opts.Newline {
			una += "\n"
		}
		if err := w.writeString(una); err != nil {
			return err
		}
	}
	if err := w.WriteSegment(ic.Header()); err != nil {
		return err
	}
	for _, msg := range messages {
		if err := w.WriteSegments(msg); err != nil {
			return err
		}
	}
	return w.WriteSegment(ic.Trailer(len(messages)))
}

func (w *Writer) writeString(s string) error {
	data, err := Encode(s, w.charset)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(data); err != nil {
		w.err = err
		return err
	}
	return nil
}

// Generate renders a complete interchange into memory.
func Generate(ic Interchange, messages [][]edifact.Segment, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewWriter(&buf, opts).WriteInterchange(ic, messages...); err != nil {
		return nil, fmt.Errorf("failed to write interchange: %w", err)
	}
	return buf.Bytes(), nil
}

// =============================================================================
// SEGMENT FORMATTING
// =============================================================================

// FormatSegment renders seg with d, escaping service characters and dropping
// trailing empty components and elements. The terminator is included.
func FormatSegment(seg edifact.Segment, d Delimiters) string {
	elements := make([]string, 0, len(seg.Elements))
	for _, el := range seg.Elements {
		comps := trimTrailingEmpty(el.Components())
		for i, c := range comps {
			comps[i] = d.Escape(c)
		}
		elements = append(elements, strings.Join(comps, string(d.Component)))
	}
	elements = trimTrailingEmpty(elements)

	var b strings.Builder
	b.WriteString(seg.Tag)
	for _, e := range elements {
		b.WriteByte(d.Element)
		b.WriteString(e)
	}
	b.WriteByte(d.Segment)
	return b.String()
}

func trimTrailingEmpty(values []string) []string {
	n := len(values)
	for n > 0 && values[n-1] == "" {
		n--
	}
	return values[:n]
}

// =============================================================================
// CHARSETS
// =============================================================================

// Encode converts s from UTF-8 to the charset of syntax identifier id.
func Encode(s, id string) ([]byte, error) {
	switch strings.ToUpper(id) {
	case "UNOA", "UNOB":
		for i, r := range s {
			if r > 0x7f {
				return nil, fmt.Errorf("%w: %q at offset %d (%s)", ErrUnencodable, r, i, id)
			}
		}
		return []byte(s), nil
	case "UNOW", "UNOY":
		return []byte(s), nil
	}

	enc, err := encoderFor(id)
	if err != nil {
		return nil, err
	}
	out, err := enc.Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnencodable, id, err)
	}
	return out, nil
}

func encoderFor(id string) (*encoding.Encoder, error) {
	switch strings.ToUpper(id) {
	case "UNOC":
		return charmap.ISO8859_1.NewEncoder(), nil
	case "UNOD":
		return charmap.ISO8859_2.NewEncoder(), nil
	case "UNOE":
		return charmap.ISO8859_5.NewEncoder(), nil
	case "UNOF":
		return charmap.ISO8859_7.NewEncoder(), nil
	default:
		return nil, fmt.Errorf("unsupported syntax identifier %q", id)
	}
}
