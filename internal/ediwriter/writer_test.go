package ediwriter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annis-souames/edifact-generator/internal/edifact"
)

func TestFormatSegment(t *testing.T) {
	tests := []struct {
		name string
		seg  edifact.Segment
		want string
	}{
		{
			name: "composite",
			seg:  edifact.NewSegment("MOA", edifact.Composite{"79", "100.00"}),
			want: "MOA+79:100.00'",
		},
		{
			name: "trailing empties trimmed",
			seg:  edifact.NewSegment("LIN", edifact.Value("1"), edifact.Value(""), edifact.Composite{"", ""}),
			want: "LIN+1'",
		},
		{
			name: "inner empties kept",
			seg:  edifact.NewSegment("TAX", edifact.Value("7"), edifact.Value("VAT"), edifact.Value(""), edifact.Value("38.00"), edifact.Composite{"", "", "", "19"}, edifact.Value("S")),
			want: "TAX+7+VAT++38.00+:::19+S'",
		},
		{
			name: "service characters escaped",
			seg:  edifact.NewSegment("FTX", edifact.Value("AAI"), edifact.Value(""), edifact.Value(""), edifact.Composite{"Is it 1+1? O'Neil: yes"}),
			want: "FTX+AAI+++Is it 1?+1?? O?'Neil?: yes'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSegment(tt.seg, DefaultDelimiters))
		})
	}
}

func TestUNA(t *testing.T) {
	assert.Equal(t, "UNA:+.? '", DefaultDelimiters.UNA())
}

func testInterchange() Interchange {
	return Interchange{
		Sender:               Party{ID: "4000001000005", Qualifier: "14"},
		Recipient:            Party{ID: "4000002000004", Qualifier: "14"},
		Prepared:             time.Date(2024, 5, 2, 10, 30, 0, 0, time.UTC),
		Reference:            "ICREF1",
		ApplicationReference: "INVOIC",
	}
}

func TestGenerateInterchange(t *testing.T) {
	msg := edifact.NewMessage("M1", "INVOIC", "D", "96A", "UN", "EAN008").
		Envelope([]edifact.Segment{edifact.BGM("A1", "380")})

	opts := DefaultOptions()
	opts.Newline = true
	out, err := Generate(testInterchange(), [][]edifact.Segment{msg}, opts)
	require.NoError(t, err)

	want := strings.Join([]string{
		"UNA:+.? '",
		"UNB+UNOC:3+4000001000005:14+4000002000004:14+240502:1030+ICREF1++INVOIC'",
		"UNH+M1+INVOIC:D:96A:UN:EAN008'",
		"BGM+380+A1+9'",
		"UNT+3+M1'",
		"UNZ+1+ICREF1'",
		"",
	}, "\n")
	assert.Equal(t, want, string(out))
}

func TestInterchangeTestIndicator(t *testing.T) {
	ic := testInterchange()
	ic.Test = true
	assert.Equal(t,
		"UNB+UNOC:3+4000001000005:14+4000002000004:14+240502:1030+ICREF1++INVOIC++++1'",
		FormatSegment(ic.Header(), DefaultDelimiters))
}

func TestInterchangeReferenceMatchesInHeaderAndTrailer(t *testing.T) {
	ic := testInterchange()
	ic.Reference = ""

	unb, _ := ic.Header().Component(4, 0)
	unz, _ := ic.Trailer(1).Component(1, 0)
	assert.Equal(t, unz, unb)

	out, err := Generate(ic, nil, DefaultOptions())
	require.NoError(t, err)
	segs := strings.Split(strings.TrimSuffix(string(out), "'"), "'")
	require.Len(t, segs, 3)
	header := strings.Split(segs[1], "+")
	trailer := strings.Split(segs[2], "+")
	require.Len(t, header, 8)
	assert.NotEmpty(t, header[5])
	assert.Equal(t, []string{"UNZ", "0", header[5]}, trailer)
}

func TestWriterCharsets(t *testing.T) {
	seg := edifact.NewSegment("FTX", edifact.Value("AAI"), edifact.Value(""), edifact.Value(""), edifact.Composite{"Müller"})

	var latin bytes.Buffer
	w := NewWriter(&latin, Options{SyntaxIdentifier: "UNOC"})
	require.NoError(t, w.WriteSegment(seg))
	assert.Equal(t, []byte("FTX+AAI+++M\xfcller'"), latin.Bytes())

	var utf bytes.Buffer
	require.NoError(t, NewWriter(&utf, Options{SyntaxIdentifier: "UNOW"}).WriteSegment(seg))
	assert.Equal(t, "FTX+AAI+++Müller'", utf.String())

	var ascii bytes.Buffer
	err := NewWriter(&ascii, Options{SyntaxIdentifier: "UNOA"}).WriteSegment(seg)
	assert.ErrorIs(t, err, ErrUnencodable)

	_, err = Encode("€", "UNOC")
	assert.ErrorIs(t, err, ErrUnencodable)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	msg := []edifact.Segment{edifact.UNS(), edifact.CNT("2", "1")}
	require.NoError(t, WriteJSON(&buf, [][]edifact.Segment{msg}, false))
	assert.JSONEq(t, `[[["UNS","S"],["CNT",["2","1"]]]]`, buf.String())

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil, true))
	assert.JSONEq(t, `[]`, buf.String())
}
