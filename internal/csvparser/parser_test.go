package csvparser

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/annis-souames/edifact-generator/internal/config"
)

func settings(delimiter string) config.CSVSettings {
	return config.CSVSettings{Delimiter: delimiter, HeaderRows: 1, DataStartRow: 2}
}

func TestParseReader(t *testing.T) {
	input := "Invoice No;Qty;Net\n" +
		"INV-1;2;10.50\n" +
		";;\n" +
		"INV-1;1\n"

	data, err := ParseReader(strings.NewReader(input), settings(";"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Invoice No", "Qty", "Net"}, data.Headers)
	require.Equal(t, 2, data.RowCount())
	assert.Equal(t, 2, data.Rows[0].Number)
	assert.Equal(t, "10.50", data.Rows[0].Get("Net"))
	assert.Equal(t, 4, data.Rows[1].Number)
	assert.Equal(t, "", data.Rows[1].Get("Net"))
}

func TestParseReaderMultiRowHeader(t *testing.T) {
	input := "Invoice,Line,\n" +
		"No,Qty,\n" +
		"generated 2024-03-01,,\n" +
		"INV-9,3,x\n"

	s := config.CSVSettings{Delimiter: ",", HeaderRows: 2, DataStartRow: 4}
	data, err := ParseReader(strings.NewReader(input), s)
	require.NoError(t, err)

	assert.Equal(t, []string{"Invoice No", "Line Qty", "Column_3"}, data.Headers)
	require.Len(t, data.Rows, 1)
	assert.Equal(t, "INV-9", data.Rows[0].Get("Invoice No"))
	assert.Equal(t, "x", data.Rows[0].Get("Column_3"))
}

func TestParseReaderLatin1(t *testing.T) {
	raw, err := charmap.ISO8859_1.NewEncoder().String("Name|City\nMüller|Köln\n")
	require.NoError(t, err)

	s := settings("pipe")
	s.Encoding = "iso-8859-1"
	data, err := ParseReader(bytes.NewReader([]byte(raw)), s)
	require.NoError(t, err)
	require.Len(t, data.Rows, 1)
	assert.Equal(t, "Köln", data.Rows[0].Get("City"))
	assert.Equal(t, "Müller", data.Rows[0].Get("Name"))
}

func TestParseReaderBOMAndComments(t *testing.T) {
	s := settings(",")
	s.Comment = "#"
	data, err := ParseReader(strings.NewReader("\uFEFFa,b\n# skipped\n1,2\n"), s)
	require.NoError(t, err)
	assert.Equal(t, "a", data.Headers[0])
	require.Len(t, data.Rows, 1)
	assert.Equal(t, "2", data.Rows[0].Get("b"))
}

func TestParseReaderErrors(t *testing.T) {
	_, err := ParseReader(strings.NewReader(""), settings(","))
	assert.Error(t, err)

	s := settings(",")
	s.Encoding = "EBCDIC"
	_, err = ParseReader(strings.NewReader("a\n1\n"), s)
	assert.ErrorContains(t, err, "unsupported encoding")

	s = settings(",")
	s.HeaderRows = 0
	_, err = ParseReader(strings.NewReader("a\n1\n"), s)
	assert.Error(t, err)
}

func TestStreamingParser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.tsv")
	require.NoError(t, os.WriteFile(path, []byte("Invoice\tQty\nINV-1\t1\n\t\nINV-2\t5\n"), 0o644))

	data, err := Parse(path, settings("\\t"))
	require.NoError(t, err)
	assert.Equal(t, path, data.SourceFile)
	assert.Equal(t, []string{"INV-1", "INV-2"}, GetUniqueValues(data, "Invoice"))

	p, err := NewStreamingParser(path, settings("tab"))
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, []string{"Invoice", "Qty"}, p.Headers())
	var numbers []int
	for p.Next() {
		numbers = append(numbers, p.Row().Number)
	}
	require.NoError(t, p.Err())
	assert.Equal(t, []int{2, 4}, numbers)
}
