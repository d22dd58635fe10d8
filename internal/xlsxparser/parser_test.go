package xlsxparser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/annis-souames/edifact-generator/internal/config"
	"github.com/annis-souames/edifact-generator/internal/document"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
		require.NoError(t, f.DeleteSheet("Sheet1"))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

var templateRows = [][]any{
	{"Source Header", "Field Key", "Scope", "Data Type", "Max Length", "Required", "Conditional Rule", "Default"},
	{"Invoice No", "invoice_number", "invoice", "string", 35, "Y", "", ""},
	{"Qty", "quantity", "", "number", "", "required", "", "1"},
	{},
	{"Disc Name", "discount_name", "item", "text", 35, "cond", "if Disc Value != ''", ""},
	{"Buyer City", "BUYER_CITY", "", "", "", "", "", ""},
}

func TestParse(t *testing.T) {
	schema, err := Parse(writeWorkbook(t, "Sheet1", templateRows))
	require.NoError(t, err)

	assert.Equal(t, []string{"Invoice No", "Buyer City"}, schema.InvoiceFields)
	assert.Equal(t, []string{"Qty", "Disc Name"}, schema.ItemFields)

	qty := schema.GetFieldMapping("Qty")
	require.NotNil(t, qty)
	assert.Equal(t, document.ScopeItem, qty.Scope)
	assert.Equal(t, "numeric", qty.DataType)
	assert.Equal(t, Required, qty.RequiredType)
	assert.Equal(t, "1", qty.DefaultValue)

	disc := schema.GetFieldMapping("Disc Name")
	assert.Equal(t, Conditional, disc.RequiredType)
	assert.Equal(t, 35, disc.MaxLength)
	assert.Equal(t, "if Disc Value != ''", disc.ConditionalRule)

	assert.Equal(t, "buyer_city", schema.GetFieldMapping("Buyer City").FieldKey)
	assert.True(t, schema.IsInvoiceField("Buyer City"))

	header, ok := schema.HeaderFor(document.FieldInvoiceNumber)
	assert.True(t, ok)
	assert.Equal(t, "Invoice No", header)
}

func TestParseReportsEveryInvalidRow(t *testing.T) {
	rows := [][]any{
		{"Source Header", "Field Key", "Scope"},
		{"A", "no_such_field", ""},
		{"B", "quantity", "invoice"},
		{"C", "invoice_number", "", "", "ten"},
		{"D", "", ""},
	}
	_, err := Parse(writeWorkbook(t, "Sheet1", rows))
	require.Error(t, err)
	assert.ErrorContains(t, err, "row 2")
	assert.ErrorContains(t, err, "unknown field key")
	assert.ErrorContains(t, err, "row 3")
	assert.ErrorContains(t, err, "invalid max length")
	assert.ErrorContains(t, err, "no field key")
}

func TestOverride(t *testing.T) {
	schema, err := Parse(writeWorkbook(t, "Sheet1", templateRows))
	require.NoError(t, err)

	require.NoError(t, schema.Override(map[string]string{
		"Qty":    "line_amount",
		"Art Nr": "article_number",
	}))

	qty := schema.GetFieldMapping("Qty")
	assert.Equal(t, "line_amount", qty.FieldKey)
	assert.Equal(t, Required, qty.RequiredType)
	assert.Contains(t, schema.ItemFields, "Art Nr")
	assert.Equal(t, 1, countOf(schema.ItemFields, "Qty"))

	assert.Error(t, schema.Override(map[string]string{"X": "bogus"}))
}

func TestFromFieldMappings(t *testing.T) {
	schema, err := FromFieldMappings(map[string]string{"No": "invoice_number", "Qty": "quantity"})
	require.NoError(t, err)
	assert.Equal(t, []string{"No"}, schema.InvoiceFields)
	assert.Equal(t, []string{"Qty"}, schema.ItemFields)
	assert.Equal(t, Optional, schema.GetFieldMapping("Qty").RequiredType)
}

func TestReadRows(t *testing.T) {
	path := writeWorkbook(t, "Lines", [][]any{
		{"exported 2024-03-01"},
		{"Invoice", "Qty", "", "Note"},
		{"INV-1", 2, "x", "note"},
		{},
		{"INV-2"},
	})

	headers, rows, err := ReadRows(path, config.XLSXSettings{Sheet: "Lines", HeaderRow: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Invoice", "Qty", "Column_3", "Note"}, headers)
	require.Len(t, rows, 2)
	assert.Equal(t, 3, rows[0].Number)
	assert.Equal(t, "2", rows[0].Get("Qty"))
	assert.Equal(t, "x", rows[0].Get("Column_3"))
	assert.Equal(t, "note", rows[0].Get("Note"))
	assert.Equal(t, 5, rows[1].Number)
	assert.Equal(t, "", rows[1].Get("Qty"))

	_, _, err = ReadRows(path, config.XLSXSettings{Sheet: "Missing"})
	assert.Error(t, err)
}

func countOf(list []string, s string) int {
	n := 0
	for _, v := range list {
		if v == s {
			n++
		}
	}
	return n
}
