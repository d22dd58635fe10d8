package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annis-souames/edifact-generator/internal/config"
	"github.com/annis-souames/edifact-generator/internal/types"
)

func TestApplyTransformation(t *testing.T) {
	fields := map[string]string{"Type": "PROMO", "Fallback": "F1"}

	tests := []struct {
		name   string
		value  string
		action config.TransformationAction
		want   string
	}{
		{"prepend", "123", config.TransformationAction{Type: "prepend_string", Value: "EAN"}, "EAN123"},
		{"append", "123", config.TransformationAction{Type: "append_string", Value: "-X"}, "123-X"},
		{"trim", "  a b ", config.TransformationAction{Type: "trim"}, "a b"},
		{"trim left chars", "00042", config.TransformationAction{Type: "trim_left", Value: "0"}, "42"},
		{"title case", "hELLO wORLD", config.TransformationAction{Type: "title_case"}, "Hello World"},
		{"replace", "a-b-c", config.TransformationAction{Type: "replace", Find: "-", Value: "/"}, "a/b/c"},
		{"regex replace", "ART 12 34", config.TransformationAction{Type: "regex_replace", Find: `\s+`, Value: ""}, "ART1234"},
		{"substring runes", "Größe", config.TransformationAction{Type: "substring", Value: "1,4"}, "röß"},
		{"pad zeros", "42", config.TransformationAction{Type: "pad_zeros_to_length", Value: "6"}, "000042"},
		{"pad spaces", "ab", config.TransformationAction{Type: "pad_spaces_to_length", Value: "4"}, "ab  "},
		{"ensure length truncates", "123456", config.TransformationAction{Type: "ensure_length", Value: "4"}, "1234"},
		{"remove leading zeros", "000", config.TransformationAction{Type: "remove_leading_zeros"}, "0"},
		{"normalize decimal", "1.234,50", config.TransformationAction{Type: "normalize_decimal"}, "1234.50"},
		{"normalize decimal point", "1,234.50", config.TransformationAction{Type: "normalize_decimal", Value: "."}, "1234.50"},
		{"format number half away", "2.345", config.TransformationAction{Type: "format_number", Value: "2"}, "2.35"},
		{"format number negative", "-2.345", config.TransformationAction{Type: "format_number", Value: "2"}, "-2.35"},
		{"format date", "01.03.2024", config.TransformationAction{Type: "format_date", Value: "02.01.2006|2006-01-02"}, "2024-03-01"},
		{"lookup hit", "ST", config.TransformationAction{Type: "lookup", LookupTable: map[string]string{"ST": "PCE"}}, "PCE"},
		{"lookup miss", "KG", config.TransformationAction{Type: "lookup", LookupTable: map[string]string{"ST": "PCE"}}, "KG"},
		{"lookup default", "KG", config.TransformationAction{Type: "lookup_with_default", Value: "PCE"}, "PCE"},
		{"default", " ", config.TransformationAction{Type: "default_value", Value: "EUR"}, "EUR"},
		{"empty uses field", "", config.TransformationAction{Type: "if_empty_use_field", Value: "Fallback"}, "F1"},
		{"conditional on row", "10", config.TransformationAction{Type: "conditional", Condition: "if Type == 'PROMO'", Value: "0"}, "0"},
		{"conditional then", "P12", config.TransformationAction{
			Type:      "conditional",
			Condition: "starts_with 'P'",
			Then:      &config.TransformationAction{Type: "pad_zeros_to_length", Value: "5"},
		}, "00P12"},
		{"conditional length", "123", config.TransformationAction{Type: "conditional", Condition: "length > 5", Value: "LONG"}, "123"},
		{"extract digits", "A1-B22", config.TransformationAction{Type: "extract_digits"}, "122"},
		{"extract letters", "A1-ü2", config.TransformationAction{Type: "extract_letters"}, "Aü"},
		{"remove special", "a.b c!", config.TransformationAction{Type: "remove_special_chars"}, "abc"},
		{"normalize whitespace", " a \t b\n", config.TransformationAction{Type: "normalize_whitespace"}, "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyTransformation(tt.value, tt.action, fields)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyTransformationErrors(t *testing.T) {
	for _, action := range []config.TransformationAction{
		{Type: "explode"},
		{Type: "pad_zeros_to_length", Value: "x"},
		{Type: "substring", Value: "3"},
		{Type: "format_number", Value: "2"},
		{Type: "format_date", Value: "2006-01-02|20060102"},
		{Type: "regex_replace", Find: "("},
		{Type: "conditional"},
	} {
		t.Run(action.Type, func(t *testing.T) {
			_, err := ApplyTransformation("abc", action, nil)
			assert.Error(t, err)
		})
	}
}

func TestTransformRow(t *testing.T) {
	tr := NewTransformer([]config.TransformationRule{
		{Field: "EAN", Actions: []config.TransformationAction{
			{Type: "trim"},
			{Type: "pad_zeros_to_length", Value: "13"},
		}},
		{Field: "Missing", Actions: []config.TransformationAction{{Type: "uppercase"}}},
		{Field: "Unit", Actions: []config.TransformationAction{{Type: "lookup", LookupTable: map[string]string{"Stk": "PCE"}}}},
	})

	invoice := types.InvoiceGroup{Rows: []types.Row{
		{Number: 2, Fields: map[string]string{"EAN": " 862141404 ", "Unit": "Stk"}},
		{Number: 3, Fields: map[string]string{"EAN": "1", "Unit": "KGM"}},
	}}
	require.NoError(t, tr.TransformInvoice(&invoice))
	assert.Equal(t, "0000862141404", invoice.Rows[0].Fields["EAN"])
	assert.Equal(t, "PCE", invoice.Rows[0].Fields["Unit"])
	assert.Equal(t, "KGM", invoice.Rows[1].Fields["Unit"])
	assert.NotContains(t, invoice.Rows[0].Fields, "Missing")

	value, err := tr.Transform("Unit", "Stk", nil)
	require.NoError(t, err)
	assert.Equal(t, "PCE", value)

	bad := NewTransformer([]config.TransformationRule{{Field: "EAN", Actions: []config.TransformationAction{{Type: "nope"}}}})
	err = bad.TransformRow(&types.Row{Number: 7, Fields: map[string]string{"EAN": "1"}})
	assert.ErrorContains(t, err, "row 7")
}
