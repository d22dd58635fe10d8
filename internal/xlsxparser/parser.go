// =============================================================================
// EDIFACT Generator - XLSX Mapping Template Parser
// =============================================================================
//
// This module parses XLSX mapping templates. A template tells the converter
// which source column feeds which invoice field, and how the value must look.
//
// TEMPLATE STRUCTURE (Expected Columns):
//
//   | Column A      | Column B       | Column C | Column D  | Column E   | Column F          | Column G           | Column H |
//   |---------------|----------------|----------|-----------|------------|-------------------|--------------------|----------|
//   | Source Header | Field Key      | Scope    | Data Type | Max Length | Required/Optional | Conditional Rule   | Default  |
//   | Invoice No    | invoice_number | invoice  | string    | 35         | required          |                    |          |
//   | Inv Date      | invoice_date   | invoice  | date      |            | required          |                    |          |
//   | EAN           | article_number | item     | numeric   | 14         | optional          |                    |          |
//   | Qty           | quantity       | item     | decimal   |            | required          |                    | 1        |
//   | Disc %        | discount_name  | item     | string    | 35         | conditional       | if Disc Value != ''|          |
//
// The scope column may be left empty; it is then derived from the field key.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"

	"github.com/annis-souames/edifact-generator/internal/document"
)

// Requirement values.
const (
	Required    = "required"
	Optional    = "optional"
	Conditional = "conditional"
)

// =============================================================================
// SCHEMA STRUCTURE
// =============================================================================

// Schema is a parsed mapping template.
type Schema struct {
	// TemplateFile is the path to the source template file, if any.
	TemplateFile string

	// FieldMappings is keyed by source header.
	FieldMappings map[string]*FieldMapping

	// InvoiceFields are the source headers of invoice level fields in
	// template order.
	InvoiceFields []string

	// ItemFields are the source headers of line item fields in template
	// order.
	ItemFields []string
}

// FieldMapping maps one source column to one invoice field.
type FieldMapping struct {
	// OldHeader is the column header in the source file.
	OldHeader string

	// FieldKey is the invoice field key, e.g. "invoice_number".
	FieldKey string

	// Scope is document.ScopeInvoice or document.ScopeItem.
	Scope document.Scope

	// DataType is one of "string", "numeric", "decimal", "decimal(n)",
	// "alphanumeric", "alpha", "date", "boolean".
	DataType string

	// MaxLength is the maximum number of characters. 0 means no limit.
	MaxLength int

	// RequiredType is Required, Optional or Conditional.
	RequiredType string

	// ConditionalRule is evaluated against the source row when RequiredType
	// is Conditional, e.g. "if Disc Value != ''".
	ConditionalRule string

	// DefaultValue replaces an empty source value.
	DefaultValue string

	// Order is the template row index.
	Order int
}

// =============================================================================
// TEMPLATE COLUMN CONFIGURATION
// =============================================================================

// TemplateColumns defines which template columns hold which attribute.
// Column indices are 0-based (A=0, B=1, ...).
type TemplateColumns struct {
	OldHeaderColumn       int
	FieldKeyColumn        int
	ScopeColumn           int
	DataTypeColumn        int
	MaxLengthColumn       int
	RequiredColumn        int
	ConditionalRuleColumn int
	DefaultValueColumn    int

	// DataStartRow is the 0-based row where mappings begin.
	DataStartRow int
}

// DefaultTemplateColumns returns the A..H layout shown above.
func DefaultTemplateColumns() TemplateColumns {
	return TemplateColumns{
		OldHeaderColumn:       0, // Column A
		FieldKeyColumn:        1, // Column B
		ScopeColumn:           2, // Column C
		DataTypeColumn:        3, // Column D
		MaxLengthColumn:       4, // Column E
		RequiredColumn:        5, // Column F
		ConditionalRuleColumn: 6, // Column G
		DefaultValueColumn:    7, // Column H
		DataStartRow:          1, // Row 2
	}
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads the first sheet of an XLSX mapping template.
func Parse(templatePath string) (*Schema, error) {
	return ParseWithConfig(templatePath, "", DefaultTemplateColumns())
}

// ParseWithConfig reads a mapping template using a custom column layout.
// An empty sheet name selects the first sheet.
//
// Every invalid row is reported; the schema is only returned when the whole
// template is valid.
func ParseWithConfig(templatePath, sheet string, columns TemplateColumns) (*Schema, error) {
	f, err := excelize.OpenFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open template file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fmt.Errorf("template file has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	schema := newSchema()
	schema.TemplateFile = templatePath

	var errs error
	for i := columns.DataStartRow; i < len(rows); i++ {
		row := rows[i]
		if isRowEmpty(row) {
			continue
		}

		mapping, err := parseRow(row, columns, i)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("row %d: %w", i+1, err))
			continue
		}
		if mapping.OldHeader == "" {
			continue
		}
		if err := schema.Add(mapping); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("row %d: %w", i+1, err))
		}
	}
	if errs != nil {
		return nil, fmt.Errorf("invalid template %s: %w", templatePath, errs)
	}
	return schema, nil
}

// parseRow extracts a FieldMapping from a single template row.
func parseRow(row []string, columns TemplateColumns, rowIndex int) (*FieldMapping, error) {
	getCell := func(index int) string {
		if index >= 0 && index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}

	mapping := &FieldMapping{
		OldHeader:       getCell(columns.OldHeaderColumn),
		FieldKey:        strings.ToLower(getCell(columns.FieldKeyColumn)),
		Scope:           document.Scope(strings.ToLower(getCell(columns.ScopeColumn))),
		DataType:        normalizeDataType(getCell(columns.DataTypeColumn)),
		RequiredType:    normalizeRequiredType(getCell(columns.RequiredColumn)),
		ConditionalRule: getCell(columns.ConditionalRuleColumn),
		DefaultValue:    getCell(columns.DefaultValueColumn),
		Order:           rowIndex,
	}

	if maxLength := getCell(columns.MaxLengthColumn); maxLength != "" {
		n, err := strconv.Atoi(maxLength)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid max length %q", maxLength)
		}
		mapping.MaxLength = n
	}
	return mapping, nil
}

// =============================================================================
// SCHEMA METHODS
// =============================================================================

func newSchema() *Schema {
	return &Schema{
		FieldMappings: make(map[string]*FieldMapping),
		InvoiceFields: []string{},
		ItemFields:    []string{},
	}
}

// FromFieldMappings builds a schema from a plain header to field key map,
// as found in partner configurations. Headers are added in sorted order.
func FromFieldMappings(mappings map[string]string) (*Schema, error) {
	schema := newSchema()
	if err := schema.Override(mappings); err != nil {
		return nil, err
	}
	return schema, nil
}

// Add registers a mapping. The field key must be known; an empty scope is
// derived from the key and an explicit scope must agree with it.
func (s *Schema) Add(mapping *FieldMapping) error {
	if mapping.FieldKey == "" {
		return fmt.Errorf("header %q has no field key", mapping.OldHeader)
	}
	scope, ok := document.FieldScope(mapping.FieldKey)
	if !ok {
		return fmt.Errorf("header %q: unknown field key %q", mapping.OldHeader, mapping.FieldKey)
	}
	switch mapping.Scope {
	case "":
		mapping.Scope = scope
	case scope:
	default:
		return fmt.Errorf("header %q: field %q belongs to %s, not %s", mapping.OldHeader, mapping.FieldKey, scope, mapping.Scope)
	}
	if mapping.DataType == "" {
		mapping.DataType = "string"
	}
	if mapping.RequiredType == "" {
		mapping.RequiredType = Optional
	}

	if _, exists := s.FieldMappings[mapping.OldHeader]; exists {
		s.remove(mapping.OldHeader)
	}
	s.FieldMappings[mapping.OldHeader] = mapping
	if mapping.Scope == document.ScopeInvoice {
		s.InvoiceFields = append(s.InvoiceFields, mapping.OldHeader)
	} else {
		s.ItemFields = append(s.ItemFields, mapping.OldHeader)
	}
	return nil
}

func (s *Schema) remove(header string) {
	del := func(list []string) []string {
		out := list[:0]
		for _, h := range list {
			if h != header {
				out = append(out, h)
			}
		}
		return out
	}
	s.InvoiceFields = del(s.InvoiceFields)
	s.ItemFields = del(s.ItemFields)
	delete(s.FieldMappings, header)
}

// Override adds or replaces mappings from a header to field key map. An
// existing mapping keeps its validation rules when only the key changes.
func (s *Schema) Override(mappings map[string]string) error {
	headers := make([]string, 0, len(mappings))
	for header := range mappings {
		headers = append(headers, header)
	}
	sort.Strings(headers)

	var errs error
	for _, header := range headers {
		mapping := &FieldMapping{OldHeader: header, FieldKey: strings.ToLower(mappings[header]), Order: len(s.FieldMappings)}
		if prev, ok := s.FieldMappings[header]; ok {
			kept := *prev
			kept.FieldKey = mapping.FieldKey
			kept.Scope = ""
			mapping = &kept
		}
		errs = multierr.Append(errs, s.Add(mapping))
	}
	return errs
}

// GetFieldMapping returns the mapping of a source header, or nil.
func (s *Schema) GetFieldMapping(oldHeader string) *FieldMapping {
	return s.FieldMappings[oldHeader]
}

// HeaderFor returns the source header mapped to fieldKey.
func (s *Schema) HeaderFor(fieldKey string) (string, bool) {
	for _, header := range append(append([]string{}, s.InvoiceFields...), s.ItemFields...) {
		if s.FieldMappings[header].FieldKey == fieldKey {
			return header, true
		}
	}
	return "", false
}

// IsInvoiceField reports whether a header maps to an invoice level field.
func (s *Schema) IsInvoiceField(oldHeader string) bool {
	if mapping, exists := s.FieldMappings[oldHeader]; exists {
		return mapping.Scope == document.ScopeInvoice
	}
	return false
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// normalizeRequiredType maps template wording to Required, Optional or
// Conditional.
func normalizeRequiredType(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "required", "req", "r", "yes", "y", "true", "1", "mandatory", "m":
		return Required
	case "conditional", "cond", "c", "if":
		return Conditional
	default:
		return Optional
	}
}

// normalizeDataType maps template wording to a canonical data type.
func normalizeDataType(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))

	// Keep parameters such as "decimal(2)".
	if strings.HasPrefix(value, "decimal(") {
		return value
	}

	switch value {
	case "", "string", "str", "text", "varchar":
		return "string"
	case "numeric", "num", "number", "int", "integer":
		return "numeric"
	case "decimal", "dec", "float", "double", "money", "currency", "amount":
		return "decimal"
	case "alphanumeric", "alphanum", "an":
		return "alphanumeric"
	case "alpha", "a", "letters":
		return "alpha"
	case "date", "datetime", "timestamp":
		return "date"
	case "boolean", "bool", "bit":
		return "boolean"
	default:
		return "string"
	}
}
