// =============================================================================
// EDIFACT Generator - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - converter
//   - validation
//   - csvparser / xlsxparser (as producers of rows)
//
// =============================================================================

package types

// Row is one source record: a CSV line or an XLSX sheet row.
type Row struct {
	// Number is the 1-based line or row number in the source file.
	// Useful for error reporting.
	Number int

	// Fields maps the source column header to the (possibly transformed)
	// value.
	Fields map[string]string
}

// Get returns the value of header, or "" when the column is absent.
func (r Row) Get(header string) string {
	return r.Fields[header]
}

// InvoiceGroup is the set of rows that form one invoice. Every row is one
// line item; header fields are taken from the first row.
type InvoiceGroup struct {
	// ID is the 1-based position of the invoice in its source file.
	ID int

	// Key is the grouping value, normally the invoice number.
	Key string

	// Rows are the line item rows in output order.
	Rows []Row
}
