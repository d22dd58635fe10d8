// =============================================================================
// EDIFACT Generator - Validation Engine
// =============================================================================
//
// This module validates grouped source rows against the rules of the mapping
// template before an invoice is built:
//   - character length limits
//   - data types (numeric, decimal, alphanumeric, date, ...)
//   - required and conditional fields
//   - invoice level consistency across the rows of one invoice
//
// VALIDATION STRATEGY:
//   1. Invoice fields: checked once, on the first row of the invoice.
//   2. Item fields: checked on every row.
//   3. Invoice level: header fields must not change between rows.
//
// ERROR HANDLING:
//   - Errors are collected, not returned on the first failure.
//   - Each error names the invoice, row, field and value.
//   - Inconsistent header fields are warnings; everything else is fatal.
//
// =============================================================================

package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/annis-souames/edifact-generator/internal/edifact"
	"github.com/annis-souames/edifact-generator/internal/types"
	"github.com/annis-souames/edifact-generator/internal/xlsxparser"
)

// Severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError is a single validation finding.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Field is the source header.
	Field string

	// FieldKey is the invoice field the header maps to.
	FieldKey string

	// Value is the offending value.
	Value string

	// Rule is the violated rule: required, conditional_required,
	// max_length, data_type, consistency or custom.
	Rule string

	// Message is a human-readable description.
	Message string

	// InvoiceKey is the grouping value of the invoice.
	InvoiceKey string

	// RowNumber is the source row number.
	RowNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] invoice %q, row %d, field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.InvoiceKey,
		e.RowNumber,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all findings, warnings included.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	// FieldsValidated is the number of field values checked.
	FieldsValidated int

	// InvoicesValidated is the number of invoices checked.
	InvoicesValidated int
}

// Err combines the fatal findings into one error, or returns nil.
func (r *ValidationResult) Err() error {
	var errs error
	for _, e := range r.Errors {
		if e.Severity == SeverityError {
			errs = multierr.Append(errs, e)
		}
	}
	return errs
}

// ForInvoice returns the findings of one invoice.
func (r *ValidationResult) ForInvoice(key string) []*ValidationError {
	var out []*ValidationError
	for _, e := range r.Errors {
		if e.InvoiceKey == key {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks invoice groups against a schema.
type Validator struct {
	schema  *xlsxparser.Schema
	options ValidationOptions
}

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// StopOnFirstError stops validation after the first fatal error.
	StopOnFirstError bool

	// TreatWarningsAsErrors makes warnings invalidate the result.
	TreatWarningsAsErrors bool

	// SkipOptionalValidation skips optional fields.
	SkipOptionalValidation bool

	// CustomValidators are keyed by field key.
	CustomValidators map[string]CustomValidatorFunc
}

// CustomValidatorFunc returns an error message, or "" when value is valid.
type CustomValidatorFunc func(value string, context ValidationContext) string

// ValidationContext is passed to custom validators.
type ValidationContext struct {
	FieldName    string
	FieldMapping *xlsxparser.FieldMapping
	Invoice      *types.InvoiceGroup
	Row          *types.Row
}

// DefaultValidationOptions returns the default validation options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{CustomValidators: make(map[string]CustomValidatorFunc)}
}

// NewValidator creates a validator with default options.
func NewValidator(schema *xlsxparser.Schema) *Validator {
	return NewValidatorWithOptions(schema, DefaultValidationOptions())
}

// NewValidatorWithOptions creates a validator with custom options.
func NewValidatorWithOptions(schema *xlsxparser.Schema, options ValidationOptions) *Validator {
	if options.CustomValidators == nil {
		options.CustomValidators = make(map[string]CustomValidatorFunc)
	}
	return &Validator{schema: schema, options: options}
}

// =============================================================================
// MAIN VALIDATION FUNCTIONS
// =============================================================================

// Validate checks every invoice and returns the findings.
func Validate(invoices []types.InvoiceGroup, schema *xlsxparser.Schema) []*ValidationError {
	return NewValidator(schema).ValidateAll(invoices).Errors
}

// ValidateAll checks every invoice and returns a detailed result.
func (v *Validator) ValidateAll(invoices []types.InvoiceGroup) *ValidationResult {
	result := &ValidationResult{IsValid: true, Errors: make([]*ValidationError, 0)}

	for i := range invoices {
		result.InvoicesValidated++
		findings, checked := v.ValidateInvoice(&invoices[i])
		result.FieldsValidated += checked

		for _, err := range findings {
			result.Errors = append(result.Errors, err)
			if err.Severity == SeverityError {
				result.ErrorCount++
				result.IsValid = false
				if v.options.StopOnFirstError {
					return result
				}
			} else {
				result.WarningCount++
				if v.options.TreatWarningsAsErrors {
					result.IsValid = false
				}
			}
		}
	}
	return result
}

// ValidateInvoice checks one invoice group. It returns the findings and the
// number of field values checked.
func (v *Validator) ValidateInvoice(invoice *types.InvoiceGroup) ([]*ValidationError, int) {
	var findings []*ValidationError
	checked := 0
	if len(invoice.Rows) == 0 {
		return []*ValidationError{{
			Severity:   SeverityError,
			Rule:       "required",
			Message:    "invoice has no rows",
			InvoiceKey: invoice.Key,
		}}, 0
	}

	first := &invoice.Rows[0]
	for _, header := range v.schema.InvoiceFields {
		errs, ok := v.validateHeader(header, invoice, first)
		findings = append(findings, errs...)
		if ok {
			checked++
		}
	}
	for i := range invoice.Rows {
		row := &invoice.Rows[i]
		for _, header := range v.schema.ItemFields {
			errs, ok := v.validateHeader(header, invoice, row)
			findings = append(findings, errs...)
			if ok {
				checked++
			}
		}
	}

	findings = append(findings, v.validateConsistency(invoice)...)
	return findings, checked
}

func (v *Validator) validateHeader(header string, invoice *types.InvoiceGroup, row *types.Row) ([]*ValidationError, bool) {
	mapping := v.schema.GetFieldMapping(header)
	if mapping == nil {
		return nil, false
	}
	if v.options.SkipOptionalValidation && mapping.RequiredType == xlsxparser.Optional {
		return nil, false
	}

	value := row.Get(header)
	errs := v.ValidateField(value, mapping, invoice, row)

	if custom, exists := v.options.CustomValidators[mapping.FieldKey]; exists && value != "" {
		ctx := ValidationContext{FieldName: header, FieldMapping: mapping, Invoice: invoice, Row: row}
		if msg := custom(value, ctx); msg != "" {
			errs = append(errs, newError(SeverityError, "custom", msg, mapping, value, invoice, row))
		}
	}
	return errs, true
}

// ValidateField checks a single value against its mapping.
func (v *Validator) ValidateField(value string, mapping *xlsxparser.FieldMapping, invoice *types.InvoiceGroup, row *types.Row) []*ValidationError {
	if value == "" {
		// A default fills the gap later.
		if mapping.DefaultValue != "" {
			return nil
		}
		switch {
		case mapping.RequiredType == xlsxparser.Required:
			return []*ValidationError{newError(SeverityError, "required",
				fmt.Sprintf("required field '%s' is empty", mapping.FieldKey), mapping, value, invoice, row)}
		case mapping.RequiredType == xlsxparser.Conditional && mapping.ConditionalRule != "" &&
			EvaluateCondition(mapping.ConditionalRule, row.Fields):
			return []*ValidationError{newError(SeverityError, "conditional_required",
				fmt.Sprintf("field '%s' is required when: %s", mapping.FieldKey, mapping.ConditionalRule), mapping, value, invoice, row)}
		}
		return nil
	}

	var errs []*ValidationError
	if n := utf8.RuneCountInString(value); mapping.MaxLength > 0 && n > mapping.MaxLength {
		errs = append(errs, newError(SeverityError, "max_length",
			fmt.Sprintf("value exceeds maximum length of %d characters (actual: %d)", mapping.MaxLength, n), mapping, value, invoice, row))
	}
	if msg := validateDataType(value, mapping.DataType); msg != "" {
		errs = append(errs, newError(SeverityError, "data_type", msg, mapping, value, invoice, row))
	}
	return errs
}

// validateConsistency warns when an invoice field differs between rows.
// Only the first row's value is used.
func (v *Validator) validateConsistency(invoice *types.InvoiceGroup) []*ValidationError {
	var warnings []*ValidationError
	first := invoice.Rows[0]
	for _, header := range v.schema.InvoiceFields {
		want := first.Get(header)
		for i := 1; i < len(invoice.Rows); i++ {
			row := &invoice.Rows[i]
			if got := row.Get(header); got != "" && got != want {
				warnings = append(warnings, newError(SeverityWarning, "consistency",
					fmt.Sprintf("differs from row %d value '%s'; the first value is used", first.Number, want),
					v.schema.GetFieldMapping(header), got, invoice, row))
			}
		}
	}
	return warnings
}

func newError(severity, rule, msg string, mapping *xlsxparser.FieldMapping, value string, invoice *types.InvoiceGroup, row *types.Row) *ValidationError {
	return &ValidationError{
		Severity:   severity,
		Field:      mapping.OldHeader,
		FieldKey:   mapping.FieldKey,
		Value:      value,
		Rule:       rule,
		Message:    msg,
		InvoiceKey: invoice.Key,
		RowNumber:  row.Number,
	}
}

// =============================================================================
// DATA TYPE VALIDATORS
// =============================================================================

// validateDataType returns an error message, or "" when value matches
// dataType.
func validateDataType(value, dataType string) string {
	switch {
	case dataType == "string" || dataType == "":
		return ""
	case dataType == "numeric":
		return validateNumeric(value)
	case strings.HasPrefix(dataType, "decimal"):
		return validateDecimal(value, dataType)
	case dataType == "alphanumeric":
		return validateCharacters(value, "alphanumeric", func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) })
	case dataType == "alpha":
		return validateCharacters(value, "alphabetic", unicode.IsLetter)
	case dataType == "date":
		if _, _, err := edifact.FormatDate(value); err != nil {
			return fmt.Sprintf("value '%s' is not a valid date", value)
		}
		return ""
	case dataType == "boolean":
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "false", "yes", "no", "1", "0", "y", "n", "t", "f":
			return ""
		}
		return fmt.Sprintf("value '%s' is not a valid boolean", value)
	default:
		return ""
	}
}

func validateNumeric(value string) string {
	if _, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err != nil {
		return fmt.Sprintf("value '%s' is not a valid integer", value)
	}
	return ""
}

// validateDecimal accepts "decimal" and "decimal(n)", where n is the maximum
// number of fraction digits.
func validateDecimal(value, dataType string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return fmt.Sprintf("value '%s' is not a valid decimal number", value)
	}
	if p := extractParenthesesContent(dataType); p != "" {
		precision, err := strconv.Atoi(p)
		if err == nil && precision >= 0 && -d.Exponent() > int32(precision) {
			return fmt.Sprintf("value '%s' has more than %d decimal places", value, precision)
		}
	}
	return ""
}

func validateCharacters(value, kind string, ok func(rune) bool) string {
	for _, r := range value {
		if !ok(r) && !unicode.IsSpace(r) {
			return fmt.Sprintf("value '%s' contains non-%s characters", value, kind)
		}
	}
	return ""
}

// =============================================================================
// CONDITIONAL RULE EVALUATION
// =============================================================================

var (
	comparisonRule = regexp.MustCompile(`^(.+?)\s*(==|!=|>=|<=|>|<)\s*(.+)$`)
	textRule       = regexp.MustCompile(`^(.+?)\s+(starts_with|ends_with|contains)\s+'([^']*)'$`)
	emptinessRule  = regexp.MustCompile(`^(.+?)\s+(is_empty|is_not_empty)$`)
)

// EvaluateCondition evaluates a conditional rule against a row. Header names
// may contain spaces.
//
// SUPPORTED RULE SYNTAX:
//   - "if Header == 'value'"     "if Header != 'value'"
//   - "if Header > 100"          (also <, >=, <=; compared as decimals)
//   - "if Header starts_with 'x'" (also ends_with, contains)
//   - "if Header is_empty"       "if Header is_not_empty"
//
// Unknown rules evaluate to false.
func EvaluateCondition(rule string, fields map[string]string) bool {
	rule = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rule), "if "))

	if m := emptinessRule.FindStringSubmatch(rule); m != nil {
		empty := strings.TrimSpace(fields[m[1]]) == ""
		return empty == (m[2] == "is_empty")
	}
	if m := textRule.FindStringSubmatch(rule); m != nil {
		actual := fields[m[1]]
		switch m[2] {
		case "starts_with":
			return strings.HasPrefix(actual, m[3])
		case "ends_with":
			return strings.HasSuffix(actual, m[3])
		default:
			return strings.Contains(actual, m[3])
		}
	}
	if m := comparisonRule.FindStringSubmatch(rule); m != nil {
		actual := fields[strings.TrimSpace(m[1])]
		operand := strings.TrimSpace(m[3])
		if quoted := strings.Trim(operand, "'"); len(operand) >= 2 && operand[0] == '\'' && operand[len(operand)-1] == '\'' {
			switch m[2] {
			case "==":
				return actual == quoted
			case "!=":
				return actual != quoted
			}
			return false
		}
		return compareDecimal(actual, m[2], operand)
	}
	return false
}

func compareDecimal(actual, op, operand string) bool {
	a, err := decimal.NewFromString(strings.TrimSpace(actual))
	if err != nil {
		return false
	}
	b, err := decimal.NewFromString(operand)
	if err != nil {
		return false
	}
	switch op {
	case "==":
		return a.Equal(b)
	case "!=":
		return !a.Equal(b)
	case ">":
		return a.GreaterThan(b)
	case "<":
		return a.LessThan(b)
	case ">=":
		return a.GreaterThanOrEqual(b)
	case "<=":
		return a.LessThanOrEqual(b)
	}
	return false
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// extractParenthesesContent extracts content between parentheses.
// Example: "decimal(2)" -> "2"
func extractParenthesesContent(s string) string {
	start := strings.Index(s, "(")
	end := strings.Index(s, ")")
	if start != -1 && end != -1 && end > start {
		return s[start+1 : end]
	}
	return ""
}

// FormatErrors formats findings for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Validation completed with %d finding(s):\n\n", len(errors))
	for i, err := range errors {
		fmt.Fprintf(&builder, "%d. %s\n", i+1, err.Error())
	}
	return builder.String()
}
