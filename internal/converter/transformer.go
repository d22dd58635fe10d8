// =============================================================================
// EDIFACT Generator - Transformation Engine
// =============================================================================
//
// This module rewrites source values before they are validated and mapped to
// invoice fields. Each trading partner defines its own rules, typically:
//   - article number formatting (padding, prefixes)
//   - code translation through lookup tables (units, tax names)
//   - date format conversion
//   - decimal comma normalisation for amounts and prices
//
// Rules are applied per source column, action by action, in the order they
// appear in the partner configuration.
//
// =============================================================================

package converter

import (
	"fmt"
	"maps"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/annis-souames/edifact-generator/internal/config"
	"github.com/annis-souames/edifact-generator/internal/types"
	"github.com/annis-souames/edifact-generator/internal/validation"
)

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer applies the transformation rules of one partner.
type Transformer struct {
	rules []config.TransformationRule
}

// NewTransformer creates a new Transformer with the given rules.
func NewTransformer(rules []config.TransformationRule) *Transformer {
	return &Transformer{rules: rules}
}

// Transform applies every rule for fieldName to value. allFields is the
// whole source row; conditional actions may refer to it.
func (t *Transformer) Transform(fieldName, value string, allFields map[string]string) (string, error) {
	result := value
	for _, rule := range t.rules {
		if rule.Field != fieldName {
			continue
		}
		for _, action := range rule.Actions {
			var err error
			result, err = ApplyTransformation(result, action, allFields)
			if err != nil {
				return "", fmt.Errorf("transformation '%s' failed: %w", action.Type, err)
			}
		}
	}
	return result, nil
}

// TransformRow applies all rules to row in rule order. Rules for columns the
// row does not have are skipped.
func (t *Transformer) TransformRow(row *types.Row) error {
	for _, rule := range t.rules {
		value, exists := row.Fields[rule.Field]
		if !exists {
			continue
		}
		for _, action := range rule.Actions {
			var err error
			value, err = ApplyTransformation(value, action, row.Fields)
			if err != nil {
				return fmt.Errorf("row %d, field '%s': transformation '%s' failed: %w", row.Number, rule.Field, action.Type, err)
			}
		}
		row.Fields[rule.Field] = value
	}
	return nil
}

// TransformInvoice applies all rules to every row of invoice.
func (t *Transformer) TransformInvoice(invoice *types.InvoiceGroup) error {
	for i := range invoice.Rows {
		if err := t.TransformRow(&invoice.Rows[i]); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// TRANSFORMATION FUNCTIONS
// =============================================================================

var (
	digitsPattern  = regexp.MustCompile(`\d+`)
	lettersPattern = regexp.MustCompile(`\pL+`)
	specialPattern = regexp.MustCompile(`[^\pL\pN]`)
	spacePattern   = regexp.MustCompile(`\s+`)
	titleCaser     = cases.Title(language.Und)
)

// ApplyTransformation applies a single action to value.
//
// SUPPORTED TRANSFORMATIONS:
//
//	prepend_string, append_string     add action.Value
//	trim, trim_left, trim_right       strip whitespace or the runes in Value
//	uppercase, lowercase, title_case
//	replace, regex_replace            replace Find with Value
//	substring                         Value "start,end" in runes
//	pad_zeros_to_length               left pad with '0' to Value runes
//	pad_spaces_to_length              right pad with ' ' to Value runes
//	ensure_length                     truncate or zero pad to Value runes
//	remove_leading_zeros
//	normalize_decimal                 "1.234,50" -> "1234.50"; Value is the
//	                                  decimal separator of the source (default ",")
//	format_number                     fixed decimals, half away from zero
//	format_date                       Value "input_layout|output_layout"
//	lookup, lookup_with_default       LookupTable, default in Value
//	default_value, if_empty_use_default
//	if_empty_use_field                copy the column named in Value
//	conditional                       apply Then (or set Value) when
//	                                  Condition holds
//	extract_digits, extract_letters, remove_special_chars, normalize_whitespace
func ApplyTransformation(value string, action config.TransformationAction, allFields map[string]string) (string, error) {
	switch action.Type {

	// =========================================================================
	// STRING MANIPULATIONS
	// =========================================================================

	case "prepend_string":
		return action.Value + value, nil

	case "append_string":
		return value + action.Value, nil

	case "trim":
		return strings.TrimSpace(value), nil

	case "trim_left":
		if action.Value != "" {
			return strings.TrimLeft(value, action.Value), nil
		}
		return strings.TrimLeft(value, " \t\n\r"), nil

	case "trim_right":
		if action.Value != "" {
			return strings.TrimRight(value, action.Value), nil
		}
		return strings.TrimRight(value, " \t\n\r"), nil

	case "uppercase":
		return strings.ToUpper(value), nil

	case "lowercase":
		return strings.ToLower(value), nil

	case "title_case":
		return titleCaser.String(strings.ToLower(value)), nil

	case "replace":
		if action.Find == "" {
			return value, nil
		}
		return strings.ReplaceAll(value, action.Find, action.Value), nil

	case "regex_replace":
		if action.Find == "" {
			return value, nil
		}
		re, err := regexp.Compile(action.Find)
		if err != nil {
			return "", fmt.Errorf("invalid regex pattern: %w", err)
		}
		return re.ReplaceAllString(value, action.Value), nil

	case "substring":
		start, end, ok := strings.Cut(action.Value, ",")
		if !ok {
			return "", fmt.Errorf("substring needs \"start,end\", got %q", action.Value)
		}
		from, err1 := strconv.Atoi(strings.TrimSpace(start))
		to, err2 := strconv.Atoi(strings.TrimSpace(end))
		if err1 != nil || err2 != nil {
			return "", fmt.Errorf("substring needs \"start,end\", got %q", action.Value)
		}
		runes := []rune(value)
		from = max(from, 0)
		to = min(to, len(runes))
		if from >= to {
			return "", nil
		}
		return string(runes[from:to]), nil

	// =========================================================================
	// NUMERIC FORMATTING
	// =========================================================================

	case "pad_zeros_to_length":
		n, err := lengthParam(action)
		if err != nil {
			return "", err
		}
		return PadLeft(value, n, '0'), nil

	case "pad_spaces_to_length":
		n, err := lengthParam(action)
		if err != nil {
			return "", err
		}
		return PadRight(value, n, ' '), nil

	case "ensure_length":
		n, err := lengthParam(action)
		if err != nil {
			return "", err
		}
		if runes := []rune(value); len(runes) > n {
			return string(runes[:n]), nil
		}
		return PadLeft(value, n, '0'), nil

	case "remove_leading_zeros":
		if result := strings.TrimLeft(value, "0"); result != "" {
			return result, nil
		}
		if value == "" {
			return "", nil
		}
		return "0", nil

	case "normalize_decimal":
		return NormalizeDecimal(value, action.Value), nil

	case "format_number":
		places, err := strconv.Atoi(action.Value)
		if err != nil || places < 0 {
			return "", fmt.Errorf("format_number needs a decimal count, got %q", action.Value)
		}
		if strings.TrimSpace(value) == "" {
			return value, nil
		}
		d, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return "", fmt.Errorf("value %q is not a number", value)
		}
		return d.StringFixed(int32(places)), nil

	// =========================================================================
	// DATE/TIME CONVERSIONS
	// =========================================================================

	case "format_date":
		in, out, ok := strings.Cut(action.Value, "|")
		if !ok {
			return "", fmt.Errorf("format_date needs \"input|output\", got %q", action.Value)
		}
		if strings.TrimSpace(value) == "" {
			return value, nil
		}
		t, err := time.Parse(strings.TrimSpace(in), strings.TrimSpace(value))
		if err != nil {
			return "", fmt.Errorf("value %q does not match %q", value, in)
		}
		return t.Format(strings.TrimSpace(out)), nil

	// =========================================================================
	// LOOKUP TABLE REPLACEMENTS
	// =========================================================================

	case "lookup":
		if replacement, exists := action.LookupTable[value]; exists {
			return replacement, nil
		}
		return value, nil

	case "lookup_with_default":
		if replacement, exists := action.LookupTable[value]; exists {
			return replacement, nil
		}
		return action.Value, nil

	// =========================================================================
	// CONDITIONAL TRANSFORMATIONS
	// =========================================================================

	case "conditional":
		if action.Condition == "" {
			return "", fmt.Errorf("conditional action without condition")
		}
		if !ConditionHolds(action.Condition, value, allFields) {
			return value, nil
		}
		if action.Then != nil {
			return ApplyTransformation(value, *action.Then, allFields)
		}
		return action.Value, nil

	case "default_value", "if_empty_use_default":
		if strings.TrimSpace(value) == "" {
			return action.Value, nil
		}
		return value, nil

	case "if_empty_use_field":
		if strings.TrimSpace(value) == "" {
			if other, exists := allFields[action.Value]; exists {
				return other, nil
			}
		}
		return value, nil

	// =========================================================================
	// SPECIAL TRANSFORMATIONS
	// =========================================================================

	case "extract_digits":
		return strings.Join(digitsPattern.FindAllString(value, -1), ""), nil

	case "extract_letters":
		return strings.Join(lettersPattern.FindAllString(value, -1), ""), nil

	case "remove_special_chars":
		return specialPattern.ReplaceAllString(value, ""), nil

	case "normalize_whitespace":
		return strings.TrimSpace(spacePattern.ReplaceAllString(value, " ")), nil

	default:
		return "", fmt.Errorf("unknown transformation type: %s", action.Type)
	}
}

func lengthParam(action config.TransformationAction) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(action.Value))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s needs a positive length, got %q", action.Type, action.Value)
	}
	return n, nil
}

// ConditionHolds evaluates a conditional action. Besides the source columns
// the condition may use "value" (the current value) and "length" (its rune
// count). A leading text or emptiness operator applies to "value":
// "starts_with 'P'" means "value starts_with 'P'".
func ConditionHolds(condition, value string, fields map[string]string) bool {
	scoped := make(map[string]string, len(fields)+2)
	maps.Copy(scoped, fields)
	scoped["value"] = value
	scoped["length"] = strconv.Itoa(utf8.RuneCountInString(value))

	condition = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(condition), "if "))
	for _, op := range []string{"starts_with", "ends_with", "contains", "is_empty", "is_not_empty"} {
		if strings.HasPrefix(condition, op) {
			condition = "value " + condition
			break
		}
	}
	return validation.EvaluateCondition(condition, scoped)
}

// NormalizeDecimal rewrites a number written with separator as decimal
// mark into plain "1234.50" form. Grouping marks are dropped. An empty
// separator means ",".
func NormalizeDecimal(value, separator string) string {
	if separator == "" {
		separator = ","
	}
	value = strings.TrimSpace(value)
	grouping := "."
	if separator == "." {
		grouping = ","
	}
	value = strings.ReplaceAll(value, grouping, "")
	value = strings.ReplaceAll(value, " ", "")
	return strings.ReplaceAll(value, separator, ".")
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// PadLeft pads s on the left to length runes.
func PadLeft(s string, length int, padChar rune) string {
	if n := utf8.RuneCountInString(s); n < length {
		return strings.Repeat(string(padChar), length-n) + s
	}
	return s
}

// PadRight pads s on the right to length runes.
func PadRight(s string, length int, padChar rune) string {
	if n := utf8.RuneCountInString(s); n < length {
		return s + strings.Repeat(string(padChar), length-n)
	}
	return s
}
