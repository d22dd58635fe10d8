package converter

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/annis-souames/edifact-generator/internal/config"
	"github.com/annis-souames/edifact-generator/internal/csvparser"
	"github.com/annis-souames/edifact-generator/internal/document"
	"github.com/annis-souames/edifact-generator/internal/types"
	"github.com/annis-souames/edifact-generator/internal/validation"
	"github.com/annis-souames/edifact-generator/internal/xlsxparser"
)

// pendingInvoice is a mapped invoice waiting to be built.
type pendingInvoice struct {
	doc document.Document
	key string
	row int
}

// loaded is the outcome of steps 1 to 5.
type loaded struct {
	rows     int
	findings []*validation.ValidationError
	docs     []pendingInvoice
	skipped  []InvoiceFailure
}

// load reads the source file and turns it into documents. Invoices that
// fail transformation, validation or mapping are returned as skipped.
func (c *Converter) load(ctx context.Context) (*loaded, error) {
	switch ext := strings.ToLower(filepath.Ext(c.sourcePath)); ext {
	case ".yaml", ".yml":
		return c.loadDocuments()
	case ".csv", ".txt":
		data, err := csvparser.Parse(c.sourcePath, c.partner.CSVSettings)
		if err != nil {
			return nil, err
		}
		return c.loadRows(ctx, data.Headers, data.Rows)
	case ".xlsx":
		headers, rows, err := xlsxparser.ReadRows(c.sourcePath, c.partner.XLSXSettings)
		if err != nil {
			return nil, err
		}
		return c.loadRows(ctx, headers, rows)
	default:
		return nil, fmt.Errorf("unsupported input file type %q", ext)
	}
}

// loadDocuments reads a YAML invoice file. Its documents are complete, so
// no schema, transformation or static field applies.
func (c *Converter) loadDocuments() (*loaded, error) {
	docs, err := document.LoadFile(c.sourcePath)
	if err != nil {
		return nil, err
	}
	out := &loaded{rows: len(docs)}
	for i, doc := range docs {
		out.docs = append(out.docs, pendingInvoice{doc: doc, key: doc.Number, row: i + 1})
	}
	return out, nil
}

func (c *Converter) loadRows(ctx context.Context, headers []string, rows []types.Row) (*loaded, error) {
	schema, err := LoadSchema(c.partner, c.mainConfig.TemplatesDir)
	if err != nil {
		return nil, err
	}
	if unmapped := unmappedHeaders(headers, schema); len(unmapped) > 0 {
		c.log.Debug("ignoring unmapped columns", zap.Strings("columns", unmapped))
	}

	out := &loaded{rows: len(rows)}
	transformer := NewTransformer(c.partner.TransformationRules)
	validator := validation.NewValidator(schema)

	for _, group := range GroupRows(rows, c.partner.InvoiceGrouping, schema) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		first := 0
		if len(group.Rows) > 0 {
			first = group.Rows[0].Number
		}
		fail := func(err error) {
			out.skipped = append(out.skipped, InvoiceFailure{Key: group.Key, RowNumber: first, Err: err})
		}

		if err := transformer.TransformInvoice(&group); err != nil {
			fail(err)
			continue
		}

		findings, _ := validator.ValidateInvoice(&group)
		out.findings = append(out.findings, findings...)
		var fatal error
		for _, f := range findings {
			if f.Severity == validation.SeverityError {
				fatal = multierr.Append(fatal, f)
			}
		}
		if fatal != nil {
			fail(fatal)
			continue
		}

		doc, err := MapInvoice(group, schema, c.partner.StaticFields)
		if err != nil {
			fail(err)
			continue
		}
		out.docs = append(out.docs, pendingInvoice{doc: doc, key: group.Key, row: first})
	}
	return out, nil
}

// =============================================================================
// SCHEMA
// =============================================================================

// LoadSchema builds the mapping schema of a partner: the mapping template
// when one is configured, overridden by the partner's field mappings.
func LoadSchema(partner *config.PartnerConfig, templatesDir string) (*xlsxparser.Schema, error) {
	var (
		schema *xlsxparser.Schema
		err    error
	)
	if partner.MappingTemplate != "" {
		schema, err = xlsxparser.Parse(filepath.Join(templatesDir, partner.MappingTemplate))
		if err != nil {
			return nil, err
		}
		if err := schema.Override(partner.FieldMappings); err != nil {
			return nil, fmt.Errorf("invalid field mappings: %w", err)
		}
	} else {
		schema, err = xlsxparser.FromFieldMappings(partner.FieldMappings)
		if err != nil {
			return nil, fmt.Errorf("invalid field mappings: %w", err)
		}
	}
	if len(schema.FieldMappings) == 0 {
		return nil, fmt.Errorf("partner %q maps no columns", partner.PartnerCode)
	}
	return schema, nil
}

func unmappedHeaders(headers []string, schema *xlsxparser.Schema) []string {
	var out []string
	for _, h := range headers {
		if schema.GetFieldMapping(h) == nil {
			out = append(out, h)
		}
	}
	return out
}

// =============================================================================
// GROUPING
// =============================================================================

// GroupRows splits rows into invoices.
//
// GROUPING LOGIC:
//
//	Rows sharing the value of GroupByField form one invoice. Without a
//	GroupByField the column mapped to invoice_number is used, and without
//	that every row is its own invoice. Invoices keep the order of their
//	first row; rows are ordered by SortByField when set.
func GroupRows(rows []types.Row, grouping config.InvoiceGrouping, schema *xlsxparser.Schema) []types.InvoiceGroup {
	groupBy := grouping.GroupByField
	if groupBy == "" && schema != nil {
		groupBy, _ = schema.HeaderFor(document.FieldInvoiceNumber)
	}

	var invoices []types.InvoiceGroup
	if groupBy == "" {
		invoices = make([]types.InvoiceGroup, len(rows))
		for i, row := range rows {
			invoices[i] = types.InvoiceGroup{
				ID:   i + 1,
				Key:  fmt.Sprintf("row %d", row.Number),
				Rows: []types.Row{row},
			}
		}
		return invoices
	}

	index := make(map[string]int)
	for _, row := range rows {
		key := strings.TrimSpace(row.Get(groupBy))
		i, exists := index[key]
		if !exists {
			i = len(invoices)
			index[key] = i
			invoices = append(invoices, types.InvoiceGroup{ID: i + 1, Key: key})
		}
		invoices[i].Rows = append(invoices[i].Rows, row)
	}

	if grouping.SortByField != "" {
		desc := strings.EqualFold(grouping.SortOrder, "desc")
		for i := range invoices {
			slices.SortStableFunc(invoices[i].Rows, func(a, b types.Row) int {
				n := compareValues(a.Get(grouping.SortByField), b.Get(grouping.SortByField))
				if desc {
					return -n
				}
				return n
			})
		}
	}
	return invoices
}

// compareValues compares numerically when both values are numbers.
func compareValues(a, b string) int {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	da, errA := decimal.NewFromString(a)
	db, errB := decimal.NewFromString(b)
	if errA == nil && errB == nil {
		return da.Cmp(db)
	}
	return strings.Compare(a, b)
}

// =============================================================================
// MAPPING
// =============================================================================

// MapInvoice fills a document from an invoice group. Header fields come from
// the first row and every row becomes one item. Empty values fall back to
// the mapping default. Static fields are applied before the source values,
// or after them when they overwrite.
func MapInvoice(group types.InvoiceGroup, schema *xlsxparser.Schema, statics []config.StaticField) (document.Document, error) {
	var doc document.Document
	if len(group.Rows) == 0 {
		return doc, fmt.Errorf("invoice %q has no rows", group.Key)
	}

	var invoiceStatics, itemStatics []config.StaticField
	var errs error
	for _, s := range statics {
		scope, ok := document.FieldScope(s.Field)
		switch {
		case !ok:
			errs = multierr.Append(errs, fmt.Errorf("static field %q is unknown", s.Field))
		case scope == document.ScopeInvoice:
			invoiceStatics = append(invoiceStatics, s)
		default:
			itemStatics = append(itemStatics, s)
		}
	}
	if errs != nil {
		return doc, errs
	}

	applyStatics(invoiceStatics, false, doc.SetField, &errs)
	for _, header := range schema.InvoiceFields {
		setMapped(schema.FieldMappings[header], group.Rows[0], doc.SetField, &errs)
	}
	applyStatics(invoiceStatics, true, doc.SetField, &errs)

	for _, row := range group.Rows {
		var item document.Item
		applyStatics(itemStatics, false, item.SetField, &errs)
		for _, header := range schema.ItemFields {
			setMapped(schema.FieldMappings[header], row, item.SetField, &errs)
		}
		applyStatics(itemStatics, true, item.SetField, &errs)
		doc.Items = append(doc.Items, item)
	}
	return doc, errs
}

func setMapped(m *xlsxparser.FieldMapping, row types.Row, set func(key, value string) error, errs *error) {
	value := strings.TrimSpace(row.Get(m.OldHeader))
	if value == "" {
		value = m.DefaultValue
	}
	if err := set(m.FieldKey, value); err != nil {
		*errs = multierr.Append(*errs, fmt.Errorf("row %d, column '%s': %w", row.Number, m.OldHeader, err))
	}
}

func applyStatics(statics []config.StaticField, overwrite bool, set func(key, value string) error, errs *error) {
	for _, s := range statics {
		if s.Overwrite != overwrite {
			continue
		}
		if err := set(s.Field, s.Value); err != nil {
			*errs = multierr.Append(*errs, fmt.Errorf("static field %q: %w", s.Field, err))
		}
	}
}
