// =============================================================================
// EDIFACT Generator - Invoice Document Model
// =============================================================================
//
// A Document is the source-independent description of one invoice. YAML files
// decode into it directly; CSV and XLSX rows are mapped into it field by field
// (see fields.go). Build turns it into an invoic.Invoice.
//
// YAML LAYOUT:
//
//   invoices:
//     - number: A1
//       type: "380"
//       date: 2024-05-02
//       currency: EUR
//       parties:
//         supplier:
//           address: {id: "4000001000005", name: [Supplier GmbH], city: Berlin}
//           vat_number: DE123456789
//       totals: {positions: 200, payable: 238}
//       tax: {rate: 19, amount: 38}
//       items:
//         - position: "1"
//           quantity: 2
//           net_price: 100
//           discounts:
//             - {value: -10, percent: 5, name: Promo}
//
// A file may also hold a single invoice at the top level without the
// "invoices" list.
//
// =============================================================================

package document

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/annis-souames/edifact-generator/internal/edifact"
	"github.com/annis-souames/edifact-generator/internal/edifact/invoic"
)

// ErrNoInvoices is returned when a source yields no invoice.
var ErrNoInvoices = errors.New("no invoices found")

// Number is a numeric value kept in its literal form so that no precision is
// lost between the source and the formatter.
type Number string

// UnmarshalYAML accepts integer, float and string scalars.
func (n *Number) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number, got %s", node.Line, kindName(node.Kind))
	}
	if node.Tag == "!!null" {
		*n = ""
		return nil
	}
	*n = Number(node.Value)
	return nil
}

// IsSet reports whether a value was given.
func (n Number) IsSet() bool { return n != "" }

// Value returns the literal as an argument for edifact.Convert.
func (n Number) Value() any { return string(n) }

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}

// Party is one party block of an invoice.
type Party struct {
	Address       edifact.Address `yaml:"address"`
	VATNumber     string          `yaml:"vat_number"`
	GovNumber     string          `yaml:"gov_number"`
	CompanyNumber string          `yaml:"company_number"`
}

// RegulatoryText is the FTX+REG note.
type RegulatoryText struct {
	Text        string `yaml:"text"`
	CorporateID string `yaml:"corporate_id"`
	Amount      Number `yaml:"amount"`
}

// Texts groups the header free texts.
type Texts struct {
	ReductionOfFees string          `yaml:"reduction_of_fees"`
	ExcludingVat    string          `yaml:"excluding_vat"`
	Description     string          `yaml:"description"`
	Regulatory      *RegulatoryText `yaml:"regulatory"`
}

// Contact is the invoice contact person and communication numbers.
type Contact struct {
	Name     string `yaml:"name"`
	Function string `yaml:"function"`
	Mail     string `yaml:"mail"`
	Phone    string `yaml:"phone"`
	Fax      string `yaml:"fax"`
}

// Totals are the summary amounts.
type Totals struct {
	Positions Number `yaml:"positions"`
	Basis     Number `yaml:"basis"`
	Taxable   Number `yaml:"taxable"`
	Payable   Number `yaml:"payable"`
	Total     Number `yaml:"total"`
}

// Tax is the invoice level tax summary.
type Tax struct {
	Rate   Number `yaml:"rate"`
	Amount Number `yaml:"amount"`
}

// ItemTax is the tax line of an item.
type ItemTax struct {
	Base Number `yaml:"base"`
	Rate Number `yaml:"rate"`
	Name string `yaml:"name"`
}

// Discount is one allowance of an item.
type Discount struct {
	Value     Number `yaml:"value"`
	Percent   Number `yaml:"percent"`
	Name      string `yaml:"name"`
	Qualifier string `yaml:"qualifier"`
}

// Item is one line of an invoice.
type Item struct {
	Position              string     `yaml:"position"`
	ArticleNumber         string     `yaml:"article_number"`
	NumberType            string     `yaml:"number_type"`
	SupplierArticleNumber string     `yaml:"supplier_article_number"`
	Description           string     `yaml:"description"`
	Text                  string     `yaml:"text"`
	Quantity              Number     `yaml:"quantity"`
	Unit                  string     `yaml:"unit"`
	LineAmount            Number     `yaml:"line_amount"`
	GrossPrice            Number     `yaml:"gross_price"`
	NetPrice              Number     `yaml:"net_price"`
	Tax                   *ItemTax   `yaml:"tax"`
	Discounts             []Discount `yaml:"discounts"`
}

// Document is one invoice.
type Document struct {
	MessageReference string           `yaml:"message_reference"`
	Number           string           `yaml:"number"`
	Type             string           `yaml:"type"`
	Reference        string           `yaml:"reference"`
	Date             string           `yaml:"date"`
	DeliveryDate     string           `yaml:"delivery_date"`
	Currency         string           `yaml:"currency"`
	VATNumber        string           `yaml:"vat_number"`
	Texts            Texts            `yaml:"texts"`
	Parties          map[string]Party `yaml:"parties"`
	Contact          Contact          `yaml:"contact"`
	Totals           Totals           `yaml:"totals"`
	Tax              *Tax             `yaml:"tax"`
	Items            []Item           `yaml:"items"`
}

// BuildOptions are passed through to invoic.New.
type BuildOptions struct {
	DuplicateTaxAmount bool
	Association        string
}

// =============================================================================
// LOADING
// =============================================================================

type file struct {
	Invoices []Document `yaml:"invoices"`
	Document `yaml:",inline"`
}

// Load decodes every invoice from r.
func Load(r io.Reader) ([]Document, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoInvoices
		}
		return nil, fmt.Errorf("failed to decode invoice document: %w", err)
	}
	if len(f.Invoices) > 0 {
		return f.Invoices, nil
	}
	if f.Document.Number == "" && len(f.Document.Items) == 0 {
		return nil, ErrNoInvoices
	}
	return []Document{f.Document}, nil
}

// LoadFile reads and decodes path.
func LoadFile(path string) ([]Document, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open invoice document: %w", err)
	}
	defer fh.Close()

	docs, err := Load(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}

// =============================================================================
// BUILDING
// =============================================================================

// Build creates the INVOIC message for d. Every invalid field is reported;
// the returned error combines them with multierr.
func (d *Document) Build(opts BuildOptions) (*invoic.Invoice, error) {
	options := []invoic.Option{
		invoic.WithReference(d.MessageReference),
		invoic.WithDuplicateTaxAmount(opts.DuplicateTaxAmount),
	}
	if opts.Association != "" {
		options = append(options, invoic.WithAssociation(opts.Association))
	}
	inv := invoic.New(options...)

	var errs error
	field := func(name string, err error) {
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	docType := d.Type
	if docType == "" {
		docType = invoic.TypeInvoice
	}
	if d.Number != "" {
		field("number", inv.SetInvoiceNumber(d.Number, docType))
	}
	if d.Reference != "" {
		inv.SetInvoiceReference(d.Reference)
	}
	if d.Date != "" {
		field("date", inv.SetInvoiceDate(d.Date))
	}
	if d.DeliveryDate != "" {
		field("delivery_date", inv.SetDeliveryDate(d.DeliveryDate))
	}

	if d.Texts.ReductionOfFees != "" {
		inv.SetReductionOfFeesText(d.Texts.ReductionOfFees)
	}
	if reg := d.Texts.Regulatory; reg != nil && reg.Text != "" {
		amount := reg.Amount
		if !amount.IsSet() {
			amount = "0"
		}
		field("texts.regulatory", inv.SetRegulatoryText(reg.Text, reg.CorporateID, amount.Value()))
	}
	if d.Texts.ExcludingVat != "" {
		inv.SetExcludingVatText(d.Texts.ExcludingVat)
	}
	if d.Texts.Description != "" {
		inv.SetInvoiceDescription(d.Texts.Description)
	}

	for name := range d.Parties {
		if !isRole(name) {
			field("parties."+name, fmt.Errorf("unknown party role"))
		}
	}
	for _, role := range invoic.Roles() {
		p, ok := d.Parties[string(role)]
		if !ok {
			continue
		}
		if !p.Address.IsZero() {
			field("parties."+string(role), inv.SetAddress(role, p.Address))
		}
		refs := []struct {
			kind  invoic.ReferenceKind
			value string
		}{
			{invoic.ReferenceVAT, p.VATNumber},
			{invoic.ReferenceGovernment, p.GovNumber},
			{invoic.ReferenceCompany, p.CompanyNumber},
		}
		for _, ref := range refs {
			if ref.value != "" {
				field("parties."+string(role), inv.SetPartyReference(role, ref.kind, ref.value))
			}
		}
	}

	if d.Contact.Name != "" {
		inv.SetContactPerson(d.Contact.Name, d.Contact.Function)
	}
	if d.Contact.Mail != "" {
		inv.SetMailAddress(d.Contact.Mail)
	}
	if d.Contact.Phone != "" {
		inv.SetPhoneNumber(d.Contact.Phone)
	}
	if d.Contact.Fax != "" {
		inv.SetFaxNumber(d.Contact.Fax)
	}
	if d.VATNumber != "" {
		inv.SetVatNumber(d.VATNumber)
	}
	if d.Currency != "" {
		inv.SetCurrency(d.Currency)
	}

	amounts := []struct {
		name  string
		value Number
		set   func(any) error
	}{
		{"totals.positions", d.Totals.Positions, inv.SetTotalPositionsAmount},
		{"totals.basis", d.Totals.Basis, inv.SetBasisAmount},
		{"totals.taxable", d.Totals.Taxable, inv.SetTaxableAmount},
		{"totals.payable", d.Totals.Payable, inv.SetPayableAmount},
		{"totals.total", d.Totals.Total, inv.SetTotalAmount},
	}
	for _, a := range amounts {
		if a.value.IsSet() {
			field(a.name, a.set(a.value.Value()))
		}
	}
	if d.Tax != nil && d.Tax.Amount.IsSet() {
		rate := d.Tax.Rate
		if !rate.IsSet() {
			rate = "0"
		}
		field("tax", inv.SetTax(rate.Value(), d.Tax.Amount.Value()))
	}

	for i := range d.Items {
		item, err := d.Items[i].build(i + 1)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("items[%d]: %w", i, err))
			continue
		}
		inv.AddItem(item)
	}

	if errs != nil {
		return nil, fmt.Errorf("invoice %q: %w", d.Number, errs)
	}
	return inv, nil
}

func isRole(name string) bool {
	for _, r := range invoic.Roles() {
		if string(r) == name {
			return true
		}
	}
	return false
}

func (it *Item) build(index int) (*invoic.Item, error) {
	item := invoic.NewItem()
	var errs error
	field := func(name string, err error) {
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	position := it.Position
	if position == "" {
		position = fmt.Sprint(index)
	}
	item.SetPosition(position, it.ArticleNumber, it.NumberType)
	if it.SupplierArticleNumber != "" {
		item.SetArticleNumber(it.SupplierArticleNumber, "SA")
	}
	if it.Description != "" {
		item.SetProductDescription(it.Description)
	}
	if it.Quantity.IsSet() {
		field("quantity", item.SetQuantity(it.Quantity.Value(), it.Unit, ""))
	}
	if it.Text != "" {
		item.SetInvoiceDescription(it.Text)
	}
	if it.LineAmount.IsSet() {
		field("line_amount", item.SetLineAmount(it.LineAmount.Value()))
	}
	if it.GrossPrice.IsSet() {
		field("gross_price", item.SetGrossPrice(it.GrossPrice.Value()))
	}
	if it.NetPrice.IsSet() {
		field("net_price", item.SetNetPrice(it.NetPrice.Value()))
	}
	if it.Tax != nil && it.Tax.Base.IsSet() {
		rate := it.Tax.Rate
		if !rate.IsSet() {
			rate = Number(fmt.Sprint(invoic.DefaultTaxRate))
		}
		field("tax", item.AddTax(it.Tax.Base.Value(), rate.Value(), it.Tax.Name))
	}
	for j, disc := range it.Discounts {
		percent := disc.Percent
		if !percent.IsSet() {
			percent = "0"
		}
		field(fmt.Sprintf("discounts[%d]", j), item.AddDiscount(disc.Value.Value(), percent.Value(), disc.Name, disc.Qualifier))
	}
	return item, errs
}
