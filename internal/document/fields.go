package document

import (
	"fmt"
	"strings"

	"github.com/annis-souames/edifact-generator/internal/edifact/invoic"
)

// Scope tells whether a field belongs to the invoice header or to a line.
type Scope string

const (
	ScopeInvoice Scope = "invoice"
	ScopeItem    Scope = "item"
)

// Field keys used by mapping templates and partner field mappings.
const (
	FieldMessageReference   = "message_reference"
	FieldInvoiceNumber      = "invoice_number"
	FieldDocumentType       = "document_type"
	FieldInvoiceReference   = "invoice_reference"
	FieldInvoiceDate        = "invoice_date"
	FieldDeliveryDate       = "delivery_date"
	FieldCurrency           = "currency"
	FieldVATNumber          = "vat_number"
	FieldReductionOfFees    = "reduction_of_fees_text"
	FieldExcludingVat       = "excluding_vat_text"
	FieldInvoiceDescription = "invoice_description"
	FieldRegulatoryText     = "regulatory_text"
	FieldRegulatoryCorpID   = "regulatory_corporate_id"
	FieldRegulatoryAmount   = "regulatory_amount"
	FieldContactName        = "contact_name"
	FieldContactFunction    = "contact_function"
	FieldMail               = "mail"
	FieldPhone              = "phone"
	FieldFax                = "fax"
	FieldTotalPositions     = "total_positions_amount"
	FieldBasisAmount        = "basis_amount"
	FieldTaxableAmount      = "taxable_amount"
	FieldPayableAmount      = "payable_amount"
	FieldTotalAmount        = "total_amount"
	FieldTaxRate            = "tax_rate"
	FieldTaxAmount          = "tax_amount"

	FieldItemPosition       = "item_position"
	FieldArticleNumber      = "article_number"
	FieldArticleNumberType  = "article_number_type"
	FieldSupplierArticle    = "supplier_article_number"
	FieldProductDescription = "product_description"
	FieldItemText           = "item_text"
	FieldQuantity           = "quantity"
	FieldQuantityUnit       = "quantity_unit"
	FieldLineAmount         = "line_amount"
	FieldGrossPrice         = "gross_price"
	FieldNetPrice           = "net_price"
	FieldItemTaxBase        = "item_tax_base"
	FieldItemTaxRate        = "item_tax_rate"
	FieldItemTaxName        = "item_tax_name"
	FieldDiscountValue      = "discount_value"
	FieldDiscountPercent    = "discount_percent"
	FieldDiscountName       = "discount_name"
	FieldDiscountQualifier  = "discount_qualifier"
)

// Party field suffixes; the full key is "<role>_<suffix>", e.g. buyer_city.
var partySuffixes = []string{
	"id", "agency", "name", "street", "city", "postal_code", "country",
	"vat_number", "gov_number", "company_number",
}

var itemFields = map[string]bool{
	FieldItemPosition: true, FieldArticleNumber: true, FieldArticleNumberType: true,
	FieldSupplierArticle: true, FieldProductDescription: true, FieldItemText: true,
	FieldQuantity: true, FieldQuantityUnit: true, FieldLineAmount: true,
	FieldGrossPrice: true, FieldNetPrice: true, FieldItemTaxBase: true,
	FieldItemTaxRate: true, FieldItemTaxName: true, FieldDiscountValue: true,
	FieldDiscountPercent: true, FieldDiscountName: true, FieldDiscountQualifier: true,
}

var invoiceFields = map[string]bool{
	FieldMessageReference: true, FieldInvoiceNumber: true, FieldDocumentType: true,
	FieldInvoiceReference: true, FieldInvoiceDate: true, FieldDeliveryDate: true,
	FieldCurrency: true, FieldVATNumber: true, FieldReductionOfFees: true,
	FieldExcludingVat: true, FieldInvoiceDescription: true, FieldRegulatoryText: true,
	FieldRegulatoryCorpID: true, FieldRegulatoryAmount: true, FieldContactName: true,
	FieldContactFunction: true, FieldMail: true, FieldPhone: true, FieldFax: true,
	FieldTotalPositions: true, FieldBasisAmount: true, FieldTaxableAmount: true,
	FieldPayableAmount: true, FieldTotalAmount: true, FieldTaxRate: true,
	FieldTaxAmount: true,
}

// FieldScope returns the scope of key, or false for an unknown key.
func FieldScope(key string) (Scope, bool) {
	if itemFields[key] {
		return ScopeItem, true
	}
	if invoiceFields[key] {
		return ScopeInvoice, true
	}
	if _, _, ok := splitPartyField(key); ok {
		return ScopeInvoice, true
	}
	return "", false
}

func splitPartyField(key string) (invoic.Role, string, bool) {
	for _, role := range invoic.Roles() {
		prefix := string(role) + "_"
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		suffix := strings.TrimPrefix(key, prefix)
		for _, s := range partySuffixes {
			if s == suffix {
				return role, suffix, true
			}
		}
	}
	return "", "", false
}

// SetField assigns a header field from its string form. Empty values are
// ignored.
func (d *Document) SetField(key, value string) error {
	if value == "" {
		return nil
	}
	switch key {
	case FieldMessageReference:
		d.MessageReference = value
	case FieldInvoiceNumber:
		d.Number = value
	case FieldDocumentType:
		d.Type = value
	case FieldInvoiceReference:
		d.Reference = value
	case FieldInvoiceDate:
		d.Date = value
	case FieldDeliveryDate:
		d.DeliveryDate = value
	case FieldCurrency:
		d.Currency = value
	case FieldVATNumber:
		d.VATNumber = value
	case FieldReductionOfFees:
		d.Texts.ReductionOfFees = value
	case FieldExcludingVat:
		d.Texts.ExcludingVat = value
	case FieldInvoiceDescription:
		d.Texts.Description = value
	case FieldRegulatoryText:
		d.regulatory().Text = value
	case FieldRegulatoryCorpID:
		d.regulatory().CorporateID = value
	case FieldRegulatoryAmount:
		d.regulatory().Amount = Number(value)
	case FieldContactName:
		d.Contact.Name = value
	case FieldContactFunction:
		d.Contact.Function = value
	case FieldMail:
		d.Contact.Mail = value
	case FieldPhone:
		d.Contact.Phone = value
	case FieldFax:
		d.Contact.Fax = value
	case FieldTotalPositions:
		d.Totals.Positions = Number(value)
	case FieldBasisAmount:
		d.Totals.Basis = Number(value)
	case FieldTaxableAmount:
		d.Totals.Taxable = Number(value)
	case FieldPayableAmount:
		d.Totals.Payable = Number(value)
	case FieldTotalAmount:
		d.Totals.Total = Number(value)
	case FieldTaxRate:
		d.tax().Rate = Number(value)
	case FieldTaxAmount:
		d.tax().Amount = Number(value)
	default:
		role, suffix, ok := splitPartyField(key)
		if !ok {
			return fmt.Errorf("unknown invoice field %q", key)
		}
		d.setPartyField(role, suffix, value)
	}
	return nil
}

func (d *Document) regulatory() *RegulatoryText {
	if d.Texts.Regulatory == nil {
		d.Texts.Regulatory = &RegulatoryText{}
	}
	return d.Texts.Regulatory
}

func (d *Document) tax() *Tax {
	if d.Tax == nil {
		d.Tax = &Tax{}
	}
	return d.Tax
}

func (d *Document) setPartyField(role invoic.Role, suffix, value string) {
	if d.Parties == nil {
		d.Parties = make(map[string]Party)
	}
	p := d.Parties[string(role)]
	switch suffix {
	case "id":
		p.Address.ID = value
	case "agency":
		p.Address.Agency = value
	case "name":
		p.Address.Name = splitLines(value)
	case "street":
		p.Address.Street = splitLines(value)
	case "city":
		p.Address.City = value
	case "postal_code":
		p.Address.PostalCode = value
	case "country":
		p.Address.Country = value
	case "vat_number":
		p.VATNumber = value
	case "gov_number":
		p.GovNumber = value
	case "company_number":
		p.CompanyNumber = value
	}
	d.Parties[string(role)] = p
}

// splitLines splits multi-line cell values on "|" or newlines.
func splitLines(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool { return r == '|' || r == '\n' })
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SetField assigns an item field from its string form. A row carries at most
// one discount; discount fields fill that single record.
func (it *Item) SetField(key, value string) error {
	if value == "" {
		return nil
	}
	switch key {
	case FieldItemPosition:
		it.Position = value
	case FieldArticleNumber:
		it.ArticleNumber = value
	case FieldArticleNumberType:
		it.NumberType = value
	case FieldSupplierArticle:
		it.SupplierArticleNumber = value
	case FieldProductDescription:
		it.Description = value
	case FieldItemText:
		it.Text = value
	case FieldQuantity:
		it.Quantity = Number(value)
	case FieldQuantityUnit:
		it.Unit = value
	case FieldLineAmount:
		it.LineAmount = Number(value)
	case FieldGrossPrice:
		it.GrossPrice = Number(value)
	case FieldNetPrice:
		it.NetPrice = Number(value)
	case FieldItemTaxBase:
		it.itemTax().Base = Number(value)
	case FieldItemTaxRate:
		it.itemTax().Rate = Number(value)
	case FieldItemTaxName:
		it.itemTax().Name = value
	case FieldDiscountValue:
		it.discount().Value = Number(value)
	case FieldDiscountPercent:
		it.discount().Percent = Number(value)
	case FieldDiscountName:
		it.discount().Name = value
	case FieldDiscountQualifier:
		it.discount().Qualifier = value
	default:
		return fmt.Errorf("unknown item field %q", key)
	}
	return nil
}

func (it *Item) itemTax() *ItemTax {
	if it.Tax == nil {
		it.Tax = &ItemTax{}
	}
	return it.Tax
}

func (it *Item) discount() *Discount {
	if len(it.Discounts) == 0 {
		it.Discounts = append(it.Discounts, Discount{})
	}
	return &it.Discounts[0]
}
