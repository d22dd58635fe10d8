// =============================================================================
// EDIFACT Generator - INVOIC Message
// =============================================================================
//
// An Invoice is composed in three phases:
//
//   1. header   all header slots in HeaderOrder
//   2. items    every line item, in insertion order
//   3. trailer  UNS, the summary slots in TrailerOrder, then CNT 1 and CNT 2
//
// The UNH/UNT envelope from edifact.Message wraps the result.
//
// =============================================================================

package invoic

import (
	"fmt"
	"strconv"

	"github.com/annis-souames/edifact-generator/internal/edifact"
)

// Document types (1001) accepted by SetInvoiceNumber.
const (
	TypeInvoice        = "380"
	TypeCreditNote     = "381"
	TypeServiceCredit  = "31e"
	TypeServiceInvoice = "32e"
	TypeBonus          = "33i"
)

// DocumentTypes lists every accepted document type.
var DocumentTypes = []string{TypeInvoice, TypeCreditNote, TypeServiceCredit, TypeServiceInvoice, TypeBonus}

// Message identification defaults.
const (
	Identifier  = "INVOIC"
	Version     = "D"
	Release     = "96A"
	Agency      = "UN"
	Association = "EAN008"
)

// Header slot keys.
const (
	KeyInvoiceNumber         edifact.Key = "invoiceNumber"
	KeyInvoiceDate           edifact.Key = "invoiceDate"
	KeyDeliveryDate          edifact.Key = "deliveryDate"
	KeyReductionOfFeesText   edifact.Key = "reductionOfFeesText"
	KeyRegulatoryText        edifact.Key = "regulatoryText"
	KeyExcludingVatText      edifact.Key = "excludingVatText"
	KeyInvoiceDescription    edifact.Key = "invoiceDescription"
	KeyManufacturerAddress   edifact.Key = "manufacturerAddress"
	KeyWholesalerAddress     edifact.Key = "wholesalerAddress"
	KeyDeliveryAddress       edifact.Key = "deliveryAddress"
	KeySupplierAddress       edifact.Key = "supplierAddress"
	KeySellerVatNumber       edifact.Key = "sellerVatNumber"
	KeySellerGovNumber       edifact.Key = "sellerGovNumber"
	KeySellerCompanyNumber   edifact.Key = "sellerCompanyNumber"
	KeyBuyerAddress          edifact.Key = "buyerAddress"
	KeyBuyerVatNumber        edifact.Key = "buyerVatNumber"
	KeyBuyerGovNumber        edifact.Key = "buyerGovNumber"
	KeyBuyerCompanyNumber    edifact.Key = "buyerCompanyNumber"
	KeyInvoiceAddress        edifact.Key = "invoiceAddress"
	KeyInvoiceeVatNumber     edifact.Key = "invoiceeVatNumber"
	KeyInvoiceeGovNumber     edifact.Key = "invoiceeGovNumber"
	KeyInvoiceeCompanyNumber edifact.Key = "invoiceeCompanyNumber"
	KeyDeliveryPartyAddress  edifact.Key = "deliveryPartyAddress"
	KeyDeliveryVatNumber     edifact.Key = "deliveryVatNumber"
	KeyDeliveryGovNumber     edifact.Key = "deliveryGovNumber"
	KeyDeliveryCompanyNumber edifact.Key = "deliveryCompanyNumber"
	KeyContactPerson         edifact.Key = "contactPerson"
	KeyMailAddress           edifact.Key = "mailAddress"
	KeyPhoneNumber           edifact.Key = "phoneNumber"
	KeyFaxNumber             edifact.Key = "faxNumber"
	KeyVatNumber             edifact.Key = "vatNumber"
	KeyCurrency              edifact.Key = "currency"
)

// Trailer slot keys.
const (
	KeyInvoiceReference     edifact.Key = "invoiceReference"
	KeyTotalPositionsAmount edifact.Key = "totalPositionsAmount"
	KeyBasisAmount          edifact.Key = "basisAmount"
	KeyTaxableAmount        edifact.Key = "taxableAmount"
	KeyPayableAmount        edifact.Key = "payableAmount"
	KeyTotalAmount          edifact.Key = "totalAmount"
	KeyTaxAmount            edifact.Key = "taxAmount"
	KeyTax                  edifact.Key = "tax"
)

// HeaderOrder is the emission order of the header phase.
var HeaderOrder = edifact.KeyOrder{
	KeyInvoiceNumber,
	KeyInvoiceReference,
	KeyInvoiceDate,
	KeyDeliveryDate,
	KeyReductionOfFeesText,
	KeyRegulatoryText,
	KeyExcludingVatText,
	KeyInvoiceDescription,
	KeyManufacturerAddress,
	KeyWholesalerAddress,
	KeyDeliveryAddress,
	KeySupplierAddress,
	KeySellerVatNumber,
	KeySellerGovNumber,
	KeySellerCompanyNumber,
	KeyBuyerAddress,
	KeyBuyerVatNumber,
	KeyBuyerGovNumber,
	KeyBuyerCompanyNumber,
	KeyInvoiceAddress,
	KeyInvoiceeVatNumber,
	KeyInvoiceeGovNumber,
	KeyInvoiceeCompanyNumber,
	KeyDeliveryPartyAddress,
	KeyDeliveryVatNumber,
	KeyDeliveryGovNumber,
	KeyDeliveryCompanyNumber,
	KeyContactPerson,
	KeyMailAddress,
	KeyPhoneNumber,
	KeyFaxNumber,
	KeyVatNumber,
	KeyCurrency,
}

// TrailerOrder is the emission order of the summary slots after UNS.
var TrailerOrder = edifact.KeyOrder{
	KeyInvoiceReference,
	KeyTotalPositionsAmount,
	KeyBasisAmount,
	KeyTaxableAmount,
	KeyPayableAmount,
	KeyTotalAmount,
	KeyTaxAmount,
	KeyTax,
}

// compatTrailerOrder repeats taxAmount after tax, as older receivers expect.
var compatTrailerOrder = append(TrailerOrder[:len(TrailerOrder):len(TrailerOrder)], KeyTaxAmount)

// Role identifies a party of the invoice.
type Role string

// Party roles.
const (
	RoleManufacturer    Role = "manufacturer"
	RoleWholesaler      Role = "wholesaler"
	RoleDeliveryAddress Role = "delivery_address"
	RoleSupplier        Role = "supplier"
	RoleBuyer           Role = "buyer"
	RoleInvoicee        Role = "invoicee"
	RoleDeliveryParty   Role = "delivery_party"
)

type partySlots struct {
	qualifier string
	address   edifact.Key
	vat       edifact.Key
	gov       edifact.Key
	company   edifact.Key
}

var parties = map[Role]partySlots{
	RoleManufacturer:    {qualifier: "MF", address: KeyManufacturerAddress},
	RoleWholesaler:      {qualifier: "WS", address: KeyWholesalerAddress},
	RoleDeliveryAddress: {qualifier: "DP", address: KeyDeliveryAddress},
	RoleSupplier:        {"SU", KeySupplierAddress, KeySellerVatNumber, KeySellerGovNumber, KeySellerCompanyNumber},
	RoleBuyer:           {"BY", KeyBuyerAddress, KeyBuyerVatNumber, KeyBuyerGovNumber, KeyBuyerCompanyNumber},
	RoleInvoicee:        {"IV", KeyInvoiceAddress, KeyInvoiceeVatNumber, KeyInvoiceeGovNumber, KeyInvoiceeCompanyNumber},
	RoleDeliveryParty:   {"ST", KeyDeliveryPartyAddress, KeyDeliveryVatNumber, KeyDeliveryGovNumber, KeyDeliveryCompanyNumber},
}

// Roles returns every known party role.
func Roles() []Role {
	return []Role{
		RoleManufacturer, RoleWholesaler, RoleDeliveryAddress, RoleSupplier,
		RoleBuyer, RoleInvoicee, RoleDeliveryParty,
	}
}

// ReferenceKind selects one of the party reference slots.
type ReferenceKind int

const (
	ReferenceVAT ReferenceKind = iota
	ReferenceGovernment
	ReferenceCompany
)

// Option configures an Invoice.
type Option func(*Invoice)

// WithReference sets the UNH message reference instead of a generated one.
func WithReference(ref string) Option {
	return func(inv *Invoice) {
		if ref != "" {
			inv.Message.Reference = ref
		}
	}
}

// WithAssociation overrides the association assigned code (EAN008).
func WithAssociation(code string) Option {
	return func(inv *Invoice) {
		inv.Message.Association = code
	}
}

// WithDuplicateTaxAmount emits MOA+124 a second time after the trailer TAX.
func WithDuplicateTaxAmount(enabled bool) Option {
	return func(inv *Invoice) {
		inv.duplicateTaxAmount = enabled
	}
}

// Invoice is an INVOIC message under construction.
type Invoice struct {
	edifact.Message

	slots              *edifact.Slots
	items              []*Item
	duplicateTaxAmount bool
}

// New creates an empty invoice.
func New(opts ...Option) *Invoice {
	inv := &Invoice{
		Message: edifact.NewMessage("", Identifier, Version, Release, Agency, Association),
		slots:   edifact.NewSlots(HeaderOrder, TrailerOrder...),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// SetInvoiceNumber sets BGM. docType must be one of DocumentTypes.
func (inv *Invoice) SetInvoiceNumber(number, docType string) error {
	if err := edifact.CheckAllowed(docType, DocumentTypes...); err != nil {
		return fmt.Errorf("invoice number %q: %w", number, err)
	}
	inv.slots.Set(KeyInvoiceNumber, edifact.BGM(number, docType))
	return nil
}

// SetInvoiceReference sets RFF+IV. The segment follows BGM and is repeated
// after UNS.
func (inv *Invoice) SetInvoiceReference(reference string) {
	inv.slots.Set(KeyInvoiceReference, edifact.RFF(edifact.ReferenceInvoice, reference))
}

// SetInvoiceDate sets DTM+137.
func (inv *Invoice) SetInvoiceDate(date any) error {
	return inv.setDate(KeyInvoiceDate, date, edifact.DateQualifierDocument)
}

// SetDeliveryDate sets DTM+35.
func (inv *Invoice) SetDeliveryDate(date any) error {
	return inv.setDate(KeyDeliveryDate, date, edifact.DateQualifierDelivery)
}

func (inv *Invoice) setDate(key edifact.Key, date any, qualifier string) error {
	seg, err := edifact.DTM(date, qualifier)
	if err != nil {
		return err
	}
	inv.slots.Set(key, seg)
	return nil
}

// SetReductionOfFeesText sets FTX+OSI with key HAE.
func (inv *Invoice) SetReductionOfFeesText(text string) {
	inv.slots.Set(KeyReductionOfFeesText, edifact.FTX(text, "OSI", "HAE"))
}

// SetRegulatoryText sets FTX+REG.
func (inv *Invoice) SetRegulatoryText(text, corporateID string, amount any) error {
	seg, err := edifact.RegulatoryFTX(text, corporateID, amount)
	if err != nil {
		return err
	}
	inv.slots.Set(KeyRegulatoryText, seg)
	return nil
}

// SetExcludingVatText sets FTX+TXD.
func (inv *Invoice) SetExcludingVatText(text string) {
	inv.slots.Set(KeyExcludingVatText, edifact.FTX(text, "TXD", ""))
}

// SetInvoiceDescription sets FTX+OSI.
func (inv *Invoice) SetInvoiceDescription(text string) {
	inv.slots.Set(KeyInvoiceDescription, edifact.FTX(text, "OSI", ""))
}

// SetAddress sets the NAD segment of role.
func (inv *Invoice) SetAddress(role Role, a edifact.Address) error {
	p, ok := parties[role]
	if !ok {
		return unknownRole(role, Roles())
	}
	inv.slots.Set(p.address, edifact.NAD(p.qualifier, a))
	return nil
}

// SetPartyReference sets a VAT, government or company registration number
// of role. Manufacturer, wholesaler and delivery address carry no
// references.
func (inv *Invoice) SetPartyReference(role Role, kind ReferenceKind, number string) error {
	p, ok := parties[role]
	if !ok || p.vat == "" {
		return unknownRole(role, referenceRoles())
	}
	switch kind {
	case ReferenceVAT:
		inv.slots.Set(p.vat, edifact.VATReference(number))
	case ReferenceGovernment:
		inv.slots.Set(p.gov, edifact.GovernmentReference(number))
	case ReferenceCompany:
		inv.slots.Set(p.company, edifact.CompanyRegistration(number))
	default:
		return fmt.Errorf("unknown reference kind %d", kind)
	}
	return nil
}

func referenceRoles() []Role {
	return []Role{RoleSupplier, RoleBuyer, RoleInvoicee, RoleDeliveryParty}
}

func unknownRole(role Role, valid []Role) error {
	allowed := make([]string, len(valid))
	for i, r := range valid {
		allowed[i] = string(r)
	}
	return fmt.Errorf("party role: %w", &edifact.CodeError{Code: string(role), Allowed: allowed})
}

// SetManufacturerAddress sets NAD+MF.
func (inv *Invoice) SetManufacturerAddress(a edifact.Address) {
	inv.slots.Set(KeyManufacturerAddress, edifact.NAD("MF", a))
}

// SetWholesalerAddress sets NAD+WS.
func (inv *Invoice) SetWholesalerAddress(a edifact.Address) {
	inv.slots.Set(KeyWholesalerAddress, edifact.NAD("WS", a))
}

// SetDeliveryAddress sets NAD+DP.
func (inv *Invoice) SetDeliveryAddress(a edifact.Address) {
	inv.slots.Set(KeyDeliveryAddress, edifact.NAD("DP", a))
}

// SetSupplierAddress sets NAD+SU.
func (inv *Invoice) SetSupplierAddress(a edifact.Address) {
	inv.slots.Set(KeySupplierAddress, edifact.NAD("SU", a))
}

// SetBuyerAddress sets NAD+BY.
func (inv *Invoice) SetBuyerAddress(a edifact.Address) {
	inv.slots.Set(KeyBuyerAddress, edifact.NAD("BY", a))
}

// SetInvoiceAddress sets NAD+IV.
func (inv *Invoice) SetInvoiceAddress(a edifact.Address) {
	inv.slots.Set(KeyInvoiceAddress, edifact.NAD("IV", a))
}

// SetDeliveryPartyAddress sets NAD+ST.
func (inv *Invoice) SetDeliveryPartyAddress(a edifact.Address) {
	inv.slots.Set(KeyDeliveryPartyAddress, edifact.NAD("ST", a))
}

// SetVatNumber sets the message level RFF+VA.
func (inv *Invoice) SetVatNumber(number string) {
	inv.slots.Set(KeyVatNumber, edifact.VATReference(number))
}

// SetContactPerson sets CTA.
func (inv *Invoice) SetContactPerson(name, function string) {
	inv.slots.Set(KeyContactPerson, edifact.ContactPerson(name, function))
}

// SetMailAddress sets COM with channel EM.
func (inv *Invoice) SetMailAddress(mail string) {
	inv.setCommunication(KeyMailAddress, mail, edifact.ChannelMail)
}

// SetPhoneNumber sets COM with channel TE.
func (inv *Invoice) SetPhoneNumber(phone string) {
	inv.setCommunication(KeyPhoneNumber, phone, edifact.ChannelPhone)
}

// SetFaxNumber sets COM with channel FX.
func (inv *Invoice) SetFaxNumber(fax string) {
	inv.setCommunication(KeyFaxNumber, fax, edifact.ChannelFax)
}

func (inv *Invoice) setCommunication(key edifact.Key, value, channel string) {
	inv.slots.Set(key, edifact.NewSegment("COM", edifact.Composite{value, channel}))
}

// SetCurrency sets CUX with the invoicing currency qualifier.
func (inv *Invoice) SetCurrency(code string) {
	inv.slots.Set(KeyCurrency, edifact.Currency(code, ""))
}

// SetTotalPositionsAmount sets MOA+79.
func (inv *Invoice) SetTotalPositionsAmount(amount any) error {
	return inv.setAmount(KeyTotalPositionsAmount, edifact.AmountTotalLineItems, amount)
}

// SetBasisAmount sets MOA+56.
func (inv *Invoice) SetBasisAmount(amount any) error {
	return inv.setAmount(KeyBasisAmount, edifact.AmountBasis, amount)
}

// SetTaxableAmount sets MOA+125.
func (inv *Invoice) SetTaxableAmount(amount any) error {
	return inv.setAmount(KeyTaxableAmount, edifact.AmountTaxable, amount)
}

// SetPayableAmount sets MOA+9.
func (inv *Invoice) SetPayableAmount(amount any) error {
	return inv.setAmount(KeyPayableAmount, edifact.AmountPayable, amount)
}

// SetTotalAmount sets MOA+128.
func (inv *Invoice) SetTotalAmount(amount any) error {
	return inv.setAmount(KeyTotalAmount, edifact.AmountTotal, amount)
}

func (inv *Invoice) setAmount(key edifact.Key, qualifier string, amount any) error {
	seg, err := edifact.MOA(qualifier, amount)
	if err != nil {
		return err
	}
	inv.slots.Set(key, seg)
	return nil
}

// SetTax sets the trailer TAX segment for rate with amount as basis, plus the
// MOA+124 tax amount. Neither slot changes when a value is invalid.
func (inv *Invoice) SetTax(rate, amount any) error {
	tax, err := edifact.TAX(DefaultTaxName, amount, rate)
	if err != nil {
		return err
	}
	moa, err := edifact.MOA(edifact.AmountTax, amount)
	if err != nil {
		return err
	}
	inv.slots.Set(KeyTax, tax)
	inv.slots.Set(KeyTaxAmount, moa)
	return nil
}

// Get returns the segments of one header or trailer slot.
func (inv *Invoice) Get(key edifact.Key) ([]edifact.Segment, bool) {
	return inv.slots.Get(key)
}

// AddItem appends a line item. Items are emitted in the order added.
func (inv *Invoice) AddItem(item *Item) {
	inv.items = append(inv.items, item)
}

// Items returns the line items in insertion order.
func (inv *Invoice) Items() []*Item {
	out := make([]*Item, len(inv.items))
	copy(out, inv.items)
	return out
}

// TotalQuantity is the sum of every item's integer quantity.
func (inv *Invoice) TotalQuantity() int64 {
	var total int64
	for _, item := range inv.items {
		total += item.QuantityValue()
	}
	return total
}

// Body returns header, items and trailer without the UNH/UNT envelope.
// Each call builds a new slice and leaves the invoice unchanged.
func (inv *Invoice) Body() []edifact.Segment {
	out := inv.slots.ComposeByKeys()
	for _, item := range inv.items {
		out = append(out, item.Compose()...)
	}

	out = append(out, edifact.UNS())
	trailer := TrailerOrder
	if inv.duplicateTaxAmount {
		trailer = compatTrailerOrder
	}
	out = append(out, inv.slots.ComposeByKeys(trailer...)...)

	out = append(out,
		edifact.CNT(edifact.CountTotalQuantity, strconv.FormatInt(inv.TotalQuantity(), 10)),
		edifact.CNT(edifact.CountLineItems, strconv.Itoa(len(inv.items))),
	)
	return out
}

// Compose returns the complete message including UNH and UNT.
func (inv *Invoice) Compose() []edifact.Segment {
	return inv.Message.Envelope(inv.Body())
}

var _ edifact.Composer = (*Invoice)(nil)
