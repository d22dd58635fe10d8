package invoic

import (
	"github.com/annis-souames/edifact-generator/internal/edifact"
)

// Item slot keys in emission order.
const (
	KeyPosition           edifact.Key = "position"
	KeyArticleNumber      edifact.Key = "articleNumber"
	KeyProductDescription edifact.Key = "productDescription"
	KeyQuantity           edifact.Key = "quantity"
	KeyItemDescription    edifact.Key = "invoiceDescription"
	KeyLineAmount         edifact.Key = "lineAmount"
	KeyGrossPrice         edifact.Key = "grossPrice"
	KeyNetPrice           edifact.Key = "netPrice"
	KeyItemTax            edifact.Key = "tax"
)

// ItemOrder is the static emission order of a line item. Discounts follow it.
var ItemOrder = edifact.KeyOrder{
	KeyPosition,
	KeyArticleNumber,
	KeyProductDescription,
	KeyQuantity,
	KeyItemDescription,
	KeyLineAmount,
	KeyGrossPrice,
	KeyNetPrice,
	KeyItemTax,
}

// Defaults used by the item setters.
const (
	DefaultNumberType        = "EN"
	DefaultQuantityUnit      = "PCE"
	DefaultQuantityQualifier = "47"
	DefaultTaxName           = "VAT"
	DefaultDiscountQualifier = "TD"
)

// DefaultTaxRate is applied by AddTax callers that have no rate of their own.
const DefaultTaxRate = 20

// Discount is one allowance record: the ALC, PCD and MOA segments built for
// a single AddDiscount call.
type Discount struct {
	Name      string
	Qualifier string
	Segments  []edifact.Segment
}

// Item is one invoice line.
type Item struct {
	slots     *edifact.Slots
	discounts []Discount
}

// NewItem returns an empty line item.
func NewItem() *Item {
	return &Item{slots: edifact.NewSlots(ItemOrder)}
}

// SetPosition sets the LIN segment. numberType defaults to EN.
func (i *Item) SetPosition(position, articleNumber, numberType string) {
	if numberType == "" {
		numberType = DefaultNumberType
	}
	i.slots.Set(KeyPosition, edifact.LIN(position, articleNumber, numberType))
}

// SetArticleNumber sets the PIA segment, for example the supplier's article
// number with type SA.
func (i *Item) SetArticleNumber(number, typeCode string) {
	i.slots.Set(KeyArticleNumber, edifact.PIA(number, typeCode))
}

// SetProductDescription sets the IMD segment.
func (i *Item) SetProductDescription(description string) {
	i.slots.Set(KeyProductDescription, edifact.IMD(description))
}

// SetQuantity sets the QTY segment. unit and qualifier default to PCE and 47
// (invoiced quantity).
func (i *Item) SetQuantity(quantity any, unit, qualifier string) error {
	if unit == "" {
		unit = DefaultQuantityUnit
	}
	if qualifier == "" {
		qualifier = DefaultQuantityQualifier
	}
	seg, err := edifact.QTY(quantity, unit, qualifier)
	if err != nil {
		return err
	}
	i.slots.Set(KeyQuantity, seg)
	return nil
}

// SetInvoiceDescription sets FTX+INV.
func (i *Item) SetInvoiceDescription(text string) {
	i.slots.Set(KeyItemDescription, edifact.FTX(text, "INV", ""))
}

// SetLineAmount sets MOA+203.
func (i *Item) SetLineAmount(amount any) error {
	seg, err := edifact.MOA(edifact.AmountLineItem, amount)
	if err != nil {
		return err
	}
	i.slots.Set(KeyLineAmount, seg)
	return nil
}

// SetGrossPrice sets PRI+AAB with three decimals per one piece.
func (i *Item) SetGrossPrice(price any) error {
	return i.setPrice(KeyGrossPrice, edifact.PriceGross, price, edifact.DefaultPriceBasis)
}

// SetNetPrice sets PRI+AAA with three decimals per one piece.
func (i *Item) SetNetPrice(price any) error {
	return i.setPrice(KeyNetPrice, edifact.PriceNet, price, edifact.DefaultPriceBasis)
}

// SetNetPriceFor sets PRI+AAA for an explicit price basis.
func (i *Item) SetNetPriceFor(price any, basis edifact.PriceBasis) error {
	return i.setPrice(KeyNetPrice, edifact.PriceNet, price, basis)
}

func (i *Item) setPrice(key edifact.Key, qualifier string, price any, basis edifact.PriceBasis) error {
	seg, err := edifact.PRI(qualifier, price, edifact.PriceDecimals, basis)
	if err != nil {
		return err
	}
	i.slots.Set(key, seg)
	return nil
}

// AddTax sets the line TAX segment. name defaults to VAT.
func (i *Item) AddTax(base, percent any, name string) error {
	if name == "" {
		name = DefaultTaxName
	}
	seg, err := edifact.TAX(name, base, percent)
	if err != nil {
		return err
	}
	i.slots.Set(KeyItemTax, seg)
	return nil
}

// AddDiscount appends an allowance record. qualifier defaults to TD. The
// record is emitted after every static segment, in call order.
func (i *Item) AddDiscount(value, percent any, name, qualifier string) error {
	if qualifier == "" {
		qualifier = DefaultDiscountQualifier
	}
	segs, err := edifact.Discount(value, percent, name, qualifier)
	if err != nil {
		return err
	}
	i.discounts = append(i.discounts, Discount{Name: name, Qualifier: qualifier, Segments: segs})
	return nil
}

// Discounts returns the discount records in creation order.
func (i *Item) Discounts() []Discount {
	out := make([]Discount, len(i.discounts))
	copy(out, i.discounts)
	return out
}

// Get returns the segments of one item slot.
func (i *Item) Get(key edifact.Key) ([]edifact.Segment, bool) {
	return i.slots.Get(key)
}

// Quantity returns the QTY segment when set.
func (i *Item) Quantity() (edifact.Segment, bool) {
	segs, ok := i.slots.Get(KeyQuantity)
	if !ok || len(segs) == 0 {
		return edifact.Segment{}, false
	}
	return segs[0], true
}

// QuantityValue returns the invoiced quantity truncated to an integer, or 0
// when no usable quantity is set.
func (i *Item) QuantityValue() int64 {
	seg, ok := i.Quantity()
	if !ok {
		return 0
	}
	raw, ok := seg.Component(0, 1)
	if !ok {
		return 0
	}
	d, err := edifact.ToDecimal(raw)
	if err != nil {
		return 0
	}
	return d.IntPart()
}

// Compose returns the item's segments: the static slots in declared order,
// then every discount record.
func (i *Item) Compose() []edifact.Segment {
	out := i.slots.ComposeByKeys()
	for _, d := range i.discounts {
		for _, seg := range d.Segments {
			out = append(out, seg.Clone())
		}
	}
	return out
}
