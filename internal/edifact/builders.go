// =============================================================================
// EDIFACT Generator - Segment Builders
// =============================================================================
//
// Each builder encodes one D96A segment template. Builders are pure: they take
// a semantic value plus fixed parameters and return a new Segment. They never
// touch entity state; setters call them and store the result in a slot.
//
// Numbers always go through Convert with an explicit decimal count:
//   - amounts (MOA, TAX basis)      2 decimals
//   - prices (PRI)                  3 decimals unless the caller says otherwise
//   - percentages and quantities    0 decimals
//
// =============================================================================

package edifact

import "slices"

// Free text limits for C108 (5 x an..70).
const (
	freeTextChunkLength = 70
	freeTextMaxChunks   = 5
)

// Monetary amount qualifiers (5025).
const (
	AmountLineItem       = "203"
	AmountPayable        = "9"
	AmountTaxable        = "125"
	AmountTax            = "124"
	AmountTotalLineItems = "79"
	AmountBasis          = "56"
	AmountTotal          = "128"
	AmountAllowance      = "204"
)

// Price qualifiers (5125).
const (
	PriceGross = "AAB"
	PriceNet   = "AAA"
)

// Control total qualifiers (6069).
const (
	CountTotalQuantity = "1"
	CountLineItems     = "2"
)

// CheckAllowed returns an error wrapping ErrDisallowedCode when code is not in
// allowed.
func CheckAllowed(code string, allowed ...string) error {
	if slices.Contains(allowed, code) {
		return nil
	}
	return &CodeError{Code: code, Allowed: slices.Clone(allowed)}
}

// BGM builds the beginning-of-message segment: document type, document number
// and message function (9 = original).
func BGM(documentNumber, documentType string) Segment {
	return NewSegment("BGM", Value(documentType), Value(documentNumber), Value("9"))
}

// DTM builds a date/time/period segment for qualifier.
func DTM(date any, qualifier string) (Segment, error) {
	formatted, code, err := FormatDate(date)
	if err != nil {
		return Segment{}, err
	}
	return NewSegment("DTM", Composite{qualifier, formatted, code}), nil
}

// FTX builds a free text segment. Text longer than 70 characters is split
// over the C108 components; anything past the fifth component is dropped.
func FTX(text, qualifier, key string) Segment {
	return NewSegment("FTX", Value(qualifier), Value(""), Value(key), Composite(SplitText(text, freeTextChunkLength, freeTextMaxChunks)))
}

// RegulatoryFTX builds the REG free text used for regulatory notes. The
// corporate identifier and the amount (2 decimals) follow the text literal.
func RegulatoryFTX(text, corporateID string, amount any) (Segment, error) {
	formatted, err := Convert(amount, AmountDecimals)
	if err != nil {
		return Segment{}, err
	}
	return NewSegment("FTX",
		Value("REG"),
		Value(""),
		Value(""),
		Composite(SplitText(text, freeTextChunkLength, freeTextMaxChunks)),
		Value(corporateID),
		Value(formatted),
	), nil
}

// MOA builds a monetary amount segment with 2 decimals.
func MOA(qualifier string, amount any) (Segment, error) {
	formatted, err := Convert(amount, AmountDecimals)
	if err != nil {
		return Segment{}, err
	}
	return NewSegment("MOA", Composite{qualifier, formatted}), nil
}

// RFF builds a reference segment.
func RFF(qualifier, reference string) Segment {
	return NewSegment("RFF", Composite{qualifier, reference})
}

// PriceBasis is the quantity and unit a price refers to.
type PriceBasis struct {
	Quantity string
	Unit     string
}

// DefaultPriceBasis is one piece.
var DefaultPriceBasis = PriceBasis{Quantity: "1", Unit: "PCE"}

// PRI builds a price segment. The price is rendered with decimals digits.
func PRI(qualifier string, price any, decimals int, basis PriceBasis) (Segment, error) {
	formatted, err := Convert(price, decimals)
	if err != nil {
		return Segment{}, err
	}
	if basis.Quantity == "" {
		basis.Quantity = DefaultPriceBasis.Quantity
	}
	if basis.Unit == "" {
		basis.Unit = DefaultPriceBasis.Unit
	}
	return NewSegment("PRI", Composite{qualifier, formatted, "", "", basis.Quantity, basis.Unit}), nil
}

// TAX builds a duty/tax/fee segment: function 7 (tax), the tax type, the
// assessment basis (2 decimals), the rate (0 decimals) and category S.
func TAX(typeCode string, base, rate any) (Segment, error) {
	formattedBase, err := Convert(base, AmountDecimals)
	if err != nil {
		return Segment{}, err
	}
	formattedRate, err := Convert(rate, PercentDecimals)
	if err != nil {
		return Segment{}, err
	}
	return NewSegment("TAX",
		Value("7"),
		Value(typeCode),
		Value(""),
		Value(formattedBase),
		Composite{"", "", "", formattedRate},
		Value("S"),
	), nil
}

// Discount builds the allowance triple ALC, PCD, MOA. The MOA 204 amount is
// always the absolute value of value.
func Discount(value, percent any, name, qualifier string) ([]Segment, error) {
	amount, err := ToDecimal(value)
	if err != nil {
		return nil, err
	}
	rate, err := Convert(percent, PercentDecimals)
	if err != nil {
		return nil, err
	}
	moa, err := MOA(AmountAllowance, amount.Abs())
	if err != nil {
		return nil, err
	}
	return []Segment{
		NewSegment("ALC", Value("A"), Value(""), Value("2"), Value("1"), Composite{qualifier, "", "", name, ""}),
		NewSegment("PCD", Composite{"1", rate}),
		moa,
	}, nil
}

// UNS builds the section control segment separating detail and summary.
func UNS() Segment {
	return NewSegment("UNS", Value("S"))
}

// CNT builds a control total segment.
func CNT(qualifier, value string) Segment {
	return NewSegment("CNT", Composite{qualifier, value})
}

// QTY builds a quantity segment with 0 decimals.
func QTY(quantity any, unit, qualifier string) (Segment, error) {
	formatted, err := Convert(quantity, QuantityDecimals)
	if err != nil {
		return Segment{}, err
	}
	return NewSegment("QTY", Composite{qualifier, formatted, unit}), nil
}

// LIN builds a line item segment.
func LIN(position, articleNumber, numberType string) Segment {
	if articleNumber == "" {
		return NewSegment("LIN", Value(position))
	}
	return NewSegment("LIN", Value(position), Value(""), Composite{articleNumber, numberType})
}

// PIA builds an additional product id segment (function 1 = additional
// identification).
func PIA(number, typeCode string) Segment {
	return NewSegment("PIA", Value("1"), Composite{number, typeCode})
}

// IMD builds a free-form item description (F). Up to two 35 character
// description lines are used.
func IMD(description string) Segment {
	lines := SplitText(description, 35, 2)
	comps := append(Composite{"", "", ""}, lines...)
	return NewSegment("IMD", Value("F"), Value(""), comps)
}

// SplitText cuts s into at most max chunks of at most size runes.
func SplitText(s string, size, max int) []string {
	runes := []rune(s)
	if len(runes) == 0 {
		return []string{""}
	}
	var out []string
	for len(runes) > 0 && len(out) < max {
		n := min(size, len(runes))
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}
