package edifact

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tuple(s Segment) []any { return s.Tuple() }

func TestBGM(t *testing.T) {
	assert.Equal(t, []any{"BGM", "380", "R-1", "9"}, tuple(BGM("R-1", "380")))
}

func TestDTM(t *testing.T) {
	seg, err := DTM(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), DateQualifierDocument)
	require.NoError(t, err)
	assert.Equal(t, []any{"DTM", []string{"137", "20240301", "102"}}, tuple(seg))

	seg, err = DTM("2024-03-01T14:30", DateQualifierDelivery)
	require.NoError(t, err)
	assert.Equal(t, []any{"DTM", []string{"35", "202403011430", "203"}}, tuple(seg))

	_, err = DTM("yesterday", DateQualifierDocument)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestFTXSplitsLongText(t *testing.T) {
	text := strings.Repeat("a", 70) + strings.Repeat("b", 10)
	seg := FTX(text, "OSI", "HAE")
	assert.Equal(t, []any{"FTX", "OSI", "", "HAE", []string{strings.Repeat("a", 70), strings.Repeat("b", 10)}}, tuple(seg))

	seg = FTX(strings.Repeat("x", 400), "OSI", "")
	comps, ok := seg.Element(3)
	require.True(t, ok)
	assert.Len(t, comps.Components(), 5)
}

func TestRegulatoryFTX(t *testing.T) {
	seg, err := RegulatoryFTX("Reg note", "CORP-1", 12.5)
	require.NoError(t, err)
	assert.Equal(t, []any{"FTX", "REG", "", "", []string{"Reg note"}, "CORP-1", "12.50"}, tuple(seg))
}

func TestMOA(t *testing.T) {
	seg, err := MOA(AmountTotalLineItems, 100)
	require.NoError(t, err)
	assert.Equal(t, []any{"MOA", []string{"79", "100.00"}}, tuple(seg))

	_, err = MOA(AmountTotal, "n/a")
	assert.ErrorIs(t, err, ErrInvalidNumericInput)
}

func TestPRI(t *testing.T) {
	seg, err := PRI(PriceGross, 4.5, PriceDecimals, PriceBasis{})
	require.NoError(t, err)
	assert.Equal(t, []any{"PRI", []string{"AAB", "4.500", "", "", "1", "PCE"}}, tuple(seg))

	seg, err = PRI(PriceNet, "9.99", 2, PriceBasis{Quantity: "10", Unit: "KGM"})
	require.NoError(t, err)
	assert.Equal(t, []any{"PRI", []string{"AAA", "9.99", "", "", "10", "KGM"}}, tuple(seg))
}

func TestTAX(t *testing.T) {
	seg, err := TAX("VAT", 200, 19)
	require.NoError(t, err)
	assert.Equal(t, []any{"TAX", "7", "VAT", "", "200.00", []string{"", "", "", "19"}, "S"}, tuple(seg))
}

func TestDiscountUsesAbsoluteAmount(t *testing.T) {
	segs, err := Discount(-10, 5, "Promo", "TD")
	require.NoError(t, err)
	require.Len(t, segs, 3)
	assert.Equal(t, []any{"ALC", "A", "", "2", "1", []string{"TD", "", "", "Promo", ""}}, tuple(segs[0]))
	assert.Equal(t, []any{"PCD", []string{"1", "5"}}, tuple(segs[1]))
	assert.Equal(t, []any{"MOA", []string{"204", "10.00"}}, tuple(segs[2]))

	_, err = Discount("x", 5, "Promo", "TD")
	assert.ErrorIs(t, err, ErrInvalidNumericInput)
}

func TestSummaryBuilders(t *testing.T) {
	assert.Equal(t, []any{"UNS", "S"}, tuple(UNS()))
	assert.Equal(t, []any{"CNT", []string{"2", "3"}}, tuple(CNT(CountLineItems, "3")))
	assert.Equal(t, []any{"RFF", []string{"IV", "INV-9"}}, tuple(RFF(ReferenceInvoice, "INV-9")))
}

func TestItemBuilders(t *testing.T) {
	qty, err := QTY(2.6, "PCE", "47")
	require.NoError(t, err)
	assert.Equal(t, []any{"QTY", []string{"47", "3", "PCE"}}, tuple(qty))

	assert.Equal(t, []any{"LIN", "1", "", []string{"4000862141404", "EN"}}, tuple(LIN("1", "4000862141404", "EN")))
	assert.Equal(t, []any{"LIN", "1"}, tuple(LIN("1", "", "")))
	assert.Equal(t, []any{"PIA", "1", []string{"A-100", "SA"}}, tuple(PIA("A-100", "SA")))
	assert.Equal(t, []any{"IMD", "F", "", []string{"", "", "", "Widget"}}, tuple(IMD("Widget")))
}

func TestCheckAllowed(t *testing.T) {
	require.NoError(t, CheckAllowed("380", "380", "381"))

	err := CheckAllowed("999", "380", "381")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDisallowedCode)

	var codeErr *CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "999", codeErr.Code)
	assert.Equal(t, []string{"380", "381"}, codeErr.Allowed)
}

func TestSplitText(t *testing.T) {
	assert.Equal(t, []string{""}, SplitText("", 10, 2))
	assert.Equal(t, []string{"äö", "ü"}, SplitText("äöü", 2, 5))
	assert.Equal(t, []string{"ab", "cd"}, SplitText("abcdef", 2, 2))
}
