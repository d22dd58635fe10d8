package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annis-souames/edifact-generator/internal/edifact"
	"github.com/annis-souames/edifact-generator/internal/edifact/invoic"
)

const sampleYAML = `
invoices:
  - message_reference: MSG1
    number: A1
    type: "380"
    date: 2024-05-02
    currency: EUR
    parties:
      supplier:
        address:
          id: "4000001000005"
          name: [Supplier GmbH]
          city: Berlin
        vat_number: DE123456789
      buyer:
        address:
          name: [Buyer AG]
    totals:
      positions: 200
      payable: 238.00
    tax:
      rate: 19
      amount: 38
    items:
      - quantity: 2
        net_price: 100
        discounts:
          - value: -10
            percent: 5
            name: Promo
  - number: A2
    items:
      - quantity: 1
`

func tupleTags(segs []edifact.Segment) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = s.Tag
	}
	return out
}

func TestLoadList(t *testing.T) {
	docs, err := Load(strings.NewReader(sampleYAML))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "A1", docs[0].Number)
	assert.Equal(t, "2024-05-02", docs[0].Date)
	assert.Equal(t, Number("238.00"), docs[0].Totals.Payable)
	assert.Equal(t, []string{"Supplier GmbH"}, docs[0].Parties["supplier"].Address.Name)
	require.Len(t, docs[0].Items, 1)
	assert.Equal(t, Number("-10"), docs[0].Items[0].Discounts[0].Value)
}

func TestLoadSingleDocument(t *testing.T) {
	docs, err := Load(strings.NewReader("number: B7\nitems:\n  - quantity: 3\n"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "B7", docs[0].Number)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoInvoices)

	_, err = Load(strings.NewReader("currency: EUR\n"))
	assert.ErrorIs(t, err, ErrNoInvoices)

	_, err = Load(strings.NewReader("number: A1\nunknown_key: 1\n"))
	assert.Error(t, err)

	_, err = Load(strings.NewReader("number: A1\ntotals:\n  payable: [1, 2]\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	docs, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	docs, err := Load(strings.NewReader(sampleYAML))
	require.NoError(t, err)

	inv, err := docs[0].Build(BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, "MSG1", inv.Reference)

	assert.Equal(t, []string{
		"UNH",
		"BGM", "DTM", "NAD", "RFF", "NAD", "CUX",
		"LIN", "QTY", "PRI", "ALC", "PCD", "MOA",
		"UNS", "MOA", "MOA", "MOA", "TAX", "CNT", "CNT",
		"UNT",
	}, tupleTags(inv.Compose()))

	payable, ok := inv.Get(invoic.KeyPayableAmount)
	require.True(t, ok)
	assert.Equal(t, []any{"MOA", []string{"9", "238.00"}}, payable[0].Tuple())

	lin, ok := inv.Items()[0].Get(invoic.KeyPosition)
	require.True(t, ok)
	assert.Equal(t, []any{"LIN", "1"}, lin[0].Tuple())
}

func TestBuildCollectsErrors(t *testing.T) {
	doc := Document{
		Number: "X",
		Type:   "999",
		Date:   "not a date",
		Items: []Item{
			{Quantity: "two"},
		},
		Parties: map[string]Party{"nobody": {}},
	}

	_, err := doc.Build(BuildOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, edifact.ErrDisallowedCode)
	assert.ErrorIs(t, err, edifact.ErrInvalidDate)
	assert.ErrorIs(t, err, edifact.ErrInvalidNumericInput)
	assert.Contains(t, err.Error(), "parties.nobody")
}

func TestBuildDuplicateTaxAmount(t *testing.T) {
	doc := Document{Tax: &Tax{Rate: "19", Amount: "38"}}
	inv, err := doc.Build(BuildOptions{DuplicateTaxAmount: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"UNS", "MOA", "TAX", "MOA", "CNT", "CNT"}, tupleTags(inv.Body()))
}

func TestSetField(t *testing.T) {
	var doc Document
	require.NoError(t, doc.SetField(FieldInvoiceNumber, "A9"))
	require.NoError(t, doc.SetField("buyer_name", "Buyer AG|Purchasing"))
	require.NoError(t, doc.SetField("buyer_vat_number", "DE1"))
	require.NoError(t, doc.SetField(FieldTaxAmount, "38"))
	require.NoError(t, doc.SetField(FieldRegulatoryText, "note"))
	require.NoError(t, doc.SetField(FieldCurrency, ""))
	assert.Error(t, doc.SetField("colour", "red"))

	assert.Equal(t, "A9", doc.Number)
	assert.Equal(t, []string{"Buyer AG", "Purchasing"}, doc.Parties["buyer"].Address.Name)
	assert.Equal(t, "DE1", doc.Parties["buyer"].VATNumber)
	assert.Equal(t, Number("38"), doc.Tax.Amount)
	assert.Equal(t, "note", doc.Texts.Regulatory.Text)
	assert.Empty(t, doc.Currency)

	var item Item
	require.NoError(t, item.SetField(FieldNetPrice, "4.5"))
	require.NoError(t, item.SetField(FieldDiscountValue, "1"))
	require.NoError(t, item.SetField(FieldDiscountName, "Promo"))
	assert.Error(t, item.SetField(FieldInvoiceNumber, "A9"))
	require.Len(t, item.Discounts, 1)
	assert.Equal(t, "Promo", item.Discounts[0].Name)
}

func TestFieldScope(t *testing.T) {
	scope, ok := FieldScope(FieldQuantity)
	require.True(t, ok)
	assert.Equal(t, ScopeItem, scope)

	scope, ok = FieldScope("supplier_city")
	require.True(t, ok)
	assert.Equal(t, ScopeInvoice, scope)

	_, ok = FieldScope("supplier_shoe_size")
	assert.False(t, ok)
}
