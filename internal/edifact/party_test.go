package edifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNAD(t *testing.T) {
	seg := NAD("BY", Address{
		ID:         "4000001000005",
		Name:       []string{"Buyer GmbH"},
		Street:     []string{"Hauptstr. 1"},
		City:       "Berlin",
		PostalCode: "10115",
		Country:    "DE",
	})
	assert.Equal(t, []any{
		"NAD", "BY",
		[]string{"4000001000005", "", "9"},
		"",
		[]string{"Buyer GmbH"},
		[]string{"Hauptstr. 1"},
		"Berlin", "", "10115", "DE",
	}, seg.Tuple())
}

func TestNADLimitsLines(t *testing.T) {
	seg := NAD("SU", Address{Name: []string{"1", "2", "3", "4", "5", "6"}})
	name, ok := seg.Element(3)
	require.True(t, ok)
	assert.Len(t, name.Components(), 5)

	id, _ := seg.Element(1)
	assert.Equal(t, []string{"", "", ""}, id.Components())
}

func TestPartyReferences(t *testing.T) {
	assert.Equal(t, []any{"RFF", []string{"VA", "DE123"}}, VATReference("DE123").Tuple())
	assert.Equal(t, []any{"RFF", []string{"GN", "G1"}}, GovernmentReference("G1").Tuple())
	assert.Equal(t, []any{"RFF", []string{"XA", "HRB 1"}}, CompanyRegistration("HRB 1").Tuple())
}

func TestContactAndCommunication(t *testing.T) {
	assert.Equal(t, []any{"CTA", "IC", []string{"", "Jane Roe"}}, ContactPerson("Jane Roe", "").Tuple())

	seg, err := Communication("a@b.c", ChannelMail)
	require.NoError(t, err)
	assert.Equal(t, []any{"COM", []string{"a@b.c", "EM"}}, seg.Tuple())

	_, err = Communication("x", "XX")
	assert.ErrorIs(t, err, ErrDisallowedCode)
}

func TestCurrency(t *testing.T) {
	assert.Equal(t, []any{"CUX", []string{"2", "EUR", "4"}}, Currency("EUR", "").Tuple())
	assert.True(t, Address{}.IsZero())
}
