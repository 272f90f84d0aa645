package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLuhnValid(t *testing.T) {
	cases := []struct {
		number string
		want   bool
	}{
		{"4532015112830366", true},
		{"4532015112830367", false},
		{"4111111111111111", true},
		{"1234567812345678", false},
		{"0000000000000000", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, luhnValid(tc.number), "number %s", tc.number)
	}
}

func TestCardValidate(t *testing.T) {
	valid := Card{Number: "4532015112830366", Holder: "Ana Gomez", CVV: "123"}
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name string
		card Card
		want error
	}{
		{"short number", Card{Number: "45320151", Holder: "Ana", CVV: "123"}, ErrInvalidCardFormat},
		{"letters in number", Card{Number: "45320151128303ab", Holder: "Ana", CVV: "123"}, ErrInvalidCardFormat},
		{"bad cvv", Card{Number: "4532015112830366", Holder: "Ana", CVV: "12"}, ErrInvalidCardFormat},
		{"missing holder", Card{Number: "4532015112830366", Holder: "  ", CVV: "123"}, ErrInvalidCardFormat},
		{"luhn failure", Card{Number: "4532015112830367", Holder: "Ana", CVV: "123"}, ErrInvalidCardNumber},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.card.Validate(), tc.want)
		})
	}
}

func TestCardApplyMasksNumber(t *testing.T) {
	c := Card{Number: "4532015112830366", Holder: "Ana Gomez", CVV: "123"}
	var p Payment
	c.Apply(&p)

	assert.Equal(t, MethodCard, p.Method)
	assert.Equal(t, "0366", p.CardLast4)
	assert.Equal(t, "Ana Gomez", p.CardHolder)
	assert.Empty(t, p.Bank)
}

func TestPSEValidate(t *testing.T) {
	valid := PSE{Bank: "Bancolombia", PayerType: "Natural", DocumentType: "CC", DocumentNumber: "1032456789"}
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name string
		pse  PSE
	}{
		{"missing bank", PSE{PayerType: "Natural", DocumentType: "CC", DocumentNumber: "1032456789"}},
		{"unknown bank", PSE{Bank: "Banco Imaginario", PayerType: "Natural", DocumentType: "CC", DocumentNumber: "1032456789"}},
		{"missing payer type", PSE{Bank: "Bancolombia", DocumentType: "CC", DocumentNumber: "1032456789"}},
		{"missing document type", PSE{Bank: "Bancolombia", PayerType: "Natural", DocumentNumber: "1032456789"}},
		{"non numeric document", PSE{Bank: "Bancolombia", PayerType: "Natural", DocumentType: "CC", DocumentNumber: "10A2456789"}},
		{"empty document", PSE{Bank: "Bancolombia", PayerType: "Natural", DocumentType: "CC"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.pse.Validate(), ErrInvalidPaymentInput)
		})
	}
}

func TestPSEApplyMasksDocument(t *testing.T) {
	b := PSE{Bank: "Davivienda", PayerType: "Juridica", DocumentType: "NIT", DocumentNumber: "9005671234"}
	var p Payment
	b.Apply(&p)

	assert.Equal(t, MethodPSE, p.Method)
	assert.Equal(t, "Davivienda", p.Bank)
	assert.Equal(t, "1234", p.DocLast4)
	assert.Empty(t, p.CardLast4)
}
