package payment

import (
	"errors"
	"strings"
)

var (
	ErrInvalidCardFormat   = errors.New("card number must be 16 digits and cvv 3 digits")
	ErrInvalidCardNumber   = errors.New("card number failed verification")
	ErrInvalidPaymentInput = errors.New("invalid payment input")
)

// pseBanks is the fixed set of banks accepted for PSE transfers.
var pseBanks = map[string]bool{
	"Bancolombia":          true,
	"Banco de Bogota":      true,
	"Davivienda":           true,
	"BBVA Colombia":        true,
	"Banco Popular":        true,
	"Banco de Occidente":   true,
	"Scotiabank Colpatria": true,
	"Nequi":                true,
}

// Method is one way of paying for a pending order. Validate performs the
// structural checks for the method; Apply stamps the method-specific fields
// onto the payment record, masking anything sensitive.
type Method interface {
	Type() string
	Validate() error
	Apply(p *Payment)
}

// Card is a simulated card payment. Only the last four digits are ever
// persisted.
type Card struct {
	Number string
	Holder string
	CVV    string
}

func (c Card) Type() string { return MethodCard }

func (c Card) Validate() error {
	if len(c.Number) != 16 || !allDigits(c.Number) {
		return ErrInvalidCardFormat
	}
	if len(c.CVV) != 3 || !allDigits(c.CVV) {
		return ErrInvalidCardFormat
	}
	if strings.TrimSpace(c.Holder) == "" {
		return ErrInvalidCardFormat
	}
	if !luhnValid(c.Number) {
		return ErrInvalidCardNumber
	}
	return nil
}

func (c Card) Apply(p *Payment) {
	p.Method = MethodCard
	p.CardLast4 = c.Number[len(c.Number)-4:]
	p.CardHolder = c.Holder
}

// PSE is a simulated Colombian bank-transfer payment.
type PSE struct {
	Bank           string
	PayerType      string
	DocumentType   string
	DocumentNumber string
}

func (b PSE) Type() string { return MethodPSE }

func (b PSE) Validate() error {
	if strings.TrimSpace(b.Bank) == "" ||
		strings.TrimSpace(b.PayerType) == "" ||
		strings.TrimSpace(b.DocumentType) == "" ||
		strings.TrimSpace(b.DocumentNumber) == "" {
		return ErrInvalidPaymentInput
	}
	if !pseBanks[b.Bank] {
		return ErrInvalidPaymentInput
	}
	if !allDigits(b.DocumentNumber) {
		return ErrInvalidPaymentInput
	}
	return nil
}

func (b PSE) Apply(p *Payment) {
	p.Method = MethodPSE
	p.Bank = b.Bank
	p.PayerType = b.PayerType
	p.DocumentType = b.DocumentType
	p.DocLast4 = lastFour(b.DocumentNumber)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func lastFour(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}
