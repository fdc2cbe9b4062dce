package service

import (
	"strings"

	"github.com/shopspring/decimal"
)

// payerFieldLimit is the provider's hard cap on payer name and address
// fields.
const payerFieldLimit = 40

// sanitizeText strips everything outside [A-Za-z0-9& ] and truncates to
// the provider field limit.
func sanitizeText(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '&', r == ' ':
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > payerFieldLimit {
		out = out[:payerFieldLimit]
	}
	return strings.TrimSpace(out)
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// documentType infers CPF for short documents and CNPJ otherwise.
func documentType(document string) string {
	if len(document) <= 11 {
		return "CPF"
	}
	return "CNPJ"
}

// formatAmount renders a decimal with exactly two fraction digits and a
// dot separator regardless of locale.
func formatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
