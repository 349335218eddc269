package utils

import "strings"

// OnlyDigits strips every non-digit rune from s.  CPF and CNPJ values are
// stored and compared in this form.
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeCPF returns the digits of a CPF ("123.456.789-09" -> "12345678909").
func NormalizeCPF(cpf string) string { return OnlyDigits(cpf) }

// NormalizeCNPJ returns the digits of a CNPJ.
func NormalizeCNPJ(cnpj string) string { return OnlyDigits(cnpj) }

// IsCPF reports whether s has exactly the 11 digits of a CPF after
// normalization.  Check digits are not verified.
func IsCPF(s string) bool { return len(OnlyDigits(s)) == 11 }
