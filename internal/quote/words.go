package quote

import "strings"

const (
	currencySuffix = " PESOS M/CTE"
	wordsZero      = "CERO"
	wordsOverflow  = "MÁS DE MIL MILLONES"
)

var (
	units = []string{"", "UN", "DOS", "TRES", "CUATRO", "CINCO", "SEIS", "SIETE", "OCHO", "NUEVE"}
	teens = []string{
		"DIEZ", "ONCE", "DOCE", "TRECE", "CATORCE",
		"QUINCE", "DIECISÉIS", "DIECISIETE", "DIECIOCHO", "DIECINUEVE",
	}
	tens     = []string{"", "", "VEINTE", "TREINTA", "CUARENTA", "CINCUENTA", "SESENTA", "SETENTA", "OCHENTA", "NOVENTA"}
	hundreds = []string{
		"", "CIENTO", "DOSCIENTOS", "TRESCIENTOS", "CUATROCIENTOS",
		"QUINIENTOS", "SEISCIENTOS", "SETECIENTOS", "OCHOCIENTOS", "NOVECIENTOS",
	}
)

// AmountToSpanishWords spells an amount of pesos the way it is written on
// Colombian legal documents.
// Example: 1250000 → "UN MILLÓN DOSCIENTOS CINCUENTA MIL PESOS M/CTE"
func AmountToSpanishWords(amount int64) string {
	if amount < 0 {
		return "MENOS " + AmountToSpanishWords(-amount)
	}
	if amount == 0 {
		return wordsZero
	}
	if amount >= 1_000_000_000 {
		return wordsOverflow
	}

	var parts []string

	if amount >= 1_000_000 {
		millions := amount / 1_000_000
		if millions == 1 {
			parts = append(parts, "UN MILLÓN")
		} else {
			parts = append(parts, convertUnder1000(millions)+" MILLONES")
		}
		amount %= 1_000_000
	}

	if amount >= 1000 {
		thousands := amount / 1000
		if thousands == 1 {
			parts = append(parts, "MIL")
		} else {
			parts = append(parts, convertUnder1000(thousands)+" MIL")
		}
		amount %= 1000
	}

	if amount > 0 {
		parts = append(parts, convertUnder1000(amount))
	}

	return strings.Join(parts, " ") + currencySuffix
}

func convertUnder1000(n int64) string {
	if n == 0 {
		return ""
	}

	var parts []string
	if n >= 100 {
		if n == 100 {
			return "CIEN"
		}
		parts = append(parts, hundreds[n/100])
		n %= 100
	}

	switch {
	case n >= 20:
		word := tens[n/10]
		if n%10 > 0 {
			word += " Y " + units[n%10]
		}
		parts = append(parts, word)
	case n >= 10:
		parts = append(parts, teens[n-10])
	case n > 0:
		parts = append(parts, units[n])
	}

	return strings.Join(parts, " ")
}
