package quote

import (
	"strings"

	"github.com/dustin/go-humanize"
)

// es-CO grouping: dot for thousands, comma for decimals.
const (
	currencyFormat = "#.###,"
	areaFormat     = "#.###,##"
)

// FormatCurrency renders an amount rounded to the nearest peso, e.g. 4.657.582.
func FormatCurrency(v float64) string {
	return humanize.FormatFloat(currencyFormat, v)
}

// FormatArea renders an area with at most two decimals, e.g. 71,5.
func FormatArea(v float64) string {
	s := humanize.FormatFloat(areaFormat, v)
	intPart, frac, ok := strings.Cut(s, ",")
	if !ok {
		return s
	}
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		if intPart == "-0" {
			return "0"
		}
		return intPart
	}
	return intPart + "," + frac
}
