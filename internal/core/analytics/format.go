package analytics

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders v as whole dollars with grouped thousands: "$1,234".
// Values beyond the int64 range are formatted as floats, never truncated.
func FormatCurrency(v float64) string {
	r := math.Round(finite(v))
	if r < 0 {
		return "-$" + printer.Sprintf("%.0f", -r)
	}
	return "$" + printer.Sprintf("%.0f", math.Abs(r))
}

// FormatCompactCurrency renders v with a B, M or K suffix: one decimal for
// billions and millions, none for thousands and below.
func FormatCompactCurrency(v float64) string {
	v = finite(v)
	switch {
	case v >= 1e9:
		return "$" + fixed(v/1e9, 1) + "B"
	case v >= 1e6:
		return "$" + fixed(v/1e6, 1) + "M"
	case v >= 1e3:
		return "$" + fixed(v/1e3, 0) + "K"
	default:
		return "$" + fixed(v, 0)
	}
}

// FormatPercent renders v with the given number of decimals: "25.0%".
func FormatPercent(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return fixed(finite(v), decimals) + "%"
}

// fixed rounds half away from zero before formatting, so 2.5 becomes "3".
func fixed(v float64, decimals int) string {
	scale := math.Pow(10, float64(decimals))
	r := math.Round(v*scale) / scale
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', decimals, 64)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
