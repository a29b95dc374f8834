// Package format turns raw dashboard metrics into display strings.
package format

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// NotAvailable is rendered for NaN and infinite inputs.
const NotAvailable = "N/A"

var printer = message.NewPrinter(language.AmericanEnglish)

// Currency abbreviates dollar amounts: $4.25B, $2.5M, $850K, $850.
func Currency(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	switch {
	case v >= 1e9:
		return "$" + fixed(v/1e9, 2) + "B"
	case v >= 1e6:
		return "$" + fixed(v/1e6, 1) + "M"
	case v >= 1e3:
		return "$" + fixed(v/1e3, 0) + "K"
	}
	return "$" + grouped(v)
}

// Number abbreviates counts: 1.2M, 12.3K, 999.
func Number(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	switch {
	case v >= 1e6:
		return fixed(v/1e6, 1) + "M"
	case v >= 1e3:
		return fixed(v/1e3, 1) + "K"
	}
	return grouped(v)
}

// Percent renders v with one decimal and a percent sign.
func Percent(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	return fixed(v, 1) + "%"
}

// SignedPercent is Percent with a leading "+" for positive values.
func SignedPercent(v float64) string {
	s := Percent(v)
	if finite(v) && v > 0 {
		return "+" + s
	}
	return s
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// grouped prints v with US thousands separators and at most three decimals.
func grouped(v float64) string {
	return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

// fixed renders v with exactly digits decimals. Exact binary halves round away
// from zero, so 2.5 becomes "3" rather than the round-half-even "2".
func fixed(v float64, digits int) string {
	if isHalfway(v, digits) {
		if v < 0 {
			v = math.Nextafter(v, math.Inf(-1))
		} else {
			v = math.Nextafter(v, math.Inf(1))
		}
	}
	return strconv.FormatFloat(v, 'f', digits, 64)
}

// isHalfway reports whether the exact binary value of v ends in a 5 right after
// the last kept digit.
func isHalfway(v float64, digits int) bool {
	exact := strings.TrimRight(new(big.Float).SetFloat64(v).Text('f', 1100), "0")
	dot := strings.IndexByte(exact, '.')
	if dot < 0 {
		return false
	}
	tail := exact[dot+1:]
	return len(tail) == digits+1 && tail[digits] == '5'
}

// Decimal renders v with exactly digits decimals and no grouping.
func Decimal(v float64, digits int) string {
	if !finite(v) {
		return NotAvailable
	}
	return fixed(v, digits)
}
