// Package normalize turns locale-variant numeric and date tokens from
// statement text into canonical decimal and calendar values.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountStyle controls locale-dependent number parsing.
type AmountStyle struct {
	// DecimalComma is true for locales that write 1.234,56.
	DecimalComma bool
}

var currencySymbols = strings.NewReplacer(
	"£", "",
	"$", "",
	"€", "",
	" ", "", // non-breaking space, used as a thousands separator in some locales
)

var trailingMarker = regexp.MustCompile(`(?i)\s*(CR|DB|DR)$`)

// ParseAmount converts a monetary token to a decimal value. It accepts
// comma or space thousands grouping, an optional decimal comma, currency
// symbols, and three negative notations: leading minus, parentheses, and
// a trailing DB/DR suffix. A trailing CR suffix is treated as positive.
func ParseAmount(s string, style AmountStyle) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return decimal.Zero, nil
	}

	negative := false

	if m := trailingMarker.FindStringSubmatch(s); m != nil {
		suffix := strings.ToUpper(m[1])
		if suffix == "DB" || suffix == "DR" {
			negative = true
		}
		s = strings.TrimSpace(trailingMarker.ReplaceAllString(s, ""))
	}

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = currencySymbols.Replace(s)
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	if style.DecimalComma {
		// 1.234,56 → strip dots, comma becomes the decimal point.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	s = strings.ReplaceAll(s, " ", "")

	if s == "" {
		return decimal.Zero, nil
	}

	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if negative {
		v = v.Neg()
	}
	return v, nil
}

// SanitizeOCRAmounts fixes common OCR misreads in amount text before
// parsing. Tesseract often renders periods as semicolons or colons
// inside numbers, e.g. "19,720; 15" for "19,720.15".
func SanitizeOCRAmounts(line string) string {
	line = regexp.MustCompile(`(\d);(\s*)(\d)`).ReplaceAllString(line, "$1.$3")
	line = regexp.MustCompile(`(\d):(\d)`).ReplaceAllString(line, "$1.$2")
	line = regexp.MustCompile(`(\d):\s`).ReplaceAllString(line, "$1 ")
	line = regexp.MustCompile(`(\d):$`).ReplaceAllString(line, "$1")
	line = regexp.MustCompile(`\s+NA\b`).ReplaceAllString(line, "")
	return line
}
