// Package money converts between decimal amounts and minor currency units.
package money

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseMinor parses a decimal amount such as "-49.99", "1,234.50" or "49,99" into minor units.
// Amounts are rounded half away from zero to two decimal places.
func ParseMinor(s string) (int64, error) {
	normalized, err := normalize(s)
	if err != nil {
		return 0, err
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d.Mul(hundred).Round(0).IntPart(), nil
}

// FormatMinor renders minor units as a decimal string with two places, followed by the
// currency code when one is given
func FormatMinor(minor int64, currency string) string {
	s := decimal.New(minor, -2).StringFixed(2)
	if currency == "" {
		return s
	}
	return s + " " + strings.ToUpper(currency)
}

// normalize strips currency symbols and thousands separators, leaving a '.' decimal point
func normalize(s string) (string, error) {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', ' ', '\'', '$', '€', '£':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return "", fmt.Errorf("empty amount")
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastComma > lastDot:
		// "1.234,56" or "49,99": comma is the decimal separator when followed by at most two digits
		if len(s)-lastComma-1 <= 2 {
			s = strings.ReplaceAll(s[:lastComma], ".", "") + "." + s[lastComma+1:]
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	default:
		s = strings.ReplaceAll(s, ",", "")
	}
	return s, nil
}

var (
	prefixedAmount = regexp.MustCompile(`(?i)(EUR|USD|GBP|CHF|AUD|CAD|€|\$|£)\s?(\d{1,3}(?:[.,\s]\d{3})+(?:[.,]\d{2})?|\d+(?:[.,]\d{2})?)`)
	suffixedAmount = regexp.MustCompile(`(?i)(\d{1,3}(?:[.,\s]\d{3})+[.,]\d{2}|\d+[.,]\d{2})\s?(EUR|USD|GBP|CHF|AUD|CAD|€|\$|£)`)
)

var symbols = map[string]string{
	"€": "EUR",
	"$": "USD",
	"£": "GBP",
}

// Extract finds the first money amount with an explicit currency in text, such as
// "Total: EUR 51.00" or "51,00 €", and returns it in minor units
func Extract(text string) (int64, string, bool) {
	if m := prefixedAmount.FindStringSubmatchIndex(text); m != nil {
		if minor, err := ParseMinor(text[m[4]:m[5]]); err == nil {
			return minor, currencyCode(text[m[2]:m[3]]), true
		}
	}
	if m := suffixedAmount.FindStringSubmatchIndex(text); m != nil {
		if minor, err := ParseMinor(text[m[2]:m[3]]); err == nil {
			return minor, currencyCode(text[m[4]:m[5]]), true
		}
	}
	return 0, "", false
}

func currencyCode(s string) string {
	if code, ok := symbols[s]; ok {
		return code
	}
	return strings.ToUpper(s)
}
