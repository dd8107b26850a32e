package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMinor(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"49.99", 4999},
		{"-49.99", -4999},
		{"100", 10000},
		{"1,234.50", 123450},
		{"1.234,50", 123450},
		{"49,99", 4999},
		{"1,234", 123400},
		{"€ 12.30", 1230},
		{"0.005", 1},
		{" 7.1 ", 710},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseMinor(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := ParseMinor("")
	assert.Error(t, err)
	_, err = ParseMinor("abc")
	assert.Error(t, err)
}

func TestFormatMinor(t *testing.T) {
	assert.Equal(t, "49.99", FormatMinor(4999, ""))
	assert.Equal(t, "-0.05 EUR", FormatMinor(-5, "eur"))
	assert.Equal(t, "100.00 USD", FormatMinor(10000, "USD"))
}

func TestExtract(t *testing.T) {
	tests := []struct {
		text     string
		minor    int64
		currency string
		ok       bool
	}{
		{"Your receipt - Total: EUR 51.00", 5100, "EUR", true},
		{"Amount charged £12.99 to your card", 1299, "GBP", true},
		{"Betrag: 1.234,56 € inkl. MwSt", 123456, "EUR", true},
		{"You paid $5", 500, "USD", true},
		{"Your receipt $1234.56", 123456, "USD", true},
		{"Total EUR 1234,56", 123456, "EUR", true},
		{"Total EUR 12 345,00", 1234500, "EUR", true},
		{"Charged 2500.00 EUR", 250000, "EUR", true},
		{"Order 12345 has shipped", 0, "", false},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			minor, currency, ok := Extract(tc.text)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.minor, minor)
			assert.Equal(t, tc.currency, currency)
		})
	}
}
