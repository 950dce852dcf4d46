package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain dollars", "$19.99", "19.99"},
		{"plain euros comma decimal", "€19,99", "19.99"},
		{"european thousands", "€1.249,95", "1249.95"},
		{"us thousands", "$1,249.95", "1249.95"},
		{"integer", "499", "499"},
		{"currency suffix", "19.99 USD", "19.99"},
		{"embedded text", "Now only 12,50!", "12.5"},
		{"lone comma three trailing digits is grouping", "1,249", "1249"},
		{"lone dot three trailing digits is grouping", "1.249", "1249"},
		{"lone comma two trailing digits is decimal", "12,50", "12.5"},
		{"repeated dots are grouping", "1.234.567", "1234567"},
		{"repeated commas are grouping", "1,234,567", "1234567"},
		{"both separators comma last", "1.234,56", "1234.56"},
		{"both separators dot last", "1,234.56", "1234.56"},
		{"sub-unit price", ".99", "0.99"},
		{"sub-unit price with currency", "$.99", "0.99"},
		{"sub-unit price comma decimal", ",99", "0.99"},
		{"trailing separator trimmed", "12.", "12"},
		{"single decimal digit", "7.5", "7.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePrice(tt.input)
			require.NotNil(t, got, "ParsePrice(%q) returned nil", tt.input)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParsePriceUnparsable(t *testing.T) {
	for _, input := range []string{"", "   ", "free", "N/A", "$", "...", ",,,", "call for price"} {
		t.Run("input "+input, func(t *testing.T) {
			assert.Nil(t, ParsePrice(input))
		})
	}
}

func TestParsePriceNeverPanics(t *testing.T) {
	inputs := []string{
		"\x00\xff\xfe",
		"٣٫١٤",
		"1,2,3.4.5",
		"💰💰💰",
		"-0,-0.-",
	}
	for _, input := range inputs {
		assert.NotPanics(t, func() { ParsePrice(input) })
	}
}
