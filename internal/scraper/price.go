package scraper

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/siragled/shopwatch/internal/model"
)

// ParsePrice extracts a decimal amount from raw price text such as
// "€1.249,95" or "$19.99". The text is treated as locale-ambiguous:
// every character that is not a digit, comma or period is stripped and
// the remaining separators are resolved to a single decimal point.
// Returns nil for empty or unparsable input; never panics.
//
// Separator resolution: when both ',' and '.' occur, the one appearing
// last is the decimal separator and the other is grouping. A single
// separator kind occurring more than once is grouping. A lone separator
// followed by exactly three digits at the end of the text is treated as
// grouping ("1,249" is 1249, "19.99" is 19.99), except a leading
// separator, which always reads as the decimal point (".99" is 0.99).
func ParsePrice(text string) *decimal.Decimal {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := strings.TrimRight(b.String(), ",.")
	if cleaned == "" {
		return nil
	}

	lastComma := strings.LastIndexByte(cleaned, ',')
	lastDot := strings.LastIndexByte(cleaned, '.')

	var normalized string
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			normalized = strings.ReplaceAll(cleaned, ".", "")
			normalized = strings.Replace(normalized, ",", ".", 1)
		} else {
			normalized = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		normalized = resolveSingleSeparator(cleaned, ",")
	case lastDot >= 0:
		normalized = resolveSingleSeparator(cleaned, ".")
	default:
		normalized = cleaned
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return nil
	}
	return &d
}

// priceOrZero returns the scraped price for logging, zero when absent.
func priceOrZero(p *model.ScrapedProduct) decimal.Decimal {
	if p.Price == nil {
		return decimal.Zero
	}
	return *p.Price
}

func resolveSingleSeparator(s, sep string) string {
	if strings.Count(s, sep) > 1 {
		return strings.ReplaceAll(s, sep, "")
	}
	idx := strings.Index(s, sep)
	// exactly three trailing digits reads as a thousands group, unless
	// the separator leads (".99" is a sub-unit price, not a group)
	if idx > 0 && len(s)-idx-1 == 3 {
		return strings.ReplaceAll(s, sep, "")
	}
	return strings.Replace(s, sep, ".", 1)
}
