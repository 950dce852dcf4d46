package scraper

import (
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/siragled/shopwatch/internal/model"
)

// extractMetaTags fills empty fields of out from OpenGraph, Twitter Card
// and product:* meta tags. Fields already populated by an earlier
// strategy are never overwritten.
func extractMetaTags(doc *goquery.Document, out *model.ScrapedProduct) {
	if out.Name == "" {
		out.Name = metaContent(doc, "og:title", "twitter:title")
	}
	if out.Description == "" {
		out.Description = metaContent(doc, "og:description", "twitter:description", "description")
	}
	if out.ImageURL == "" {
		out.ImageURL = metaContent(doc, "og:image", "twitter:image")
	}
	if out.Brand == "" {
		out.Brand = metaContent(doc, "product:brand")
	}
	if out.Price == nil {
		// meta prices are machine-formatted, no locale normalization
		if amount := metaContent(doc, "product:price:amount"); amount != "" {
			if d, err := decimal.NewFromString(amount); err == nil {
				out.Price = &d
			}
		}
	}
	if out.Currency == "" {
		out.Currency = metaContent(doc, "product:price:currency")
	}
}

// metaContent returns the first non-empty content attribute among the
// given meta tag identifiers, matched by property or name.
func metaContent(doc *goquery.Document, identifiers ...string) string {
	for _, id := range identifiers {
		selector := fmt.Sprintf("meta[property='%s'], meta[name='%s']", id, id)
		if content, exists := doc.Find(selector).First().Attr("content"); exists {
			if trimmed := strings.TrimSpace(content); trimmed != "" {
				return html.UnescapeString(trimmed)
			}
		}
	}
	return ""
}
