package scraper

import (
	"encoding/json"
	"html"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/siragled/shopwatch/internal/model"
)

// maxJSONDepth bounds the recursive descent through JSON-LD graphs so
// adversarial nesting cannot blow the stack.
const maxJSONDepth = 64

// extractStructuredData scans every JSON-LD script block in the document
// for a schema.org Product or ProductGroup node and fills out from the
// first usable match. Malformed blocks are skipped. Returns true when a
// product with a non-empty name was found.
func extractStructuredData(doc *goquery.Document, out *model.ScrapedProduct, log *zap.Logger) bool {
	found := false

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return true
		}

		var root any
		if err := json.Unmarshal([]byte(raw), &root); err != nil {
			log.Debug("skipping malformed JSON-LD block", zap.Error(err))
			return true
		}

		if product := findProduct(root, 0); product != nil {
			mergeScraped(out, product)
			found = true
			return false
		}
		return true
	})

	return found
}

// findProduct performs a depth-first search for the first node typed
// Product or ProductGroup that parses into a usable product. Arrays are
// visited in document order; object members are visited with @graph
// first and the rest in sorted key order, since decoded JSON objects do
// not preserve member order.
func findProduct(node any, depth int) *model.ScrapedProduct {
	if depth > maxJSONDepth {
		return nil
	}

	switch v := node.(type) {
	case map[string]any:
		if typeMatches(v["@type"], "Product") {
			if p := parseProductNode(v); p.Valid() {
				return p
			}
		}
		if typeMatches(v["@type"], "ProductGroup") {
			if p := cheapestVariant(v); p.Valid() {
				return p
			}
		}
		for _, key := range orderedKeys(v) {
			if p := findProduct(v[key], depth+1); p != nil {
				return p
			}
		}
	case []any:
		for _, item := range v {
			if p := findProduct(item, depth+1); p != nil {
				return p
			}
		}
	}
	return nil
}

func orderedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	graphFirst := false
	for k := range m {
		if k == "@graph" {
			graphFirst = true
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if graphFirst {
		keys = append([]string{"@graph"}, keys...)
	}
	return keys
}

// typeMatches reports whether a JSON-LD @type value names the wanted
// type. @type may be a single string or an array of strings.
func typeMatches(typeValue any, want string) bool {
	switch t := typeValue.(type) {
	case string:
		return t == want
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

// parseProductNode extracts product fields from a schema.org Product
// node. The returned product has an empty name when the node is not
// usable.
func parseProductNode(node map[string]any) *model.ScrapedProduct {
	p := &model.ScrapedProduct{AdditionalData: map[string]string{}}

	p.Name = html.UnescapeString(stringValue(node["name"]))
	if p.Name == "" {
		return p
	}

	p.Description = html.UnescapeString(stringValue(node["description"]))

	switch brand := node["brand"].(type) {
	case string:
		p.Brand = html.UnescapeString(brand)
	case map[string]any:
		p.Brand = html.UnescapeString(stringValue(brand["name"]))
	}

	p.ImageURL = imageURL(node["image"])
	p.SKU = stringValue(node["sku"])
	p.EAN = stringValue(node["gtin13"])
	p.UPC = stringValue(node["gtin12"])

	if offers, ok := node["offers"]; ok {
		parseOffers(offers, p)
	}

	return p
}

// parseOffers reads price, currency, availability and sale information
// from a schema.org offers value, which may be a single Offer object or
// an array. For arrays, an entry explicitly typed Offer is preferred
// over the first entry.
func parseOffers(offers any, p *model.ScrapedProduct) {
	offer := selectOffer(offers)
	if offer == nil {
		return
	}

	if price := decodePrice(offer["price"]); price != nil {
		p.Price = price
	} else if low := decodePrice(offer["lowPrice"]); low != nil {
		p.Price = low
	}

	p.Currency = stringValue(offer["priceCurrency"])

	// a lower priceSpecification price signals an active sale; the
	// listed price becomes the usual price
	if specPrice := priceSpecificationPrice(offer["priceSpecification"]); specPrice != nil {
		if p.Price != nil && specPrice.LessThan(*p.Price) {
			usual := *p.Price
			p.UsualPrice = &usual
			p.Price = specPrice
			p.IsOnSale = true
		}
	}

	if availability := stringValue(offer["availability"]); availability != "" {
		p.IsInStock = strings.HasSuffix(availability, "InStock")
		p.AdditionalData["availability"] = availability
	}
}

func selectOffer(offers any) map[string]any {
	switch v := offers.(type) {
	case map[string]any:
		return v
	case []any:
		var first map[string]any
		for _, item := range v {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if typeMatches(entry["@type"], "Offer") {
				return entry
			}
			if first == nil {
				first = entry
			}
		}
		return first
	}
	return nil
}

func priceSpecificationPrice(spec any) *decimal.Decimal {
	switch v := spec.(type) {
	case map[string]any:
		return decodePrice(v["price"])
	case []any:
		for _, item := range v {
			if entry, ok := item.(map[string]any); ok {
				if price := decodePrice(entry["price"]); price != nil {
					return price
				}
			}
		}
	}
	return nil
}

// cheapestVariant scans a ProductGroup's hasVariant array, parses each
// variant as a Product node and returns the one with the lowest price.
// Variants without a price are discarded.
func cheapestVariant(node map[string]any) *model.ScrapedProduct {
	variants, ok := node["hasVariant"].([]any)
	if !ok {
		return &model.ScrapedProduct{}
	}

	var cheapest *model.ScrapedProduct
	for _, item := range variants {
		variantNode, ok := item.(map[string]any)
		if !ok {
			continue
		}
		variant := parseProductNode(variantNode)
		if !variant.Valid() || variant.Price == nil {
			continue
		}
		if cheapest == nil || variant.Price.LessThan(*cheapest.Price) {
			cheapest = variant
		}
	}

	if cheapest == nil {
		return &model.ScrapedProduct{}
	}
	return cheapest
}

// decodePrice parses a JSON-LD price value, which may be a number or an
// already machine-formatted string.
func decodePrice(v any) *decimal.Decimal {
	switch value := v.(type) {
	case float64:
		d := decimal.NewFromFloat(value)
		return &d
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil
		}
		return &d
	}
	return nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// mergeScraped copies every extracted field from src onto dst.
func mergeScraped(dst, src *model.ScrapedProduct) {
	dst.Name = src.Name
	dst.Description = src.Description
	dst.Brand = src.Brand
	dst.ImageURL = src.ImageURL
	dst.Price = src.Price
	dst.UsualPrice = src.UsualPrice
	dst.Currency = src.Currency
	dst.SKU = src.SKU
	dst.EAN = src.EAN
	dst.UPC = src.UPC
	dst.IsInStock = src.IsInStock
	dst.IsOnSale = src.IsOnSale
	for k, v := range src.AdditionalData {
		if dst.AdditionalData == nil {
			dst.AdditionalData = map[string]string{}
		}
		dst.AdditionalData[k] = v
	}
}

// imageURL resolves a schema.org image value: a string, an array of
// strings, or an object with a url field. The first non-empty value
// wins.
func imageURL(v any) string {
	switch image := v.(type) {
	case string:
		return strings.TrimSpace(image)
	case []any:
		for _, item := range image {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	case map[string]any:
		return stringValue(image["url"])
	}
	return ""
}
