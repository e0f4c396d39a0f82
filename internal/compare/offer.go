// Package compare implements the price comparison core: normalizing raw
// per-platform offers, ranking them by price, and building the annotated
// view model the storefront renders. All functions are pure.
package compare

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/globaldeals/catalog-service/internal/platform"
)

// Offer is one platform's price and availability record for a product.
// Prices are stored in minor units (cents).
type Offer struct {
	Platform      string `json:"platform"`
	Price         int64  `json:"price"`
	OriginalPrice *int64 `json:"originalPrice,omitempty"`
	InStock       bool   `json:"inStock"`
	OfferURL      string `json:"offerUrl,omitempty"`
}

// PriceDecimal returns the price in major units for API responses.
func (o Offer) PriceDecimal() float64 {
	return float64(o.Price) / 100.0
}

// OriginalPriceDecimal returns the original price in major units, or 0 when absent.
func (o Offer) OriginalPriceDecimal() float64 {
	if o.OriginalPrice == nil {
		return 0
	}
	return float64(*o.OriginalPrice) / 100.0
}

// ComparisonSet holds all offers for one product, at most one per platform.
type ComparisonSet struct {
	Offers []Offer `json:"offers"`
}

// IsEmpty reports whether the set has no offers. An empty set is a valid
// "no price available" state, not an error.
func (s ComparisonSet) IsEmpty() bool {
	return len(s.Offers) == 0
}

// Normalize coerces a raw decoded JSON value into a ComparisonSet. The
// upstream API is inconsistent about envelopes: responses arrive as a bare
// array, as {"data": [...]}, {"products": [...]}, or {"prices": [...]}.
// Unrecognized shapes normalize to an empty set; Normalize never fails.
//
// Offers without a parseable price are dropped rather than priced at zero,
// so a missing price can never win the ranking. Offers violating
// originalPrice >= price keep the price and lose the original.
func Normalize(raw any) ComparisonSet {
	items := unwrapEnvelope(raw)
	if len(items) == 0 {
		return ComparisonSet{Offers: []Offer{}}
	}

	offers := make([]Offer, 0, len(items))
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			continue
		}

		offer, ok := coerceOffer(record)
		if !ok {
			continue
		}

		// Platform is a natural key within one set; first occurrence wins.
		if seen[offer.Platform] {
			continue
		}
		seen[offer.Platform] = true
		offers = append(offers, offer)
	}

	return ComparisonSet{Offers: offers}
}

// NormalizeJSON decodes raw JSON bytes and normalizes them. Malformed JSON
// yields an empty set.
func NormalizeJSON(data []byte) ComparisonSet {
	if len(data) == 0 {
		return ComparisonSet{Offers: []Offer{}}
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return ComparisonSet{Offers: []Offer{}}
	}
	return Normalize(raw)
}

// unwrapEnvelope extracts the offer list from whichever envelope the
// response arrived in.
func unwrapEnvelope(raw any) []any {
	switch v := raw.(type) {
	case nil:
		return nil
	case []any:
		return v
	case map[string]any:
		for _, key := range []string{"data", "products", "prices", "offers"} {
			if inner, ok := v[key].([]any); ok {
				return inner
			}
		}
		return nil
	default:
		return nil
	}
}

// coerceOffer maps a raw record to a well-typed Offer. Returns false when
// the record has no usable platform or price.
func coerceOffer(record map[string]any) (Offer, bool) {
	slug := platform.Normalize(stringField(record, "platform"))
	if slug == "" {
		return Offer{}, false
	}

	price, ok := priceField(record, "price")
	if !ok || price < 0 {
		return Offer{}, false
	}

	offer := Offer{
		Platform: slug,
		Price:    price,
		InStock:  boolField(record, "in_stock", "inStock"),
		OfferURL: stringField(record, "affiliate_url", "affiliateUrl", "offer_url", "offerUrl", "url"),
	}

	if orig, ok := priceField(record, "original_price", "originalPrice"); ok && orig >= price {
		offer.OriginalPrice = &orig
	}

	return offer, true
}

func stringField(record map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := record[key].(string); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func boolField(record map[string]any, keys ...string) bool {
	for _, key := range keys {
		if v, ok := record[key].(bool); ok {
			return v
		}
	}
	// Upstream feeds omit the flag for in-stock offers.
	return true
}

// priceField reads a price in major units from any of the given keys and
// converts it to cents. Accepts JSON numbers, json.Number, and numeric
// strings.
func priceField(record map[string]any, keys ...string) (int64, bool) {
	for _, key := range keys {
		v, present := record[key]
		if !present || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int64(math.Round(n * 100)), true
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return int64(math.Round(f * 100)), true
			}
		case string:
			trimmed := strings.TrimSpace(n)
			if trimmed == "" {
				continue
			}
			if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
				return int64(math.Round(f * 100)), true
			}
		}
	}
	return 0, false
}
