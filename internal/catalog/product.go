// Package catalog defines the product model the storefront serves. Products
// are owned by the external feed sources; this package keeps their local
// representation internally consistent.
package catalog

import (
	"strings"
	"time"
	"unicode"

	"github.com/globaldeals/catalog-service/internal/compare"
)

// Product is one catalog entry with its per-platform offers.
type Product struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	NameI18n        map[string]string `json:"name_i18n,omitempty"`
	Description     string            `json:"description,omitempty"`
	Image           string            `json:"image,omitempty"`
	Images          []string          `json:"images,omitempty"`
	Category        string            `json:"category"`
	CategorySlug    string            `json:"category_slug"`
	Offers          []compare.Offer   `json:"prices"`
	BestPrice       int64             `json:"best_price"`
	BestPlatform    string            `json:"best_platform,omitempty"`
	DiscountPercent int               `json:"discount_percent,omitempty"`
	SourceIDs       map[string]string `json:"source_ids,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// RecomputeBest rederives the denormalized best price, best platform, and
// headline discount from the offers. The local recomputation is
// authoritative: values supplied by a feed or an upstream response are
// overwritten when they disagree, so badges always match the ranking.
func (p *Product) RecomputeBest() {
	ranked := compare.Rank(p.Offers)
	if len(ranked) == 0 {
		p.BestPrice = 0
		p.BestPlatform = ""
		p.DiscountPercent = 0
		return
	}

	best := ranked[0]
	p.BestPrice = best.Price
	p.BestPlatform = best.Platform
	p.DiscountPercent = best.DiscountPercent
}

// LocalizedName returns the product name for a language, falling back to
// the default name when no override exists.
func (p *Product) LocalizedName(lang string) string {
	if lang == "" || p.NameI18n == nil {
		return p.Name
	}
	if name, ok := p.NameI18n[strings.ToLower(lang)]; ok && name != "" {
		return name
	}
	return p.Name
}

// SetOffer replaces the offer for one platform, keeping at most one offer
// per platform, and recomputes the derived fields.
func (p *Product) SetOffer(offer compare.Offer) {
	kept := make([]compare.Offer, 0, len(p.Offers)+1)
	for _, existing := range p.Offers {
		if existing.Platform != offer.Platform {
			kept = append(kept, existing)
		}
	}
	p.Offers = append(kept, offer)
	p.RecomputeBest()
}

// Category is a distinct product category with its product count.
type Category struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// Slugify converts a category name to its URL slug.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
