package compare

import "sort"

// RankedOffer wraps an Offer with its derived comparison attributes.
type RankedOffer struct {
	Offer
	Rank            int     `json:"rank"`
	IsBest          bool    `json:"isBest"`
	PriceDelta      int64   `json:"priceDelta"`
	DiscountPercent int     `json:"discountPercent"`
	PositionOnScale float64 `json:"positionOnScale"`
}

// Summary holds set-level aggregates derived from a ranking.
type Summary struct {
	OfferCount int   `json:"offerCount"`
	MinPrice   int64 `json:"minPrice"`
	MaxPrice   int64 `json:"maxPrice"`
	MaxSavings int64 `json:"maxSavings"`
}

// Rank sorts offers ascending by price and annotates each with rank,
// best-offer flag, delta to the best price, discount percent, and position
// on the min..max scale.
//
// The sort is stable: offers tied at the same price keep their input order,
// and the first of a tie at the minimum is the single best offer. Stock
// status does not affect eligibility; an out-of-stock offer can still be
// best by price. An empty input yields an empty, non-nil result.
func Rank(offers []Offer) []RankedOffer {
	if len(offers) == 0 {
		return []RankedOffer{}
	}

	sorted := make([]Offer, len(offers))
	copy(sorted, offers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Price < sorted[j].Price
	})

	minPrice := sorted[0].Price
	maxPrice := sorted[len(sorted)-1].Price

	ranked := make([]RankedOffer, 0, len(sorted))
	for i, offer := range sorted {
		ranked = append(ranked, RankedOffer{
			Offer:           offer,
			Rank:            i + 1,
			IsBest:          i == 0,
			PriceDelta:      offer.Price - minPrice,
			DiscountPercent: DiscountPercent(offer.Price, offer.OriginalPrice),
			PositionOnScale: positionOnScale(offer.Price, minPrice, maxPrice),
		})
	}

	return ranked
}

// Summarize derives the set-level aggregates from a ranked list.
// MaxSavings is 0 for sets with fewer than two offers.
func Summarize(ranked []RankedOffer) Summary {
	if len(ranked) == 0 {
		return Summary{}
	}

	summary := Summary{
		OfferCount: len(ranked),
		MinPrice:   ranked[0].Price,
		MaxPrice:   ranked[len(ranked)-1].Price,
	}
	if summary.OfferCount >= 2 {
		summary.MaxSavings = summary.MaxPrice - summary.MinPrice
	}
	return summary
}

// DiscountPercent computes the rounded discount percentage from the
// original price. Returns 0 when the original price is absent, zero, or not
// greater than the current price.
func DiscountPercent(price int64, originalPrice *int64) int {
	if originalPrice == nil {
		return 0
	}
	orig := *originalPrice
	if orig <= 0 || orig <= price {
		return 0
	}
	// Integer rounding of 100*(orig-price)/orig.
	return int((100*(orig-price) + orig/2) / orig)
}

// positionOnScale places a price on the 0..100 range between the cheapest
// and most expensive offer. Defined as 0 when all offers share one price.
func positionOnScale(price, minPrice, maxPrice int64) float64 {
	if maxPrice == minPrice {
		return 0
	}
	return float64(price-minPrice) / float64(maxPrice-minPrice) * 100
}
