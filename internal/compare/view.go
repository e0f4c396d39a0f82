package compare

import (
	"fmt"

	"github.com/globaldeals/catalog-service/internal/platform"
)

// Badge is a presentation flag attached to an offer in the view model.
type Badge string

const (
	BadgeBestDeal   Badge = "BEST_DEAL"
	BadgeOutOfStock Badge = "OUT_OF_STOCK"
)

// DiscountBadge builds the discount badge for a positive percent,
// e.g. DISCOUNT_27_PERCENT.
func DiscountBadge(percent int) Badge {
	return Badge(fmt.Sprintf("DISCOUNT_%d_PERCENT", percent))
}

// OfferView is a single ranked offer annotated for rendering.
type OfferView struct {
	RankedOffer
	Badges       []Badge       `json:"badges"`
	PlatformInfo platform.Info `json:"platformInfo"`
}

// ViewModel is the presentation-ready comparison for one product.
type ViewModel struct {
	Offers        []OfferView `json:"offers"`
	OfferCount    int         `json:"offerCount"`
	MaxSavings    int64       `json:"maxSavings"`
	HasAnyInStock bool        `json:"hasAnyInStock"`
	BestPlatform  string      `json:"bestPlatform,omitempty"`
	BestPrice     int64       `json:"bestPrice,omitempty"`
}

// BuildView assembles the view model from a ranked offer list.
//
// Out-of-stock offers stay in the ranking so the comparison remains
// meaningful; they carry OUT_OF_STOCK so the presentation layer can disable
// the purchase action, and may still carry BEST_DEAL.
func BuildView(ranked []RankedOffer) ViewModel {
	summary := Summarize(ranked)

	view := ViewModel{
		Offers:     make([]OfferView, 0, len(ranked)),
		OfferCount: summary.OfferCount,
		MaxSavings: summary.MaxSavings,
	}

	for _, offer := range ranked {
		badges := make([]Badge, 0, 3)
		if offer.IsBest {
			badges = append(badges, BadgeBestDeal)
			view.BestPlatform = offer.Platform
			view.BestPrice = offer.Price
		}
		if !offer.InStock {
			badges = append(badges, BadgeOutOfStock)
		} else {
			view.HasAnyInStock = true
		}
		if offer.DiscountPercent > 0 {
			badges = append(badges, DiscountBadge(offer.DiscountPercent))
		}

		view.Offers = append(view.Offers, OfferView{
			RankedOffer:  offer,
			Badges:       badges,
			PlatformInfo: platform.InfoFor(offer.Platform),
		})
	}

	return view
}

// Compare is the full pipeline: normalize raw offers, rank them, and build
// the view model.
func Compare(raw any) ViewModel {
	set := Normalize(raw)
	return BuildView(Rank(set.Offers))
}
