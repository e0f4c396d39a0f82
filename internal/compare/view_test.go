package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildViewBadges verifies the example comparison from the product
// brief: temu is best despite being out of stock, shein gets a discount
// badge, and set-level savings are derived correctly.
func TestBuildViewBadges(t *testing.T) {
	ranked := Rank([]Offer{
		{Platform: "aliexpress", Price: 1999, InStock: true},
		{Platform: "temu", Price: 1550, InStock: false},
		{Platform: "shein", Price: 2200, OriginalPrice: int64Ptr(3000), InStock: true},
	})

	view := BuildView(ranked)

	assert.Equal(t, 3, view.OfferCount)
	assert.Equal(t, int64(650), view.MaxSavings)
	assert.True(t, view.HasAnyInStock)
	assert.Equal(t, "temu", view.BestPlatform)
	assert.Equal(t, int64(1550), view.BestPrice)

	require.Len(t, view.Offers, 3)

	// Best offer is out of stock: both badges present.
	best := view.Offers[0]
	assert.Equal(t, "temu", best.Platform)
	assert.Contains(t, best.Badges, BadgeBestDeal)
	assert.Contains(t, best.Badges, BadgeOutOfStock)

	// Shein carries the discount badge.
	shein := view.Offers[2]
	assert.Contains(t, shein.Badges, Badge("DISCOUNT_27_PERCENT"))
	assert.NotContains(t, shein.Badges, BadgeBestDeal)
}

// TestBuildViewEmpty verifies the empty comparison state.
func TestBuildViewEmpty(t *testing.T) {
	view := BuildView(Rank(nil))

	assert.Equal(t, 0, view.OfferCount)
	assert.Equal(t, int64(0), view.MaxSavings)
	assert.False(t, view.HasAnyInStock)
	assert.Empty(t, view.BestPlatform)
	require.NotNil(t, view.Offers)
	assert.Empty(t, view.Offers)
}

// TestBuildViewAllOutOfStock verifies hasAnyInStock stays false while the
// ranking is preserved.
func TestBuildViewAllOutOfStock(t *testing.T) {
	view := BuildView(Rank([]Offer{
		{Platform: "temu", Price: 500, InStock: false},
		{Platform: "shein", Price: 700, InStock: false},
	}))

	assert.False(t, view.HasAnyInStock)
	assert.Equal(t, 2, view.OfferCount)
	assert.Equal(t, "temu", view.BestPlatform)
	for _, offer := range view.Offers {
		assert.Contains(t, offer.Badges, BadgeOutOfStock)
	}
}

// TestBuildViewPlatformFallback verifies unknown platforms get the fallback
// display entry instead of breaking the view.
func TestBuildViewPlatformFallback(t *testing.T) {
	view := BuildView(Rank([]Offer{
		{Platform: "wish", Price: 100, InStock: true},
	}))

	require.Len(t, view.Offers, 1)
	info := view.Offers[0].PlatformInfo
	assert.Equal(t, "wish", info.Slug)
	assert.NotEmpty(t, info.Name)
	assert.NotEmpty(t, info.Color)
}

// TestCompareFullPipeline runs raw envelope input end to end.
func TestCompareFullPipeline(t *testing.T) {
	view := Compare(map[string]any{
		"prices": []any{
			map[string]any{"platform": "shein", "price": 22.0, "original_price": 30.0, "in_stock": true},
			map[string]any{"platform": "temu", "price": 15.5, "in_stock": false},
			map[string]any{"platform": "aliexpress", "price": 19.99, "in_stock": true},
		},
	})

	assert.Equal(t, "temu", view.BestPlatform)
	assert.Equal(t, int64(650), view.MaxSavings)
	assert.True(t, view.HasAnyInStock)

	// Malformed input degrades to the empty state.
	empty := Compare(map[string]any{"unexpected": "shape"})
	assert.Equal(t, 0, empty.OfferCount)
}
