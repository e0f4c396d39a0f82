package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/globaldeals/catalog-service/internal/catalog"
	"github.com/globaldeals/catalog-service/internal/compare"
)

func doGET(t *testing.T, env *testEnv, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestListProducts(t *testing.T) {
	env := newTestEnv()
	env.addProduct(sampleProduct())

	w := doGET(t, env, "/products?category=electronics&min_price=5&max_price=30&platform=temu&sort=price_asc")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListProductsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Products, 1)

	p := resp.Products[0]
	assert.Equal(t, "Wireless Earbuds", p.Name)
	assert.InDelta(t, 12.99, p.BestPrice, 0.001)
	assert.Equal(t, "aliexpress", p.BestPlatform)
	assert.Len(t, p.Prices, 3)

	// Filter passthrough, with prices converted to cents.
	filter := env.store.lastFilter
	assert.Equal(t, "electronics", filter.CategorySlug)
	assert.Equal(t, "temu", filter.Platform)
	require.NotNil(t, filter.MinPrice)
	assert.Equal(t, int64(500), *filter.MinPrice)
	require.NotNil(t, filter.MaxPrice)
	assert.Equal(t, int64(3000), *filter.MaxPrice)
	assert.Equal(t, "price_asc", filter.Sort)
}

func TestListProductsUnknownPlatform(t *testing.T) {
	env := newTestEnv()
	w := doGET(t, env, "/products?platform=wish")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListProductsStoreError(t *testing.T) {
	env := newTestEnv()
	env.store.err = errStore
	w := doGET(t, env, "/products")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetProductComparison(t *testing.T) {
	env := newTestEnv()
	env.addProduct(sampleProduct())

	w := doGET(t, env, "/products/prd_wireless")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Product    ProductResponse    `json:"product"`
		Comparison ComparisonResponse `json:"comparison"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	cmp := resp.Comparison
	assert.Equal(t, 3, cmp.OfferCount)
	assert.InDelta(t, 5.00, cmp.MaxSavings, 0.001)
	assert.True(t, cmp.HasAnyInStock)
	assert.Equal(t, "aliexpress", cmp.BestPlatform)

	require.Len(t, cmp.Offers, 3)
	best := cmp.Offers[0]
	assert.True(t, best.IsBest)
	assert.Equal(t, 1, best.Rank)
	assert.InDelta(t, 12.99, best.Price, 0.001)
	assert.Contains(t, best.Badges, compare.Badge("BEST_DEAL"))
	assert.Contains(t, best.Badges, compare.Badge("DISCOUNT_50_PERCENT"))

	last := cmp.Offers[2]
	assert.Equal(t, "shein", last.Platform)
	assert.Contains(t, last.Badges, compare.Badge("OUT_OF_STOCK"))
	assert.InDelta(t, 5.00, last.PriceDelta, 0.001)
}

func TestReadsOverrideStaleDenormalizedBest(t *testing.T) {
	env := newTestEnv()

	// Stored directly, bypassing the write-path recompute: the
	// denormalized columns contradict the offers.
	stale := sampleProduct()
	stale.BestPrice = 9999
	stale.BestPlatform = "shein"
	stale.DiscountPercent = 1
	env.store.products[stale.ID] = stale

	w := doGET(t, env, "/products/prd_wireless")
	require.Equal(t, http.StatusOK, w.Code)

	var detail struct {
		Product    ProductResponse    `json:"product"`
		Comparison ComparisonResponse `json:"comparison"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))

	assert.InDelta(t, 12.99, detail.Product.BestPrice, 0.001)
	assert.Equal(t, "aliexpress", detail.Product.BestPlatform)
	assert.Equal(t, 50, detail.Product.DiscountPercent)
	assert.InDelta(t, detail.Comparison.BestPrice, detail.Product.BestPrice, 0.001)

	w = doGET(t, env, "/products")
	require.Equal(t, http.StatusOK, w.Code)

	var list ListProductsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Products, 1)
	assert.InDelta(t, 12.99, list.Products[0].BestPrice, 0.001)
	assert.Equal(t, "aliexpress", list.Products[0].BestPlatform)
}

func TestGetProductLocalizedName(t *testing.T) {
	env := newTestEnv()
	env.addProduct(sampleProduct())

	w := doGET(t, env, "/products/prd_wireless?lang=de")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Product ProductResponse `json:"product"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Kabellose Ohrhörer", resp.Product.Name)
}

func TestGetProductNotFound(t *testing.T) {
	env := newTestEnv()
	w := doGET(t, env, "/products/prd_missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCategories(t *testing.T) {
	env := newTestEnv()
	env.store.categories = []catalog.Category{
		{Name: "Electronics", Slug: "electronics", Count: 12},
		{Name: "Home", Slug: "home", Count: 4},
	}

	w := doGET(t, env, "/categories")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Categories []catalog.Category `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Categories, 2)
	assert.Equal(t, "electronics", resp.Categories[0].Slug)
}

func TestHealth(t *testing.T) {
	env := newTestEnv()
	w := doGET(t, env, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"connected"`)
}
