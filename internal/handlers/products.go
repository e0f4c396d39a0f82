package handlers

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/globaldeals/catalog-service/internal/catalog"
	"github.com/globaldeals/catalog-service/internal/compare"
	"github.com/globaldeals/catalog-service/internal/database"
	"github.com/globaldeals/catalog-service/internal/platform"
	"github.com/globaldeals/catalog-service/internal/telemetry"
)

// ListProductsRequest represents query parameters for the product listing
type ListProductsRequest struct {
	Category string   `form:"category"`
	Search   string   `form:"search"`
	Platform string   `form:"platform"`
	MinPrice *float64 `form:"min_price" binding:"omitempty,min=0"`
	MaxPrice *float64 `form:"max_price" binding:"omitempty,min=0"`
	Sort     string   `form:"sort"`
	Lang     string   `form:"lang"`
	Limit    int      `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset   int      `form:"offset" binding:"omitempty,min=0"`
}

// OfferResponse is one platform offer with prices in major units.
type OfferResponse struct {
	Platform      string        `json:"platform"`
	PlatformInfo  platform.Info `json:"platform_info"`
	Price         float64       `json:"price"`
	OriginalPrice *float64      `json:"original_price,omitempty"`
	InStock       bool          `json:"in_stock"`
	URL           string        `json:"url,omitempty"`
}

// ProductResponse is the API shape of one product.
type ProductResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Image           string          `json:"image,omitempty"`
	Images          []string        `json:"images,omitempty"`
	Category        string          `json:"category"`
	CategorySlug    string          `json:"category_slug"`
	Prices          []OfferResponse `json:"prices"`
	BestPrice       float64         `json:"best_price"`
	BestPlatform    string          `json:"best_platform,omitempty"`
	DiscountPercent int             `json:"discount_percent,omitempty"`
	UpdatedAt       string          `json:"updated_at"`
}

// ListProductsResponse is the listing envelope.
type ListProductsResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// ListProducts returns a filtered page of products
// GET /products?category=&search=&platform=&min_price=&max_price=&sort=&lang=&limit=&offset=
func (h *Handlers) ListProducts(c *gin.Context) {
	var req ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Platform != "" && !platform.IsValid(req.Platform) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown platform: " + req.Platform})
		return
	}

	filter := database.ProductFilter{
		CategorySlug: req.Category,
		Search:       req.Search,
		Platform:     platform.Normalize(req.Platform),
		Sort:         req.Sort,
		Limit:        req.Limit,
		Offset:       req.Offset,
	}
	if req.MinPrice != nil {
		filter.MinPrice = centsPtr(*req.MinPrice)
	}
	if req.MaxPrice != nil {
		filter.MaxPrice = centsPtr(*req.MaxPrice)
	}

	products, total, err := h.store.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list products")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}

	resp := ListProductsResponse{
		Products: make([]ProductResponse, 0, len(products)),
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}
	if resp.Limit <= 0 || resp.Limit > 100 {
		resp.Limit = 50
	}
	for i := range products {
		// The local recomputation is authoritative over the stored
		// denormalized columns.
		products[i].RecomputeBest()
		resp.Products = append(resp.Products, productResponse(&products[i], req.Lang))
	}

	c.JSON(http.StatusOK, resp)
}

// GetProduct returns one product with its comparison view model
// GET /products/:id?lang=
func (h *Handlers) GetProduct(c *gin.Context) {
	id := c.Param("id")

	product, err := h.store.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to get product")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get product"})
		return
	}

	// Rederive the denormalized fields so the product block can never
	// contradict the comparison built from the same offers.
	product.RecomputeBest()

	view := compare.BuildView(compare.Rank(product.Offers))
	telemetry.RecordComparison(view.OfferCount)

	c.JSON(http.StatusOK, gin.H{
		"product":    productResponse(product, c.Query("lang")),
		"comparison": comparisonResponse(view),
	})
}

// Categories returns the distinct categories with product counts
// GET /categories
func (h *Handlers) Categories(c *gin.Context) {
	categories, err := h.store.Categories(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list categories")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// ComparisonOfferResponse is one ranked offer annotated for rendering.
type ComparisonOfferResponse struct {
	OfferResponse
	Rank            int             `json:"rank"`
	IsBest          bool            `json:"is_best"`
	PriceDelta      float64         `json:"price_delta"`
	DiscountPercent int             `json:"discount_percent"`
	PositionOnScale float64         `json:"position_on_scale"`
	Badges          []compare.Badge `json:"badges"`
}

// ComparisonResponse is the comparison block of the product detail.
type ComparisonResponse struct {
	Offers        []ComparisonOfferResponse `json:"offers"`
	OfferCount    int                       `json:"offer_count"`
	MaxSavings    float64                   `json:"max_savings"`
	HasAnyInStock bool                      `json:"has_any_in_stock"`
	BestPlatform  string                    `json:"best_platform,omitempty"`
	BestPrice     float64                   `json:"best_price,omitempty"`
}

func comparisonResponse(view compare.ViewModel) ComparisonResponse {
	resp := ComparisonResponse{
		Offers:        make([]ComparisonOfferResponse, 0, len(view.Offers)),
		OfferCount:    view.OfferCount,
		MaxSavings:    decimal(view.MaxSavings),
		HasAnyInStock: view.HasAnyInStock,
		BestPlatform:  view.BestPlatform,
		BestPrice:     decimal(view.BestPrice),
	}
	for _, offer := range view.Offers {
		resp.Offers = append(resp.Offers, ComparisonOfferResponse{
			OfferResponse:   offerResponse(offer.Offer),
			Rank:            offer.Rank,
			IsBest:          offer.IsBest,
			PriceDelta:      decimal(offer.PriceDelta),
			DiscountPercent: offer.DiscountPercent,
			PositionOnScale: offer.PositionOnScale,
			Badges:          offer.Badges,
		})
	}
	return resp
}

func productResponse(p *catalog.Product, lang string) ProductResponse {
	resp := ProductResponse{
		ID:              p.ID,
		Name:            p.LocalizedName(lang),
		Description:     p.Description,
		Image:           p.Image,
		Images:          p.Images,
		Category:        p.Category,
		CategorySlug:    p.CategorySlug,
		Prices:          make([]OfferResponse, 0, len(p.Offers)),
		BestPrice:       decimal(p.BestPrice),
		BestPlatform:    p.BestPlatform,
		DiscountPercent: p.DiscountPercent,
		UpdatedAt:       p.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	for _, offer := range p.Offers {
		resp.Prices = append(resp.Prices, offerResponse(offer))
	}
	return resp
}

func offerResponse(o compare.Offer) OfferResponse {
	resp := OfferResponse{
		Platform:     o.Platform,
		PlatformInfo: platform.InfoFor(o.Platform),
		Price:        decimal(o.Price),
		InStock:      o.InStock,
		URL:          o.OfferURL,
	}
	if o.OriginalPrice != nil {
		orig := decimal(*o.OriginalPrice)
		resp.OriginalPrice = &orig
	}
	return resp
}

// decimal converts cents to major units for the API.
func decimal(cents int64) float64 {
	return float64(cents) / 100.0
}

func centsPtr(major float64) *int64 {
	cents := int64(math.Round(major * 100))
	return &cents
}
