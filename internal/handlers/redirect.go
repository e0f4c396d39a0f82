package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/globaldeals/catalog-service/internal/catalog"
	"github.com/globaldeals/catalog-service/internal/database"
	"github.com/globaldeals/catalog-service/internal/platform"
)

// Redirect sends the visitor to the platform's offer page.
// GET /redirect/:productId/:platform
//
// Validation happens before any storage access: an unknown platform or a
// blank product id is a 400. A product without a stored offer URL for the
// platform is a 404. Everything else is a 302 to the affiliate URL with
// the configured tracking tag appended.
func (h *Handlers) Redirect(c *gin.Context) {
	productID := strings.TrimSpace(c.Param("productId"))
	platformSlug := platform.Normalize(c.Param("platform"))

	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product id is required"})
		return
	}
	if !platform.IsValid(platformSlug) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown platform: " + platformSlug})
		return
	}

	product, err := h.store.GetProduct(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.logger.Error().Err(err).Str("id", productID).Msg("Failed to resolve redirect")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve redirect"})
		return
	}

	target := ""
	for _, offer := range product.Offers {
		if offer.Platform == platformSlug {
			target = offer.OfferURL
			break
		}
	}
	if target == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no offer url for platform " + platformSlug})
		return
	}

	affiliate, err := h.settings.AffiliateSettings(c.Request.Context())
	if err != nil {
		// A broken settings read should not break outbound clicks.
		h.logger.Warn().Err(err).Msg("Failed to load affiliate settings, redirecting untagged")
		affiliate = catalog.AffiliateSettings{}
	}

	c.Redirect(http.StatusFound, appendAffiliateTag(target, platformSlug, affiliate))
}

// appendAffiliateTag adds the platform's tracking tag as a query
// parameter. A missing tag or an unparseable URL leaves the target
// untouched.
func appendAffiliateTag(target, platformSlug string, settings catalog.AffiliateSettings) string {
	tag := settings.Tags[platformSlug]
	if tag == "" {
		return target
	}
	param := settings.TrackingParam
	if param == "" {
		param = "aff_id"
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return target
	}
	query := parsed.Query()
	query.Set(param, tag)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
