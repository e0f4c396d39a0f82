package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/globaldeals/catalog-service/internal/catalog"
	"github.com/globaldeals/catalog-service/internal/platform"
)

// SiteSettings returns the storefront branding for the frontend.
// GET /site-settings
func (h *Handlers) SiteSettings(c *gin.Context) {
	settings, err := h.settings.SiteSettings(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load site settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load site settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// GetAdminSettings returns the affiliate configuration.
// GET /admin/settings
func (h *Handlers) GetAdminSettings(c *gin.Context) {
	settings, err := h.settings.AffiliateSettings(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load affiliate settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// PutAdminSettings replaces the affiliate configuration.
// PUT /admin/settings
func (h *Handlers) PutAdminSettings(c *gin.Context) {
	var settings catalog.AffiliateSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	normalized := make(map[string]string, len(settings.Tags))
	for slug, tag := range settings.Tags {
		slug = platform.Normalize(slug)
		if !platform.IsValid(slug) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown platform: " + slug})
			return
		}
		normalized[slug] = strings.TrimSpace(tag)
	}
	settings.Tags = normalized

	if err := h.settings.SaveAffiliateSettings(c.Request.Context(), settings); err != nil {
		h.logger.Error().Err(err).Msg("Failed to save affiliate settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// PutSiteSettings replaces the storefront branding.
// PUT /admin/site-settings
func (h *Handlers) PutSiteSettings(c *gin.Context) {
	var settings catalog.SiteSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(settings.SiteName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "site_name is required"})
		return
	}

	if err := h.settings.SaveSiteSettings(c.Request.Context(), settings); err != nil {
		h.logger.Error().Err(err).Msg("Failed to save site settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save site settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}
