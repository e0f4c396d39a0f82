package handlers

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/globaldeals/catalog-service/internal/database"
	"github.com/globaldeals/catalog-service/internal/platform"
)

// maxFeedUploadSize bounds uploaded feed files.
const maxFeedUploadSize = 50 << 20 // 50 MB

// Stats returns catalog counts for the admin dashboard.
// GET /admin/stats
func (h *Handlers) Stats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to compute stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// DeleteProduct removes a product from the catalog.
// DELETE /admin/products/:id
func (h *Handlers) DeleteProduct(c *gin.Context) {
	id := c.Param("id")

	if err := h.store.DeleteProduct(c.Request.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to delete product")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete product"})
		return
	}

	h.logger.Info().Str("id", id).Msg("Product deleted")
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ImportFeed imports a feed file for one platform. The file arrives
// either as a multipart upload (field "file") or as a remote URL
// (form field "url") the service downloads itself.
// POST /admin/feeds/import
func (h *Handlers) ImportFeed(c *gin.Context) {
	platformSlug := platform.Normalize(c.PostForm("platform"))
	if !platform.IsValid(platformSlug) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown platform: " + platformSlug})
		return
	}

	filename, content, err := h.readFeedPayload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.importer.Import(c.Request.Context(), platformSlug, filename, content)
	if err != nil {
		h.logger.Error().Err(err).Str("platform", platformSlug).Str("filename", filename).Msg("Feed import failed")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// readFeedPayload extracts the feed bytes from the request, preferring a
// multipart upload over a remote URL.
func (h *Handlers) readFeedPayload(c *gin.Context) (string, []byte, error) {
	if file, err := c.FormFile("file"); err == nil {
		if file.Size > maxFeedUploadSize {
			return "", nil, errors.New("file exceeds the 50 MB upload limit")
		}
		reader, err := file.Open()
		if err != nil {
			return "", nil, err
		}
		defer reader.Close()
		content, err := io.ReadAll(io.LimitReader(reader, maxFeedUploadSize))
		if err != nil {
			return "", nil, err
		}
		return path.Base(file.Filename), content, nil
	}

	feedURL := c.PostForm("url")
	if feedURL == "" {
		return "", nil, errors.New("either a file upload or a url is required")
	}
	if h.fetcher == nil {
		return "", nil, errors.New("url imports are not enabled")
	}
	content, err := h.fetcher.GetBytes(c.Request.Context(), feedURL)
	if err != nil {
		return "", nil, err
	}
	return path.Base(feedURL), content, nil
}

// ListFeedRuns returns the import history, newest first.
// GET /admin/feeds/runs?limit=
func (h *Handlers) ListFeedRuns(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = parsed
	}

	runs, err := h.runs.ListFeedRuns(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list feed runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list feed runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GetFeedRun returns one import run by ID.
// GET /admin/feeds/runs/:id
func (h *Handlers) GetFeedRun(c *gin.Context) {
	run, err := h.runs.GetFeedRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "feed run not found"})
			return
		}
		h.logger.Error().Err(err).Msg("Failed to get feed run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get feed run"})
		return
	}
	c.JSON(http.StatusOK, run)
}
