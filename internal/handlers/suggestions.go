package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/globaldeals/catalog-service/internal/suggest"
)

// SuggestionsResponse is the typeahead payload.
type SuggestionsResponse struct {
	Suggestions      []string `json:"suggestions"`
	DetectedCategory string   `json:"detected_category,omitempty"`
}

// Suggestions returns typeahead completions for a partial query.
// GET /products/search/suggestions?q=&limit=
//
// Requests are sequenced per client; when a newer request from the same
// client arrives while this one is querying, the stale response returns
// empty instead of out-of-date suggestions.
func (h *Handlers) Suggestions(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if len([]rune(query)) < suggest.MinQueryLength {
		c.JSON(http.StatusOK, SuggestionsResponse{Suggestions: []string{}})
		return
	}

	limit := 8
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 20 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 20"})
			return
		}
		limit = parsed
	}

	clientKey := c.ClientIP()
	seq := h.tracker.Begin(clientKey)

	names, category, err := h.store.Suggest(c.Request.Context(), query, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("query", query).Msg("Failed to fetch suggestions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch suggestions"})
		return
	}

	if !h.tracker.IsCurrent(clientKey, seq) {
		// Superseded by a newer keystroke from the same client.
		c.JSON(http.StatusOK, SuggestionsResponse{Suggestions: []string{}})
		return
	}

	c.JSON(http.StatusOK, SuggestionsResponse{
		Suggestions:      names,
		DetectedCategory: category,
	})
}
