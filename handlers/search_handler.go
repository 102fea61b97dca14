package handlers

import (
	"errors"
	"net/http"

	"lexai-backend/logger"
	"lexai-backend/service"

	"github.com/gin-gonic/gin"
)

// SearchHandler handles similarity search requests
type SearchHandler struct {
	searchService *service.SearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// SearchRequest represents the request body for a search. A missing k uses the default.
type SearchRequest struct {
	Query string `json:"query"`
	K     *int   `json:"k"`
}

// Search handles POST /search
func (h *SearchHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	k := h.searchService.DefaultK()
	if req.K != nil {
		k = *req.K
	}

	result, err := h.searchService.Search(c.Request.Context(), service.SearchRequest{
		Query: req.Query,
		K:     k,
	})
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_REQUEST",
					"message": verr.Error(),
				},
			})
			return
		}

		logger.FromContext(c.Request.Context()).Error("Search failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SEARCH_FAILED",
				"message": "Search failed",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"results": result.Results,
		},
	})
}

// HealthCheck handles GET /health
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
