package handler

import (
	"net/http"

	"github.com/asadsehto/CareToShare/internal/service"

	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	search *service.SearchService
	stats  *service.StatsService
}

func NewSearchHandler() *SearchHandler {
	return &SearchHandler{
		search: service.NewSearchService(),
		stats:  service.NewStatsService(),
	}
}

// Search ?q=&type=files|users|all
func (h *SearchHandler) Search(c *gin.Context) {
	result, err := h.search.Search(c.Request.Context(), c.Query("q"), c.DefaultQuery("type", "all"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// Stats 平台聚合数字
func (h *SearchHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Platform(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, stats)
}
