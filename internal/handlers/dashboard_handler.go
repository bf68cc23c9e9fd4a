package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// --- GET: /api/dashboard/stats ---
func (h *Handler) GetDashboardStats(c *gin.Context) {
	r, ok := h.rangeOrAbort(c)
	if !ok {
		return
	}

	stats, err := h.store.DashboardStats(c.Request.Context(), r)
	if err != nil {
		respondError(c, err, "Failed to load dashboard")
		return
	}
	c.JSON(http.StatusOK, stats)
}
