package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const auditLimit = 200

func (h *Handler) ListAuditLogs(c *gin.Context) {
	r, ok := h.rangeOrAbort(c)
	if !ok {
		return
	}

	logs, err := h.store.ListAuditLogs(c.Request.Context(), r, auditLimit)
	if err != nil {
		respondError(c, err, "Failed to fetch audit log")
		return
	}
	c.JSON(http.StatusOK, logs)
}
