package handlers

import (
	"fmt"
	"net/http"
	"time"

	"fortmix-erp/internal/export"

	"github.com/gin-gonic/gin"
)

// --- GET: /api/reports/sales ---
func (h *Handler) GetSalesReport(c *gin.Context) {
	r, ok := h.rangeOrAbort(c)
	if !ok {
		return
	}

	report, err := h.store.SalesReport(c.Request.Context(), r)
	if err != nil {
		respondError(c, err, "Failed to build report")
		return
	}
	c.JSON(http.StatusOK, report)
}

// --- GET: /api/reports/sales/export ---
// Same data as GetSalesReport, as a spreadsheet download.
func (h *Handler) ExportSalesReport(c *gin.Context) {
	r, ok := h.rangeOrAbort(c)
	if !ok {
		return
	}

	// 1. Build the report
	report, err := h.store.SalesReport(c.Request.Context(), r)
	if err != nil {
		respondError(c, err, "Failed to build report")
		return
	}

	// 2. Render it
	buf, err := export.SalesReportXLSX(report)
	if err != nil {
		respondError(c, err, "Failed to export report")
		return
	}

	// 3. Send as attachment
	filename := fmt.Sprintf("sales-report-%s.xlsx", time.Now().In(h.loc).Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}
