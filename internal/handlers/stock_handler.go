package handlers

import (
	"net/http"
	"strings"

	"fortmix-erp/internal/middleware"
	"fortmix-erp/internal/models"
	"fortmix-erp/internal/store"

	"github.com/gin-gonic/gin"
)

const movementsLimit = 100

type MovementRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Type      string `json:"type" binding:"required,oneof=IN ADJ"`
	Quantity  int    `json:"quantity" binding:"required"`
	Reason    string `json:"reason" binding:"max=255"`
}

func (h *Handler) ListStockMovements(c *gin.Context) {
	r, ok := h.rangeOrAbort(c)
	if !ok {
		return
	}

	movements, err := h.store.ListStockMovements(c.Request.Context(), r, movementsLimit)
	if err != nil {
		respondError(c, err, "Failed to fetch stock movements")
		return
	}
	c.JSON(http.StatusOK, movements)
}

// CreateStockMovement records a delivery (IN) or a manual correction (ADJ).
func (h *Handler) CreateStockMovement(c *gin.Context) {
	var req MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	userID, _ := middleware.CurrentUser(c)
	movement, err := h.store.RecordStockMovement(c.Request.Context(), store.MovementInput{
		UserID:    userID,
		ProductID: req.ProductID,
		Type:      models.MovementType(req.Type),
		Quantity:  req.Quantity,
		Reason:    strings.TrimSpace(req.Reason),
	})
	if err != nil {
		respondError(c, err, "Failed to record stock movement")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": movement.ID})
}
