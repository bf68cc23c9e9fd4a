package handlers

import (
	"errors"
	"log"
	"net/http"

	"fortmix-erp/internal/middleware"
	"fortmix-erp/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CartItem is one line of the point-of-sale cart.
type CartItem struct {
	ProductID uint            `json:"id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
	Price     decimal.Decimal `json:"price"`
}

type SaleRequest struct {
	Items         []CartItem      `json:"items" binding:"required,min=1,dive"`
	PaymentMethod string          `json:"payment_method" binding:"required,max=30"`
	Total         decimal.Decimal `json:"total"`
}

// --- POST: /api/sales ---
func (h *Handler) CreateSale(c *gin.Context) {
	var req SaleRequest

	// 1. Validate the cart
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cart"})
		return
	}

	userID, _ := middleware.CurrentUser(c)
	in := store.SaleInput{
		UserID:        userID,
		Items:         make([]store.SaleLineInput, len(req.Items)),
		PaymentMethod: req.PaymentMethod,
		Total:         req.Total,
	}
	for i, item := range req.Items {
		in.Items[i] = store.SaleLineInput{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price}
	}

	// 2. Record header, items, stock and audit in one transaction
	sale, err := h.store.RecordSale(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidInput),
			errors.Is(err, store.ErrTotalMismatch),
			errors.Is(err, store.ErrInsufficientStock):
			respondError(c, err, "")
		default:
			log.Printf("❌ sale by user %d failed: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process sale"})
		}
		return
	}

	log.Printf("🧾 Sale #%d recorded: %s via %s", sale.ID, sale.Total.StringFixed(2), sale.PaymentMethod)
	c.JSON(http.StatusCreated, gin.H{"id": sale.ID})
}
