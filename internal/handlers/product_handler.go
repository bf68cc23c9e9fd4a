package handlers

import (
	"net/http"
	"strings"

	"fortmix-erp/internal/middleware"
	"fortmix-erp/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProductRequest is the editable part of a product.
type ProductRequest struct {
	Code          string          `json:"code" binding:"required,max=50"`
	Name          string          `json:"name" binding:"required,max=200"`
	Category      string          `json:"category" binding:"max=100"`
	Price         decimal.Decimal `json:"price"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	StockQuantity int             `json:"stock_quantity" binding:"min=0"`
	MinStock      int             `json:"min_stock" binding:"min=0"`
	Unit          string          `json:"unit" binding:"max=20"`
}

func (r ProductRequest) valid() bool {
	return !r.Price.IsNegative() && !r.CostPrice.IsNegative()
}

func (r ProductRequest) toModel() *models.Product {
	unit := strings.TrimSpace(r.Unit)
	if unit == "" {
		unit = "un"
	}
	return &models.Product{
		Code:          strings.TrimSpace(r.Code),
		Name:          strings.TrimSpace(r.Name),
		Category:      strings.TrimSpace(r.Category),
		Price:         r.Price.Round(2),
		CostPrice:     r.CostPrice.Round(2),
		StockQuantity: r.StockQuantity,
		MinStock:      r.MinStock,
		Unit:          unit,
	}
}

// --- GET: List all products ---
func (h *Handler) GetProducts(c *gin.Context) {
	products, err := h.store.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch products")
		return
	}
	c.JSON(http.StatusOK, products)
}

// --- GET: Products at or under their minimum stock ---
func (h *Handler) GetCriticalProducts(c *gin.Context) {
	products, err := h.store.ListCriticalProducts(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch products")
		return
	}
	c.JSON(http.StatusOK, products)
}

// --- POST: Add a new product ---
func (h *Handler) AddProduct(c *gin.Context) {
	var req ProductRequest

	// 1. Parse JSON Input
	if err := c.ShouldBindJSON(&req); err != nil || !req.valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	// 2. Save to DB (audit and initial stock movement included)
	userID, _ := middleware.CurrentUser(c)
	product := req.toModel()
	if err := h.store.CreateProduct(c.Request.Context(), userID, product); err != nil {
		respondError(c, err, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": product.ID})
}

// --- PUT: Update catalog fields ---
// Stock is not touched here, it moves through /api/stock/movements.
func (h *Handler) UpdateProduct(c *gin.Context) {
	// 1. Get ID from URL (e.g., /products/5)
	id, ok := parseID(c)
	if !ok {
		return
	}

	// 2. Parse the new field values
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	// 3. Save updates
	userID, _ := middleware.CurrentUser(c)
	product := req.toModel()
	product.ID = id
	if err := h.store.UpdateProduct(c.Request.Context(), userID, product); err != nil {
		respondError(c, err, "Failed to update product")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
