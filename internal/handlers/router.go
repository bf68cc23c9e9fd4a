package handlers

import (
	"net/http"

	"fortmix-erp/internal/auth"
	"fortmix-erp/internal/middleware"
	"fortmix-erp/internal/models"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the public and protected API on r.
func RegisterRoutes(r *gin.Engine, h *Handler, tokens *auth.TokenManager) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "online"}) })
	r.POST("/api/auth/login", h.Login)

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(tokens))
	{
		// EVERY ROLE
		api.GET("/auth/me", h.Me)
		api.GET("/dashboard/stats", h.GetDashboardStats)
		api.GET("/products", h.GetProducts)
		api.GET("/products/critical", h.GetCriticalProducts)
		api.POST("/sales", h.CreateSale)
		api.GET("/stock/movements", h.ListStockMovements)
		api.GET("/reports/sales", h.GetSalesReport)

		// BACK OFFICE (everyone but the till)
		stock := api.Group("/")
		stock.Use(middleware.RequireRole(models.RoleOwner, models.RoleManager, models.RoleStockClerk))
		{
			stock.POST("/products", h.AddProduct)
			stock.PUT("/products/:id", h.UpdateProduct)
			stock.POST("/stock/movements", h.CreateStockMovement)
		}

		// MANAGEMENT
		managers := api.Group("/")
		managers.Use(middleware.RequireRole(models.RoleOwner, models.RoleManager))
		{
			managers.GET("/reports/sales/export", h.ExportSalesReport)
			managers.POST("/assistant/ask", h.AskAI)
		}

		// OWNER ONLY
		owner := api.Group("/")
		owner.Use(middleware.RequireRole(models.RoleOwner))
		{
			owner.GET("/audit", h.ListAuditLogs)
			owner.GET("/users", h.ListUsers)
			owner.POST("/users", h.CreateUser)
			owner.PUT("/users/:id", h.UpdateUser)
		}
	}
}
